package api

import (
	"encoding/json"
	"net/http"

	"github.com/seenimoa/finchart/internal/chart"
	"github.com/seenimoa/finchart/internal/config"
)

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
type ConfigResponse struct {
	Provider string              `json:"provider"`
	Charts   config.ChartsConfig `json:"charts"`
}

// ChartsUpdate is the body for PUT /api/v1/config. Zero fields are left as is.
type ChartsUpdate struct {
	Style           string `json:"style,omitempty"`
	ChartType       string `json:"chart_type,omitempty"`
	Width           int    `json:"width,omitempty"`
	Height          int    `json:"height,omitempty"`
	BenchmarkSymbol string `json:"benchmark_symbol,omitempty"`
	BenchmarkName   string `json:"benchmark_name,omitempty"`
	LookbackYears   int    `json:"lookback_years,omitempty"`
}

// handleGetConfig returns the running chart configuration.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := ConfigResponse{Provider: s.cfg.Data.Provider, Charts: s.cfg.Charts}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: resp})
}

// handleUpdateConfig merges chart defaults into the running config. Changes
// are not persisted.
func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var incoming ChartsUpdate
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if incoming.Style != "" {
		if _, err := chart.LookupPalette(incoming.Style); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if incoming.ChartType != "" {
		if _, err := chart.ParseChartType(incoming.ChartType); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := *s.cfg
	mergeCharts(&next.Charts, incoming)
	if err := next.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	*s.cfg = next

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    ConfigResponse{Provider: s.cfg.Data.Provider, Charts: s.cfg.Charts},
	})
}

// mergeCharts copies non-zero values from src into dst.
func mergeCharts(dst *config.ChartsConfig, src ChartsUpdate) {
	if src.Style != "" {
		dst.Style = src.Style
	}
	if src.ChartType != "" {
		dst.ChartType = src.ChartType
	}
	if src.Width != 0 {
		dst.Width = src.Width
	}
	if src.Height != 0 {
		dst.Height = src.Height
	}
	if src.BenchmarkSymbol != "" {
		dst.BenchmarkSymbol = src.BenchmarkSymbol
	}
	if src.BenchmarkName != "" {
		dst.BenchmarkName = src.BenchmarkName
	}
	if src.LookbackYears != 0 {
		dst.LookbackYears = src.LookbackYears
	}
}
