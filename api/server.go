// Package api provides the HTTP API server for finchart.
//
// It exposes the three chart renderers as JSON endpoints and serves the
// rendered images from the configured output directory.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/seenimoa/finchart/internal/chart"
	"github.com/seenimoa/finchart/internal/config"
	"github.com/seenimoa/finchart/internal/datasource"
	"github.com/seenimoa/finchart/pkg/models"
	"github.com/seenimoa/finchart/pkg/utils"
)

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	source datasource.DataSource
	log    zerolog.Logger

	mu  sync.RWMutex // guards cfg
	cfg *config.Config
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, src datasource.DataSource, log zerolog.Logger) *Server {
	srv := &Server{
		cfg:    cfg,
		source: src,
		log:    log.With().Str("component", "api").Logger(),
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/options", s.handleOptions)

		// Charts
		r.Post("/charts/price", s.handlePriceChart)
		r.Post("/charts/performance", s.handlePerformanceChart)
		r.Post("/charts/pe", s.handlePEChart)
		r.Get("/charts/{name}", s.handleChartImage)

		// Configuration
		r.Get("/config", s.handleGetConfig)
		r.Put("/config", s.handleUpdateConfig)
	})

	return r
}

// requestLogger logs one line per request through zerolog.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// PriceChartRequest is the body for POST /api/v1/charts/price.
type PriceChartRequest struct {
	Symbol             string `json:"symbol"`
	Start              string `json:"start,omitempty"` // YYYY-MM-DD
	End                string `json:"end,omitempty"`   // YYYY-MM-DD, default today
	ChartType          string `json:"chart_type,omitempty"`
	Style              string `json:"style,omitempty"`
	MovingAverages     []int  `json:"mav,omitempty"`
	ShowNonTradingDays bool   `json:"show_nontrading,omitempty"`
}

// PerformanceChartRequest is the body for POST /api/v1/charts/performance.
type PerformanceChartRequest struct {
	Symbol string `json:"symbol"`
	Date   string `json:"date,omitempty"` // as-of, YYYY-MM-DD
}

// PEChartRequest is the body for POST /api/v1/charts/pe.
type PEChartRequest struct {
	Symbol string `json:"symbol"`
	Date   string `json:"date,omitempty"` // as-of, YYYY-MM-DD
	Years  int    `json:"years,omitempty"`
}

// ChartResponse describes a rendered chart.
type ChartResponse struct {
	FilePath    string `json:"file_path"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// OptionsResponse lists the accepted chart types and styles.
type OptionsResponse struct {
	ChartTypes []string `json:"chart_types"`
	Styles     []string `json:"styles"`
	Benchmark  string   `json:"benchmark"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":      "ok",
			"version":     "dev",
			"data_source": s.source.Name(),
			"time":        time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	charts := s.charts()
	types := make([]string, len(chart.ChartTypes))
	for i, t := range chart.ChartTypes {
		types[i] = string(t)
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: OptionsResponse{
			ChartTypes: types,
			Styles:     chart.StyleNames(),
			Benchmark:  fmt.Sprintf("%s (%s)", charts.BenchmarkName, charts.BenchmarkSymbol),
		},
	})
}

func (s *Server) handlePriceChart(w http.ResponseWriter, r *http.Request) {
	var req PriceChartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	start, err := optionalDate("start", req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := optionalDate("end", req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.render(w, func(canvas *chart.Canvas, charts config.ChartsConfig) (*models.ChartArtifact, error) {
		chartType := req.ChartType
		if chartType == "" {
			chartType = charts.ChartType
		}
		if chartType == "" {
			chartType = string(chart.Candle)
		}
		kind, err := chart.ParseChartType(chartType)
		if err != nil {
			return nil, err
		}
		return chart.NewPriceRenderer(s.source, charts, s.log).Render(r.Context(), canvas, chart.PriceRequest{
			Symbol:             req.Symbol,
			Start:              start,
			End:                end,
			SavePath:           artifactPath(charts.OutputDir, req.Symbol, kind.DisplayName()+"_chart"),
			ChartType:          string(kind),
			Style:              req.Style,
			MovingAverages:     req.MovingAverages,
			ShowNonTradingDays: req.ShowNonTradingDays,
		})
	})
}

func (s *Server) handlePerformanceChart(w http.ResponseWriter, r *http.Request) {
	var req PerformanceChartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	asOf, err := optionalDate("date", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.render(w, func(canvas *chart.Canvas, charts config.ChartsConfig) (*models.ChartArtifact, error) {
		return chart.NewPerformanceRenderer(s.source, charts, s.log).Render(r.Context(), canvas, chart.PerformanceRequest{
			Symbol:   req.Symbol,
			AsOf:     asOf,
			SavePath: artifactPath(charts.OutputDir, req.Symbol, "performance"),
		})
	})
}

func (s *Server) handlePEChart(w http.ResponseWriter, r *http.Request) {
	var req PEChartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	asOf, err := optionalDate("date", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.render(w, func(canvas *chart.Canvas, charts config.ChartsConfig) (*models.ChartArtifact, error) {
		return chart.NewFundamentalsRenderer(s.source, charts, s.log).Render(r.Context(), canvas, chart.FundamentalsRequest{
			Symbol:        req.Symbol,
			AsOf:          asOf,
			LookbackYears: req.Years,
			SavePath:      artifactPath(charts.OutputDir, req.Symbol, "pe"),
		})
	})
}

// handleChartImage serves a rendered PNG from the output directory.
func (s *Server) handleChartImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" || filepath.Base(name) != name || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".png" {
		writeError(w, http.StatusBadRequest, "invalid chart name")
		return
	}

	path := filepath.Join(s.charts().OutputDir, name)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "chart not found")
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, path)
}

// render runs fn on a fresh canvas and writes the artifact or the mapped error.
func (s *Server) render(w http.ResponseWriter, fn func(*chart.Canvas, config.ChartsConfig) (*models.ChartArtifact, error)) {
	charts := s.charts()
	if err := os.MkdirAll(charts.OutputDir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, "output directory unavailable")
		return
	}

	canvas, err := chart.NewCanvas(chart.CanvasConfig{Width: charts.Width, Height: charts.Height, DPI: charts.DPI})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer canvas.Close()

	art, err := fn(canvas, charts)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ChartResponse{
			FilePath:    art.FilePath,
			Description: art.Description,
			URL:         "/api/v1/charts/" + filepath.Base(art.FilePath),
		},
	})
}

// artifactPath names a chart file unique to one request, so a later render
// never replaces an image an earlier response points at.
func artifactPath(dir, symbol, kind string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s_%s.png", utils.FileSafeTicker(symbol), kind, uuid.NewString()))
}

// charts returns a snapshot of the chart settings.
func (s *Server) charts() config.ChartsConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Charts
}

// statusFor maps renderer error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, chart.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, chart.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, chart.ErrDivisionByZero):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func optionalDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := utils.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", field, err)
	}
	return t, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
