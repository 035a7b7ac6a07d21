// Package config handles configuration loading for finchart.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Data    DataConfig    `mapstructure:"data"    yaml:"data"`
	Charts  ChartsConfig  `mapstructure:"charts"  yaml:"charts"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// DataConfig selects and tunes the market data source.
type DataConfig struct {
	Provider          string  `mapstructure:"provider"            yaml:"provider"` // "yfinance" or "csv"
	ChartURL          string  `mapstructure:"chart_url"           yaml:"chart_url"`
	TimeseriesURL     string  `mapstructure:"timeseries_url"      yaml:"timeseries_url"`
	QuotePageURL      string  `mapstructure:"quote_page_url"      yaml:"quote_page_url"`
	TimeoutSec        int     `mapstructure:"timeout_sec"         yaml:"timeout_sec"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	CSVDir            string  `mapstructure:"csv_dir"             yaml:"csv_dir"`
}

// ChartsConfig holds rendering defaults.
type ChartsConfig struct {
	OutputDir       string  `mapstructure:"output_dir"       yaml:"output_dir"`
	Width           int     `mapstructure:"width"            yaml:"width"`
	Height          int     `mapstructure:"height"           yaml:"height"`
	DPI             float64 `mapstructure:"dpi"              yaml:"dpi"`
	Style           string  `mapstructure:"style"            yaml:"style"`
	ChartType       string  `mapstructure:"chart_type"       yaml:"chart_type"`
	BenchmarkSymbol string  `mapstructure:"benchmark_symbol" yaml:"benchmark_symbol"`
	BenchmarkName   string  `mapstructure:"benchmark_name"   yaml:"benchmark_name"`
	LookbackYears   int     `mapstructure:"lookback_years"   yaml:"lookback_years"`
	RenkoATRLength  int     `mapstructure:"renko_atr_length" yaml:"renko_atr_length"`
	PnFReversal     int     `mapstructure:"pnf_reversal"     yaml:"pnf_reversal"`
}

// APIConfig holds HTTP server settings for the serve command.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml
//  2. ~/.finchart/config.yaml
//  3. /etc/finchart/config.yaml
//
// Environment variables override config file values.
// Format: FINCHART_<SECTION>_<KEY>, e.g., FINCHART_CHARTS_STYLE
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".finchart"))
	v.AddConfigPath("/etc/finchart")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("FINCHART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("data.provider", "yfinance")
	v.SetDefault("data.chart_url", "https://query1.finance.yahoo.com/v8/finance/chart")
	v.SetDefault("data.timeseries_url", "https://query2.finance.yahoo.com/ws/fundamentals-timeseries/v1/finance/timeseries")
	v.SetDefault("data.quote_page_url", "https://finance.yahoo.com/quote")
	v.SetDefault("data.timeout_sec", 30)
	v.SetDefault("data.requests_per_second", 5.0)
	v.SetDefault("data.csv_dir", "./data")

	v.SetDefault("charts.output_dir", ".")
	v.SetDefault("charts.width", 1200)
	v.SetDefault("charts.height", 700)
	v.SetDefault("charts.dpi", 96.0)
	v.SetDefault("charts.style", "default")
	v.SetDefault("charts.chart_type", "candle")
	v.SetDefault("charts.benchmark_symbol", "^GSPC")
	v.SetDefault("charts.benchmark_name", "S&P 500")
	v.SetDefault("charts.lookback_years", 4)
	v.SetDefault("charts.renko_atr_length", 14)
	v.SetDefault("charts.pnf_reversal", 3)

	v.SetDefault("api.host", "127.0.0.1")
	v.SetDefault("api.port", 8080)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate rejects values the renderers cannot work with.
func (c *Config) Validate() error {
	switch c.Data.Provider {
	case "yfinance", "csv":
	default:
		return fmt.Errorf("data.provider: unsupported provider %q", c.Data.Provider)
	}
	if c.Charts.Width < 200 || c.Charts.Height < 150 {
		return fmt.Errorf("charts: canvas %dx%d is too small", c.Charts.Width, c.Charts.Height)
	}
	if c.Charts.LookbackYears < 1 {
		return fmt.Errorf("charts.lookback_years must be >= 1, got %d", c.Charts.LookbackYears)
	}
	if c.Charts.PnFReversal < 1 {
		return fmt.Errorf("charts.pnf_reversal must be >= 1, got %d", c.Charts.PnFReversal)
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port out of range: %d", c.API.Port)
	}
	if c.Data.RequestsPerSecond <= 0 {
		return fmt.Errorf("data.requests_per_second must be positive")
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
