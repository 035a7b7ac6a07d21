// finchart renders price, relative performance and P/E trend charts for a
// ticker from Yahoo Finance or local CSV data.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/finchart/api"
	"github.com/seenimoa/finchart/internal/chart"
	"github.com/seenimoa/finchart/internal/config"
	"github.com/seenimoa/finchart/internal/datasource"
	"github.com/seenimoa/finchart/internal/logger"
	"github.com/seenimoa/finchart/pkg/models"
	"github.com/seenimoa/finchart/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global state, set up in PersistentPreRunE.
var (
	cfg    *config.Config
	log    zerolog.Logger
	source datasource.DataSource
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "finchart",
	Short: "Render stock price, performance and P/E charts",
	Long: `finchart fetches daily prices and quarterly EPS for a ticker and renders
PNG charts: candlestick/OHLC/line/renko/point-and-figure price charts,
one-year performance against a benchmark index, and P/E ratio trends.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		log = logger.New(cfg.Logging)

		source, err = datasource.New(cfg.Data)
		if err != nil {
			return fmt.Errorf("failed to create data source: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(priceCmd)
	rootCmd.AddCommand(performanceCmd)
	rootCmd.AddCommand(peCmd)
	rootCmd.AddCommand(allCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
}

// newCanvas sizes a canvas from the charts config.
func newCanvas() (*chart.Canvas, error) {
	return chart.NewCanvas(chart.CanvasConfig{
		Width:  cfg.Charts.Width,
		Height: cfg.Charts.Height,
		DPI:    cfg.Charts.DPI,
	})
}

// dateFlag parses a YYYY-MM-DD flag. Empty means the zero time.
func dateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	s, _ := cmd.Flags().GetString(name)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := utils.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return t, nil
}

func printArtifact(cmd *cobra.Command, art *models.ChartArtifact) {
	fmt.Fprintln(cmd.OutOrStdout(), art.Description)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "finchart %s\n", version)
		fmt.Fprintf(out, "  commit:  %s\n", commit)
		fmt.Fprintf(out, "  built:   %s\n", date)
	},
}

// --- Price Command ---

var priceCmd = &cobra.Command{
	Use:   "price [ticker]",
	Short: "Render a price chart",
	Long: `Render OHLCV history as a price chart with volume.

Examples:
  finchart price AAPL --start 2024-03-01 --end 2024-04-01
  finchart price MSFT --type renko --style yahoo
  finchart price TSLA --mav 20,50 --out charts/`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := dateFlag(cmd, "start")
		if err != nil {
			return err
		}
		end, err := dateFlag(cmd, "end")
		if err != nil {
			return err
		}
		chartType, _ := cmd.Flags().GetString("type")
		style, _ := cmd.Flags().GetString("style")
		mav, _ := cmd.Flags().GetIntSlice("mav")
		nonTrading, _ := cmd.Flags().GetBool("show-nontrading")
		verbose, _ := cmd.Flags().GetBool("verbose")
		out, _ := cmd.Flags().GetString("out")

		canvas, err := newCanvas()
		if err != nil {
			return err
		}
		defer canvas.Close()

		r := chart.NewPriceRenderer(source, cfg.Charts, log)
		r.SetVerboseWriter(cmd.OutOrStdout())
		art, err := r.Render(cmd.Context(), canvas, chart.PriceRequest{
			Symbol:             args[0],
			Start:              start,
			End:                end,
			SavePath:           out,
			ChartType:          chartType,
			Style:              style,
			MovingAverages:     mav,
			ShowNonTradingDays: nonTrading,
			Verbose:            verbose,
		})
		if err != nil {
			return err
		}
		printArtifact(cmd, art)
		return nil
	},
}

func init() {
	priceCmd.Flags().String("start", "", "first date, YYYY-MM-DD (default: one year before --end)")
	priceCmd.Flags().String("end", "", "last date, YYYY-MM-DD (default: today)")
	priceCmd.Flags().String("type", "", "chart type: "+chartTypeList()+" (default from config)")
	priceCmd.Flags().String("style", "", "palette: "+strings.Join(chart.StyleNames(), ", ")+" (default from config)")
	priceCmd.Flags().IntSlice("mav", nil, "moving average windows, e.g. 20,50")
	priceCmd.Flags().Bool("show-nontrading", false, "space bars by calendar date instead of by trading day")
	priceCmd.Flags().Bool("verbose", false, "print the fetched table before rendering")
	priceCmd.Flags().String("out", "", "output file or existing directory (default: charts.output_dir)")
}

func chartTypeList() string {
	names := make([]string, len(chart.ChartTypes))
	for i, t := range chart.ChartTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// --- Performance Command ---

var performanceCmd = &cobra.Command{
	Use:   "performance [ticker]",
	Short: "Render one-year performance against the benchmark index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, err := dateFlag(cmd, "date")
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("out")

		canvas, err := newCanvas()
		if err != nil {
			return err
		}
		defer canvas.Close()

		art, err := chart.NewPerformanceRenderer(source, cfg.Charts, log).Render(cmd.Context(), canvas, chart.PerformanceRequest{
			Symbol:   args[0],
			AsOf:     asOf,
			SavePath: out,
		})
		if err != nil {
			return err
		}
		printArtifact(cmd, art)
		return nil
	},
}

func init() {
	performanceCmd.Flags().String("date", "", "as-of date, YYYY-MM-DD (default: today)")
	performanceCmd.Flags().String("out", "", "output file or existing directory (default: charts.output_dir)")
}

// --- P/E Command ---

var peCmd = &cobra.Command{
	Use:   "pe [ticker]",
	Short: "Render P/E ratios at each filing against the daily close",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, err := dateFlag(cmd, "date")
		if err != nil {
			return err
		}
		years, _ := cmd.Flags().GetInt("years")
		out, _ := cmd.Flags().GetString("out")

		canvas, err := newCanvas()
		if err != nil {
			return err
		}
		defer canvas.Close()

		art, err := chart.NewFundamentalsRenderer(source, cfg.Charts, log).Render(cmd.Context(), canvas, chart.FundamentalsRequest{
			Symbol:        args[0],
			AsOf:          asOf,
			LookbackYears: years,
			SavePath:      out,
		})
		if err != nil {
			return err
		}
		printArtifact(cmd, art)
		return nil
	},
}

func init() {
	peCmd.Flags().String("date", "", "as-of date, YYYY-MM-DD (default: today)")
	peCmd.Flags().Int("years", 0, "lookback in years (default: charts.lookback_years)")
	peCmd.Flags().String("out", "", "output file or existing directory (default: charts.output_dir)")
}

// --- All Command ---

var allCmd = &cobra.Command{
	Use:   "all [ticker]",
	Short: "Render the price, performance and P/E charts concurrently",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, err := dateFlag(cmd, "date")
		if err != nil {
			return err
		}
		dir, _ := cmd.Flags().GetString("out")
		if dir == "" {
			dir = cfg.Charts.OutputDir
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}

		// One canvas per renderer; canvases are never shared across goroutines.
		canvases := make([]*chart.Canvas, 3)
		for i := range canvases {
			if canvases[i], err = newCanvas(); err != nil {
				return err
			}
			defer canvases[i].Close()
		}

		arts := make([]*models.ChartArtifact, 3)
		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() (err error) {
			arts[0], err = chart.NewPriceRenderer(source, cfg.Charts, log).Render(ctx, canvases[0], chart.PriceRequest{
				Symbol: args[0], End: asOf, SavePath: dir,
			})
			return err
		})
		g.Go(func() (err error) {
			arts[1], err = chart.NewPerformanceRenderer(source, cfg.Charts, log).Render(ctx, canvases[1], chart.PerformanceRequest{
				Symbol: args[0], AsOf: asOf, SavePath: dir,
			})
			return err
		})
		g.Go(func() (err error) {
			arts[2], err = chart.NewFundamentalsRenderer(source, cfg.Charts, log).Render(ctx, canvases[2], chart.FundamentalsRequest{
				Symbol: args[0], AsOf: asOf, SavePath: dir,
			})
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		for _, art := range arts {
			printArtifact(cmd, art)
		}
		return nil
	},
}

func init() {
	allCmd.Flags().String("date", "", "as-of date, YYYY-MM-DD (default: today)")
	allCmd.Flags().String("out", "", "output directory (default: charts.output_dir)")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and available chart options",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintln(out, "  finchart Status")
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintf(out, "  Version:       %s (%s)\n", version, commit)
		fmt.Fprintf(out, "  Data source:   %s\n", source.Name())
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  Charts:")
		fmt.Fprintf(out, "    Output dir:    %s\n", cfg.Charts.OutputDir)
		fmt.Fprintf(out, "    Canvas:        %dx%d @ %.0f dpi\n", cfg.Charts.Width, cfg.Charts.Height, cfg.Charts.DPI)
		fmt.Fprintf(out, "    Default type:  %s\n", cfg.Charts.ChartType)
		fmt.Fprintf(out, "    Default style: %s\n", cfg.Charts.Style)
		fmt.Fprintf(out, "    Benchmark:     %s (%s)\n", cfg.Charts.BenchmarkName, cfg.Charts.BenchmarkSymbol)
		fmt.Fprintf(out, "    P/E lookback:  %d years\n", cfg.Charts.LookbackYears)
		fmt.Fprintln(out)

		fmt.Fprintf(out, "  API address:   %s\n", apiAddr())

		fmt.Fprintf(out, "  Chart types:   %s\n", chartTypeList())
		fmt.Fprintf(out, "  Styles:        %s\n", strings.Join(chart.StyleNames(), ", "))
		fmt.Fprintln(out, "═══════════════════════════════════════")
		return nil
	},
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chart HTTP API server",
	Long: `Serve the chart renderers over HTTP.

Endpoints:
  POST /api/v1/charts/price         render a price chart
  POST /api/v1/charts/performance   render one-year performance vs the benchmark
  POST /api/v1/charts/pe            render the P/E trend
  GET  /api/v1/charts/{name}        fetch a rendered PNG
  GET  /api/v1/options              list chart types and styles
  GET  /api/v1/config               show chart defaults
  PUT  /api/v1/config               update chart defaults (not persisted)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = apiAddr()
		}
		if err := os.MkdirAll(cfg.Charts.OutputDir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", cfg.Charts.OutputDir, err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(cmd.OutOrStdout(), "finchart API listening on http://%s\n", addr)
		return api.NewServer(cfg, source, log).ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default: api.host:api.port)")
}

func apiAddr() string {
	return net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port))
}
