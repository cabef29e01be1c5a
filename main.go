package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"kabuka/internal/app"
	"kabuka/internal/formatter"
	"kabuka/internal/kabutan"
	"kabuka/internal/price"
	"kabuka/internal/scraper"

	"github.com/lmittmann/tint"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var version = "dev"

// DefaultSymbol is the Nikkei 225 average
const DefaultSymbol = "0000"

const disclaimer = "Note: for demonstration only. The accuracy of the data is not guaranteed; do not use it for investment decisions."

var (
	outputFormat string
	outputFile   string
	timeout      time.Duration
	pageTimeout  time.Duration
	showUI       bool
	proxyURL     string
	browserBin   string
	baseURL      string
	schedule     string
	verbose      bool
)

func main() {
	var rootCmd = &cobra.Command{
		Use:     "kabuka [SYMBOL-CODE]",
		Short:   "Fetch a daily price table from kabutan.jp and render it",
		Version: version,
		Long: `kabuka drives a headless browser to the kabutan.jp daily price page of one
symbol, normalizes the price table and prints it as a table, JSON, CSV or a
candlestick chart. The symbol code defaults to 0000 (Nikkei 225 average).`,
		Example: `  # Nikkei 225 daily prices as a text table
  kabuka

  # Candlestick chart for Toyota written to an HTML file
  kabuka 7203 -f chart -o toyota.html

  # Refresh every weekday at 15:30 and keep prices.csv up to date
  kabuka --schedule "30 15 * * 1-5" -o prices.csv`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         run,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Output format (text, markdown, html, json, csv, chart); inferred from --output when empty")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 10*time.Second, "Element wait timeout")
	rootCmd.Flags().DurationVar(&pageTimeout, "page-timeout", 30*time.Second, "Page load timeout")
	rootCmd.Flags().BoolVar(&showUI, "showui", false, "Show browser UI (disable headless mode)")
	rootCmd.Flags().StringVarP(&proxyURL, "proxy", "p", os.Getenv("KABUKA_PROXY"), "Proxy URL (e.g. http://127.0.0.1:7890), defaults to KABUKA_PROXY env var")
	rootCmd.Flags().StringVar(&browserBin, "browser-bin", os.Getenv("KABUKA_BROWSER_BIN"), "Browser binary, defaults to KABUKA_BROWSER_BIN env var; downloaded when empty")
	rootCmd.Flags().StringVar(&baseURL, "base-url", kabutan.DefaultBaseURL, "Site base URL")
	rootCmd.Flags().StringVar(&schedule, "schedule", "", "Cron expression; keep running and refresh on this schedule")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)
}

func run(cmd *cobra.Command, args []string) error {
	initSlog(verbose)

	symbol := DefaultSymbol
	if len(args) == 1 {
		symbol = strings.TrimSpace(args[0])
	}
	if symbol == "" {
		return fmt.Errorf("symbol code must not be empty")
	}

	format, err := resolveFormat(outputFormat, outputFile)
	if err != nil {
		return err
	}

	opts := scraper.Options{
		BaseURL:     baseURL,
		Timeout:     timeout,
		PageTimeout: pageTimeout,
		ShowUI:      showUI,
		ProxyURL:    proxyURL,
		BrowserBin:  browserBin,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(opts, symbol)
	defer a.Close()

	if schedule == "" {
		series, err := a.Refresh(ctx)
		if err != nil {
			return err
		}
		return emit(series, a.SourceURL(), format)
	}

	return runScheduled(ctx, a, format)
}

// runScheduled refreshes on the cron schedule until interrupted. Jobs never overlap, and a
// failed refresh re-emits the last good series.
func runScheduled(ctx context.Context, a *app.App, format string) error {
	job := func() {
		series, err := a.Refresh(ctx)
		if err != nil {
			slog.Error("refresh failed", "err", err)
			last, ok := a.Last()
			if !ok {
				return
			}
			slog.Warn("showing last successful result", "fetched_at", last.FetchedAt)
			series = last
		}
		if err := emit(series, a.SourceURL(), format); err != nil {
			slog.Error("failed to write output", "err", err)
		}
	}

	logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelDebug))
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(logger)), cron.WithLogger(logger))
	if _, err := c.AddFunc(schedule, job); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	job()
	c.Start()
	slog.Info("waiting for schedule", "schedule", schedule)

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func emit(series price.Series, sourceURL, format string) error {
	content := kabutan.NewPriceContent(series, sourceURL)

	out, err := formatter.Format(content, format)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(out), 0644); err != nil {
			return fmt.Errorf("failed to write to file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Output written to: %s (%d rows)\n", outputFile, series.Len())
	} else {
		fmt.Println(out)
	}

	fmt.Fprintf(os.Stderr, "\n---\n%s\n", disclaimer)
	return nil
}

// resolveFormat picks the explicit format, else one inferred from the output file, else text
func resolveFormat(format, file string) (string, error) {
	if format == "" && file != "" {
		format = formatter.InferFromExtension(file)
	}
	if format == "" {
		format = "text"
	}
	if !formatter.Valid(format) {
		return "", fmt.Errorf("invalid output format: %s", format)
	}
	return format, nil
}
