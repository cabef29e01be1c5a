package kabutan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kabuka/internal/price"
)

const markupPreviewLen = 200

// Scraper runs the fetch pipeline: extract markup, parse rows, normalize, sort.
type Scraper struct {
	source TableSource
	now    func() time.Time
}

// NewScraper creates a scraper reading tables from source
func NewScraper(source TableSource) *Scraper {
	return &Scraper{source: source, now: time.Now}
}

// Fetch returns the normalized price series for symbol.
//
// Failures are logged with their category and reported only through ok=false. A table with
// the expected columns but no data rows is a success with an empty series.
func (s *Scraper) Fetch(ctx context.Context, symbol string) (price.Series, bool) {
	series, err := s.Run(ctx, symbol)
	return series, err == nil
}

// Run is Fetch with the failure returned. The error has already been logged; pass it to
// Categorize to decide how to recover.
func (s *Scraper) Run(ctx context.Context, symbol string) (series price.Series, err error) {
	defer func() {
		if r := recover(); r != nil {
			series, err = price.Series{}, fmt.Errorf("panic: %v", r)
			slog.Error("price fetch failed",
				"category", CategoryUnexpected,
				"symbol", symbol,
				"err", err)
		}
	}()

	series, err = s.fetch(ctx, symbol)
	if err != nil {
		slog.Error("price fetch failed",
			"category", Categorize(err),
			"symbol", symbol,
			"err", err)
		return price.Series{}, err
	}
	return series, nil
}

func (s *Scraper) fetch(ctx context.Context, symbol string) (price.Series, error) {
	markup, err := s.source.TableHTML(ctx, symbol)
	if err != nil {
		return price.Series{}, err
	}
	slog.Debug("table markup", "symbol", symbol, "preview", preview(markup, markupPreviewLen))

	table, err := ParseTable(markup)
	if err != nil {
		return price.Series{}, err
	}
	slog.Debug("parsed table", "header", table.Header, "columns", table.Columns(), "rows", len(table.Rows))

	series, stats, err := Normalize(table)
	if err != nil {
		return price.Series{}, err
	}
	if stats.ConversionFailures > 0 {
		slog.Debug("cells coerced to null",
			"category", CategoryValueConversion,
			"symbol", symbol,
			"cells", stats.ConversionFailures,
			"null_dates", stats.NullDates)
	}

	series.Symbol = symbol
	series.FetchedAt = s.now()

	attrs := []any{"symbol", symbol, "rows", series.Len(), "date_fallbacks", stats.DateFallbacks}
	if latest, ok := series.Latest(); ok {
		attrs = append(attrs, "latest", latest.Date.Format(time.DateOnly))
	}
	slog.Info("fetched price table", attrs...)
	return series, nil
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
