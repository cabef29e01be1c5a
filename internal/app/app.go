// Package app ties the browser session, the price scraper and the last good result together
// for the command line front end.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"kabuka/internal/browser"
	"kabuka/internal/kabutan"
	"kabuka/internal/price"
	"kabuka/internal/scraper"
)

// ErrNoData is returned when a fetch produced no result.
var ErrNoData = errors.New("failed to fetch price data, the source page structure may have changed")

type sessionSource interface {
	Session() (*browser.Session, error)
	Reset()
	Close()
}

// App serializes fetches through one lazily started browser session and keeps the last
// successful series.
type App struct {
	symbol  string
	baseURL string

	sessions sessionSource
	fetch    func(ctx context.Context, s *browser.Session, symbol string) (price.Series, error)

	mu   sync.Mutex
	last *price.Series
}

// New creates an App; the browser is started by the first Refresh
func New(opts scraper.Options, symbol string) *App {
	a := &App{
		symbol:   symbol,
		baseURL:  opts.BaseURL,
		sessions: browser.NewManager(opts.BrowserConfig()),
	}
	a.fetch = a.fetchWithBrowser
	return a
}

func (a *App) fetchWithBrowser(ctx context.Context, s *browser.Session, symbol string) (price.Series, error) {
	return kabutan.NewScraper(kabutan.NewClient(s, a.baseURL)).Run(ctx, symbol)
}

// SourceURL is the page the series is scraped from
func (a *App) SourceURL() string {
	return kabutan.TableURL(a.baseURL, a.symbol)
}

// Refresh fetches the series again. A browser that cannot start is reported with an error
// wrapping browser.ErrInit; any other failure wraps ErrNoData and leaves the cached series alone.
// A driver failure also drops the session so the next Refresh starts a new browser.
func (a *App) Refresh(ctx context.Context) (price.Series, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, err := a.sessions.Session()
	if err != nil {
		return price.Series{}, fmt.Errorf("failed to start browser: %w", err)
	}

	series, err := a.fetch(ctx, s, a.symbol)
	if err != nil {
		if kabutan.Categorize(err) == kabutan.CategoryDriver {
			slog.Warn("restarting browser after driver failure")
			a.sessions.Reset()
		}
		return price.Series{}, fmt.Errorf("%w: %w", ErrNoData, err)
	}

	a.last = &series
	return series, nil
}

// Last returns the most recent successful series
func (a *App) Last() (price.Series, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.last == nil {
		return price.Series{}, false
	}
	return *a.last, true
}

// Close shuts the browser down. Safe to call more than once.
func (a *App) Close() {
	a.sessions.Close()
}
