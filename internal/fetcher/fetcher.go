package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kabuka/internal/browser"

	"github.com/go-rod/rod"
)

var (
	// ErrTimeout means navigation or a wait did not finish within its bound.
	ErrTimeout = errors.New("timed out")
	// ErrDriver covers transport and browser process failures.
	ErrDriver = errors.New("browser driver error")
)

// FetchResult is a loaded page together with the element that was waited for.
type FetchResult struct {
	Page     *rod.Page     // closed by the caller
	Element  *rod.Element  // the waited-for element
	Title    string        // document title once loaded
	URL      string        // final URL after redirects
	LoadTime time.Duration // navigation plus the element wait
}

// Close releases the page
func (r *FetchResult) Close() {
	if r != nil && r.Page != nil {
		_ = r.Page.Close()
	}
}

// PageOpener creates configured pages; satisfied by *browser.Session
type PageOpener interface {
	NewPage() (*rod.Page, error)
	Config() browser.Config
}

// Fetcher loads pages through a browser session and waits for their content
type Fetcher struct {
	session PageOpener
}

// NewFetcher creates a new Fetcher instance
func NewFetcher(session PageOpener) *Fetcher {
	return &Fetcher{session: session}
}

// Fetch opens a page, navigates to url within the page-load timeout and waits for selector
// within the element timeout.
func (f *Fetcher) Fetch(ctx context.Context, url, selector string) (*FetchResult, error) {
	if selector == "" {
		return nil, fmt.Errorf("a selector to wait for is required")
	}

	startTime := time.Now()
	cfg := f.session.Config()

	page, err := f.session.NewPage()
	if err != nil {
		return nil, classify(err)
	}
	page = page.Context(ctx)

	if err := page.Timeout(cfg.PageLoadTimeout).Navigate(url); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, classify(err))
	}

	el, err := page.Timeout(cfg.ElementTimeout).Element(selector)
	if err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("failed to wait for element '%s': %w", selector, classify(err))
	}

	// detach from the wait deadline so later calls on the element are not cut short
	el = el.Context(ctx)

	result := &FetchResult{
		Page:     page,
		Element:  el,
		URL:      url,
		LoadTime: time.Since(startTime),
	}
	if info, err := page.Info(); err == nil {
		result.Title = info.Title
		result.URL = info.URL
	}

	return result, nil
}

// classify maps rod and context errors onto ErrTimeout or ErrDriver, keeping the cause
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrDriver) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrDriver, err)
}
