package kabutan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"kabuka/internal/extractor"
	"kabuka/internal/fetcher"
)

const (
	// DefaultBaseURL is the site the price table is scraped from.
	DefaultBaseURL = "https://kabutan.jp"

	// ContainerSelector is waited for before the table is looked up.
	ContainerSelector = "#stock_kabuka_table"
	// TableSelector matches the daily price table inside the container.
	TableSelector = "table.stock_kabuka_dwm"
)

// TableSource returns the raw markup of the daily price table for a symbol.
type TableSource interface {
	TableHTML(ctx context.Context, symbol string) (string, error)
}

// TableURL builds the price page URL for a symbol code
func TableURL(baseURL, symbol string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return strings.TrimRight(baseURL, "/") + "/stock/kabuka?code=" + url.QueryEscape(symbol)
}

// Client is the browser-backed TableSource
type Client struct {
	fetcher *fetcher.Fetcher
	baseURL string
}

// NewClient creates a client that opens pages through session
func NewClient(session fetcher.PageOpener, baseURL string) *Client {
	return &Client{
		fetcher: fetcher.NewFetcher(session),
		baseURL: baseURL,
	}
}

// TableHTML navigates to the symbol's price page, waits for the table container and returns
// the table's outer HTML.
func (c *Client) TableHTML(ctx context.Context, symbol string) (string, error) {
	target := TableURL(c.baseURL, symbol)
	slog.Info("opening price page", "symbol", symbol, "url", target)

	result, err := c.fetcher.Fetch(ctx, target, ContainerSelector)
	if err != nil {
		return "", translate(err)
	}
	defer result.Close()
	slog.Debug("price page loaded", "url", result.URL, "title", result.Title, "load_time", result.LoadTime)

	ext := extractor.NewExtractor(result.Page)
	markup, err := ext.OuterHTML(result.Element, TableSelector)
	if err != nil {
		if errors.Is(err, extractor.ErrElementNotFound) {
			title, terr := ext.Title()
			if terr != nil {
				slog.Debug("failed to read page title", "err", terr)
			}
			slog.Debug("table missing from container", "url", result.URL, "title", title)
		}
		return "", translate(err)
	}

	return markup, nil
}

// translate maps lower layer errors onto the package's failure categories
func translate(err error) error {
	switch {
	case errors.Is(err, fetcher.ErrTimeout):
		return fmt.Errorf("%w: %w", ErrNavigationTimeout, err)
	case errors.Is(err, extractor.ErrElementNotFound):
		return fmt.Errorf("%w: %w", ErrElementNotFound, err)
	default:
		return fmt.Errorf("%w: %w", ErrDriver, err)
	}
}
