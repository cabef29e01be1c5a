package scraper

import (
	"time"

	"kabuka/internal/browser"
)

// Content is fetched data that can be rendered in every output format.
type Content interface {
	ToHTML() (string, error)
	ToText() (string, error)
	ToMarkdown() (string, error)
	ToJSON() ([]byte, error)
	ToCSV() (string, error)
	ToChart() (string, error)
}

type Options struct {
	BaseURL     string
	Timeout     time.Duration // element wait
	PageTimeout time.Duration // page load
	ShowUI      bool
	ProxyURL    string // --proxy flag or KABUKA_PROXY env var
	BrowserBin  string // --browser-bin flag or KABUKA_BROWSER_BIN env var
}

// BrowserConfig derives the browser session configuration from the options
func (o Options) BrowserConfig() browser.Config {
	cfg := browser.DefaultConfig()
	cfg.Headless = !o.ShowUI
	cfg.ProxyURL = o.ProxyURL
	cfg.BinPath = o.BrowserBin
	if o.Timeout > 0 {
		cfg.ElementTimeout = o.Timeout
	}
	if o.PageTimeout > 0 {
		cfg.PageLoadTimeout = o.PageTimeout
	}
	return cfg
}
