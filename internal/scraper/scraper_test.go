package scraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBrowserConfig(t *testing.T) {
	cfg := Options{}.BrowserConfig()
	require.True(t, cfg.Headless)
	require.Equal(t, 10*time.Second, cfg.ElementTimeout)
	require.Equal(t, 30*time.Second, cfg.PageLoadTimeout)

	cfg = Options{
		ShowUI:     true,
		ProxyURL:   "http://127.0.0.1:7890",
		BrowserBin: "/usr/bin/chromium",
		Timeout:    5 * time.Second,
	}.BrowserConfig()
	require.False(t, cfg.Headless)
	require.Equal(t, "http://127.0.0.1:7890", cfg.ProxyURL)
	require.Equal(t, "/usr/bin/chromium", cfg.BinPath)
	require.Equal(t, 5*time.Second, cfg.ElementTimeout)
	require.Equal(t, 30*time.Second, cfg.PageLoadTimeout)
}
