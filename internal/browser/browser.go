package browser

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DesktopUserAgent is sent instead of the headless default to look like a regular desktop Chrome.
const DesktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ErrInit is wrapped by every error returned from New.
var ErrInit = errors.New("browser initialization failed")

// Config holds browser startup options
type Config struct {
	Headless  bool
	BinPath   string // explicit browser binary; empty lets the launcher resolve or download one
	ProxyURL  string
	UserAgent string
	Width     int
	Height    int

	ElementTimeout  time.Duration // bound for element waits
	PageLoadTimeout time.Duration // bound for navigation
}

// DefaultConfig returns a headless 1920x1080 desktop configuration
func DefaultConfig() Config {
	return Config{
		Headless:        true,
		UserAgent:       DesktopUserAgent,
		Width:           1920,
		Height:          1080,
		ElementTimeout:  10 * time.Second,
		PageLoadTimeout: 30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.Width <= 0 || c.Height <= 0 {
		c.Width, c.Height = d.Width, d.Height
	}
	if c.ElementTimeout <= 0 {
		c.ElementTimeout = d.ElementTimeout
	}
	if c.PageLoadTimeout <= 0 {
		c.PageLoadTimeout = d.PageLoadTimeout
	}
	return c
}

// Session wraps one browser process. Commands on a session must not run concurrently.
type Session struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	cfg      Config

	closeOnce sync.Once
}

// New launches and connects a browser. On failure everything started so far is torn down
// and the returned error wraps ErrInit.
func New(cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()

	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(true).
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("window-size", fmt.Sprintf("%d,%d", cfg.Width, cfg.Height))

	if cfg.BinPath != "" {
		l = l.Bin(cfg.BinPath)
	}
	if cfg.ProxyURL != "" {
		l = l.Proxy(cfg.ProxyURL)
	}

	controlURL, err := l.Launch()
	if err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: failed to launch browser: %w", ErrInit, err)
	}

	b := rod.New().ControlURL(controlURL).NoDefaultDevice()
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: failed to connect to browser: %w", ErrInit, err)
	}

	slog.Info("browser started", "headless", cfg.Headless, "bin", cfg.BinPath)

	return &Session{
		browser:  b,
		launcher: l,
		cfg:      cfg,
	}, nil
}

// Config returns the configuration the session was started with
func (s *Session) Config() Config {
	return s.cfg
}

// NewPage opens a tab with the desktop user agent, a fixed viewport and navigator.webdriver hidden
func (s *Session) NewPage() (*rod.Page, error) {
	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: s.cfg.UserAgent}); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("failed to set user agent: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.cfg.Width,
		Height:            s.cfg.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}
	if _, err := page.EvalOnNewDocument(`Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`); err != nil {
		slog.Debug("failed to hide navigator.webdriver", "err", err)
	}

	return page, nil
}

// Close shuts the browser down. It is safe to call more than once and on a nil session;
// failures are logged, never returned.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				slog.Warn("failed to close browser", "err", err)
			}
		}
		if s.launcher != nil {
			s.launcher.Kill()
		}
		slog.Info("browser closed")
	})
}
