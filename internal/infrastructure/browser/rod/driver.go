// Package rod adapts go-rod/rod (a CDP-speaking driver) onto the
// domain's BrowserDriver/BrowserSession/Page/Frame/Element ports. Only
// chromium is launched directly; firefox/webkit requests surface a
// capability error since rod only speaks CDP to Chromium-family
// binaries, matching the teacher's single-engine launcher.
package rod

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"

	"browser-agent/internal/domain/entity"
	"browser-agent/internal/domain/ports"
)

var _ ports.BrowserDriver = (*Driver)(nil)

// LaunchConfig tunes the Chromium launcher, kept close to the teacher's
// BrowserConfig shape.
type LaunchConfig struct {
	SlowMotion time.Duration
	NoSandbox  bool
	DevTools   bool
}

// DefaultLaunchConfig matches the teacher's DefaultConfig values except
// Headless, which the orchestrator now derives per request.
func DefaultLaunchConfig() LaunchConfig {
	return LaunchConfig{
		SlowMotion: 0,
		NoSandbox:  true,
		DevTools:   false,
	}
}

// Driver launches Chromium browsers on demand. Each Launch call produces
// an independent browser process so isolated and shared session modes
// both get a process exclusively theirs for the request's duration.
type Driver struct {
	cfg LaunchConfig
}

// New constructs a browser Driver.
func New(cfg LaunchConfig) *Driver {
	return &Driver{cfg: cfg}
}

// Launch starts a Chromium instance and opens its first page. engine
// values other than chromium return a capability error.
func (d *Driver) Launch(ctx context.Context, engine entity.BrowserEngine, headless bool) (ports.BrowserSession, error) {
	if engine != "" && engine != entity.EngineChromium {
		return nil, fmt.Errorf("rod driver: engine %q unsupported; rod only drives chromium over CDP", engine)
	}

	l := launcher.New().
		Headless(headless).
		Devtools(d.cfg.DevTools).
		NoSandbox(d.cfg.NoSandbox).
		Delete("use-mock-keychain").
		Set("disable-web-security").
		Set("allow-running-insecure-content").
		Set("disable-setuid-sandbox")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("rod driver: launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).SlowMotion(d.cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("rod driver: connect to chromium: %w", err)
	}

	rodPage, err := browser.Page(newBlankTarget())
	if err != nil {
		_ = browser.Close()
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("rod driver: open initial page: %w", err)
	}

	return &session{
		browser:  browser,
		launcher: l,
		page:     newPage(rodPage),
	}, nil
}

// session is one browser/context/page trio, owned exclusively by the
// Session Orchestrator for the request's duration.
type session struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *page
}

var _ ports.BrowserSession = (*session)(nil)

func (s *session) Page() ports.Page { return s.page }

func (s *session) Close() error {
	err := s.browser.Close()
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}
	return err
}
