package browser

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/playwright-community/playwright-go"
	"housetracker/config"
)

var (
	// ErrLaunch is matched by every error returned from a failed Launch.
	ErrLaunch = errors.New("browser launch failed")
	// ErrClosed is returned when a released session is used.
	ErrClosed = errors.New("browser session closed")
)

type LaunchError struct {
	Engine string
	Err    error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Engine, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

func (e *LaunchError) Is(target error) bool {
	return target == ErrLaunch
}

type Options struct {
	Engine            string
	Headless          bool
	SlowMo            time.Duration
	Install           bool
	NavigationTimeout time.Duration
}

func OptionsFromConfig(c config.BrowserConfig) Options {
	return Options{
		Engine:            c.Engine,
		Headless:          c.Headless,
		SlowMo:            time.Duration(c.SlowMoMS) * time.Millisecond,
		Install:           c.Install,
		NavigationTimeout: time.Duration(c.NavTimeoutMS) * time.Millisecond,
	}
}

// Session is a running browser owned by a single scrape run. Close releases
// the browser and the driver behind it exactly once.
type Session struct {
	browser playwright.Browser
	opts    Options
	release func() error

	closed   atomic.Bool
	once     sync.Once
	closeErr error
}

func NewSession(b playwright.Browser, opts Options, release func() error) *Session {
	return &Session{browser: b, opts: opts, release: release}
}

func (s *Session) Options() Options {
	return s.opts
}

func (s *Session) Closed() bool {
	return s.closed.Load()
}

// NewPage opens a page with the session's navigation timeout applied.
func (s *Session) NewPage() (playwright.Page, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if s.browser == nil {
		return nil, errors.New("session has no browser")
	}

	page, err := s.browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}
	if s.opts.NavigationTimeout > 0 {
		ms := float64(s.opts.NavigationTimeout.Milliseconds())
		page.SetDefaultTimeout(ms)
		page.SetDefaultNavigationTimeout(ms)
	}
	return page, nil
}

func (s *Session) Close() error {
	s.once.Do(func() {
		s.closed.Store(true)
		if s.release != nil {
			s.closeErr = s.release()
		}
	})
	return s.closeErr
}
