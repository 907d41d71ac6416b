package browser

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/playwright-community/playwright-go"
)

type Launcher interface {
	Launch(ctx context.Context, opts Options) (*Session, error)
}

// driver is the part of a running playwright instance the launcher needs.
type driver struct {
	types map[string]playwright.BrowserType
	stop  func() error
}

type PlaywrightLauncher struct {
	install func(*playwright.RunOptions) error
	start   func(*playwright.RunOptions) (*driver, error)
}

func NewPlaywrightLauncher() *PlaywrightLauncher {
	return &PlaywrightLauncher{
		install: func(o *playwright.RunOptions) error { return playwright.Install(o) },
		start:   startPlaywright,
	}
}

func startPlaywright(o *playwright.RunOptions) (*driver, error) {
	pw, err := playwright.Run(o)
	if err != nil {
		return nil, err
	}
	return &driver{
		types: map[string]playwright.BrowserType{
			"chromium": pw.Chromium,
			"firefox":  pw.Firefox,
			"webkit":   pw.WebKit,
		},
		stop: pw.Stop,
	}, nil
}

// Launch starts the playwright driver and the configured engine. On any
// failure everything started so far is stopped and a *LaunchError is returned.
func (l *PlaywrightLauncher) Launch(ctx context.Context, opts Options) (*Session, error) {
	engine := opts.Engine
	if engine == "" {
		engine = "firefox"
	}
	if err := ctx.Err(); err != nil {
		return nil, &LaunchError{Engine: engine, Err: err}
	}

	runOpts := &playwright.RunOptions{Browsers: []string{engine}}
	if opts.Install {
		log.Printf("Installing playwright driver and %s", engine)
		if err := l.install(runOpts); err != nil {
			return nil, &LaunchError{Engine: engine, Err: fmt.Errorf("install: %w", err)}
		}
	}

	drv, err := l.start(runOpts)
	if err != nil {
		return nil, &LaunchError{Engine: engine, Err: fmt.Errorf("start playwright: %w", err)}
	}

	bt, ok := drv.types[engine]
	if !ok || bt == nil {
		stopErr := drv.stop()
		return nil, &LaunchError{Engine: engine, Err: errors.Join(fmt.Errorf("unsupported engine %q", engine), stopErr)}
	}

	b, err := bt.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		SlowMo:   playwright.Float(float64(opts.SlowMo.Milliseconds())),
	})
	if err != nil {
		stopErr := drv.stop()
		return nil, &LaunchError{Engine: engine, Err: errors.Join(err, stopErr)}
	}

	log.Printf("Launched %s (headless=%v, slowMo=%s)", engine, opts.Headless, opts.SlowMo)

	release := func() error {
		closeErr := b.Close()
		if closeErr != nil {
			closeErr = fmt.Errorf("close browser: %w", closeErr)
		}
		stopErr := drv.stop()
		if stopErr != nil {
			stopErr = fmt.Errorf("stop playwright: %w", stopErr)
		}
		return errors.Join(closeErr, stopErr)
	}

	return NewSession(b, opts, release), nil
}
