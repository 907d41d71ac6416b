package browser

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"housetracker/config"
)

type fakePage struct {
	playwright.Page
	timeout    float64
	navTimeout float64
}

func (p *fakePage) SetDefaultTimeout(timeout float64)           { p.timeout = timeout }
func (p *fakePage) SetDefaultNavigationTimeout(timeout float64) { p.navTimeout = timeout }

type fakeBrowser struct {
	playwright.Browser
	closes int
	page   *fakePage
}

func (b *fakeBrowser) NewPage(options ...playwright.BrowserNewPageOptions) (playwright.Page, error) {
	b.page = &fakePage{}
	return b.page, nil
}

func (b *fakeBrowser) Close(options ...playwright.BrowserCloseOptions) error {
	b.closes++
	return nil
}

type fakeBrowserType struct {
	playwright.BrowserType
	browser   *fakeBrowser
	err       error
	lastOpts  playwright.BrowserTypeLaunchOptions
	launchCnt int
}

func (bt *fakeBrowserType) Launch(options ...playwright.BrowserTypeLaunchOptions) (playwright.Browser, error) {
	bt.launchCnt++
	if len(options) > 0 {
		bt.lastOpts = options[0]
	}
	if bt.err != nil {
		return nil, bt.err
	}
	return bt.browser, nil
}

func newFakeLauncher(bt *fakeBrowserType, stops *int) *PlaywrightLauncher {
	return &PlaywrightLauncher{
		install: func(*playwright.RunOptions) error { return nil },
		start: func(*playwright.RunOptions) (*driver, error) {
			return &driver{
				types: map[string]playwright.BrowserType{"firefox": bt},
				stop: func() error {
					*stops++
					return nil
				},
			}, nil
		},
	}
}

func TestSessionCloseReleasesOnce(t *testing.T) {
	releases := 0
	s := NewSession(nil, Options{}, func() error {
		releases++
		return nil
	})

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, releases)
	assert.True(t, s.Closed())

	_, err := s.NewPage()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSessionCloseConcurrent(t *testing.T) {
	var mu sync.Mutex
	releases := 0
	s := NewSession(nil, Options{}, func() error {
		mu.Lock()
		releases++
		mu.Unlock()
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Close()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, releases)
}

func TestSessionCloseReturnsReleaseError(t *testing.T) {
	boom := errors.New("browser already gone")
	s := NewSession(nil, Options{}, func() error { return boom })

	assert.ErrorIs(t, s.Close(), boom)
	assert.ErrorIs(t, s.Close(), boom)
}

func TestLaunchSuccess(t *testing.T) {
	stops := 0
	fb := &fakeBrowser{}
	bt := &fakeBrowserType{browser: fb}
	l := newFakeLauncher(bt, &stops)

	s, err := l.Launch(context.Background(), Options{
		Engine:            "firefox",
		SlowMo:            100 * time.Millisecond,
		NavigationTimeout: 30 * time.Second,
	})
	require.NoError(t, err)
	require.NotNil(t, s)

	require.NotNil(t, bt.lastOpts.Headless)
	assert.False(t, *bt.lastOpts.Headless)
	require.NotNil(t, bt.lastOpts.SlowMo)
	assert.Equal(t, 100.0, *bt.lastOpts.SlowMo)

	_, err = s.NewPage()
	require.NoError(t, err)
	assert.Equal(t, 30000.0, fb.page.timeout)
	assert.Equal(t, 30000.0, fb.page.navTimeout)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, fb.closes)
	assert.Equal(t, 1, stops)
}

func TestLaunchFailureStopsDriver(t *testing.T) {
	stops := 0
	bt := &fakeBrowserType{err: errors.New("executable doesn't exist")}
	l := newFakeLauncher(bt, &stops)

	s, err := l.Launch(context.Background(), Options{Engine: "firefox"})
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrLaunch)

	var le *LaunchError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "firefox", le.Engine)
	assert.Equal(t, 1, stops)
}

func TestLaunchUnsupportedEngine(t *testing.T) {
	stops := 0
	bt := &fakeBrowserType{browser: &fakeBrowser{}}
	l := newFakeLauncher(bt, &stops)

	s, err := l.Launch(context.Background(), Options{Engine: "netscape"})
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrLaunch)
	assert.Equal(t, 0, bt.launchCnt)
	assert.Equal(t, 1, stops)
}

func TestLaunchDriverStartFailure(t *testing.T) {
	l := &PlaywrightLauncher{
		install: func(*playwright.RunOptions) error { return nil },
		start: func(*playwright.RunOptions) (*driver, error) {
			return nil, errors.New("please install the driver first")
		},
	}

	s, err := l.Launch(context.Background(), Options{})
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrLaunch)
}

func TestLaunchInstallFailure(t *testing.T) {
	started := false
	l := &PlaywrightLauncher{
		install: func(*playwright.RunOptions) error { return errors.New("no network") },
		start: func(*playwright.RunOptions) (*driver, error) {
			started = true
			return nil, nil
		},
	}

	_, err := l.Launch(context.Background(), Options{Install: true})
	assert.ErrorIs(t, err, ErrLaunch)
	assert.False(t, started)
}

func TestLaunchCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stops := 0
	l := newFakeLauncher(&fakeBrowserType{browser: &fakeBrowser{}}, &stops)
	_, err := l.Launch(ctx, Options{})
	assert.ErrorIs(t, err, ErrLaunch)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, stops)
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.BrowserConfig{
		Engine:       "webkit",
		Headless:     true,
		SlowMoMS:     250,
		NavTimeoutMS: 45000,
	})
	assert.Equal(t, "webkit", opts.Engine)
	assert.True(t, opts.Headless)
	assert.Equal(t, 250*time.Millisecond, opts.SlowMo)
	assert.Equal(t, 45*time.Second, opts.NavigationTimeout)
}
