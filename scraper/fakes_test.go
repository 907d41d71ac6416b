package scraper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/playwright-community/playwright-go"
	"housetracker/browser"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	return string(data)
}

// fakeSite serves canned HTML to fake pages. Clicking a selector listed in
// afterClick swaps the page content.
type fakeSite struct {
	mu         sync.Mutex
	pages      map[string]string
	afterClick map[string]string
	failClick  map[string]error
	failWait   map[string]error
	visited    []string
	clicked    []string
	waits      map[string]float64
	opened     int
	closed     int
}

func (s *fakeSite) session() *browser.Session {
	return browser.NewSession(&fakeBrowser{site: s}, browser.Options{}, nil)
}

type fakeBrowser struct {
	playwright.Browser
	site *fakeSite
}

func (b *fakeBrowser) NewPage(options ...playwright.BrowserNewPageOptions) (playwright.Page, error) {
	b.site.mu.Lock()
	b.site.opened++
	b.site.mu.Unlock()
	return &fakePage{site: b.site}, nil
}

type fakePage struct {
	playwright.Page
	site    *fakeSite
	content string
}

func (p *fakePage) SetDefaultTimeout(float64)           {}
func (p *fakePage) SetDefaultNavigationTimeout(float64) {}

func (p *fakePage) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.site.mu.Lock()
	defer p.site.mu.Unlock()
	p.site.visited = append(p.site.visited, url)
	html, ok := p.site.pages[url]
	if !ok {
		return nil, fmt.Errorf("net::ERR_NAME_NOT_RESOLVED at %s", url)
	}
	p.content = html
	return nil, nil
}

func (p *fakePage) Content() (string, error) {
	return p.content, nil
}

func (p *fakePage) Close(options ...playwright.PageCloseOptions) error {
	p.site.mu.Lock()
	p.site.closed++
	p.site.mu.Unlock()
	return nil
}

func (p *fakePage) Locator(selector string, options ...playwright.PageLocatorOptions) playwright.Locator {
	return &fakeLocator{page: p, selector: selector}
}

// pwLocator lets fakeLocator embed the interface without the embedded
// field hiding the interface's own Locator method.
type pwLocator = playwright.Locator

type fakeLocator struct {
	pwLocator
	page     *fakePage
	selector string
	last     bool
}

func (l *fakeLocator) First() playwright.Locator {
	return &fakeLocator{page: l.page, selector: l.selector}
}

func (l *fakeLocator) Last() playwright.Locator {
	return &fakeLocator{page: l.page, selector: l.selector, last: true}
}

func (l *fakeLocator) textSelector() bool {
	return strings.HasPrefix(l.selector, "text=")
}

func (l *fakeLocator) find() *goquery.Selection {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(l.page.content))
	if err != nil {
		return &goquery.Selection{}
	}
	sel := doc.Find(l.selector)
	if l.last {
		return sel.Last()
	}
	return sel.First()
}

func (l *fakeLocator) Count() (int, error) {
	if l.textSelector() {
		return 1, nil
	}
	return l.find().Length(), nil
}

func (l *fakeLocator) WaitFor(options ...playwright.LocatorWaitForOptions) error {
	site := l.page.site
	site.mu.Lock()
	if site.waits == nil {
		site.waits = map[string]float64{}
	}
	var timeout float64
	if len(options) > 0 && options[0].Timeout != nil {
		timeout = *options[0].Timeout
	}
	site.waits[l.selector] = timeout
	err := site.failWait[l.selector]
	site.mu.Unlock()

	if err != nil {
		return err
	}
	if l.textSelector() || l.find().Length() > 0 {
		return nil
	}
	return fmt.Errorf("%w: waiting for locator(%q)", playwright.ErrTimeout, l.selector)
}

func (l *fakeLocator) Click(options ...playwright.LocatorClickOptions) error {
	site := l.page.site
	site.mu.Lock()
	defer site.mu.Unlock()

	if err := site.failClick[l.selector]; err != nil {
		return err
	}
	if !l.textSelector() && l.find().Length() == 0 {
		return fmt.Errorf("no element for %q", l.selector)
	}
	site.clicked = append(site.clicked, l.selector)
	if next, ok := site.afterClick[l.selector]; ok {
		l.page.content = next
	}
	return nil
}

func (l *fakeLocator) InnerHTML(options ...playwright.LocatorInnerHTMLOptions) (string, error) {
	sel := l.find()
	if sel.Length() == 0 {
		return "", fmt.Errorf("no element for %q", l.selector)
	}
	return sel.Html()
}
