package scraper

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/playwright-community/playwright-go"
)

const (
	promoCloseSelector = "button.promo-modal-close"
	promoWaitMS        = 3000
)

func gotoPage(page playwright.Page, target string) error {
	log.Printf("Navigating to: %s", target)
	_, err := page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", target, err)
	}
	return nil
}

// dismissPromo closes the marketing modal some builder sites open on load.
// The modal can animate in after domcontentloaded, so it gets a short wait.
func dismissPromo(page playwright.Page) {
	btn := page.Locator(promoCloseSelector).First()
	present, err := waitOptional(btn, promoWaitMS)
	if err != nil {
		log.Printf("Promo modal check failed (continuing): %v", err)
		return
	}
	if !present {
		return
	}
	log.Printf("Closing promo modal")
	if err := btn.Click(); err != nil {
		log.Printf("Promo modal close failed (continuing): %v", err)
	}
}

// waitOptional waits up to timeoutMS for an element that a page may not
// have at all. A timeout reports false with no error; any other failure
// (closed target, crashed page) is returned.
func waitOptional(loc playwright.Locator, timeoutMS float64) (bool, error) {
	n, err := loc.Count()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	err = loc.WaitFor(playwright.LocatorWaitForOptions{Timeout: playwright.Float(timeoutMS)})
	if errors.Is(err, playwright.ErrTimeout) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func closePage(page playwright.Page) {
	if err := page.Close(); err != nil {
		log.Printf("Failed to close page: %v", err)
	}
}

func parseFragment(fragment string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// ownText is the text of the selection's direct text children, whitespace
// collapsed. Text inside nested elements is ignored.
func ownText(s *goquery.Selection) string {
	text := s.First().Contents().FilterFunction(func(_ int, c *goquery.Selection) bool {
		return goquery.NodeName(c) == "#text"
	}).Text()
	return strings.Join(strings.Fields(text), " ")
}

func fullText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.First().Text()), " ")
}

func resolveLink(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", base, err)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("parse link %q: %w", href, err)
	}
	return b.ResolveReference(ref).String(), nil
}

// leadingValue drops the unit label from values like "3 - 4 Beds".
func leadingValue(s string) string {
	for i, r := range s {
		if unicode.IsLetter(r) {
			return s[:i]
		}
	}
	return s
}
