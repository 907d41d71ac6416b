package scraper

import (
	"context"
	"errors"
	"fmt"

	"housetracker/browser"
	"housetracker/config"
	"housetracker/models"
)

// Handler scrapes one builder site using a browser session it does not own.
type Handler interface {
	ID() string
	Scrape(ctx context.Context, startURL string) ([]models.HouseInfo, error)
}

// HandlerFactory builds the handler for a site. The orchestrator calls it
// once per run, after the browser session is up.
type HandlerFactory func(site *config.SiteConfig, session *browser.Session) (Handler, error)

func NewHandler(site *config.SiteConfig, session *browser.Session) (Handler, error) {
	if session == nil {
		return nil, errors.New("nil browser session")
	}
	switch site.Handler {
	case config.SiteTaylorMorrison:
		return NewTaylorMorrisonHandler(site, session), nil
	case config.SiteDreesHomes:
		return NewDreesHomesHandler(site, session), nil
	default:
		return nil, fmt.Errorf("unknown handler %q for site %s", site.Handler, site.ID)
	}
}

// ErrScrape is matched by every *ScrapeError.
var ErrScrape = errors.New("scrape failed")

type ScrapeError struct {
	Site string
	URL  string
	Err  error
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("scrape %s (%s): %v", e.Site, e.URL, e.Err)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

func (e *ScrapeError) Is(target error) bool {
	return target == ErrScrape
}
