package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"housetracker/browser"
	"housetracker/config"
	"housetracker/models"
	"housetracker/storage"
)

// RunStore records runs and their log lines.
type RunStore interface {
	CreateRun(run *models.ScrapeRun) (int64, error)
	UpdateRun(run *models.ScrapeRun) error
	Log(runID *int64, level models.LogLevel, message, siteID string) error
}

type Orchestrator struct {
	cfg        *config.Config
	launcher   browser.Launcher
	store      RunStore
	newHandler HandlerFactory
	writers    []storage.HouseWriter
}

func NewOrchestrator(cfg *config.Config, launcher browser.Launcher, store RunStore) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		launcher:   launcher,
		store:      store,
		newHandler: NewHandler,
	}
}

func (o *Orchestrator) SetHandlerFactory(f HandlerFactory) {
	o.newHandler = f
}

func (o *Orchestrator) AddWriter(w storage.HouseWriter) {
	o.writers = append(o.writers, w)
}

// Run scrapes the configured active site from its start URL.
func (o *Orchestrator) Run(ctx context.Context) (*models.ScrapeRun, error) {
	return o.RunSite(ctx, o.cfg.ActiveSite, "")
}

// RunSite acquires a browser, builds the one handler for siteID and scrapes
// startURL (the site's configured URL when empty). The browser is released
// before RunSite returns, whatever the outcome.
func (o *Orchestrator) RunSite(ctx context.Context, siteID, startURL string) (*models.ScrapeRun, error) {
	site, err := o.cfg.Site(siteID)
	if err != nil {
		return nil, err
	}
	if startURL == "" {
		startURL = site.StartURL
	}

	run := &models.ScrapeRun{
		SiteID:    siteID,
		StartURL:  startURL,
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	if o.store != nil {
		id, err := o.store.CreateRun(run)
		if err != nil {
			return nil, fmt.Errorf("create run: %w", err)
		}
		run.ID = id
	}

	defer func() {
		now := time.Now()
		run.FinishedAt = &now
		if o.store != nil {
			if err := o.store.UpdateRun(run); err != nil {
				log.Printf("Failed to update run %d: %v", run.ID, err)
			}
		}
	}()

	o.log(run, models.LogLevelInfo, fmt.Sprintf("Starting scrape for %s at %s", site.Name, startURL))

	houses, err := o.scrape(ctx, site, startURL)
	if err != nil {
		run.Status = models.RunStatusFailed
		run.ErrorsCount++
		run.Error = err.Error()
		o.log(run, models.LogLevelError, err.Error())
		return run, err
	}

	for i := range houses {
		if houses[i].ScrapedAt.IsZero() {
			houses[i].ScrapedAt = run.StartedAt
		}
	}
	run.HousesFound = len(houses)

	for _, w := range o.writers {
		if err := w.WriteHouses(ctx, run, houses); err != nil {
			run.ErrorsCount++
			o.log(run, models.LogLevelError, fmt.Sprintf("%s writer: %v", w.Name(), err))
			continue
		}
		o.log(run, models.LogLevelInfo, fmt.Sprintf("%s writer: stored %d houses", w.Name(), len(houses)))
	}

	run.Status = models.RunStatusCompleted
	o.log(run, models.LogLevelInfo, fmt.Sprintf("Completed: %d houses, %d errors", run.HousesFound, run.ErrorsCount))
	return run, nil
}

func (o *Orchestrator) scrape(ctx context.Context, site *config.SiteConfig, startURL string) ([]models.HouseInfo, error) {
	session, err := o.launcher.Launch(ctx, browser.OptionsFromConfig(o.cfg.Browser))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Printf("Failed to release browser session: %v", cerr)
		}
	}()

	handler, err := o.newHandler(site, session)
	if err != nil {
		return nil, fmt.Errorf("build handler for %s: %w", site.ID, err)
	}

	houses, err := handler.Scrape(ctx, startURL)
	if err != nil {
		var se *ScrapeError
		if errors.As(err, &se) {
			return nil, err
		}
		return nil, &ScrapeError{Site: handler.ID(), URL: startURL, Err: err}
	}
	return houses, nil
}

func (o *Orchestrator) log(run *models.ScrapeRun, level models.LogLevel, message string) {
	log.Printf("[%s] %s: %s", level, run.SiteID, message)
	if o.store == nil {
		return
	}
	if err := o.store.Log(&run.ID, level, message, run.SiteID); err != nil {
		log.Printf("Failed to persist log line: %v", err)
	}
}
