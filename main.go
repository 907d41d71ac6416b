package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"housetracker/browser"
	"housetracker/config"
	"housetracker/logging"
	"housetracker/scraper"
	"housetracker/storage"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], browser.NewPlaywrightLauncher())
	stop()
	if err != nil {
		log.Fatalf("Scrape failed: %v", err)
	}
}

// run parses args, wires the stores and writers, and performs one scrape.
func run(ctx context.Context, args []string, launcher browser.Launcher) error {
	fs := flag.NewFlagSet("housetracker", flag.ContinueOnError)
	siteFlag := fs.String("site", "", "Site id to scrape (defaults to ACTIVE_SITE)")
	urlFlag := fs.String("url", "", "Start URL override for the site")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	siteID := cfg.ActiveSite
	if *siteFlag != "" {
		siteID = *siteFlag
	}
	if _, err := cfg.Site(siteID); err != nil {
		return err
	}

	logFile, err := logging.Setup(cfg.LogFile)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer func() {
			log.SetOutput(os.Stdout)
			logFile.Close()
		}()
	}

	log.Println("Starting housetracker...")
	log.Printf("Loaded %d site configs", len(cfg.Sites))
	for _, id := range cfg.SiteIDs() {
		log.Printf("  - %s (%s)", cfg.Sites[id].Name, id)
	}

	sqliteStore, err := storage.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("open SQLite: %w", err)
	}
	defer sqliteStore.Close()
	log.Printf("SQLite database: %s", cfg.Storage.DBPath)

	orchestrator := scraper.NewOrchestrator(cfg, launcher, sqliteStore)
	orchestrator.AddWriter(sqliteStore)

	if cfg.Storage.DatabaseURL != "" {
		pgStore, err := storage.NewPostgresStore(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect to Postgres: %w", err)
		}
		defer pgStore.Close()
		log.Printf("Connected to Postgres: %s", maskConnectionString(cfg.Storage.DatabaseURL))
		orchestrator.AddWriter(pgStore)
	}

	if cfg.Storage.CSVPath != "" {
		orchestrator.AddWriter(storage.NewCSVWriter(cfg.Storage.CSVPath))
		log.Printf("CSV export: %s", cfg.Storage.CSVPath)
	}

	if cfg.S3.Enabled() {
		exporter, err := storage.NewS3Exporter(ctx, cfg.S3)
		if err != nil {
			return fmt.Errorf("set up S3 export: %w", err)
		}
		orchestrator.AddWriter(exporter)
		log.Printf("S3 export: bucket %s", cfg.S3.Bucket)
	}

	result, err := orchestrator.RunSite(ctx, siteID, *urlFlag)
	if err != nil {
		return err
	}
	log.Printf("Scrape complete: run %d, %d houses, %d errors", result.ID, result.HousesFound, result.ErrorsCount)
	return nil
}

// maskConnectionString masks password in connection string for logging
func maskConnectionString(connStr string) string {
	start := 0
	for i := 0; i < len(connStr)-3; i++ {
		if connStr[i:i+3] == "://" {
			start = i + 3
			break
		}
	}
	if start == 0 {
		return connStr
	}

	colonIdx := -1
	atIdx := -1
	for i := start; i < len(connStr); i++ {
		if connStr[i] == ':' && colonIdx == -1 {
			colonIdx = i
		}
		if connStr[i] == '@' {
			atIdx = i
			break
		}
	}

	if colonIdx > 0 && atIdx > colonIdx {
		return connStr[:colonIdx+1] + "****" + connStr[atIdx:]
	}
	return connStr
}
