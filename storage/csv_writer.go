package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"housetracker/models"
)

// CSVWriter writes each run's houses to a CSV file, replacing any previous export.
type CSVWriter struct {
	filePath string
}

func NewCSVWriter(filePath string) *CSVWriter {
	return &CSVWriter{filePath: filePath}
}

func (w *CSVWriter) Name() string {
	return "csv"
}

var csvHeader = []string{
	"run_id", "builder", "community", "city", "floor_plan_name", "url", "status",
	"min_stories", "max_stories", "min_bedrooms", "max_bedrooms",
	"min_full_baths", "max_full_baths", "min_half_baths", "max_half_baths",
	"min_garage", "max_garage", "min_lot_size", "max_lot_size",
	"min_price", "max_price", "is_fixed_price", "is_acreage", "scraped_at",
}

func (w *CSVWriter) WriteHouses(ctx context.Context, run *models.ScrapeRun, houses []models.HouseInfo) error {
	if dir := filepath.Dir(w.filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(w.filePath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	runID := strconv.FormatInt(run.ID, 10)
	for _, h := range houses {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := []string{
			runID, h.Builder, h.Community, h.City, h.FloorPlanName, h.URL, string(h.Status),
			strconv.Itoa(h.MinStories), strconv.Itoa(h.MaxStories),
			formatFloat(h.MinBedrooms), formatFloat(h.MaxBedrooms),
			formatFloat(h.MinFullBaths), formatFloat(h.MaxFullBaths),
			formatFloatPtr(h.MinHalfBaths), formatFloatPtr(h.MaxHalfBaths),
			formatFloat(h.MinGarage), formatFloat(h.MaxGarage),
			formatIntPtr(h.MinLotSize), formatIntPtr(h.MaxLotSize),
			formatFloat(h.MinPrice), formatFloat(h.MaxPrice),
			strconv.FormatBool(h.IsFixedPrice), strconv.FormatBool(h.IsAcreage),
			h.ScrapedAt.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			log.Printf("Failed to write CSV row for %q: %v", h.FloorPlanName, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush CSV: %w", err)
	}

	log.Printf("Houses written to: %s (%d rows)", w.filePath, len(houses))
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatFloatPtr(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

func formatIntPtr(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}
