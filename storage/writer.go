package storage

import (
	"context"

	"housetracker/models"
)

// HouseWriter persists the houses found by one scrape run.
type HouseWriter interface {
	Name() string
	WriteHouses(ctx context.Context, run *models.ScrapeRun, houses []models.HouseInfo) error
}
