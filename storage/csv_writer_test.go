package storage

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"housetracker/models"
)

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "houses.csv")
	w := NewCSVWriter(path)

	bare := models.HouseInfo{Builder: "Taylor Morrison", FloorPlanName: "Ridgeview"}
	houses := []models.HouseInfo{sampleHouse("Bellamy", 512990), bare}
	if err := w.WriteHouses(context.Background(), &models.ScrapeRun{ID: 42}, houses); err != nil {
		t.Fatalf("WriteHouses: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if len(records[0]) != len(csvHeader) {
		t.Fatalf("header width %d, want %d", len(records[0]), len(csvHeader))
	}

	row := records[1]
	if row[0] != "42" || row[4] != "Bellamy" || row[6] != "NOW_SELLING" {
		t.Fatalf("unexpected row %v", row)
	}
	if row[19] != "512990" || row[21] != "true" {
		t.Fatalf("unexpected price columns %v", row[19:22])
	}
	if records[2][13] != "" || records[2][17] != "" {
		t.Fatalf("expected blank optional columns, got %q %q", records[2][13], records[2][17])
	}
}
