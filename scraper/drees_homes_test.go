package scraper

import (
	"context"
	"testing"

	"housetracker/config"
	"housetracker/models"
)

const dreesURL = "https://www.dreeshomes.com/custom-homes/austin/community/clearwater_ranch/clearwater_ranch/"

func TestParseHomeCards(t *testing.T) {
	houses, err := parseHomeCards(loadFixture(t, "drees_home_cards.html"), dreesURL, "Clearwater Ranch")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(houses) != 2 {
		t.Fatalf("expected 2 houses (unpriced card skipped), got %d", len(houses))
	}

	bellamy := houses[0]
	if bellamy.FloorPlanName != "Bellamy" {
		t.Fatalf("expected Bellamy, got %q", bellamy.FloorPlanName)
	}
	if bellamy.Builder != "Drees Homes" || bellamy.Community != "Clearwater Ranch" {
		t.Fatalf("unexpected builder/community %q/%q", bellamy.Builder, bellamy.Community)
	}
	if bellamy.URL != "https://www.dreeshomes.com/custom-homes/austin/plans/bellamy/" {
		t.Fatalf("unexpected url %s", bellamy.URL)
	}
	if bellamy.MinPrice != 512990 || !bellamy.IsFixedPrice {
		t.Fatalf("expected fixed price 512990, got %v", bellamy.MinPrice)
	}
	if *bellamy.MinLotSize != 2360 || *bellamy.MaxLotSize != 2910 {
		t.Fatalf("expected sqft 2360-2910, got %d-%d", *bellamy.MinLotSize, *bellamy.MaxLotSize)
	}
	if bellamy.MinStories != 1 || bellamy.MaxStories != 2 {
		t.Fatalf("expected stories 1-2, got %d-%d", bellamy.MinStories, bellamy.MaxStories)
	}
	if bellamy.MinBedrooms != 3 || bellamy.MaxBedrooms != 4 {
		t.Fatalf("expected bedrooms 3-4, got %v-%v", bellamy.MinBedrooms, bellamy.MaxBedrooms)
	}
	if bellamy.MinFullBaths != 2 || bellamy.MaxFullBaths != 3 {
		t.Fatalf("expected full baths 2-3, got %v-%v", bellamy.MinFullBaths, bellamy.MaxFullBaths)
	}
	if *bellamy.MinHalfBaths != 1 {
		t.Fatalf("expected 1 half bath, got %v", *bellamy.MinHalfBaths)
	}
	if bellamy.MinGarage != 2 || bellamy.MaxGarage != 3 {
		t.Fatalf("expected garage 2-3, got %v-%v", bellamy.MinGarage, bellamy.MaxGarage)
	}
	if bellamy.Status != models.StatusUnavailable {
		t.Fatalf("expected default status, got %s", bellamy.Status)
	}

	carson := houses[1]
	if *carson.MinLotSize != 2104 {
		t.Fatalf("expected plain sqft fallback 2104, got %d", *carson.MinLotSize)
	}
	if *carson.MinHalfBaths != 0 || *carson.MaxHalfBaths != 0 {
		t.Fatalf("expected missing half baths to read as 0")
	}
	if carson.MinPrice != 489990 || carson.MaxPrice != 530000 || carson.IsFixedPrice {
		t.Fatalf("unexpected price range %v-%v fixed=%v", carson.MinPrice, carson.MaxPrice, carson.IsFixedPrice)
	}
	if carson.URL != "https://www.dreeshomes.com/custom-homes/austin/plans/carson/" {
		t.Fatalf("unexpected url %s", carson.URL)
	}
}

func TestParseHomeCardsEmpty(t *testing.T) {
	houses, err := parseHomeCards(`<p>No homes available</p>`, dreesURL, "")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(houses) != 0 {
		t.Fatalf("expected no houses, got %d", len(houses))
	}
}

func TestDreesHomesScrape(t *testing.T) {
	site := &fakeSite{
		pages: map[string]string{
			dreesURL: `<html><body><div class="home-cards">` + loadFixture(t, "drees_home_cards.html") + `</div></body></html>`,
		},
	}
	siteCfg := config.DefaultSites()[config.SiteDreesHomes]

	h := NewDreesHomesHandler(siteCfg, site.session())
	houses, err := h.Scrape(context.Background(), dreesURL)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(houses) != 2 {
		t.Fatalf("expected 2 houses, got %d", len(houses))
	}
	if houses[0].Community != "Clearwater Ranch" {
		t.Fatalf("expected configured community, got %q", houses[0].Community)
	}
	if site.opened != 1 || site.closed != 1 {
		t.Fatalf("expected one page opened and closed, got %d/%d", site.opened, site.closed)
	}
}

func TestDreesHomesScrapeCommunity(t *testing.T) {
	wolf := "https://www.dreeshomes.com/custom-homes/austin/community/wolf_ranch/wolf_ranch-60/"
	site := &fakeSite{
		pages: map[string]string{
			wolf: `<div class="home-cards">` + loadFixture(t, "drees_home_cards.html") + `</div>`,
		},
	}

	h := NewDreesHomesHandler(config.DefaultSites()[config.SiteDreesHomes], site.session())
	houses, err := h.ScrapeCommunity(context.Background(), wolf, "Wolf Ranch")
	if err != nil {
		t.Fatalf("ScrapeCommunity: %v", err)
	}
	for _, house := range houses {
		if house.Community != "Wolf Ranch" {
			t.Fatalf("expected Wolf Ranch, got %q", house.Community)
		}
	}
}

func TestDreesHomesScrapeMissingCards(t *testing.T) {
	site := &fakeSite{pages: map[string]string{dreesURL: `<html><body>maintenance</body></html>`}}

	h := NewDreesHomesHandler(config.DefaultSites()[config.SiteDreesHomes], site.session())
	if _, err := h.Scrape(context.Background(), dreesURL); err == nil {
		t.Fatalf("expected error when home cards never appear")
	}
	if site.closed != 1 {
		t.Fatalf("expected page closed on failure, got %d", site.closed)
	}
}
