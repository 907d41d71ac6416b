package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type CommunityStatus string

const (
	StatusModelsAvailableToTour CommunityStatus = "MODELS_AVAILABLE_TO_TOUR"
	StatusComingSoon            CommunityStatus = "COMING_SOON"
	StatusNowSelling            CommunityStatus = "NOW_SELLING"
	StatusUnavailable           CommunityStatus = "UNAVAILABLE"
)

// ParseCommunityStatus maps the status label shown on a community card
// ("Now Selling", "Coming Soon", ...) to a CommunityStatus.
func ParseCommunityStatus(label string) CommunityStatus {
	key := strings.ToUpper(strings.Join(strings.Fields(label), "_"))
	switch CommunityStatus(key) {
	case StatusModelsAvailableToTour, StatusComingSoon, StatusNowSelling:
		return CommunityStatus(key)
	}
	return StatusUnavailable
}

// HouseInfo is one floor plan offered by a builder. Most attributes are
// ranges because builders advertise "3 - 4 Bedrooms" style values.
type HouseInfo struct {
	FloorPlanName string          `json:"floor_plan_name"`
	Builder       string          `json:"builder"`
	Community     string          `json:"community"`
	City          string          `json:"city"`
	URL           string          `json:"url"`
	MinStories    int             `json:"min_stories"`
	MaxStories    int             `json:"max_stories"`
	MinBedrooms   float64         `json:"min_bedrooms"`
	MaxBedrooms   float64         `json:"max_bedrooms"`
	MinFullBaths  float64         `json:"min_full_baths"`
	MaxFullBaths  float64         `json:"max_full_baths"`
	MinHalfBaths  *float64        `json:"min_half_baths"`
	MaxHalfBaths  *float64        `json:"max_half_baths"`
	MinGarage     float64         `json:"min_garage"`
	MaxGarage     float64         `json:"max_garage"`
	MinLotSize    *int            `json:"min_lot_size"`
	MaxLotSize    *int            `json:"max_lot_size"`
	MinPrice      float64         `json:"min_price"`
	MaxPrice      float64         `json:"max_price"`
	IsFixedPrice  bool            `json:"is_fixed_price"`
	IsAcreage     bool            `json:"is_acreage"`
	Status        CommunityStatus `json:"status"`
	ScrapedAt     time.Time       `json:"scraped_at"`
}

func NewHouseInfo(floorPlanName string) *HouseInfo {
	minHalf, maxHalf := 0.0, 0.0
	minLot, maxLot := 0, 0
	return &HouseInfo{
		FloorPlanName: floorPlanName,
		MinHalfBaths:  &minHalf,
		MaxHalfBaths:  &maxHalf,
		MinLotSize:    &minLot,
		MaxLotSize:    &maxLot,
		Status:        StatusUnavailable,
	}
}

// Range holds the cleaned lower and upper bound of an advertised value.
// Single values produce First == Last.
type Range struct {
	First string
	Last  string
}

// ExtractRange strips any leading characters found in prefix and trailing
// characters found in suffix, then splits on "-". Each bound loses
// surrounding whitespace, thousands separators and a leading "$".
// Blank input is read as "0".
func ExtractRange(raw, prefix, suffix string) Range {
	if strings.TrimSpace(raw) == "" {
		raw = "0"
	}
	trimmed := strings.TrimRight(strings.TrimLeft(raw, prefix), suffix)
	parts := strings.Split(trimmed, "-")
	first := cleanBound(parts[0])
	if len(parts) == 1 {
		return Range{First: first, Last: first}
	}
	return Range{First: first, Last: cleanBound(parts[1])}
}

func cleanBound(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	return strings.TrimLeft(s, "$")
}

func (r Range) Ints() (int, int, error) {
	first, err := strconv.Atoi(r.First)
	if err != nil {
		return 0, 0, fmt.Errorf("parse %q: %w", r.First, err)
	}
	last, err := strconv.Atoi(r.Last)
	if err != nil {
		return 0, 0, fmt.Errorf("parse %q: %w", r.Last, err)
	}
	return first, last, nil
}

func (r Range) Floats() (float64, float64, error) {
	first, err := strconv.ParseFloat(r.First, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse %q: %w", r.First, err)
	}
	last, err := strconv.ParseFloat(r.Last, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse %q: %w", r.Last, err)
	}
	return first, last, nil
}

func (h *HouseInfo) SetStories(raw, prefix string) error {
	lo, hi, err := ExtractRange(raw, prefix, "").Ints()
	if err != nil {
		return fmt.Errorf("stories: %w", err)
	}
	h.MinStories, h.MaxStories = lo, hi
	return nil
}

func (h *HouseInfo) SetBedrooms(raw, prefix string) error {
	lo, hi, err := ExtractRange(raw, prefix, "").Floats()
	if err != nil {
		return fmt.Errorf("bedrooms: %w", err)
	}
	h.MinBedrooms, h.MaxBedrooms = lo, hi
	return nil
}

func (h *HouseInfo) SetFullBaths(raw, prefix string) error {
	lo, hi, err := ExtractRange(raw, prefix, "").Floats()
	if err != nil {
		return fmt.Errorf("full baths: %w", err)
	}
	h.MinFullBaths, h.MaxFullBaths = lo, hi
	return nil
}

func (h *HouseInfo) SetHalfBaths(raw, prefix string) error {
	lo, hi, err := ExtractRange(raw, prefix, "").Floats()
	if err != nil {
		return fmt.Errorf("half baths: %w", err)
	}
	h.MinHalfBaths, h.MaxHalfBaths = &lo, &hi
	return nil
}

func (h *HouseInfo) SetGarage(raw, prefix, suffix string) error {
	lo, hi, err := ExtractRange(raw, prefix, suffix).Floats()
	if err != nil {
		return fmt.Errorf("garage: %w", err)
	}
	h.MinGarage, h.MaxGarage = lo, hi
	return nil
}

func (h *HouseInfo) SetLotSize(raw, prefix string) error {
	lo, hi, err := ExtractRange(raw, prefix, "").Ints()
	if err != nil {
		return fmt.Errorf("lot size: %w", err)
	}
	h.MinLotSize, h.MaxLotSize = &lo, &hi
	return nil
}

// SetPrice also marks the plan as fixed-price when only one value is advertised.
func (h *HouseInfo) SetPrice(raw string) error {
	r := ExtractRange(raw, "", "")
	lo, hi, err := r.Floats()
	if err != nil {
		return fmt.Errorf("price: %w", err)
	}
	h.MinPrice, h.MaxPrice = lo, hi
	h.IsFixedPrice = r.First == r.Last
	return nil
}

// Community is one entry on a builder's community search page.
type Community struct {
	Group      string          `json:"group"`
	City       string          `json:"city"`
	GroupCount string          `json:"group_count"`
	Name       string          `json:"name"`
	Status     CommunityStatus `json:"status"`
	PriceText  string          `json:"price_text"`
	SqFtText   string          `json:"sqft_text"`
	DetailLink string          `json:"detail_link"`
}
