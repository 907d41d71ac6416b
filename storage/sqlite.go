package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"housetracker/identity"
	"housetracker/models"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Name() string {
	return "sqlite"
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS houses (
		fingerprint TEXT PRIMARY KEY,
		builder TEXT,
		community TEXT,
		city TEXT,
		floor_plan_name TEXT,
		url TEXT,
		min_stories INTEGER,
		max_stories INTEGER,
		min_bedrooms REAL,
		max_bedrooms REAL,
		min_full_baths REAL,
		max_full_baths REAL,
		min_half_baths REAL,
		max_half_baths REAL,
		min_garage REAL,
		max_garage REAL,
		min_lot_size INTEGER,
		max_lot_size INTEGER,
		min_price REAL,
		max_price REAL,
		is_fixed_price BOOLEAN DEFAULT FALSE,
		is_acreage BOOLEAN DEFAULT FALSE,
		status TEXT,
		first_seen_at DATETIME,
		last_seen_at DATETIME,
		times_seen INTEGER DEFAULT 1,
		last_run_id INTEGER
	);

	CREATE TABLE IF NOT EXISTS scrape_runs (
		id INTEGER PRIMARY KEY,
		site_id TEXT,
		start_url TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		houses_found INTEGER DEFAULT 0,
		errors_count INTEGER DEFAULT 0,
		error TEXT
	);

	CREATE TABLE IF NOT EXISTS scrape_logs (
		id INTEGER PRIMARY KEY,
		run_id INTEGER,
		timestamp DATETIME,
		level TEXT,
		message TEXT,
		site_id TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_houses_builder ON houses(builder, community);
	CREATE INDEX IF NOT EXISTS idx_logs_run ON scrape_logs(run_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON scrape_runs(status, started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) CreateRun(run *models.ScrapeRun) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO scrape_runs (site_id, start_url, started_at, status, houses_found, errors_count, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.SiteID, run.StartURL, run.StartedAt, run.Status, run.HousesFound, run.ErrorsCount, run.Error)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) UpdateRun(run *models.ScrapeRun) error {
	_, err := s.db.Exec(`
		UPDATE scrape_runs SET finished_at = ?, status = ?, houses_found = ?, errors_count = ?, error = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.HousesFound, run.ErrorsCount, run.Error, run.ID)
	return err
}

func (s *SQLiteStore) GetRun(id int64) (*models.ScrapeRun, error) {
	row := s.db.QueryRow(`
		SELECT id, site_id, start_url, started_at, finished_at, status, houses_found, errors_count, COALESCE(error, '')
		FROM scrape_runs WHERE id = ?`, id)

	var run models.ScrapeRun
	var finished sql.NullTime
	err := row.Scan(&run.ID, &run.SiteID, &run.StartURL, &run.StartedAt, &finished, &run.Status,
		&run.HousesFound, &run.ErrorsCount, &run.Error)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		run.FinishedAt = &finished.Time
	}
	return &run, nil
}

func (s *SQLiteStore) Log(runID *int64, level models.LogLevel, message, siteID string) error {
	_, err := s.db.Exec(`
		INSERT INTO scrape_logs (run_id, timestamp, level, message, site_id)
		VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now(), level, message, siteID)
	return err
}

func (s *SQLiteStore) GetLogs(runID int64) ([]models.ScrapeLog, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, timestamp, level, message, site_id
		FROM scrape_logs WHERE run_id = ? ORDER BY timestamp, id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.ScrapeLog
	for rows.Next() {
		var l models.ScrapeLog
		var id sql.NullInt64
		if err := rows.Scan(&l.ID, &id, &l.Timestamp, &l.Level, &l.Message, &l.SiteID); err != nil {
			return nil, err
		}
		if id.Valid {
			l.RunID = &id.Int64
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// WriteHouses upserts every house keyed by its fingerprint. Houses seen again
// keep their first_seen_at and bump times_seen.
func (s *SQLiteStore) WriteHouses(ctx context.Context, run *models.ScrapeRun, houses []models.HouseInfo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO houses (fingerprint, builder, community, city, floor_plan_name, url,
			min_stories, max_stories, min_bedrooms, max_bedrooms, min_full_baths, max_full_baths,
			min_half_baths, max_half_baths, min_garage, max_garage, min_lot_size, max_lot_size,
			min_price, max_price, is_fixed_price, is_acreage, status, first_seen_at, last_seen_at,
			times_seen, last_run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			city = excluded.city,
			url = excluded.url,
			min_stories = excluded.min_stories,
			max_stories = excluded.max_stories,
			min_bedrooms = excluded.min_bedrooms,
			max_bedrooms = excluded.max_bedrooms,
			min_full_baths = excluded.min_full_baths,
			max_full_baths = excluded.max_full_baths,
			min_half_baths = excluded.min_half_baths,
			max_half_baths = excluded.max_half_baths,
			min_garage = excluded.min_garage,
			max_garage = excluded.max_garage,
			min_lot_size = excluded.min_lot_size,
			max_lot_size = excluded.max_lot_size,
			min_price = excluded.min_price,
			max_price = excluded.max_price,
			is_fixed_price = excluded.is_fixed_price,
			is_acreage = excluded.is_acreage,
			status = excluded.status,
			last_seen_at = excluded.last_seen_at,
			times_seen = houses.times_seen + 1,
			last_run_id = excluded.last_run_id`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range houses {
		h := &houses[i]
		seen := h.ScrapedAt
		if seen.IsZero() {
			seen = time.Now()
		}
		_, err := stmt.ExecContext(ctx,
			identity.Fingerprint(h), h.Builder, h.Community, h.City, h.FloorPlanName, h.URL,
			h.MinStories, h.MaxStories, h.MinBedrooms, h.MaxBedrooms, h.MinFullBaths, h.MaxFullBaths,
			h.MinHalfBaths, h.MaxHalfBaths, h.MinGarage, h.MaxGarage, h.MinLotSize, h.MaxLotSize,
			h.MinPrice, h.MaxPrice, h.IsFixedPrice, h.IsAcreage, h.Status, seen, seen, run.ID)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", h.FloorPlanName, err)
		}
	}

	return tx.Commit()
}

// HouseRecord is a stored house plus its tracking columns.
type HouseRecord struct {
	models.HouseInfo
	Fingerprint string
	FirstSeenAt time.Time
	LastSeenAt  time.Time
	TimesSeen   int
	LastRunID   int64
}

func (s *SQLiteStore) GetHouse(fingerprint string) (*HouseRecord, error) {
	rows, err := s.db.Query(houseSelect+` WHERE fingerprint = ?`, fingerprint)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	houses, err := scanHouses(rows)
	if err != nil {
		return nil, err
	}
	if len(houses) == 0 {
		return nil, nil
	}
	return &houses[0], nil
}

func (s *SQLiteStore) ListHouses(builder string) ([]HouseRecord, error) {
	rows, err := s.db.Query(houseSelect+` WHERE builder = ? ORDER BY community, floor_plan_name`, builder)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHouses(rows)
}

const houseSelect = `
	SELECT fingerprint, builder, community, city, floor_plan_name, url,
		min_stories, max_stories, min_bedrooms, max_bedrooms, min_full_baths, max_full_baths,
		min_half_baths, max_half_baths, min_garage, max_garage, min_lot_size, max_lot_size,
		min_price, max_price, is_fixed_price, is_acreage, status, first_seen_at, last_seen_at,
		times_seen, last_run_id
	FROM houses`

func scanHouses(rows *sql.Rows) ([]HouseRecord, error) {
	var houses []HouseRecord
	for rows.Next() {
		var r HouseRecord
		var minHalf, maxHalf sql.NullFloat64
		var minLot, maxLot sql.NullInt64
		if err := rows.Scan(&r.Fingerprint, &r.Builder, &r.Community, &r.City, &r.FloorPlanName, &r.URL,
			&r.MinStories, &r.MaxStories, &r.MinBedrooms, &r.MaxBedrooms, &r.MinFullBaths, &r.MaxFullBaths,
			&minHalf, &maxHalf, &r.MinGarage, &r.MaxGarage, &minLot, &maxLot,
			&r.MinPrice, &r.MaxPrice, &r.IsFixedPrice, &r.IsAcreage, &r.Status, &r.FirstSeenAt, &r.LastSeenAt,
			&r.TimesSeen, &r.LastRunID); err != nil {
			return nil, err
		}
		if minHalf.Valid {
			r.MinHalfBaths = &minHalf.Float64
		}
		if maxHalf.Valid {
			r.MaxHalfBaths = &maxHalf.Float64
		}
		if minLot.Valid {
			v := int(minLot.Int64)
			r.MinLotSize = &v
		}
		if maxLot.Valid {
			v := int(maxLot.Int64)
			r.MaxLotSize = &v
		}
		r.ScrapedAt = r.LastSeenAt
		houses = append(houses, r)
	}
	return houses, rows.Err()
}
