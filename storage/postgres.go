package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"housetracker/identity"
	"housetracker/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Name() string {
	return "postgres"
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS builder_houses (
			id UUID PRIMARY KEY,
			fingerprint TEXT NOT NULL UNIQUE,
			builder TEXT NOT NULL,
			community TEXT,
			city TEXT,
			floor_plan_name TEXT NOT NULL,
			url TEXT,
			stories INT4RANGE,
			min_bedrooms NUMERIC(4,1),
			max_bedrooms NUMERIC(4,1),
			min_full_baths NUMERIC(4,1),
			max_full_baths NUMERIC(4,1),
			min_half_baths NUMERIC(4,1),
			max_half_baths NUMERIC(4,1),
			min_garage NUMERIC(4,1),
			max_garage NUMERIC(4,1),
			min_lot_size INTEGER,
			max_lot_size INTEGER,
			min_price NUMERIC(12,2),
			max_price NUMERIC(12,2),
			is_fixed_price BOOLEAN NOT NULL DEFAULT FALSE,
			is_acreage BOOLEAN NOT NULL DEFAULT FALSE,
			status TEXT,
			source_run_id BIGINT,
			first_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_builder_houses_community ON builder_houses (builder, community);`)
	return err
}

// WriteHouses upserts the run's houses in a single batch.
func (s *PostgresStore) WriteHouses(ctx context.Context, run *models.ScrapeRun, houses []models.HouseInfo) error {
	query := `
		INSERT INTO builder_houses (
			id, fingerprint, builder, community, city, floor_plan_name, url, stories,
			min_bedrooms, max_bedrooms, min_full_baths, max_full_baths, min_half_baths, max_half_baths,
			min_garage, max_garage, min_lot_size, max_lot_size, min_price, max_price,
			is_fixed_price, is_acreage, status, source_run_id, first_seen_at, last_seen_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, int4range($8, $9, '[]'), $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $26
		)
		ON CONFLICT (fingerprint) DO UPDATE SET
			city = COALESCE(NULLIF(EXCLUDED.city, ''), builder_houses.city),
			url = COALESCE(NULLIF(EXCLUDED.url, ''), builder_houses.url),
			stories = EXCLUDED.stories,
			min_bedrooms = EXCLUDED.min_bedrooms,
			max_bedrooms = EXCLUDED.max_bedrooms,
			min_full_baths = EXCLUDED.min_full_baths,
			max_full_baths = EXCLUDED.max_full_baths,
			min_half_baths = COALESCE(EXCLUDED.min_half_baths, builder_houses.min_half_baths),
			max_half_baths = COALESCE(EXCLUDED.max_half_baths, builder_houses.max_half_baths),
			min_garage = EXCLUDED.min_garage,
			max_garage = EXCLUDED.max_garage,
			min_lot_size = COALESCE(EXCLUDED.min_lot_size, builder_houses.min_lot_size),
			max_lot_size = COALESCE(EXCLUDED.max_lot_size, builder_houses.max_lot_size),
			min_price = EXCLUDED.min_price,
			max_price = EXCLUDED.max_price,
			is_fixed_price = EXCLUDED.is_fixed_price,
			is_acreage = EXCLUDED.is_acreage,
			status = EXCLUDED.status,
			source_run_id = EXCLUDED.source_run_id,
			last_seen_at = EXCLUDED.last_seen_at`

	batch := &pgx.Batch{}
	for i := range houses {
		h := &houses[i]
		seen := h.ScrapedAt
		if seen.IsZero() {
			seen = time.Now()
		}
		batch.Queue(query,
			uuid.New(), identity.Fingerprint(h), h.Builder, h.Community, h.City, h.FloorPlanName, h.URL,
			h.MinStories, h.MaxStories,
			h.MinBedrooms, h.MaxBedrooms, h.MinFullBaths, h.MaxFullBaths, h.MinHalfBaths, h.MaxHalfBaths,
			h.MinGarage, h.MaxGarage, h.MinLotSize, h.MaxLotSize, h.MinPrice, h.MaxPrice,
			h.IsFixedPrice, h.IsAcreage, string(h.Status), run.ID, seen,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range houses {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert %s: %w", houses[i].FloorPlanName, err)
		}
	}
	return br.Close()
}

func (s *PostgresStore) CountHouses(ctx context.Context, builder string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM builder_houses WHERE builder = $1`, builder).Scan(&n)
	return n, err
}
