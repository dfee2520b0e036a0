package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ps-vitor/car-comparator/internal/domain"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS search_history (
	id                 UUID PRIMARY KEY,
	ip_address         TEXT NOT NULL,
	brand              TEXT NOT NULL,
	model              TEXT NOT NULL DEFAULT '',
	max_price          NUMERIC,
	sites_searched     JSONB NOT NULL,
	results_count      INTEGER NOT NULL,
	search_duration_ms BIGINT NOT NULL,
	cache_hit          BOOLEAN NOT NULL DEFAULT FALSE,
	error              TEXT,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS search_history_created_at_idx ON search_history (created_at);

CREATE TABLE IF NOT EXISTS popular_searches (
	brand         TEXT NOT NULL,
	model         TEXT NOT NULL DEFAULT '',
	search_count  INTEGER NOT NULL DEFAULT 1,
	last_searched TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (brand, model)
);`

const insertHistorySQL = `INSERT INTO search_history
	(id, ip_address, brand, model, max_price, sites_searched, results_count, search_duration_ms, cache_hit, error, created_at)
	VALUES ($1,$2,$3,$4,$5,$6::jsonb,$7,$8,$9,$10,$11)`

const upsertPopularSQL = `INSERT INTO popular_searches (brand, model, search_count, last_searched)
	VALUES ($1,$2,1,$3)
	ON CONFLICT (brand, model) DO UPDATE
	SET search_count = popular_searches.search_count + 1, last_searched = EXCLUDED.last_searched`

// DB is the subset of *pgxpool.Pool the repository uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// SearchHistoryRepository persists search telemetry in Postgres. It satisfies
// telemetry.Recorder.
type SearchHistoryRepository struct {
	db DB
}

func NewSearchHistoryRepository(db DB) *SearchHistoryRepository {
	return &SearchHistoryRepository{db: db}
}

// OpenPool connects to Postgres and checks the connection.
func OpenPool(ctx context.Context, dsn string, maxConns int) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse PG_DSN: %w", err)
	}
	if maxConns <= 0 {
		maxConns = 4
	}
	cfg.MaxConns = int32(maxConns)
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func (r *SearchHistoryRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Record inserts the history row and bumps the popular-search counter for the
// entry's brand and model in one round trip.
func (r *SearchHistoryRepository) Record(ctx context.Context, e domain.SearchTelemetryEntry) error {
	sites, err := json.Marshal(e.Sources)
	if err != nil {
		return domain.InternalStoreError("encode sites_searched", err)
	}
	var maxPrice *float64
	if e.MaxPrice > 0 {
		maxPrice = &e.MaxPrice
	}
	var errText *string
	if e.Error != "" {
		errText = &e.Error
	}

	b := &pgx.Batch{}
	b.Queue(insertHistorySQL,
		e.ID, e.ClientIdentity, e.Brand, e.Model, maxPrice, string(sites),
		e.ResultCount, e.DurationMs, e.CacheHit, errText, e.Timestamp,
	)
	b.Queue(upsertPopularSQL, strings.ToLower(e.Brand), strings.ToLower(e.Model), e.Timestamp)

	br := r.db.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return domain.InternalStoreError("insert search history", err)
		}
	}
	if err := br.Close(); err != nil {
		return domain.InternalStoreError("insert search history", err)
	}
	return nil
}
