package ephem

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS evaluations (
    evaluator    TEXT NOT NULL,
    at           TEXT NOT NULL,
    latitude     REAL NOT NULL,
    longitude    REAL NOT NULL,
    house_system TEXT NOT NULL,
    payload      TEXT NOT NULL,
    created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (evaluator, at, latitude, longitude, house_system)
);
`

// CachedEvaluator memoizes successful evaluations of another evaluator in a
// local SQLite database. Failed evaluations are never cached.
type CachedEvaluator struct {
	inner Evaluator
	db    *sql.DB

	hits   atomic.Uint64
	misses atomic.Uint64
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits   uint64
	Misses uint64
}

// HitRatio returns hits/(hits+misses), or 0 before any lookup.
func (s CacheStats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// NewCachedEvaluator opens (or creates) the cache database at dbPath.
// Use ":memory:" for a throwaway cache.
func NewCachedEvaluator(ctx context.Context, inner Evaluator, dbPath string) (*CachedEvaluator, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("cache: open database: %w", err)
	}

	// One writer; also keeps a :memory: database alive across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: set busy timeout: %w", err)
	}

	if _, err := db.ExecContext(ctx, cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: create schema: %w", err)
	}

	return &CachedEvaluator{inner: inner, db: db}, nil
}

// Name implements Evaluator.
func (c *CachedEvaluator) Name() string {
	return c.inner.Name()
}

// Evaluate implements Evaluator.
func (c *CachedEvaluator) Evaluate(ctx context.Context, req Request) (*Evaluation, error) {
	key := cacheKeyFor(c.inner.Name(), req)

	eval, err := c.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if eval != nil {
		c.hits.Add(1)
		return eval, nil
	}
	c.misses.Add(1)

	eval, err = c.inner.Evaluate(ctx, req)
	if err != nil || eval == nil || !eval.Success {
		return eval, err
	}

	if err := c.store(ctx, key, eval); err != nil {
		return nil, err
	}
	return eval, nil
}

// Stats returns a snapshot of hit/miss counters.
func (c *CachedEvaluator) Stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Close closes the underlying database.
func (c *CachedEvaluator) Close() error {
	return c.db.Close()
}

type cacheKey struct {
	evaluator   string
	at          string
	latitude    float64
	longitude   float64
	houseSystem string
}

// cacheKeyFor rounds the location to 1e-4 degrees (about 11 m).
func cacheKeyFor(evaluator string, req Request) cacheKey {
	hs := req.HouseSystem
	if hs == "" {
		hs = HouseEqual
	}
	return cacheKey{
		evaluator:   evaluator,
		at:          req.Time.UTC().Format(time.RFC3339Nano),
		latitude:    math.Round(req.Location.Latitude*1e4) / 1e4,
		longitude:   math.Round(req.Location.Longitude*1e4) / 1e4,
		houseSystem: hs,
	}
}

func (c *CachedEvaluator) lookup(ctx context.Context, key cacheKey) (*Evaluation, error) {
	const q = `
		SELECT payload FROM evaluations
		WHERE evaluator = ? AND at = ? AND latitude = ? AND longitude = ? AND house_system = ?`

	var payload string
	err := c.db.QueryRowContext(ctx, q, key.evaluator, key.at, key.latitude, key.longitude, key.houseSystem).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: lookup: %w", err)
	}

	var eval Evaluation
	if err := json.Unmarshal([]byte(payload), &eval); err != nil {
		return nil, fmt.Errorf("cache: decode payload: %w", err)
	}
	return &eval, nil
}

func (c *CachedEvaluator) store(ctx context.Context, key cacheKey, eval *Evaluation) error {
	payload, err := json.Marshal(eval)
	if err != nil {
		return fmt.Errorf("cache: encode payload: %w", err)
	}

	const q = `
		INSERT INTO evaluations (evaluator, at, latitude, longitude, house_system, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(evaluator, at, latitude, longitude, house_system) DO UPDATE SET payload = excluded.payload`
	if _, err := c.db.ExecContext(ctx, q, key.evaluator, key.at, key.latitude, key.longitude, key.houseSystem, string(payload)); err != nil {
		return fmt.Errorf("cache: store: %w", err)
	}
	return nil
}
