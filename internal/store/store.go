// SPDX-License-Identifier: MIT

// Package store provides SQLite persistence for processed high tide
// flooding data.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)
)

// AnnualRecord is one processed station-year of observed flooding.
type AnnualRecord struct {
	StationID     string
	StationName   string
	Region        string
	Year          int
	MajorCount    int
	ModerateCount int
	MinorCount    int
	MissingCount  int
	Completeness  float64
}

// ProjectionRecord is one processed station-decade of projected flood days
// per year under the five NOAA scenarios.
type ProjectionRecord struct {
	StationID        string
	StationName      string
	Region           string
	Decade           int
	Source           string
	Low              float64
	IntermediateLow  float64
	Intermediate     float64
	IntermediateHigh float64
	High             float64
}

// Summary reports row counts for the status command.
type Summary struct {
	AnnualRows         int
	AnnualStations     int
	ProjectionRows     int
	ProjectionStations int
}

// Store provides SQLite persistence for processed HTF data.
type Store struct {
	db *sql.DB
}

// New initializes the store and runs migrations. WAL mode and busy_timeout
// keep concurrent readers from tripping over the writer.
func New(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS annual_counts (
		station_id TEXT NOT NULL,
		station_name TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL DEFAULT '',
		year INTEGER NOT NULL,
		major_count INTEGER NOT NULL DEFAULT 0,
		moderate_count INTEGER NOT NULL DEFAULT 0,
		minor_count INTEGER NOT NULL DEFAULT 0,
		missing_count INTEGER NOT NULL DEFAULT 0,
		completeness REAL NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (station_id, year)
	);

	CREATE TABLE IF NOT EXISTS decadal_projections (
		station_id TEXT NOT NULL,
		station_name TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL DEFAULT '',
		decade INTEGER NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		low REAL NOT NULL DEFAULT 0,
		int_low REAL NOT NULL DEFAULT 0,
		intermediate REAL NOT NULL DEFAULT 0,
		int_high REAL NOT NULL DEFAULT 0,
		high REAL NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (station_id, decade, source)
	);

	CREATE INDEX IF NOT EXISTS idx_annual_region_year ON annual_counts(region, year);
	CREATE INDEX IF NOT EXISTS idx_projections_region_decade ON decadal_projections(region, decade);
	`

	_, err := s.db.Exec(schema)
	return err
}

// UpsertAnnual inserts or replaces processed annual records in one
// transaction.
func (s *Store) UpsertAnnual(ctx context.Context, records []AnnualRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO annual_counts
		(station_id, station_name, region, year, major_count, moderate_count, minor_count, missing_count, completeness, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(station_id, year) DO UPDATE SET
		station_name = excluded.station_name,
		region = excluded.region,
		major_count = excluded.major_count,
		moderate_count = excluded.moderate_count,
		minor_count = excluded.minor_count,
		missing_count = excluded.missing_count,
		completeness = excluded.completeness,
		updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.StationID, r.StationName, r.Region, r.Year,
			r.MajorCount, r.ModerateCount, r.MinorCount, r.MissingCount,
			r.Completeness, now,
		); err != nil {
			return fmt.Errorf("upsert annual %s/%d: %w", r.StationID, r.Year, err)
		}
	}

	return tx.Commit()
}

// UpsertProjections inserts or replaces processed projection records in one
// transaction.
func (s *Store) UpsertProjections(ctx context.Context, records []ProjectionRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO decadal_projections
		(station_id, station_name, region, decade, source, low, int_low, intermediate, int_high, high, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(station_id, decade, source) DO UPDATE SET
		station_name = excluded.station_name,
		region = excluded.region,
		low = excluded.low,
		int_low = excluded.int_low,
		intermediate = excluded.intermediate,
		int_high = excluded.int_high,
		high = excluded.high,
		updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.StationID, r.StationName, r.Region, r.Decade, r.Source,
			r.Low, r.IntermediateLow, r.Intermediate, r.IntermediateHigh, r.High, now,
		); err != nil {
			return fmt.Errorf("upsert projection %s/%d: %w", r.StationID, r.Decade, err)
		}
	}

	return tx.Commit()
}

// AnnualByStation returns a station's processed annual records ordered by
// year.
func (s *Store) AnnualByStation(ctx context.Context, stationID string) ([]AnnualRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT station_id, station_name, region, year, major_count, moderate_count, minor_count, missing_count, completeness
	FROM annual_counts
	WHERE station_id = ?
	ORDER BY year
	`, stationID)
	if err != nil {
		return nil, err
	}
	return scanAnnual(rows)
}

// AnnualByRegion returns a region's processed annual records within the
// inclusive year range, ordered by station and year.
func (s *Store) AnnualByRegion(ctx context.Context, region string, startYear, endYear int) ([]AnnualRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT station_id, station_name, region, year, major_count, moderate_count, minor_count, missing_count, completeness
	FROM annual_counts
	WHERE region = ? AND year BETWEEN ? AND ?
	ORDER BY station_id, year
	`, region, startYear, endYear)
	if err != nil {
		return nil, err
	}
	return scanAnnual(rows)
}

// ProjectionsByStation returns a station's processed projections ordered by
// decade.
func (s *Store) ProjectionsByStation(ctx context.Context, stationID string) ([]ProjectionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT station_id, station_name, region, decade, source, low, int_low, intermediate, int_high, high
	FROM decadal_projections
	WHERE station_id = ?
	ORDER BY decade
	`, stationID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []ProjectionRecord
	for rows.Next() {
		var r ProjectionRecord
		if err := rows.Scan(&r.StationID, &r.StationName, &r.Region, &r.Decade, &r.Source,
			&r.Low, &r.IntermediateLow, &r.Intermediate, &r.IntermediateHigh, &r.High); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Summarize reports row and station counts for both tables.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	var sum Summary
	err := s.db.QueryRowContext(ctx, `
	SELECT COUNT(*), COUNT(DISTINCT station_id) FROM annual_counts
	`).Scan(&sum.AnnualRows, &sum.AnnualStations)
	if err != nil {
		return Summary{}, err
	}
	err = s.db.QueryRowContext(ctx, `
	SELECT COUNT(*), COUNT(DISTINCT station_id) FROM decadal_projections
	`).Scan(&sum.ProjectionRows, &sum.ProjectionStations)
	if err != nil {
		return Summary{}, err
	}
	return sum, nil
}

func scanAnnual(rows *sql.Rows) ([]AnnualRecord, error) {
	defer func() { _ = rows.Close() }()

	var out []AnnualRecord
	for rows.Next() {
		var r AnnualRecord
		if err := rows.Scan(&r.StationID, &r.StationName, &r.Region, &r.Year,
			&r.MajorCount, &r.ModerateCount, &r.MinorCount, &r.MissingCount, &r.Completeness); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
