// Package postgres persists the station catalog in a relational schema:
// a stations table plus, per measurement cadence, a measurement type table
// and a station-measurement junction table.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mhornych/chmi-station-catalog/internal/domain"
)

// Store wraps a pgx connection pool and implements domain.SyncStore.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New connects to Postgres and verifies the connection.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// EnsureSchema creates the catalog tables when they do not exist yet. The
// UNIQUE constraints on wsi and abbreviation and the composite junction
// primary keys back the create-or-reuse semantics at the schema level.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS stations (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			wsi TEXT NOT NULL UNIQUE,
			gh_id TEXT NOT NULL DEFAULT '',
			full_name TEXT NOT NULL DEFAULT '',
			x DOUBLE PRECISION NOT NULL DEFAULT 0,
			y DOUBLE PRECISION NOT NULL DEFAULT 0,
			elevation DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, cat := range domain.Categories() {
		suffix := cat.Suffix()
		stmts = append(stmts,
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS measurements_%s (
				id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
				abbreviation TEXT NOT NULL UNIQUE,
				name TEXT NOT NULL DEFAULT '',
				unit TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, suffix),
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS station_measurements_%s (
				station_id BIGINT NOT NULL REFERENCES stations(id),
				measurement_id BIGINT NOT NULL REFERENCES measurements_%s(id),
				PRIMARY KEY (station_id, measurement_id)
			)`, suffix, suffix),
		)
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	s.logger.Debug("schema ensured", "categories", len(domain.Categories()))
	return nil
}

// BeginSync opens one transaction covering a whole synchronization run.
func (s *Store) BeginSync(ctx context.Context) (domain.SyncSession, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &session{tx: tx}, nil
}

// session scopes catalog lookups and creates to a single transaction.
type session struct {
	tx pgx.Tx
}

func (s *session) FindMeasurement(ctx context.Context, cat domain.Category, abbreviation string) (int64, bool, error) {
	query := fmt.Sprintf(`SELECT id FROM measurements_%s WHERE abbreviation = $1`, cat.Suffix())

	var id int64
	err := s.tx.QueryRow(ctx, query, abbreviation).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("select measurement: %w", err)
	}
	return id, true, nil
}

func (s *session) CreateMeasurement(ctx context.Context, cat domain.Category, m domain.Tuple) (int64, error) {
	query := fmt.Sprintf(
		`INSERT INTO measurements_%s (abbreviation, name, unit) VALUES ($1, $2, $3) RETURNING id`,
		cat.Suffix())

	var id int64
	if err := s.tx.QueryRow(ctx, query, m.Abbreviation(), m.Name(), m.Unit()).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert measurement: %w", err)
	}
	return id, nil
}

func (s *session) FindStation(ctx context.Context, wsi string) (int64, bool, error) {
	var id int64
	err := s.tx.QueryRow(ctx, `SELECT id FROM stations WHERE wsi = $1`, wsi).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("select station: %w", err)
	}
	return id, true, nil
}

func (s *session) CreateStation(ctx context.Context, rec domain.StationRecord) (int64, error) {
	var id int64
	err := s.tx.QueryRow(ctx,
		`INSERT INTO stations (wsi, gh_id, full_name, x, y, elevation)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		rec.WSI, rec.GHID, rec.FullName, rec.X, rec.Y, rec.Elevation).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert station: %w", err)
	}
	return id, nil
}

func (s *session) HasAssociation(ctx context.Context, cat domain.Category, stationID, measurementID int64) (bool, error) {
	query := fmt.Sprintf(
		`SELECT EXISTS (SELECT 1 FROM station_measurements_%s WHERE station_id = $1 AND measurement_id = $2)`,
		cat.Suffix())

	var exists bool
	if err := s.tx.QueryRow(ctx, query, stationID, measurementID).Scan(&exists); err != nil {
		return false, fmt.Errorf("select association: %w", err)
	}
	return exists, nil
}

func (s *session) CreateAssociation(ctx context.Context, cat domain.Category, stationID, measurementID int64) error {
	query := fmt.Sprintf(
		`INSERT INTO station_measurements_%s (station_id, measurement_id) VALUES ($1, $2)`,
		cat.Suffix())

	if _, err := s.tx.Exec(ctx, query, stationID, measurementID); err != nil {
		return fmt.Errorf("insert association: %w", err)
	}
	return nil
}

func (s *session) Commit(ctx context.Context) error {
	return s.tx.Commit(ctx)
}

func (s *session) Rollback(ctx context.Context) error {
	return s.tx.Rollback(ctx)
}
