package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/sitroom/sitrep/internal/domain"
)

const monitorsSchema = `
CREATE TABLE IF NOT EXISTS monitors (
	id               TEXT PRIMARY KEY,
	query            TEXT NOT NULL,
	alert_threshold  DOUBLE PRECISION NOT NULL,
	check_interval_s BIGINT NOT NULL,
	is_active        BOOLEAN NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL,
	last_checked     TIMESTAMPTZ,
	alert_count      INTEGER NOT NULL DEFAULT 0
)`

// monitorRow mirrors the monitors table.
type monitorRow struct {
	ID             string     `db:"id"`
	Query          string     `db:"query"`
	AlertThreshold float64    `db:"alert_threshold"`
	CheckIntervalS int64      `db:"check_interval_s"`
	IsActive       bool       `db:"is_active"`
	CreatedAt      time.Time  `db:"created_at"`
	LastChecked    *time.Time `db:"last_checked"`
	AlertCount     int        `db:"alert_count"`
}

// PostgresStore persists monitors in a postgres table. Save replaces the
// full list in one transaction so partial writes never leak.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects and ensures the schema exists.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := db.Exec(monitorsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure monitors schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) LoadMonitors(ctx context.Context) ([]domain.Monitor, error) {
	var rows []monitorRow
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM monitors ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load monitors: %w", err)
	}

	monitors := make([]domain.Monitor, 0, len(rows))
	for _, r := range rows {
		m := domain.Monitor{
			ID:             r.ID,
			Query:          r.Query,
			AlertThreshold: r.AlertThreshold,
			CheckInterval:  time.Duration(r.CheckIntervalS) * time.Second,
			IsActive:       r.IsActive,
			CreatedAt:      r.CreatedAt,
			AlertCount:     r.AlertCount,
		}
		if r.LastChecked != nil {
			m.LastChecked = *r.LastChecked
		}
		monitors = append(monitors, m)
	}
	return monitors, nil
}

func (s *PostgresStore) SaveMonitors(ctx context.Context, monitors []domain.Monitor) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin monitors tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM monitors`); err != nil {
		return fmt.Errorf("failed to clear monitors: %w", err)
	}

	const insert = `INSERT INTO monitors
		(id, query, alert_threshold, check_interval_s, is_active, created_at, last_checked, alert_count)
		VALUES (:id, :query, :alert_threshold, :check_interval_s, :is_active, :created_at, :last_checked, :alert_count)`

	for _, m := range monitors {
		row := monitorRow{
			ID:             m.ID,
			Query:          m.Query,
			AlertThreshold: m.AlertThreshold,
			CheckIntervalS: int64(m.CheckInterval / time.Second),
			IsActive:       m.IsActive,
			CreatedAt:      m.CreatedAt,
			AlertCount:     m.AlertCount,
		}
		if !m.LastChecked.IsZero() {
			lc := m.LastChecked
			row.LastChecked = &lc
		}
		if _, err := tx.NamedExecContext(ctx, insert, row); err != nil {
			return fmt.Errorf("failed to insert monitor %s: %w", m.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit monitors: %w", err)
	}
	return nil
}
