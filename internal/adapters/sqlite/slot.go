// Package sqlite stores the marker slot in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/samirrijal/fadepin/internal/core/ports"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

var _ ports.SlotStore = (*Slot)(nil)

type slotRow struct {
	Key       string        `db:"key"`
	Payload   []byte        `db:"payload"`
	ExpiresAt sql.NullInt64 `db:"expires_at"`
	UpdatedAt int64         `db:"updated_at"`
}

// Slot implements ports.SlotStore on a single SQLite table.
type Slot struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open connects to the SQLite file at path and applies pending migrations.
func Open(path string) (*Slot, error) {
	db, err := sqlx.Connect("sqlite", fmt.Sprintf("%s?_journal=WAL&_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("connecting to sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting migration dialect: %w", err)
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying migrations: %w", err)
	}

	return &Slot{db: db, now: time.Now}, nil
}

// Load returns the payload stored under key. A row past its expiry counts as
// missing.
func (s *Slot) Load(ctx context.Context, key string) ([]byte, error) {
	var row slotRow
	err := s.db.GetContext(ctx, &row,
		`SELECT key, payload, expires_at, updated_at FROM marker_slots WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading slot %s: %w", key, err)
	}

	if row.ExpiresAt.Valid && row.ExpiresAt.Int64 <= s.now().UnixMilli() {
		return nil, ports.ErrSlotNotFound
	}
	return row.Payload, nil
}

// Save upserts the payload. ttl <= 0 stores it without expiry.
func (s *Slot) Save(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	now := s.now()
	row := slotRow{Key: key, Payload: data, UpdatedAt: now.UnixMilli()}
	if ttl > 0 {
		row.ExpiresAt = sql.NullInt64{Int64: now.Add(ttl).UnixMilli(), Valid: true}
	}

	query := `INSERT INTO marker_slots (key, payload, expires_at, updated_at)
	          VALUES (:key, :payload, :expires_at, :updated_at)
	          ON CONFLICT(key) DO UPDATE SET
	              payload = excluded.payload,
	              expires_at = excluded.expires_at,
	              updated_at = excluded.updated_at`

	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("saving slot %s: %w", key, err)
	}
	return nil
}

// Ping checks the database connection.
func (s *Slot) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Slot) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing sqlite: %w", err)
	}
	return nil
}
