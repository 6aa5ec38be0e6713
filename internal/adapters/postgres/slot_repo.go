package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/fadepin/internal/core/ports"
)

var _ ports.SlotStore = (*SlotRepo)(nil)

// SlotRepo implements ports.SlotStore on the marker_slots table.
type SlotRepo struct {
	db *DB
}

func NewSlotRepo(db *DB) *SlotRepo {
	return &SlotRepo{db: db}
}

// Load returns the payload for key unless the row has expired.
func (r *SlotRepo) Load(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := r.db.Pool.QueryRow(ctx, `
		SELECT payload FROM marker_slots
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())
	`, key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ports.ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load slot %s: %w", key, err)
	}
	return payload, nil
}

// Save upserts the payload. ttl <= 0 clears the expiry.
func (r *SlotRepo) Save(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		expiresAt = &t
	}

	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO marker_slots (key, payload, expires_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (key) DO UPDATE SET
			payload    = EXCLUDED.payload,
			expires_at = EXCLUDED.expires_at,
			updated_at = now()
	`, key, data, expiresAt)
	if err != nil {
		return fmt.Errorf("save slot %s: %w", key, err)
	}
	return nil
}

// DeleteExpired removes rows whose expiry has passed and returns how many.
func (r *SlotRepo) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM marker_slots WHERE expires_at IS NOT NULL AND expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired slots: %w", err)
	}
	return tag.RowsAffected(), nil
}
