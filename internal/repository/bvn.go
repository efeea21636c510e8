package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrBVNRecordNotFound is returned when a profile has no verified BVN record.
var ErrBVNRecordNotFound = errors.New("bvn record not found")

// BVNRecord stores only a bcrypt hash of a verified BVN plus its masked tail.
// The raw number never persists; the hash lets re-verification detect a
// different number being supplied for the same profile.
type BVNRecord struct {
	ProfileID  string    `json:"profile_id"`
	BVNHash    string    `json:"-"`
	MaskedTail string    `json:"masked_tail"`
	VerifiedAt time.Time `json:"verified_at"`
}

// BVNRepository wraps SQL for BVN verification records.
type BVNRepository struct {
	pool *pgxpool.Pool
}

// NewBVNRepository constructs a repository.
func NewBVNRepository(pool *pgxpool.Pool) *BVNRepository {
	return &BVNRepository{pool: pool}
}

// Upsert records a verified BVN hash for a profile.
func (r *BVNRepository) Upsert(ctx context.Context, rec *BVNRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO bvn_records (profile_id, bvn_hash, masked_tail, verified_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (profile_id) DO UPDATE SET
			bvn_hash=EXCLUDED.bvn_hash,
			masked_tail=EXCLUDED.masked_tail,
			verified_at=EXCLUDED.verified_at
	`, rec.ProfileID, rec.BVNHash, rec.MaskedTail, rec.VerifiedAt)
	if err != nil {
		return fmt.Errorf("upsert bvn record: %w", err)
	}
	return nil
}

// Get returns the record for a profile.
func (r *BVNRepository) Get(ctx context.Context, profileID string) (*BVNRecord, error) {
	var rec BVNRecord
	row := r.pool.QueryRow(ctx, `
		SELECT profile_id, bvn_hash, masked_tail, verified_at
		FROM bvn_records WHERE profile_id=$1
	`, profileID)
	if err := row.Scan(&rec.ProfileID, &rec.BVNHash, &rec.MaskedTail, &rec.VerifiedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBVNRecordNotFound
		}
		return nil, fmt.Errorf("select bvn record: %w", err)
	}
	return &rec, nil
}
