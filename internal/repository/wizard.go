package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/puresec-ng/banyan-portal/internal/wizard"
)

// WizardRepository is the Postgres implementation of wizard.Store.
type WizardRepository struct {
	pool *pgxpool.Pool
}

// NewWizardRepository constructs a repository.
func NewWizardRepository(pool *pgxpool.Pool) *WizardRepository {
	return &WizardRepository{pool: pool}
}

func (r *WizardRepository) Save(ctx context.Context, s *wizard.State) error {
	steps, err := json.Marshal(s.Steps)
	if err != nil {
		return fmt.Errorf("encode wizard steps: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO wizard_states (owner_id, current_step, claim_type_id, steps, dirty, idempotency_key, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (owner_id) DO UPDATE SET
			current_step=EXCLUDED.current_step,
			claim_type_id=EXCLUDED.claim_type_id,
			steps=EXCLUDED.steps,
			dirty=EXCLUDED.dirty,
			updated_at=EXCLUDED.updated_at
	`, s.OwnerID, s.CurrentStep, s.ClaimTypeID, steps, s.Dirty, s.IdempotencyKey, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert wizard state: %w", err)
	}
	return nil
}

func (r *WizardRepository) Get(ctx context.Context, ownerID string) (*wizard.State, error) {
	var (
		s     wizard.State
		steps []byte
	)
	row := r.pool.QueryRow(ctx, `
		SELECT owner_id, current_step, COALESCE(claim_type_id,''), steps, dirty, idempotency_key, created_at, updated_at
		FROM wizard_states WHERE owner_id=$1
	`, ownerID)
	if err := row.Scan(&s.OwnerID, &s.CurrentStep, &s.ClaimTypeID, &steps, &s.Dirty, &s.IdempotencyKey, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wizard.ErrNotFound
		}
		return nil, fmt.Errorf("select wizard state: %w", err)
	}
	if err := json.Unmarshal(steps, &s.Steps); err != nil {
		return nil, fmt.Errorf("decode wizard steps: %w", err)
	}
	if s.Steps == nil {
		s.Steps = make(map[wizard.Step]json.RawMessage)
	}
	return &s, nil
}

func (r *WizardRepository) Delete(ctx context.Context, ownerID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM wizard_states WHERE owner_id=$1`, ownerID); err != nil {
		return fmt.Errorf("delete wizard state: %w", err)
	}
	return nil
}

func (r *WizardRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM wizard_states WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale wizard states: %w", err)
	}
	return tag.RowsAffected(), nil
}
