package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/tina/internal/intake"
	"github.com/MikeSquared-Agency/tina/internal/outcome"
)

// WriteOutcome records an outcome and its policies in one transaction.
// Tables: tina_outcomes, tina_outcome_policies.
func (s *Store) WriteOutcome(ctx context.Context, o outcome.Outcome) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO tina_outcomes (id, kind, truck_status, racing_status, age_status, turns, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, string(o.Kind), o.Facts.Truck.String(), o.Facts.Racing.String(), o.Facts.Age.String(), o.Turns, o.At,
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}

	for i, p := range o.Policies {
		_, err = tx.Exec(ctx, `
			INSERT INTO tina_outcome_policies (outcome_id, policy_code, position)
			VALUES ($1, $2, $3)`,
			o.ID, string(p), i,
		)
		if err != nil {
			return fmt.Errorf("insert policy %s: %w", p, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// OutcomeRow is a ledger entry read back from the database.
type OutcomeRow struct {
	ID        uuid.UUID
	Kind      string
	Truck     string
	Racing    string
	Age       string
	Turns     int
	Policies  intake.PolicySet
	CreatedAt time.Time
}

func (s *Store) GetOutcome(ctx context.Context, id uuid.UUID) (*OutcomeRow, error) {
	var row OutcomeRow
	err := s.pool.QueryRow(ctx, `
		SELECT id, kind, truck_status, racing_status, age_status, turns, created_at
		FROM tina_outcomes WHERE id = $1`, id,
	).Scan(&row.ID, &row.Kind, &row.Truck, &row.Racing, &row.Age, &row.Turns, &row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get outcome: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT policy_code FROM tina_outcome_policies
		WHERE outcome_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("get outcome policies: %w", err)
	}
	defer rows.Close()

	var ids []intake.PolicyID
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan policy: %w", err)
		}
		if p, ok := intake.ParsePolicyID(code); ok {
			ids = append(ids, p)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policies: %w", err)
	}

	row.Policies = intake.NewPolicySet(ids...)
	return &row, nil
}
