package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS tina_outcomes (
	id            UUID PRIMARY KEY,
	kind          TEXT NOT NULL CHECK (kind IN ('recommended', 'declined')),
	truck_status  TEXT NOT NULL,
	racing_status TEXT NOT NULL,
	age_status    TEXT NOT NULL,
	turns         INT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tina_outcome_policies (
	outcome_id  UUID NOT NULL REFERENCES tina_outcomes(id) ON DELETE CASCADE,
	policy_code TEXT NOT NULL CHECK (policy_code IN ('MBI', 'CCI', '3RDP')),
	position    INT NOT NULL,
	PRIMARY KEY (outcome_id, policy_code)
);

CREATE INDEX IF NOT EXISTS tina_outcomes_created_at_idx ON tina_outcomes (created_at);
`

// EnsureSchema creates the ledger tables if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
