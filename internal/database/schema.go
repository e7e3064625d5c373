package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the discount tables. The unique constraint on
// discount_usage is what arbitrates concurrent redemptions by the same user.
const Schema = `
	CREATE TABLE IF NOT EXISTS discounts (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		max_total_uses INTEGER CHECK (max_total_uses IS NULL OR max_total_uses >= 0),
		current_total_uses INTEGER NOT NULL DEFAULT 0 CHECK (current_total_uses >= 0),
		max_uses_per_user INTEGER CHECK (max_uses_per_user IS NULL OR max_uses_per_user >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS discount_usage (
		id UUID PRIMARY KEY,
		discount_id TEXT NOT NULL REFERENCES discounts(id),
		user_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT discount_usage_discount_user_key UNIQUE (discount_id, user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_discount_usage_user_id ON discount_usage(user_id);
`

// EnsureSchema applies Schema. It is safe to run on every start-up.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
