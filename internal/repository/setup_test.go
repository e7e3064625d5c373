package repository

import (
	"context"
	"testing"
	"time"

	"discount-service/internal/database"
	"discount-service/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL testcontainer with the discount schema
// and returns a connection pool.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, database.EnsureSchema(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// seedDiscounts inserts discount definitions, including their counters.
func seedDiscounts(t *testing.T, pool *pgxpool.Pool, discounts ...model.Discount) {
	ctx := context.Background()

	query := `
		INSERT INTO discounts (id, code, name, max_total_uses, current_total_uses, max_uses_per_user)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, d := range discounts {
		_, err := pool.Exec(ctx, query, d.ID, d.Code, d.Name, d.MaxTotalUses, d.CurrentTotalUses, d.MaxUsesPerUser)
		require.NoError(t, err)
	}
}

// seedUsages inserts usage records for discountID, one per user.
func seedUsages(t *testing.T, pool *pgxpool.Pool, discountID string, users ...string) {
	ctx := context.Background()

	query := `INSERT INTO discount_usage (id, discount_id, user_id) VALUES (gen_random_uuid(), $1, $2)`

	for _, user := range users {
		_, err := pool.Exec(ctx, query, discountID, user)
		require.NoError(t, err)
	}
}

func intPtr(v int) *int {
	return &v
}
