package integration

import (
	"context"
	"testing"
	"time"

	"discount-service/internal/config"
	"discount-service/internal/database"
	"discount-service/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container with the discount schema
// and a connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}

	pool, err := database.NewPoolFromConnString(ctx, connStr, dbConfig, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := database.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedDiscounts inserts discount definitions, including their counters.
func SeedDiscounts(t *testing.T, pool *pgxpool.Pool, discounts ...model.Discount) {
	t.Helper()

	ctx := context.Background()

	for _, d := range discounts {
		_, err := pool.Exec(ctx,
			`INSERT INTO discounts (id, code, name, max_total_uses, current_total_uses, max_uses_per_user)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			d.ID, d.Code, d.Name, d.MaxTotalUses, d.CurrentTotalUses, d.MaxUsesPerUser,
		)
		if err != nil {
			t.Fatalf("failed to seed discount %s: %v", d.ID, err)
		}
	}
}

// DiscountState returns the counter and the usage log cardinality of a discount.
func DiscountState(t *testing.T, pool *pgxpool.Pool, discountID string) (counter, recorded int) {
	t.Helper()

	err := pool.QueryRow(context.Background(),
		`SELECT d.current_total_uses, (SELECT count(*) FROM discount_usage u WHERE u.discount_id = d.id)
		 FROM discounts d WHERE d.id = $1`,
		discountID,
	).Scan(&counter, &recorded)
	if err != nil {
		t.Fatalf("failed to read state of discount %s: %v", discountID, err)
	}

	return counter, recorded
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	if _, err := pool.Exec(context.Background(), "TRUNCATE discount_usage, discounts"); err != nil {
		t.Fatalf("failed to clean tables: %v", err)
	}
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
