package repository

import (
	"context"
	"errors"

	"discount-service/internal/model"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrDuplicateUsage is returned when a usage record for the same
	// discount and user already exists.
	ErrDuplicateUsage = errors.New("usage already recorded for discount and user")

	// ErrUnknownDiscount is returned when a write references a discount
	// that does not exist.
	ErrUnknownDiscount = errors.New("discount does not exist")
)

// DiscountRepository defines data access for discount definitions and their counters.
type DiscountRepository interface {
	// GetByID retrieves a discount. It returns nil without error when absent.
	GetByID(ctx context.Context, id string) (*model.Discount, error)

	// ReserveUse increments current_total_uses within tx only while the
	// total cap still has room. It reports false when the cap is reached.
	ReserveUse(ctx context.Context, tx pgx.Tx, id string) (bool, error)

	// IncrementUses unconditionally increments current_total_uses by one.
	IncrementUses(ctx context.Context, id string) error

	// Reconcile raises current_total_uses to the usage log cardinality.
	// It never lowers the counter and returns nil when the discount is absent.
	Reconcile(ctx context.Context, id string) (*model.Discount, error)

	// UpsertMany creates or updates discount definitions by id, leaving
	// current_total_uses untouched.
	UpsertMany(ctx context.Context, discounts []model.Discount) error
}

// UsageRepository defines data access for the discount usage log.
type UsageRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// Insert records a usage within tx. It returns ErrDuplicateUsage on a
	// (discount, user) uniqueness violation.
	Insert(ctx context.Context, tx pgx.Tx, usage *model.UsageRecord) error

	// CountByUser counts usage records for a discount and user.
	CountByUser(ctx context.Context, discountID, userID string) (int, error)

	// CountByDiscount counts usage records for a discount.
	CountByDiscount(ctx context.Context, discountID string) (int, error)
}
