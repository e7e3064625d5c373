package repository

import (
	"context"
	"fmt"

	"discount-service/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// usageRepository implements the UsageRepository interface using PostgreSQL.
type usageRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUsageRepository creates a new PostgreSQL-backed usage repository.
func NewUsageRepository(pool *pgxpool.Pool, logger zerolog.Logger) UsageRepository {
	return &usageRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "usage").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *usageRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// Insert records a usage within the provided transaction.
func (r *usageRepository) Insert(ctx context.Context, tx pgx.Tx, usage *model.UsageRecord) error {
	query := `
		INSERT INTO discount_usage (id, discount_id, user_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := tx.Exec(ctx, query, usage.ID, usage.DiscountID, usage.UserID, usage.CreatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			r.logger.Debug().
				Str("discount_id", usage.DiscountID).
				Str("user_id", usage.UserID).
				Msg("usage already recorded")
			return ErrDuplicateUsage
		case isForeignKeyViolation(err):
			return ErrUnknownDiscount
		}

		r.logger.Error().
			Err(err).
			Str("discount_id", usage.DiscountID).
			Str("user_id", usage.UserID).
			Msg("failed to insert usage")
		return fmt.Errorf("failed to insert usage: %w", err)
	}

	r.logger.Debug().
		Str("usage_id", usage.ID.String()).
		Str("discount_id", usage.DiscountID).
		Msg("usage recorded")

	return nil
}

// CountByUser counts usage records for a discount and user.
func (r *usageRepository) CountByUser(ctx context.Context, discountID, userID string) (int, error) {
	query := `SELECT count(*) FROM discount_usage WHERE discount_id = $1 AND user_id = $2`

	var count int
	if err := r.pool.QueryRow(ctx, query, discountID, userID).Scan(&count); err != nil {
		r.logger.Error().
			Err(err).
			Str("discount_id", discountID).
			Str("user_id", userID).
			Msg("failed to count user usages")
		return 0, fmt.Errorf("failed to count user usages: %w", err)
	}

	return count, nil
}

// CountByDiscount counts usage records for a discount.
func (r *usageRepository) CountByDiscount(ctx context.Context, discountID string) (int, error) {
	query := `SELECT count(*) FROM discount_usage WHERE discount_id = $1`

	var count int
	if err := r.pool.QueryRow(ctx, query, discountID).Scan(&count); err != nil {
		r.logger.Error().Err(err).Str("discount_id", discountID).Msg("failed to count usages")
		return 0, fmt.Errorf("failed to count usages: %w", err)
	}

	return count, nil
}
