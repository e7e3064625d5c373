package repository

import (
	"context"
	"errors"
	"fmt"

	"discount-service/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const discountColumns = `id, code, name, max_total_uses, current_total_uses, max_uses_per_user, created_at, updated_at`

// discountRepository implements the DiscountRepository interface using PostgreSQL.
type discountRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewDiscountRepository creates a new PostgreSQL-backed discount repository.
func NewDiscountRepository(pool *pgxpool.Pool, logger zerolog.Logger) DiscountRepository {
	return &discountRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "discount").Logger(),
	}
}

// GetByID retrieves a discount by its ID.
func (r *discountRepository) GetByID(ctx context.Context, id string) (*model.Discount, error) {
	query := `SELECT ` + discountColumns + ` FROM discounts WHERE id = $1`

	discount, err := scanDiscount(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("discount_id", id).Msg("discount not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("discount_id", id).Msg("failed to query discount")
		return nil, fmt.Errorf("failed to query discount: %w", err)
	}

	return discount, nil
}

// ReserveUse increments the counter within tx only while the total cap has room.
func (r *discountRepository) ReserveUse(ctx context.Context, tx pgx.Tx, id string) (bool, error) {
	query := `
		UPDATE discounts
		SET current_total_uses = current_total_uses + 1, updated_at = now()
		WHERE id = $1
		  AND (max_total_uses IS NULL OR current_total_uses < max_total_uses)
		RETURNING current_total_uses
	`

	var current int
	err := tx.QueryRow(ctx, query, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("discount_id", id).Msg("total cap reached, no use reserved")
			return false, nil
		}
		r.logger.Error().Err(err).Str("discount_id", id).Msg("failed to reserve discount use")
		return false, fmt.Errorf("failed to reserve discount use: %w", err)
	}

	r.logger.Debug().
		Str("discount_id", id).
		Int("current_total_uses", current).
		Msg("discount use reserved")

	return true, nil
}

// IncrementUses increments the counter by one.
func (r *discountRepository) IncrementUses(ctx context.Context, id string) error {
	query := `
		UPDATE discounts
		SET current_total_uses = current_total_uses + 1, updated_at = now()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error().Err(err).Str("discount_id", id).Msg("failed to increment discount uses")
		return fmt.Errorf("failed to increment discount uses: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to increment discount uses: %w", ErrUnknownDiscount)
	}

	return nil
}

// Reconcile raises the counter to the number of recorded usages.
func (r *discountRepository) Reconcile(ctx context.Context, id string) (*model.Discount, error) {
	query := `
		UPDATE discounts d
		SET current_total_uses = GREATEST(
				d.current_total_uses,
				(SELECT count(*) FROM discount_usage u WHERE u.discount_id = d.id)
			),
			updated_at = now()
		WHERE d.id = $1
		RETURNING ` + discountColumns

	discount, err := scanDiscount(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("discount_id", id).Msg("failed to reconcile discount")
		return nil, fmt.Errorf("failed to reconcile discount: %w", err)
	}

	r.logger.Info().
		Str("discount_id", id).
		Int("current_total_uses", discount.CurrentTotalUses).
		Msg("discount counter reconciled")

	return discount, nil
}

// UpsertMany creates or updates discount definitions in a single batch.
func (r *discountRepository) UpsertMany(ctx context.Context, discounts []model.Discount) error {
	if len(discounts) == 0 {
		return nil
	}

	query := `
		INSERT INTO discounts (id, code, name, max_total_uses, max_uses_per_user)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET code = EXCLUDED.code,
			name = EXCLUDED.name,
			max_total_uses = EXCLUDED.max_total_uses,
			max_uses_per_user = EXCLUDED.max_uses_per_user,
			updated_at = now()
	`

	batch := &pgx.Batch{}
	for _, d := range discounts {
		batch.Queue(query, d.ID, d.Code, d.Name, d.MaxTotalUses, d.MaxUsesPerUser)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(discounts); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("discount_id", discounts[i].ID).
				Msg("failed to upsert discount")
			return fmt.Errorf("failed to upsert discount %s: %w", discounts[i].ID, err)
		}
	}

	r.logger.Debug().
		Int("count", len(discounts)).
		Msg("discounts upserted successfully")

	return nil
}

func scanDiscount(row pgx.Row) (*model.Discount, error) {
	var d model.Discount
	err := row.Scan(
		&d.ID,
		&d.Code,
		&d.Name,
		&d.MaxTotalUses,
		&d.CurrentTotalUses,
		&d.MaxUsesPerUser,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
