package service

import (
	"context"
	"errors"
	"time"

	"discount-service/internal/config"
	"discount-service/internal/metrics"
	"discount-service/internal/model"
	"discount-service/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "discount-service/internal/service"

// counterUpdateTimeout bounds the best-effort increment that follows a
// committed usage insert.
const counterUpdateTimeout = 2 * time.Second

// redemptionService implements RedemptionService.
type redemptionService struct {
	discounts repository.DiscountRepository
	usages    repository.UsageRepository
	cfg       config.RedemptionConfig
	now       func() time.Time
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewRedemptionService creates a new redemption service.
func NewRedemptionService(
	discounts repository.DiscountRepository,
	usages repository.UsageRepository,
	cfg config.RedemptionConfig,
	logger zerolog.Logger,
) RedemptionService {
	return &redemptionService{
		discounts: discounts,
		usages:    usages,
		cfg:       cfg,
		now:       time.Now,
		tracer:    otel.Tracer(tracerName),
		logger:    logger.With().Str("service", "redemption").Logger(),
	}
}

// Redeem runs the checks in order and stops at the first failure:
// discount exists, total cap has room, per-user cap has room, usage insert
// is unique. The counter increment that follows is best-effort unless the
// total cap is enforced strictly, in which case it is reserved in the same
// transaction as the insert.
func (s *redemptionService) Redeem(ctx context.Context, discountID, userID string) (err error) {
	ctx, span := s.tracer.Start(ctx, "RedemptionService.Redeem", trace.WithAttributes(
		attribute.String("discount.id", discountID),
		attribute.String("user.id", userID),
	))
	defer func() {
		outcome := outcomeOf(err)
		metrics.ObserveRedemption(outcome)
		span.SetAttributes(attribute.String("redemption.outcome", outcome))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
	}()

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	logger := s.logger.With().Str("discount_id", discountID).Str("user_id", userID).Logger()

	discount, err := s.discounts.GetByID(ctx, discountID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load discount")
		return model.NewTransientError("load discount", err)
	}
	if discount == nil {
		logger.Debug().Msg("discount not found")
		return model.ErrDiscountNotFound
	}

	if discount.TotalCapReached() {
		logger.Info().
			Int("current_total_uses", discount.CurrentTotalUses).
			Int("max_total_uses", *discount.MaxTotalUses).
			Msg("total cap reached")
		return model.ErrTotalCapExceeded
	}

	if discount.MaxUsesPerUser != nil {
		if err := s.checkUserCap(ctx, discount, userID, logger); err != nil {
			return err
		}
	}

	usage := &model.UsageRecord{
		ID:         uuid.New(),
		DiscountID: discount.ID,
		UserID:     userID,
		CreatedAt:  s.now().UTC(),
	}

	reserve := s.cfg.StrictTotalCap && discount.HasTotalCap()
	if err := s.recordUsage(ctx, usage, reserve, logger); err != nil {
		return err
	}

	if !reserve {
		// The usage record is the source of truth and is already durable.
		// A failed increment only leaves the counter lagging until reconciled.
		// Detached from the caller so a disconnect after commit cannot
		// leave the counter lagging.
		incCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), counterUpdateTimeout)
		err := s.discounts.IncrementUses(incCtx, discount.ID)
		cancel()
		if err != nil {
			metrics.ObserveCounterUpdateFailure()
			logger.Error().
				Err(err).
				Str("usage_id", usage.ID.String()).
				Msg("usage recorded but counter increment failed")
		}
	}

	logger.Info().
		Str("usage_id", usage.ID.String()).
		Bool("reserved", reserve).
		Msg("discount redeemed")

	return nil
}

// checkUserCap counts the usages of userID. A failed count is surfaced rather
// than treated as zero.
func (s *redemptionService) checkUserCap(ctx context.Context, discount *model.Discount, userID string, logger zerolog.Logger) error {
	count, err := s.usages.CountByUser(ctx, discount.ID, userID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to count user usages")
		return model.NewTransientError("count user usages", err)
	}

	limit := *discount.MaxUsesPerUser
	if count < limit {
		return nil
	}

	logger.Info().
		Int("user_uses", count).
		Int("max_uses_per_user", limit).
		Msg("per-user cap reached")

	if limit == 1 && count > 0 {
		return model.ErrAlreadyUsed
	}
	return model.ErrUserCapExceeded
}

// recordUsage inserts the usage and, when reserve is set, claims a unit of
// the total cap in the same transaction.
func (s *redemptionService) recordUsage(ctx context.Context, usage *model.UsageRecord, reserve bool, logger zerolog.Logger) error {
	tx, err := s.usages.BeginTx(ctx)
	if err != nil {
		return model.NewTransientError("begin transaction", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
	}()

	if err := s.usages.Insert(ctx, tx, usage); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateUsage):
			logger.Info().Msg("usage already recorded")
			return model.ErrAlreadyUsed
		case errors.Is(err, repository.ErrUnknownDiscount):
			logger.Info().Msg("discount removed before usage insert")
			return model.ErrDiscountNotFound
		}
		logger.Error().Err(err).Msg("failed to insert usage")
		return model.NewTransientError("insert usage", err)
	}

	if reserve {
		reserved, err := s.discounts.ReserveUse(ctx, tx, usage.DiscountID)
		if err != nil {
			logger.Error().Err(err).Msg("failed to reserve discount use")
			return model.NewTransientError("reserve discount use", err)
		}
		if !reserved {
			logger.Info().Msg("total cap reached by a concurrent redemption")
			return model.ErrTotalCapExceeded
		}
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to commit transaction")
		return model.NewTransientError("commit redemption", err)
	}
	committed = true

	return nil
}
