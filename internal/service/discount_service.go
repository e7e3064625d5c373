package service

import (
	"context"

	"discount-service/internal/model"
	"discount-service/internal/repository"

	"github.com/rs/zerolog"
)

// discountService implements DiscountService.
type discountService struct {
	discounts repository.DiscountRepository
	usages    repository.UsageRepository
	logger    zerolog.Logger
}

// NewDiscountService creates a new discount service.
func NewDiscountService(
	discounts repository.DiscountRepository,
	usages repository.UsageRepository,
	logger zerolog.Logger,
) DiscountService {
	return &discountService{
		discounts: discounts,
		usages:    usages,
		logger:    logger.With().Str("service", "discount").Logger(),
	}
}

// GetByID returns a discount together with its usage log cardinality.
func (s *discountService) GetByID(ctx context.Context, id string) (*model.DiscountResponse, error) {
	discount, err := s.discounts.GetByID(ctx, id)
	if err != nil {
		return nil, model.NewTransientError("load discount", err)
	}
	if discount == nil {
		return nil, model.ErrDiscountNotFound
	}

	return s.withRecordedUses(ctx, discount)
}

// Reconcile raises the counter to the usage log cardinality.
func (s *discountService) Reconcile(ctx context.Context, id string) (*model.DiscountResponse, error) {
	before, err := s.discounts.GetByID(ctx, id)
	if err != nil {
		return nil, model.NewTransientError("load discount", err)
	}
	if before == nil {
		return nil, model.ErrDiscountNotFound
	}

	discount, err := s.discounts.Reconcile(ctx, id)
	if err != nil {
		return nil, model.NewTransientError("reconcile discount", err)
	}
	if discount == nil {
		return nil, model.ErrDiscountNotFound
	}

	if discount.CurrentTotalUses != before.CurrentTotalUses {
		s.logger.Warn().
			Str("discount_id", id).
			Int("previous_total_uses", before.CurrentTotalUses).
			Int("current_total_uses", discount.CurrentTotalUses).
			Msg("counter was lagging behind usage log")
	}

	return s.withRecordedUses(ctx, discount)
}

func (s *discountService) withRecordedUses(ctx context.Context, discount *model.Discount) (*model.DiscountResponse, error) {
	recorded, err := s.usages.CountByDiscount(ctx, discount.ID)
	if err != nil {
		return nil, model.NewTransientError("count usages", err)
	}

	return &model.DiscountResponse{
		Discount:     *discount,
		RecordedUses: recorded,
	}, nil
}
