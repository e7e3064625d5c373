package service

import (
	"context"
	"errors"

	"discount-service/internal/metrics"
	"discount-service/internal/model"
)

// RedemptionService decides whether a discount may be redeemed and records it.
type RedemptionService interface {
	// Redeem validates the caps of a discount for userID and records the
	// redemption. Failures are *model.DomainError or *model.TransientError.
	Redeem(ctx context.Context, discountID, userID string) error
}

// DiscountService exposes discount state to administrative screens.
type DiscountService interface {
	// GetByID returns a discount together with its usage log cardinality.
	GetByID(ctx context.Context, id string) (*model.DiscountResponse, error)

	// Reconcile raises the denormalised counter to the usage log cardinality.
	Reconcile(ctx context.Context, id string) (*model.DiscountResponse, error)
}

// outcomeOf maps a redemption result to its metrics label.
func outcomeOf(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}

	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		switch domainErr.Kind {
		case model.KindNotFound:
			return metrics.OutcomeNotFound
		case model.KindCapExceeded:
			return metrics.OutcomeCapExceeded
		case model.KindAlreadyUsed:
			return metrics.OutcomeAlreadyUsed
		}
	}

	return metrics.OutcomeTransient
}
