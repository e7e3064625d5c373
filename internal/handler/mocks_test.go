package handler

import (
	"context"

	"discount-service/internal/model"

	"github.com/stretchr/testify/mock"
)

// MockRedemptionService is a mock implementation of RedemptionService.
type MockRedemptionService struct {
	mock.Mock
}

func (m *MockRedemptionService) Redeem(ctx context.Context, discountID, userID string) error {
	args := m.Called(ctx, discountID, userID)
	return args.Error(0)
}

// MockDiscountService is a mock implementation of DiscountService.
type MockDiscountService struct {
	mock.Mock
}

func (m *MockDiscountService) GetByID(ctx context.Context, id string) (*model.DiscountResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DiscountResponse), args.Error(1)
}

func (m *MockDiscountService) Reconcile(ctx context.Context, id string) (*model.DiscountResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DiscountResponse), args.Error(1)
}
