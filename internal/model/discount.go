package model

import (
	"time"

	"github.com/google/uuid"
)

// Discount represents a promotional rule with optional redemption caps.
// A nil cap means unlimited.
type Discount struct {
	ID               string    `json:"id" db:"id"`
	Code             string    `json:"code" db:"code"`
	Name             string    `json:"name" db:"name"`
	MaxTotalUses     *int      `json:"maxTotalUses,omitempty" db:"max_total_uses"`
	CurrentTotalUses int       `json:"currentTotalUses" db:"current_total_uses"`
	MaxUsesPerUser   *int      `json:"maxUsesPerUser,omitempty" db:"max_uses_per_user"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`
}

// HasTotalCap reports whether the discount limits redemptions across all users.
func (d *Discount) HasTotalCap() bool {
	return d.MaxTotalUses != nil
}

// TotalCapReached reports whether no further redemptions fit under the total cap.
func (d *Discount) TotalCapReached() bool {
	return d.MaxTotalUses != nil && d.CurrentTotalUses >= *d.MaxTotalUses
}

// UsageRecord is one successful redemption of a discount by a user.
type UsageRecord struct {
	ID         uuid.UUID `json:"id" db:"id"`
	DiscountID string    `json:"discountId" db:"discount_id"`
	UserID     string    `json:"userId" db:"user_id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// RedeemRequest represents the request payload for redeeming a discount.
// Both ids are opaque; only presence is checked.
type RedeemRequest struct {
	DiscountID string `json:"discountId" validate:"required"`
	UserID     string `json:"userId" validate:"required"`
}

// RedeemResponse represents a successful redemption.
type RedeemResponse struct {
	Success bool `json:"success"`
}

// DiscountResponse is the admin view of a discount and its usage log size.
type DiscountResponse struct {
	Discount
	RecordedUses int `json:"recordedUses"`
}
