package domain

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

type DiscountType string

const (
	DiscountPercentage   DiscountType = "percentage"
	DiscountFixed        DiscountType = "fixed"
	DiscountFreeShipping DiscountType = "free_shipping"
)

// Coupon is an operator-created discount code. The code is stored normalized
// (upper-case, trimmed); UsedCount is only ever moved by the conditional
// increment in the repository, never from application memory.
type Coupon struct {
	ID                    uint                         `gorm:"primaryKey" json:"id"`
	Code                  string                       `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	DiscountType          DiscountType                 `gorm:"type:varchar(20);not null" json:"discount_type"`
	DiscountValue         float64                      `gorm:"not null" json:"discount_value"`
	MinimumOrderAmount    *float64                     `json:"minimum_order_amount,omitempty"`
	MaximumDiscount       *float64                     `json:"maximum_discount,omitempty"`
	UsageLimit            *int                         `json:"usage_limit,omitempty"`
	UsedCount             int                          `gorm:"not null;default:0" json:"used_count"`
	PerUserLimit          *int                         `json:"per_user_limit,omitempty"`
	FirstOrderOnly        bool                         `gorm:"not null;default:false" json:"first_order_only"`
	ApplicableProductIDs  datatypes.JSONSlice[uint64]  `json:"applicable_product_ids,omitempty"`
	ApplicableCategoryIDs datatypes.JSONSlice[uint64]  `json:"applicable_category_ids,omitempty"`
	StartsAt              *time.Time                   `json:"starts_at,omitempty"`
	ExpiresAt             *time.Time                   `json:"expires_at,omitempty"`
	IsActive              bool                         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt             time.Time                    `json:"created_at"`
	UpdatedAt             time.Time                    `json:"updated_at"`
}

// NormalizeCouponCode maps user input onto the stored form of a code.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CouponRedemption records one committed discount per order. OrderID is
// unique so a retried commit for the same order is a no-op.
type CouponRedemption struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	OrderID    string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_id"`
	CouponID   *uint     `gorm:"index" json:"coupon_id,omitempty"`
	RuleID     *uint     `gorm:"index" json:"rule_id,omitempty"`
	CustomerID *uint     `gorm:"index" json:"customer_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
