package domain

import (
	"time"

	"gorm.io/datatypes"
)

type RuleType string

const (
	RuleCartTotal     RuleType = "cart_total"
	RuleFirstOrder    RuleType = "first_order"
	RuleBulkPurchase  RuleType = "bulk_purchase"
	RuleLoyaltyTier   RuleType = "loyalty_tier"
	RuleBirthday      RuleType = "birthday"
	RuleAbandonedCart RuleType = "abandoned_cart"
)

// AutoDiscountRule is a promotion that applies without a code. Rules are
// evaluated fresh on every pricing request; exactly one eligible rule wins
// (highest Priority, newest CreatedAt on ties) and rules never combine.
//
// Conditions carries rule-type specific data:
//
//	bulk_purchase: {"min_quantity": 5}
//	loyalty_tier:  {"tier": "gold"}
type AutoDiscountRule struct {
	ID            uint               `gorm:"primaryKey" json:"id"`
	Name          string             `gorm:"type:varchar(128);not null" json:"name"`
	RuleType      RuleType           `gorm:"type:varchar(32);not null" json:"rule_type"`
	DiscountType  DiscountType       `gorm:"type:varchar(20);not null" json:"discount_type"`
	DiscountValue float64            `gorm:"not null" json:"discount_value"`
	MinPurchase   *float64           `json:"min_purchase,omitempty"`
	MaxDiscount   *float64           `json:"max_discount,omitempty"`
	Priority      int                `gorm:"not null;default:0" json:"priority"`
	Conditions    datatypes.JSONMap  `json:"conditions,omitempty"`
	StartsAt      *time.Time         `json:"starts_at,omitempty"`
	ExpiresAt     *time.Time         `json:"expires_at,omitempty"`
	IsActive      bool               `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}
