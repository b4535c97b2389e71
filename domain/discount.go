package domain

import "fmt"

type DiscountSource string

const (
	SourceCoupon   DiscountSource = "coupon"
	SourceAutoRule DiscountSource = "auto_rule"
	SourceNone     DiscountSource = "none"
)

// Cart is the pricing view of a checkout handed to the resolver. It is a
// value snapshot; the resolver never mutates storage while computing.
type Cart struct {
	Subtotal     float64
	ShippingCost float64
	Items        []CartItem
	IsFirstOrder bool
	CustomerID   *uint
	LoyaltyTier  string
	IsBirthday   bool

	// set when the checkout was reached from an abandoned-cart reminder
	FromAbandoned bool
}

// TotalQuantity sums item quantities, used by bulk_purchase rules.
func (c Cart) TotalQuantity() int {
	total := 0
	for _, it := range c.Items {
		total += it.Quantity
	}
	return total
}

// Resolution is the single outcome of a pricing request. Source is a tag:
// a cart gets the coupon amount or the auto-rule amount, never both.
// CouponReason is populated when a code was supplied but rejected, so the
// storefront can show the specific message even if an auto rule still won.
type Resolution struct {
	Amount        float64         `json:"amount"`
	Source        DiscountSource  `json:"source"`
	AppliedID     uint            `json:"applied_id,omitempty"`
	CouponReason  RejectionReason `json:"coupon_reason,omitempty"`
	CouponMessage string          `json:"coupon_message,omitempty"`
}

// RejectionReason is a business-rule rejection of a coupon code. These are
// returned as values, not errors: an expired coupon is a normal outcome.
type RejectionReason string

const (
	ReasonNotFound            RejectionReason = "not_found"
	ReasonInactive            RejectionReason = "inactive"
	ReasonNotYetValid         RejectionReason = "not_yet_valid"
	ReasonExpired             RejectionReason = "expired"
	ReasonBelowMinimum        RejectionReason = "below_minimum"
	ReasonUsageExhausted      RejectionReason = "usage_exhausted"
	ReasonPerUserLimitReached RejectionReason = "per_user_limit_reached"
	ReasonNotFirstOrder       RejectionReason = "not_first_order"
	ReasonNotApplicable       RejectionReason = "not_applicable"
)

// Message returns the storefront copy for a rejection. Each reason maps to
// its own message; min-order amounts are substituted by the caller.
func (r RejectionReason) Message(minimumOrderAmount float64) string {
	switch r {
	case ReasonNotFound:
		return "This coupon code does not exist"
	case ReasonInactive:
		return "This coupon is no longer active"
	case ReasonNotYetValid:
		return "This coupon is not valid yet"
	case ReasonExpired:
		return "This coupon has expired"
	case ReasonBelowMinimum:
		return fmt.Sprintf("This coupon requires a minimum order of ৳%.2f", minimumOrderAmount)
	case ReasonUsageExhausted:
		return "This coupon has reached its usage limit"
	case ReasonPerUserLimitReached:
		return "You have already used this coupon the maximum number of times"
	case ReasonNotFirstOrder:
		return "This coupon is only valid on your first order"
	case ReasonNotApplicable:
		return "This coupon does not apply to the items in your cart"
	default:
		return "This coupon cannot be applied"
	}
}
