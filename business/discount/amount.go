package discount

import "myTrendyMart/domain"

// computeAmount applies the shared percentage/fixed/free-shipping semantics
// used by both coupons and auto rules. The result never exceeds the cart
// subtotal (free shipping excepted: the caller-supplied shipping cost is an
// opaque pass-through) and never exceeds the cap when one is set.
func computeAmount(
	discountType domain.DiscountType,
	value float64,
	cap *float64,
	cart domain.Cart,
) float64 {
	var amount float64

	switch discountType {
	case domain.DiscountPercentage:
		amount = cart.Subtotal * value / 100
		if cap != nil && amount > *cap {
			amount = *cap
		}
	case domain.DiscountFixed:
		amount = value
		if cap != nil && amount > *cap {
			amount = *cap
		}
	case domain.DiscountFreeShipping:
		return cart.ShippingCost
	default:
		return 0
	}

	if amount > cart.Subtotal {
		amount = cart.Subtotal
	}
	if amount < 0 {
		amount = 0
	}

	return amount
}
