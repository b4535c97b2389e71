package discount

import (
	"context"
	"fmt"
	"time"

	"myTrendyMart/domain"
)

// bestRule evaluates all live auto rules against the cart and returns the
// winner: highest priority, newest CreatedAt on ties. Rules never combine.
func (s *Service) bestRule(ctx context.Context, cart domain.Cart, now time.Time) (*domain.AutoDiscountRule, float64, error) {
	rules, err := s.ruleRepo.ListActive(ctx, now)
	if err != nil {
		return nil, 0, fmt.Errorf("list active rules: %w", err)
	}

	var best *domain.AutoDiscountRule
	for i := range rules {
		rule := &rules[i]
		if !ruleEligible(*rule, cart) {
			continue
		}
		if best == nil ||
			rule.Priority > best.Priority ||
			(rule.Priority == best.Priority && rule.CreatedAt.After(best.CreatedAt)) {
			best = rule
		}
	}

	if best == nil {
		return nil, 0, nil
	}

	return best, computeAmount(best.DiscountType, best.DiscountValue, best.MaxDiscount, cart), nil
}

// ruleEligible checks the rule-type condition plus the shared minimum
// purchase gate. Rules whose condition needs context the cart does not
// carry (loyalty tier, birthday) are simply not eligible for that cart.
func ruleEligible(rule domain.AutoDiscountRule, cart domain.Cart) bool {
	if rule.MinPurchase != nil && cart.Subtotal < *rule.MinPurchase {
		return false
	}

	switch rule.RuleType {
	case domain.RuleCartTotal:
		return true
	case domain.RuleFirstOrder:
		return cart.IsFirstOrder
	case domain.RuleBulkPurchase:
		return cart.TotalQuantity() >= conditionInt(rule.Conditions, "min_quantity", 1)
	case domain.RuleLoyaltyTier:
		tier := conditionString(rule.Conditions, "tier")
		return tier != "" && tier == cart.LoyaltyTier
	case domain.RuleBirthday:
		return cart.IsBirthday
	case domain.RuleAbandonedCart:
		return cart.FromAbandoned
	default:
		return false
	}
}

// JSON numbers decode as float64; condition values are small positive ints.
func conditionInt(conditions map[string]interface{}, key string, fallback int) int {
	v, ok := conditions[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return fallback
	}
}

func conditionString(conditions map[string]interface{}, key string) string {
	if v, ok := conditions[key].(string); ok {
		return v
	}
	return ""
}
