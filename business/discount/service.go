package discount

import (
	"context"
	"errors"
	"fmt"
	"time"

	"myTrendyMart/domain"
	"myTrendyMart/pkg/logger"
	"myTrendyMart/pkg/metrics"
)

// ErrInvalidCart flags malformed resolver input. Business-rule rejections
// (expired code, below minimum, ...) are never errors; they come back as
// domain.RejectionReason values inside the Resolution.
var ErrInvalidCart = errors.New("invalid cart input")

// ---- Repository interfaces ----

type CouponRepository interface {
	// GetByCode returns (nil, nil) when no coupon matches the normalized code.
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)

	// IncrementUsage bumps used_count by one only while still below the
	// usage limit. Returns false when the cap is already reached. This is
	// the one mutation that must be a conditional update at the store.
	IncrementUsage(ctx context.Context, couponID uint) (bool, error)
}

type RuleRepository interface {
	// ListActive returns rules that are active and inside their validity
	// window at the given instant.
	ListActive(ctx context.Context, now time.Time) ([]domain.AutoDiscountRule, error)
}

type RedemptionRepository interface {
	// Create records a redemption, returning false when the order already
	// has one (idempotent commit).
	Create(ctx context.Context, redemption domain.CouponRedemption) (bool, error)

	// DeleteByOrder removes a redemption row, used to roll back a commit
	// whose usage increment lost the cap race.
	DeleteByOrder(ctx context.Context, orderID string) error

	CountByCouponAndUser(ctx context.Context, couponID, customerID uint) (int, error)
}

// ---- Usecase / Service ----

// Service resolves the single applicable discount for a cart and commits
// redemptions after order persistence. Resolution has no side effects;
// Commit is the only mutating path.
//
// Refunds and cancellations never release a redemption: used_count is
// monotonic and a cancelled order keeps its redemption row.
type Service struct {
	couponRepo     CouponRepository
	ruleRepo       RuleRepository
	redemptionRepo RedemptionRepository
}

func NewService(
	couponRepo CouponRepository,
	ruleRepo RuleRepository,
	redemptionRepo RedemptionRepository,
) *Service {
	return &Service{
		couponRepo:     couponRepo,
		ruleRepo:       ruleRepo,
		redemptionRepo: redemptionRepo,
	}
}

// Resolve computes the discount for the cart, optionally trying couponCode.
// When both a valid coupon and an eligible auto rule exist, the larger
// amount wins; the customer never gets both.
func (s *Service) Resolve(ctx context.Context, cart domain.Cart, couponCode string) (domain.Resolution, error) {
	if err := ctx.Err(); err != nil {
		return domain.Resolution{}, fmt.Errorf("context error: %w", err)
	}
	if cart.Subtotal < 0 || cart.ShippingCost < 0 {
		return domain.Resolution{}, ErrInvalidCart
	}
	for _, it := range cart.Items {
		if it.Quantity < 0 || it.UnitPrice < 0 {
			return domain.Resolution{}, ErrInvalidCart
		}
	}

	now := time.Now()
	res := domain.Resolution{Source: domain.SourceNone}

	var coupon *domain.Coupon
	couponAmount := 0.0

	if couponCode != "" {
		c, reason, err := s.validateCoupon(ctx, cart, couponCode, now)
		if err != nil {
			return domain.Resolution{}, err
		}
		if reason != "" {
			res.CouponReason = reason
			minimum := 0.0
			if c != nil && c.MinimumOrderAmount != nil {
				minimum = *c.MinimumOrderAmount
			}
			res.CouponMessage = reason.Message(minimum)
			metrics.CouponRejectionsTotal.WithLabelValues(string(reason)).Inc()
		} else {
			coupon = c
			couponAmount = computeAmount(c.DiscountType, c.DiscountValue, c.MaximumDiscount, cart)
		}
	}

	rule, ruleAmount, err := s.bestRule(ctx, cart, now)
	if err != nil {
		return domain.Resolution{}, err
	}

	switch {
	case coupon != nil && couponAmount >= ruleAmount:
		res.Amount = couponAmount
		res.Source = domain.SourceCoupon
		res.AppliedID = coupon.ID
	case rule != nil && ruleAmount > 0:
		res.Amount = ruleAmount
		res.Source = domain.SourceAutoRule
		res.AppliedID = rule.ID
	}

	metrics.DiscountResolutionsTotal.WithLabelValues(string(res.Source)).Inc()

	logger.Debug("discount_resolved",
		"source", res.Source,
		"amount", res.Amount,
		"applied_id", res.AppliedID,
		"coupon_reason", res.CouponReason,
		"subtotal", cart.Subtotal,
	)

	return res, nil
}

// validateCoupon runs the rejection pipeline in order, short-circuiting on
// the first failing check. A non-empty reason means "rejected"; an error
// means the store itself failed.
func (s *Service) validateCoupon(
	ctx context.Context,
	cart domain.Cart,
	code string,
	now time.Time,
) (*domain.Coupon, domain.RejectionReason, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, domain.NormalizeCouponCode(code))
	if err != nil {
		return nil, "", fmt.Errorf("lookup coupon: %w", err)
	}
	if coupon == nil {
		return nil, domain.ReasonNotFound, nil
	}

	if !coupon.IsActive {
		return coupon, domain.ReasonInactive, nil
	}

	if coupon.StartsAt != nil && now.Before(*coupon.StartsAt) {
		return coupon, domain.ReasonNotYetValid, nil
	}
	if coupon.ExpiresAt != nil && now.After(*coupon.ExpiresAt) {
		return coupon, domain.ReasonExpired, nil
	}

	if coupon.MinimumOrderAmount != nil && cart.Subtotal < *coupon.MinimumOrderAmount {
		return coupon, domain.ReasonBelowMinimum, nil
	}

	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return coupon, domain.ReasonUsageExhausted, nil
	}

	if coupon.PerUserLimit != nil && cart.CustomerID != nil {
		used, err := s.redemptionRepo.CountByCouponAndUser(ctx, coupon.ID, *cart.CustomerID)
		if err != nil {
			return nil, "", fmt.Errorf("count redemptions: %w", err)
		}
		if used >= *coupon.PerUserLimit {
			return coupon, domain.ReasonPerUserLimitReached, nil
		}
	}

	if coupon.FirstOrderOnly && !cart.IsFirstOrder {
		return coupon, domain.ReasonNotFirstOrder, nil
	}

	if len(coupon.ApplicableProductIDs) > 0 || len(coupon.ApplicableCategoryIDs) > 0 {
		if !cartMatchesAllowList(cart, coupon.ApplicableProductIDs, coupon.ApplicableCategoryIDs) {
			return coupon, domain.ReasonNotApplicable, nil
		}
	}

	return coupon, "", nil
}

func cartMatchesAllowList(cart domain.Cart, productIDs, categoryIDs []uint64) bool {
	products := make(map[uint64]struct{}, len(productIDs))
	for _, id := range productIDs {
		products[id] = struct{}{}
	}
	categories := make(map[uint64]struct{}, len(categoryIDs))
	for _, id := range categoryIDs {
		categories[id] = struct{}{}
	}

	for _, it := range cart.Items {
		if _, ok := products[it.ProductID]; ok {
			return true
		}
		if _, ok := categories[it.CategoryID]; ok {
			return true
		}
	}

	return false
}

// Commit records the redemption for a durably created order. Safe to call
// twice for the same order: the redemption row is keyed by order id and the
// usage counter is only incremented when the row is new.
func (s *Service) Commit(
	ctx context.Context,
	appliedID uint,
	source domain.DiscountSource,
	orderID string,
	customerID *uint,
) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if source == domain.SourceNone {
		return nil
	}
	if orderID == "" || appliedID == 0 {
		return ErrInvalidCart
	}

	redemption := domain.CouponRedemption{
		OrderID:    orderID,
		CustomerID: customerID,
	}
	switch source {
	case domain.SourceCoupon:
		id := appliedID
		redemption.CouponID = &id
	case domain.SourceAutoRule:
		id := appliedID
		redemption.RuleID = &id
	default:
		return fmt.Errorf("unknown discount source %q", source)
	}

	created, err := s.redemptionRepo.Create(ctx, redemption)
	if err != nil {
		return fmt.Errorf("record redemption: %w", err)
	}
	if !created {
		// Order already committed; nothing more to do.
		return nil
	}

	if source == domain.SourceCoupon {
		ok, err := s.couponRepo.IncrementUsage(ctx, appliedID)
		if err != nil {
			return fmt.Errorf("increment coupon usage: %w", err)
		}
		if !ok {
			// Lost the race for the last use. Roll the row back so the
			// commit leaves no partial state behind.
			if delErr := s.redemptionRepo.DeleteByOrder(ctx, orderID); delErr != nil {
				return fmt.Errorf("roll back redemption: %w", delErr)
			}
			metrics.RedemptionConflictsTotal.Inc()
			logger.Warn("coupon usage cap hit at commit",
				"coupon_id", appliedID,
				"order_id", orderID,
			)
			return domain.ErrUsageExhausted
		}
	}

	logger.Info("discount committed",
		"source", source,
		"applied_id", appliedID,
		"order_id", orderID,
	)

	return nil
}
