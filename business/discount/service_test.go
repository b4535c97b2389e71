//go:build !integration

package discount

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"myTrendyMart/domain"
)

// ---- in-memory fakes ----

type fakeCouponRepo struct {
	mu      sync.Mutex
	coupons map[string]*domain.Coupon // keyed by normalized code
	byID    map[uint]*domain.Coupon
}

func newFakeCouponRepo(coupons ...*domain.Coupon) *fakeCouponRepo {
	r := &fakeCouponRepo{
		coupons: make(map[string]*domain.Coupon),
		byID:    make(map[uint]*domain.Coupon),
	}
	for _, c := range coupons {
		r.coupons[domain.NormalizeCouponCode(c.Code)] = c
		r.byID[c.ID] = c
	}
	return r
}

func (r *fakeCouponRepo) GetByCode(_ context.Context, code string) (*domain.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.coupons[domain.NormalizeCouponCode(code)]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCouponRepo) IncrementUsage(_ context.Context, couponID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[couponID]
	if !ok {
		return false, nil
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return false, nil
	}
	c.UsedCount++
	return true, nil
}

type fakeRuleRepo struct {
	rules []domain.AutoDiscountRule
}

func (r *fakeRuleRepo) ListActive(_ context.Context, _ time.Time) ([]domain.AutoDiscountRule, error) {
	return r.rules, nil
}

type fakeRedemptionRepo struct {
	mu      sync.Mutex
	byOrder map[string]domain.CouponRedemption
}

func newFakeRedemptionRepo() *fakeRedemptionRepo {
	return &fakeRedemptionRepo{byOrder: make(map[string]domain.CouponRedemption)}
}

func (r *fakeRedemptionRepo) Create(_ context.Context, redemption domain.CouponRedemption) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byOrder[redemption.OrderID]; exists {
		return false, nil
	}
	r.byOrder[redemption.OrderID] = redemption
	return true, nil
}

func (r *fakeRedemptionRepo) DeleteByOrder(_ context.Context, orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byOrder, orderID)
	return nil
}

func (r *fakeRedemptionRepo) CountByCouponAndUser(_ context.Context, couponID, customerID uint) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, red := range r.byOrder {
		if red.CouponID != nil && *red.CouponID == couponID &&
			red.CustomerID != nil && *red.CustomerID == customerID {
			count++
		}
	}
	return count, nil
}

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func uptr(v uint) *uint       { return &v }
func tptr(v time.Time) *time.Time {
	return &v
}

func newTestService(coupons []*domain.Coupon, rules []domain.AutoDiscountRule) (*Service, *fakeCouponRepo, *fakeRedemptionRepo) {
	couponRepo := newFakeCouponRepo(coupons...)
	redemptionRepo := newFakeRedemptionRepo()
	svc := NewService(couponRepo, &fakeRuleRepo{rules: rules}, redemptionRepo)
	return svc, couponRepo, redemptionRepo
}

// ---- resolution ----

func TestResolvePercentageCouponWithCap(t *testing.T) {
	coupon := &domain.Coupon{
		ID:                 1,
		Code:               "SAVE10",
		DiscountType:       domain.DiscountPercentage,
		DiscountValue:      10,
		MinimumOrderAmount: fptr(500),
		UsageLimit:         iptr(100),
		IsActive:           true,
	}
	svc, _, _ := newTestService([]*domain.Coupon{coupon}, nil)

	res, err := svc.Resolve(context.Background(), domain.Cart{Subtotal: 1000}, "save10")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if res.Source != domain.SourceCoupon {
		t.Fatalf("expected coupon source, got %q", res.Source)
	}
	if res.Amount != 100 {
		t.Errorf("expected amount 100, got %v", res.Amount)
	}
	if res.AppliedID != 1 {
		t.Errorf("expected applied id 1, got %d", res.AppliedID)
	}
	if res.CouponReason != "" {
		t.Errorf("unexpected rejection reason %q", res.CouponReason)
	}

	// With a cap the percentage amount is clamped.
	coupon.MaximumDiscount = fptr(50)
	svc2, _, _ := newTestService([]*domain.Coupon{coupon}, nil)
	res, err = svc2.Resolve(context.Background(), domain.Cart{Subtotal: 1000}, "SAVE10")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if res.Amount != 50 {
		t.Errorf("expected capped amount 50, got %v", res.Amount)
	}
}

func TestResolveFixedNeverExceedsSubtotal(t *testing.T) {
	coupon := &domain.Coupon{
		ID:            2,
		Code:          "FIXED200",
		DiscountType:  domain.DiscountFixed,
		DiscountValue: 200,
		IsActive:      true,
	}
	svc, _, _ := newTestService([]*domain.Coupon{coupon}, nil)

	res, err := svc.Resolve(context.Background(), domain.Cart{Subtotal: 150}, "FIXED200")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if res.Amount != 150 {
		t.Errorf("fixed discount must floor at subtotal, got %v", res.Amount)
	}
}

func TestResolveFreeShipping(t *testing.T) {
	coupon := &domain.Coupon{
		ID:           3,
		Code:         "SHIPFREE",
		DiscountType: domain.DiscountFreeShipping,
		IsActive:     true,
	}
	svc, _, _ := newTestService([]*domain.Coupon{coupon}, nil)

	res, err := svc.Resolve(context.Background(), domain.Cart{Subtotal: 100, ShippingCost: 60}, "SHIPFREE")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if res.Amount != 60 {
		t.Errorf("free shipping should equal shipping cost, got %v", res.Amount)
	}
}

func TestResolveRejectionReasons(t *testing.T) {
	now := time.Now()
	customer := uptr(7)

	cases := []struct {
		name   string
		coupon *domain.Coupon
		cart   domain.Cart
		code   string
		reason domain.RejectionReason
	}{
		{
			name:   "unknown code",
			coupon: nil,
			cart:   domain.Cart{Subtotal: 100},
			code:   "NOPE",
			reason: domain.ReasonNotFound,
		},
		{
			name:   "inactive",
			coupon: &domain.Coupon{ID: 1, Code: "OFF", DiscountType: domain.DiscountFixed, DiscountValue: 10},
			cart:   domain.Cart{Subtotal: 100},
			code:   "OFF",
			reason: domain.ReasonInactive,
		},
		{
			name: "not yet valid",
			coupon: &domain.Coupon{
				ID: 2, Code: "SOON", DiscountType: domain.DiscountFixed, DiscountValue: 10,
				IsActive: true, StartsAt: tptr(now.Add(time.Hour)),
			},
			cart:   domain.Cart{Subtotal: 100},
			code:   "SOON",
			reason: domain.ReasonNotYetValid,
		},
		{
			name: "expired",
			coupon: &domain.Coupon{
				ID: 3, Code: "OLD", DiscountType: domain.DiscountFixed, DiscountValue: 10,
				IsActive: true, ExpiresAt: tptr(now.Add(-time.Hour)),
			},
			cart:   domain.Cart{Subtotal: 100},
			code:   "OLD",
			reason: domain.ReasonExpired,
		},
		{
			name: "below minimum",
			coupon: &domain.Coupon{
				ID: 4, Code: "BIG", DiscountType: domain.DiscountPercentage, DiscountValue: 10,
				IsActive: true, MinimumOrderAmount: fptr(500),
			},
			cart:   domain.Cart{Subtotal: 499.99},
			code:   "BIG",
			reason: domain.ReasonBelowMinimum,
		},
		{
			name: "usage exhausted",
			coupon: &domain.Coupon{
				ID: 5, Code: "GONE", DiscountType: domain.DiscountFixed, DiscountValue: 10,
				IsActive: true, UsageLimit: iptr(3), UsedCount: 3,
			},
			cart:   domain.Cart{Subtotal: 100},
			code:   "GONE",
			reason: domain.ReasonUsageExhausted,
		},
		{
			name: "first order only",
			coupon: &domain.Coupon{
				ID: 6, Code: "WELCOME", DiscountType: domain.DiscountFixed, DiscountValue: 10,
				IsActive: true, FirstOrderOnly: true,
			},
			cart:   domain.Cart{Subtotal: 100, CustomerID: customer},
			code:   "WELCOME",
			reason: domain.ReasonNotFirstOrder,
		},
		{
			name: "allow list mismatch",
			coupon: &domain.Coupon{
				ID: 7, Code: "SHOES", DiscountType: domain.DiscountFixed, DiscountValue: 10,
				IsActive: true, ApplicableCategoryIDs: []uint64{42},
			},
			cart: domain.Cart{
				Subtotal: 100,
				Items:    []domain.CartItem{{ProductID: 1, CategoryID: 9, Quantity: 1}},
			},
			code:   "SHOES",
			reason: domain.ReasonNotApplicable,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var coupons []*domain.Coupon
			if tc.coupon != nil {
				coupons = append(coupons, tc.coupon)
			}
			svc, _, _ := newTestService(coupons, nil)

			res, err := svc.Resolve(context.Background(), tc.cart, tc.code)
			if err != nil {
				t.Fatalf("Resolve returned error: %v", err)
			}
			if res.CouponReason != tc.reason {
				t.Errorf("expected reason %q, got %q", tc.reason, res.CouponReason)
			}
			if res.Source != domain.SourceNone {
				t.Errorf("rejected coupon with no rules should resolve to none, got %q", res.Source)
			}
			if res.Amount != 0 {
				t.Errorf("rejected coupon should carry no amount, got %v", res.Amount)
			}
			if res.CouponMessage == "" {
				t.Errorf("rejection must carry a storefront message")
			}
		})
	}
}

func TestResolveRejectionMessagesDiffer(t *testing.T) {
	reasons := []domain.RejectionReason{
		domain.ReasonNotFound, domain.ReasonInactive, domain.ReasonNotYetValid,
		domain.ReasonExpired, domain.ReasonBelowMinimum, domain.ReasonUsageExhausted,
		domain.ReasonPerUserLimitReached, domain.ReasonNotFirstOrder, domain.ReasonNotApplicable,
	}
	seen := make(map[string]domain.RejectionReason)
	for _, r := range reasons {
		msg := r.Message(500)
		if prev, dup := seen[msg]; dup {
			t.Errorf("reasons %q and %q share message %q", prev, r, msg)
		}
		seen[msg] = r
	}
}

func TestResolvePerUserLimit(t *testing.T) {
	coupon := &domain.Coupon{
		ID: 8, Code: "ONCE", DiscountType: domain.DiscountFixed, DiscountValue: 10,
		IsActive: true, PerUserLimit: iptr(1),
	}
	svc, _, redemptions := newTestService([]*domain.Coupon{coupon}, nil)

	customer := uptr(42)
	redemptions.byOrder["prior-order"] = domain.CouponRedemption{
		OrderID: "prior-order", CouponID: uptr(8), CustomerID: customer,
	}

	res, err := svc.Resolve(context.Background(), domain.Cart{Subtotal: 100, CustomerID: customer}, "ONCE")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if res.CouponReason != domain.ReasonPerUserLimitReached {
		t.Errorf("expected per-user rejection, got %q", res.CouponReason)
	}

	// A guest cart has no redemption history to count against.
	res, err = svc.Resolve(context.Background(), domain.Cart{Subtotal: 100}, "ONCE")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if res.Source != domain.SourceCoupon {
		t.Errorf("guest should pass the per-user check, got source %q reason %q", res.Source, res.CouponReason)
	}
}

func TestResolveBestOfferCouponVsRule(t *testing.T) {
	coupon := &domain.Coupon{
		ID: 1, Code: "FIXED200", DiscountType: domain.DiscountFixed, DiscountValue: 200,
		IsActive: true,
	}
	rule := domain.AutoDiscountRule{
		ID: 11, Name: "10% over 2000", RuleType: domain.RuleCartTotal,
		DiscountType: domain.DiscountPercentage, DiscountValue: 10,
		MinPurchase: fptr(2000), IsActive: true,
	}
	svc, _, _ := newTestService([]*domain.Coupon{coupon}, []domain.AutoDiscountRule{rule})

	// Rule gives 300 on a 3000 cart, beating the 200 coupon.
	res, err := svc.Resolve(context.Background(), domain.Cart{Subtotal: 3000}, "FIXED200")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if res.Source != domain.SourceAutoRule || res.Amount != 300 || res.AppliedID != 11 {
		t.Errorf("expected rule to win with 300, got source=%q amount=%v id=%d", res.Source, res.Amount, res.AppliedID)
	}
	if res.CouponReason != "" {
		t.Errorf("valid coupon must not carry a rejection reason, got %q", res.CouponReason)
	}

	// On a 2000 cart both give 200; the coupon wins the tie.
	res, err = svc.Resolve(context.Background(), domain.Cart{Subtotal: 2000}, "FIXED200")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if res.Source != domain.SourceCoupon || res.Amount != 200 {
		t.Errorf("expected coupon to win the tie, got source=%q amount=%v", res.Source, res.Amount)
	}
}

func TestResolveRejectedCouponFallsBackToRule(t *testing.T) {
	coupon := &domain.Coupon{
		ID: 1, Code: "OLD", DiscountType: domain.DiscountFixed, DiscountValue: 500,
		IsActive: true, ExpiresAt: tptr(time.Now().Add(-time.Minute)),
	}
	rule := domain.AutoDiscountRule{
		ID: 20, Name: "flat 50", RuleType: domain.RuleCartTotal,
		DiscountType: domain.DiscountFixed, DiscountValue: 50, IsActive: true,
	}
	svc, _, _ := newTestService([]*domain.Coupon{coupon}, []domain.AutoDiscountRule{rule})

	res, err := svc.Resolve(context.Background(), domain.Cart{Subtotal: 1000}, "OLD")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if res.Source != domain.SourceAutoRule || res.Amount != 50 {
		t.Errorf("expected rule fallback, got source=%q amount=%v", res.Source, res.Amount)
	}
	if res.CouponReason != domain.ReasonExpired {
		t.Errorf("rejection reason must survive the fallback, got %q", res.CouponReason)
	}
}

func TestResolveRulePriorityAndTieBreak(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rules := []domain.AutoDiscountRule{
		{ID: 1, RuleType: domain.RuleCartTotal, DiscountType: domain.DiscountFixed, DiscountValue: 10, Priority: 1, IsActive: true, CreatedAt: base},
		{ID: 2, RuleType: domain.RuleCartTotal, DiscountType: domain.DiscountFixed, DiscountValue: 20, Priority: 5, IsActive: true, CreatedAt: base},
		{ID: 3, RuleType: domain.RuleCartTotal, DiscountType: domain.DiscountFixed, DiscountValue: 30, Priority: 5, IsActive: true, CreatedAt: base.Add(time.Hour)},
	}
	svc, _, _ := newTestService(nil, rules)

	res, err := svc.Resolve(context.Background(), domain.Cart{Subtotal: 1000}, "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if res.AppliedID != 3 {
		t.Errorf("expected newest rule of top priority to win, got id %d", res.AppliedID)
	}
}

func TestResolveRuleEligibility(t *testing.T) {
	rules := []domain.AutoDiscountRule{
		{ID: 1, RuleType: domain.RuleBulkPurchase, DiscountType: domain.DiscountFixed, DiscountValue: 40,
			Conditions: map[string]interface{}{"min_quantity": float64(5)}, IsActive: true},
		{ID: 2, RuleType: domain.RuleLoyaltyTier, DiscountType: domain.DiscountFixed, DiscountValue: 60,
			Conditions: map[string]interface{}{"tier": "gold"}, Priority: 1, IsActive: true},
	}
	svc, _, _ := newTestService(nil, rules)

	// Four items, no tier: nothing applies.
	cart := domain.Cart{Subtotal: 1000, Items: []domain.CartItem{{ProductID: 1, Quantity: 4}}}
	res, err := svc.Resolve(context.Background(), cart, "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if res.Source != domain.SourceNone {
		t.Errorf("expected no discount, got %q", res.Source)
	}

	// Five items qualifies for bulk.
	cart.Items[0].Quantity = 5
	res, err = svc.Resolve(context.Background(), cart, "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if res.AppliedID != 1 || res.Amount != 40 {
		t.Errorf("expected bulk rule, got id=%d amount=%v", res.AppliedID, res.Amount)
	}

	// Gold tier outranks bulk on priority.
	cart.LoyaltyTier = "gold"
	res, err = svc.Resolve(context.Background(), cart, "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if res.AppliedID != 2 || res.Amount != 60 {
		t.Errorf("expected loyalty rule, got id=%d amount=%v", res.AppliedID, res.Amount)
	}
}

func TestResolveInvalidCart(t *testing.T) {
	svc, _, _ := newTestService(nil, nil)

	if _, err := svc.Resolve(context.Background(), domain.Cart{Subtotal: -1}, ""); !errors.Is(err, ErrInvalidCart) {
		t.Errorf("expected ErrInvalidCart for negative subtotal, got %v", err)
	}

	cart := domain.Cart{Subtotal: 10, Items: []domain.CartItem{{ProductID: 1, Quantity: -1}}}
	if _, err := svc.Resolve(context.Background(), cart, ""); !errors.Is(err, ErrInvalidCart) {
		t.Errorf("expected ErrInvalidCart for negative quantity, got %v", err)
	}
}

// ---- commit ----

func TestCommitIdempotentByOrder(t *testing.T) {
	coupon := &domain.Coupon{
		ID: 1, Code: "SAVE10", DiscountType: domain.DiscountPercentage, DiscountValue: 10,
		IsActive: true, UsageLimit: iptr(10),
	}
	svc, couponRepo, _ := newTestService([]*domain.Coupon{coupon}, nil)

	for i := 0; i < 3; i++ {
		if err := svc.Commit(context.Background(), 1, domain.SourceCoupon, "order-1", nil); err != nil {
			t.Fatalf("Commit attempt %d failed: %v", i, err)
		}
	}

	if got := couponRepo.byID[1].UsedCount; got != 1 {
		t.Errorf("expected used count 1 after repeated commits, got %d", got)
	}
}

func TestCommitNoneIsNoop(t *testing.T) {
	svc, _, redemptions := newTestService(nil, nil)

	if err := svc.Commit(context.Background(), 0, domain.SourceNone, "order-1", nil); err != nil {
		t.Fatalf("Commit for none source must succeed: %v", err)
	}
	if len(redemptions.byOrder) != 0 {
		t.Errorf("none source must not record redemptions")
	}
}

func TestCommitUsageCapUnderContention(t *testing.T) {
	const limit = 5
	const attempts = limit + 4

	coupon := &domain.Coupon{
		ID: 1, Code: "LIMITED", DiscountType: domain.DiscountFixed, DiscountValue: 10,
		IsActive: true, UsageLimit: iptr(limit),
	}
	svc, couponRepo, redemptions := newFakeCommitHarness(coupon)

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Commit(context.Background(), 1, domain.SourceCoupon, fmt.Sprintf("order-%d", i), nil)
		}(i)
	}
	wg.Wait()

	succeeded, exhausted := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrUsageExhausted):
			exhausted++
		default:
			t.Fatalf("unexpected commit error: %v", err)
		}
	}

	if succeeded != limit {
		t.Errorf("expected exactly %d successful commits, got %d", limit, succeeded)
	}
	if exhausted != attempts-limit {
		t.Errorf("expected %d exhausted commits, got %d", attempts-limit, exhausted)
	}
	if got := couponRepo.byID[1].UsedCount; got != limit {
		t.Errorf("used count must equal the cap, got %d", got)
	}
	// Losing commits roll their redemption rows back.
	if got := len(redemptions.byOrder); got != limit {
		t.Errorf("expected %d redemption rows, got %d", limit, got)
	}
}

func newFakeCommitHarness(coupon *domain.Coupon) (*Service, *fakeCouponRepo, *fakeRedemptionRepo) {
	return newTestService([]*domain.Coupon{coupon}, nil)
}
