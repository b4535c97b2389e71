//go:build !integration

package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"myTrendyMart/domain"

	"github.com/labstack/echo/v4"
)

type fakeCouponStore struct {
	byID map[uint]*domain.Coupon
}

func (s *fakeCouponStore) Create(_ context.Context, coupon *domain.Coupon) error {
	coupon.ID = uint(len(s.byID) + 1)
	s.byID[coupon.ID] = coupon
	return nil
}

func (s *fakeCouponStore) Update(_ context.Context, coupon *domain.Coupon) error {
	if _, ok := s.byID[coupon.ID]; !ok {
		return domain.ErrNotFound
	}
	s.byID[coupon.ID] = coupon
	return nil
}

func (s *fakeCouponStore) Delete(_ context.Context, id uint) error {
	if _, ok := s.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *fakeCouponStore) List(_ context.Context) ([]domain.Coupon, error) {
	var out []domain.Coupon
	for _, c := range s.byID {
		out = append(out, *c)
	}
	return out, nil
}

func (s *fakeCouponStore) GetByCode(_ context.Context, code string) (*domain.Coupon, error) {
	normalized := domain.NormalizeCouponCode(code)
	for _, c := range s.byID {
		if c.Code == normalized {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeCouponStore) GetByID(_ context.Context, id uint) (*domain.Coupon, error) {
	c, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

type recordingInvalidator struct {
	codes []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, code string) error {
	r.codes = append(r.codes, domain.NormalizeCouponCode(code))
	return nil
}

func adminRequest(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestCouponAdminUpdateInvalidatesOldAndNewCode(t *testing.T) {
	store := &fakeCouponStore{byID: map[uint]*domain.Coupon{
		5: {ID: 5, Code: "OLDCODE", DiscountType: domain.DiscountFixed, DiscountValue: 10, IsActive: true},
	}}
	cache := &recordingInvalidator{}
	h := NewCouponAdminHandler(store, cache)

	c, rec := adminRequest(http.MethodPut, "/admin/coupons/5",
		`{"code":"NEWCODE","discount_type":"fixed","discount_value":25}`)
	c.SetParamNames("id")
	c.SetParamValues("5")

	if err := h.Update(c); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	want := map[string]bool{"OLDCODE": false, "NEWCODE": false}
	for _, code := range cache.codes {
		if _, ok := want[code]; ok {
			want[code] = true
		}
	}
	for code, seen := range want {
		if !seen {
			t.Errorf("expected cache invalidation for %q, got %v", code, cache.codes)
		}
	}
}

func TestCouponAdminDeleteInvalidatesStoredCode(t *testing.T) {
	store := &fakeCouponStore{byID: map[uint]*domain.Coupon{
		7: {ID: 7, Code: "BYEBYE", DiscountType: domain.DiscountFixed, DiscountValue: 10, IsActive: true},
	}}
	cache := &recordingInvalidator{}
	h := NewCouponAdminHandler(store, cache)

	c, rec := adminRequest(http.MethodDelete, "/admin/coupons/7", "")
	c.SetParamNames("id")
	c.SetParamValues("7")

	if err := h.Delete(c); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if len(cache.codes) != 1 || cache.codes[0] != "BYEBYE" {
		t.Errorf("expected the stored code to be invalidated, got %v", cache.codes)
	}

	if _, ok := store.byID[7]; ok {
		t.Errorf("coupon should be deleted from the store")
	}
}

func TestCouponAdminUpdateUnknownIDIs404(t *testing.T) {
	store := &fakeCouponStore{byID: map[uint]*domain.Coupon{}}
	h := NewCouponAdminHandler(store, &recordingInvalidator{})

	c, rec := adminRequest(http.MethodPut, "/admin/coupons/99",
		`{"code":"GHOST","discount_type":"fixed","discount_value":5}`)
	c.SetParamNames("id")
	c.SetParamValues("99")

	if err := h.Update(c); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
