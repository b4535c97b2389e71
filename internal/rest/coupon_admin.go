package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"myTrendyMart/domain"
	"myTrendyMart/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"
)

type (
	CouponAdminHandler struct {
		validate    *validator.Validate
		couponStore CouponStore
		cache       CouponInvalidator
	}

	CouponStore interface {
		Create(ctx context.Context, coupon *domain.Coupon) error
		Update(ctx context.Context, coupon *domain.Coupon) error
		Delete(ctx context.Context, id uint) error
		List(ctx context.Context) ([]domain.Coupon, error)
		GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
		GetByID(ctx context.Context, id uint) (*domain.Coupon, error)
	}

	// CouponInvalidator drops a cached coupon after a console write.
	CouponInvalidator interface {
		Invalidate(ctx context.Context, code string) error
	}

	CouponInput struct {
		Code                  string     `json:"code" validate:"required,min=3,max=64"`
		DiscountType          string     `json:"discount_type" validate:"required,oneof=percentage fixed free_shipping"`
		DiscountValue         float64    `json:"discount_value" validate:"gte=0"`
		MinimumOrderAmount    *float64   `json:"minimum_order_amount"`
		MaximumDiscount       *float64   `json:"maximum_discount"`
		UsageLimit            *int       `json:"usage_limit"`
		PerUserLimit          *int       `json:"per_user_limit"`
		FirstOrderOnly        bool       `json:"first_order_only"`
		ApplicableProductIDs  []uint64   `json:"applicable_product_ids"`
		ApplicableCategoryIDs []uint64   `json:"applicable_category_ids"`
		StartsAt              *time.Time `json:"starts_at"`
		ExpiresAt             *time.Time `json:"expires_at"`
		IsActive              *bool      `json:"is_active"`
	}
)

func NewCouponAdminHandler(couponStore CouponStore, cache CouponInvalidator) *CouponAdminHandler {
	return &CouponAdminHandler{
		validate:    validator.New(),
		couponStore: couponStore,
		cache:       cache,
	}
}

func (h *CouponAdminHandler) Create(c echo.Context) error {
	var request CouponInput

	if err := c.Bind(&request); err != nil {
		logger.Error("Invalid coupon body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validate.Struct(&request); err != nil {
		logger.Error("Failed coupon validation", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	coupon := couponFromInput(request)
	if err := h.couponStore.Create(c.Request().Context(), coupon); err != nil {
		logger.Error("Failed to create coupon", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(coupon))
}

func (h *CouponAdminHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid coupon id"})
	}

	var request CouponInput

	if err := c.Bind(&request); err != nil {
		logger.Error("Invalid coupon body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validate.Struct(&request); err != nil {
		logger.Error("Failed coupon validation", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	// The stored code is read first so a rename also evicts the old entry.
	existing, err := h.couponStore.GetByID(c.Request().Context(), uint(id))
	if err != nil {
		logger.Error("Failed to load coupon", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	if existing == nil {
		return c.JSON(http.StatusNotFound, ResponseError{Message: "coupon not found"})
	}

	coupon := couponFromInput(request)
	coupon.ID = uint(id)

	if err := h.couponStore.Update(c.Request().Context(), coupon); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ResponseError{Message: "coupon not found"})
		}
		logger.Error("Failed to update coupon", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	h.invalidate(c.Request().Context(), existing.Code)
	if coupon.Code != existing.Code {
		h.invalidate(c.Request().Context(), coupon.Code)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(coupon))
}

func (h *CouponAdminHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid coupon id"})
	}

	existing, err := h.couponStore.GetByID(c.Request().Context(), uint(id))
	if err != nil {
		logger.Error("Failed to load coupon", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	if existing == nil {
		return c.JSON(http.StatusNotFound, ResponseError{Message: "coupon not found"})
	}

	if err := h.couponStore.Delete(c.Request().Context(), uint(id)); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ResponseError{Message: "coupon not found"})
		}
		logger.Error("Failed to delete coupon", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	h.invalidate(c.Request().Context(), existing.Code)

	return c.JSON(http.StatusOK, fres.Response.StatusOK("Coupon deleted successfully"))
}

func (h *CouponAdminHandler) List(c echo.Context) error {
	coupons, err := h.couponStore.List(c.Request().Context())
	if err != nil {
		logger.Error("Failed to list coupons", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(coupons))
}

func (h *CouponAdminHandler) GetByCode(c echo.Context) error {
	coupon, err := h.couponStore.GetByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		logger.Error("Failed to get coupon", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	if coupon == nil {
		return c.JSON(http.StatusNotFound, ResponseError{Message: "coupon not found"})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(coupon))
}

func (h *CouponAdminHandler) invalidate(ctx context.Context, code string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx, code); err != nil {
		logger.Warn("Failed to invalidate coupon cache", "code", code, "error", err)
	}
}

func couponFromInput(in CouponInput) *domain.Coupon {
	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}

	return &domain.Coupon{
		Code:                  domain.NormalizeCouponCode(in.Code),
		DiscountType:          domain.DiscountType(in.DiscountType),
		DiscountValue:         in.DiscountValue,
		MinimumOrderAmount:    in.MinimumOrderAmount,
		MaximumDiscount:       in.MaximumDiscount,
		UsageLimit:            in.UsageLimit,
		PerUserLimit:          in.PerUserLimit,
		FirstOrderOnly:        in.FirstOrderOnly,
		ApplicableProductIDs:  datatypes.NewJSONSlice(in.ApplicableProductIDs),
		ApplicableCategoryIDs: datatypes.NewJSONSlice(in.ApplicableCategoryIDs),
		StartsAt:              in.StartsAt,
		ExpiresAt:             in.ExpiresAt,
		IsActive:              isActive,
	}
}
