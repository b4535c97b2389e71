package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	appmetrics "myTrendyMart/app/echo-server/metrics"
	"myTrendyMart/business/discount"
	"myTrendyMart/domain"
	"myTrendyMart/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	DiscountHandler struct {
		validate        *validator.Validate
		discountService DiscountService
	}

	DiscountService interface {
		Resolve(ctx context.Context, cart domain.Cart, couponCode string) (domain.Resolution, error)
		Commit(ctx context.Context, appliedID uint, source domain.DiscountSource, orderID string, customerID *uint) error
	}

	ResolveRequest struct {
		Subtotal      float64         `json:"subtotal" validate:"gte=0"`
		ShippingCost  float64         `json:"shipping_cost" validate:"gte=0"`
		Items         []CartItemInput `json:"items" validate:"dive"`
		IsFirstOrder  bool            `json:"is_first_order"`
		CustomerID    *uint           `json:"customer_id"`
		LoyaltyTier   string          `json:"loyalty_tier"`
		IsBirthday    bool            `json:"is_birthday"`
		FromAbandoned bool            `json:"from_abandoned"`
		CouponCode    string          `json:"coupon_code"`
	}

	CommitRequest struct {
		AppliedID  uint   `json:"applied_id" validate:"required"`
		Source     string `json:"source" validate:"required,oneof=coupon auto_rule"`
		OrderID    string `json:"order_id" validate:"required"`
		CustomerID *uint  `json:"customer_id"`
	}
)

func NewDiscountHandler(discountService DiscountService) *DiscountHandler {
	return &DiscountHandler{
		validate:        validator.New(),
		discountService: discountService,
	}
}

// Resolve prices a cart. Business-rule coupon rejections come back 200 with
// the reason inside the resolution; only malformed input is a 400.
func (h *DiscountHandler) Resolve(c echo.Context) error {
	start := time.Now()
	defer func() {
		appmetrics.ResolveDuration.Observe(time.Since(start).Seconds())
	}()
	appmetrics.ResolveTotal.Inc()

	var request ResolveRequest

	if err := c.Bind(&request); err != nil {
		logger.Error("Invalid resolve request body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validate.Struct(&request); err != nil {
		logger.Error("Failed resolve request validation", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	cart := domain.Cart{
		Subtotal:      request.Subtotal,
		ShippingCost:  request.ShippingCost,
		Items:         itemsFromInput(request.Items),
		IsFirstOrder:  request.IsFirstOrder,
		CustomerID:    request.CustomerID,
		LoyaltyTier:   request.LoyaltyTier,
		IsBirthday:    request.IsBirthday,
		FromAbandoned: request.FromAbandoned,
	}

	resolution, err := h.discountService.Resolve(c.Request().Context(), cart, request.CouponCode)
	if err != nil {
		if errors.Is(err, discount.ErrInvalidCart) {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		}
		logger.Error("Failed to resolve discount", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(resolution))
}

// Commit is called by the checkout exactly once, after the order has been
// durably created. Retries are safe; the commit is idempotent by order id.
func (h *DiscountHandler) Commit(c echo.Context) error {
	var request CommitRequest

	if err := c.Bind(&request); err != nil {
		logger.Error("Invalid commit request body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validate.Struct(&request); err != nil {
		logger.Error("Failed commit request validation", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	err := h.discountService.Commit(
		c.Request().Context(),
		request.AppliedID,
		domain.DiscountSource(request.Source),
		request.OrderID,
		request.CustomerID,
	)
	if err != nil {
		if errors.Is(err, domain.ErrUsageExhausted) {
			return c.JSON(http.StatusConflict, ResponseError{Message: err.Error()})
		}
		logger.Error("Failed to commit discount", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("discount committed"))
}

func itemsFromInput(items []CartItemInput) []domain.CartItem {
	out := make([]domain.CartItem, 0, len(items))
	for _, it := range items {
		out = append(out, domain.CartItem{
			ProductID:  it.ProductID,
			CategoryID: it.CategoryID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
		})
	}
	return out
}
