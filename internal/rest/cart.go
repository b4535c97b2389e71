package rest

import (
	"context"
	"net/http"

	appmetrics "myTrendyMart/app/echo-server/metrics"
	"myTrendyMart/business/recovery"
	"myTrendyMart/domain"
	"myTrendyMart/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	CartHandler struct {
		validate    *validator.Validate
		cartTracker CartTracker
	}

	CartTracker interface {
		Touch(ctx context.Context, in recovery.TouchInput) (*domain.CartSnapshot, error)
	}

	TouchRequest struct {
		SessionID string          `json:"session_id"`
		UserID    *uint           `json:"user_id"`
		Email     string          `json:"email" validate:"omitempty,email"`
		Items     []CartItemInput `json:"items" validate:"dive"`
		CartTotal float64         `json:"cart_total" validate:"gte=0"`
	}
)

func NewCartHandler(cartTracker CartTracker) *CartHandler {
	return &CartHandler{
		validate:    validator.New(),
		cartTracker: cartTracker,
	}
}

// Touch records a meaningful cart mutation (add/remove/update item). The
// storefront calls it on cart changes, not on every page view. A guest
// request without a session id gets one minted and returned.
func (h *CartHandler) Touch(c echo.Context) error {
	var request TouchRequest

	if err := c.Bind(&request); err != nil {
		logger.Error("Invalid touch request body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validate.Struct(&request); err != nil {
		logger.Error("Failed touch request validation", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	appmetrics.TouchTotal.Inc()

	snap, err := h.cartTracker.Touch(c.Request().Context(), recovery.TouchInput{
		SessionID: request.SessionID,
		UserID:    request.UserID,
		Email:     request.Email,
		Items:     itemsFromInput(request.Items),
		CartTotal: request.CartTotal,
	})
	if err != nil {
		logger.Error("Failed to record cart activity", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(snap))
}
