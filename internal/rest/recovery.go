package rest

import (
	"context"
	"net/http"
	"time"

	"myTrendyMart/business/recovery"
	"myTrendyMart/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	RecoveryHandler struct {
		validate        *validator.Validate
		recoveryService RecoveryService
	}

	RecoveryService interface {
		Sweep(ctx context.Context, now time.Time) (recovery.SweepResult, error)
		ReconcileRecovery(ctx context.Context, sessionID string, userID *uint, orderID string, orderCreatedAt time.Time) (bool, error)
	}

	OrderPlacedRequest struct {
		SessionID      string    `json:"session_id"`
		UserID         *uint     `json:"user_id"`
		OrderID        string    `json:"order_id" validate:"required"`
		OrderCreatedAt time.Time `json:"order_created_at" validate:"required"`
	}
)

func NewRecoveryHandler(recoveryService RecoveryService) *RecoveryHandler {
	return &RecoveryHandler{
		validate:        validator.New(),
		recoveryService: recoveryService,
	}
}

// Sweep lets an external cron drive detection + escalation over HTTP. The
// in-process ticker calls the same service entry point; overlapping
// invocations are safe.
func (h *RecoveryHandler) Sweep(c echo.Context) error {
	result, err := h.recoveryService.Sweep(c.Request().Context(), time.Now())
	if err != nil {
		logger.Error("Recovery sweep failed", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}

// OrderPlaced reconciles a freshly persisted order against the tracked cart
// for the same session/customer.
func (h *RecoveryHandler) OrderPlaced(c echo.Context) error {
	var request OrderPlacedRequest

	if err := c.Bind(&request); err != nil {
		logger.Error("Invalid order placed request body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validate.Struct(&request); err != nil {
		logger.Error("Failed order placed request validation", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if request.SessionID == "" && request.UserID == nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "session_id or user_id required"})
	}

	recovered, err := h.recoveryService.ReconcileRecovery(
		c.Request().Context(),
		request.SessionID,
		request.UserID,
		request.OrderID,
		request.OrderCreatedAt,
	)
	if err != nil {
		logger.Error("Failed to reconcile recovery", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(map[string]bool{"recovered": recovered}))
}
