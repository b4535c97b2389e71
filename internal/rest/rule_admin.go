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
	RuleAdminHandler struct {
		validate  *validator.Validate
		ruleStore RuleStore
	}

	RuleStore interface {
		Create(ctx context.Context, rule *domain.AutoDiscountRule) error
		Update(ctx context.Context, rule *domain.AutoDiscountRule) error
		Delete(ctx context.Context, id uint) error
		List(ctx context.Context) ([]domain.AutoDiscountRule, error)
	}

	RuleInput struct {
		Name          string         `json:"name" validate:"required,max=128"`
		RuleType      string         `json:"rule_type" validate:"required,oneof=cart_total first_order bulk_purchase loyalty_tier birthday abandoned_cart"`
		DiscountType  string         `json:"discount_type" validate:"required,oneof=percentage fixed free_shipping"`
		DiscountValue float64        `json:"discount_value" validate:"gte=0"`
		MinPurchase   *float64       `json:"min_purchase"`
		MaxDiscount   *float64       `json:"max_discount"`
		Priority      int            `json:"priority"`
		Conditions    map[string]any `json:"conditions"`
		StartsAt      *time.Time     `json:"starts_at"`
		ExpiresAt     *time.Time     `json:"expires_at"`
		IsActive      *bool          `json:"is_active"`
	}
)

func NewRuleAdminHandler(ruleStore RuleStore) *RuleAdminHandler {
	return &RuleAdminHandler{
		validate:  validator.New(),
		ruleStore: ruleStore,
	}
}

func (h *RuleAdminHandler) Create(c echo.Context) error {
	var request RuleInput

	if err := c.Bind(&request); err != nil {
		logger.Error("Invalid rule body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validate.Struct(&request); err != nil {
		logger.Error("Failed rule validation", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	rule := ruleFromInput(request)
	if err := h.ruleStore.Create(c.Request().Context(), rule); err != nil {
		logger.Error("Failed to create rule", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(rule))
}

func (h *RuleAdminHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid rule id"})
	}

	var request RuleInput

	if err := c.Bind(&request); err != nil {
		logger.Error("Invalid rule body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validate.Struct(&request); err != nil {
		logger.Error("Failed rule validation", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	rule := ruleFromInput(request)
	rule.ID = uint(id)

	if err := h.ruleStore.Update(c.Request().Context(), rule); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ResponseError{Message: "rule not found"})
		}
		logger.Error("Failed to update rule", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(rule))
}

func (h *RuleAdminHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid rule id"})
	}

	if err := h.ruleStore.Delete(c.Request().Context(), uint(id)); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ResponseError{Message: "rule not found"})
		}
		logger.Error("Failed to delete rule", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("Rule deleted successfully"))
}

func (h *RuleAdminHandler) List(c echo.Context) error {
	rules, err := h.ruleStore.List(c.Request().Context())
	if err != nil {
		logger.Error("Failed to list rules", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(rules))
}

func ruleFromInput(in RuleInput) *domain.AutoDiscountRule {
	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}

	return &domain.AutoDiscountRule{
		Name:          in.Name,
		RuleType:      domain.RuleType(in.RuleType),
		DiscountType:  domain.DiscountType(in.DiscountType),
		DiscountValue: in.DiscountValue,
		MinPurchase:   in.MinPurchase,
		MaxDiscount:   in.MaxDiscount,
		Priority:      in.Priority,
		Conditions:    datatypes.JSONMap(in.Conditions),
		StartsAt:      in.StartsAt,
		ExpiresAt:     in.ExpiresAt,
		IsActive:      isActive,
	}
}
