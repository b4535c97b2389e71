package postgres

import (
	"context"
	"errors"
	"fmt"

	"myTrendyMart/domain"

	"gorm.io/gorm"
)

type CouponRepository struct {
	DB *gorm.DB
}

func NewCouponRepository(db *gorm.DB) *CouponRepository {
	return &CouponRepository{DB: db}
}

// GetByCode looks a coupon up by its normalized code. Returns (nil, nil)
// when no coupon matches, mirroring how the resolver distinguishes
// "unknown code" from an infrastructure failure.
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var coupon domain.Coupon
	err := r.DB.WithContext(ctx).First(&coupon, "code = ?", domain.NormalizeCouponCode(code)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}

	return &coupon, nil
}

// IncrementUsage is the conditional counter bump: it succeeds only while
// used_count is still below the usage limit (or the coupon is uncapped).
// Reports false when the cap is already reached, which is how a racing
// redemption for the last use loses.
func (r *CouponRepository) IncrementUsage(ctx context.Context, couponID uint) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context error: %w", err)
	}

	res := r.DB.WithContext(ctx).
		Model(&domain.Coupon{}).
		Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", couponID).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return false, fmt.Errorf("failed to increment coupon usage: %w", res.Error)
	}

	return res.RowsAffected > 0, nil
}

// GetByID returns (nil, nil) when the coupon does not exist.
func (r *CouponRepository) GetByID(ctx context.Context, id uint) (*domain.Coupon, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var coupon domain.Coupon
	err := r.DB.WithContext(ctx).First(&coupon, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}

	return &coupon, nil
}

// GetUsedCount reads the live counter, bypassing any cached coupon copy.
func (r *CouponRepository) GetUsedCount(ctx context.Context, couponID uint) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	var used int
	err := r.DB.WithContext(ctx).
		Model(&domain.Coupon{}).
		Where("id = ?", couponID).
		Pluck("used_count", &used).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read coupon usage: %w", err)
	}

	return used, nil
}

// ---- Operator console ----

func (r *CouponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	coupon.Code = domain.NormalizeCouponCode(coupon.Code)
	if err := r.DB.WithContext(ctx).Create(coupon).Error; err != nil {
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	return nil
}

func (r *CouponRepository) Update(ctx context.Context, coupon *domain.Coupon) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	coupon.Code = domain.NormalizeCouponCode(coupon.Code)
	// used_count is owned by IncrementUsage; the console never writes it.
	res := r.DB.WithContext(ctx).
		Model(coupon).
		Omit("used_count", "created_at").
		Select("*").
		Updates(coupon)
	if res.Error != nil {
		return fmt.Errorf("failed to update coupon: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *CouponRepository) Delete(ctx context.Context, id uint) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	res := r.DB.WithContext(ctx).Delete(&domain.Coupon{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete coupon: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *CouponRepository) List(ctx context.Context) ([]domain.Coupon, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var coupons []domain.Coupon
	if err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&coupons).Error; err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}

	return coupons, nil
}
