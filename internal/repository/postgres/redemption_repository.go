package postgres

import (
	"context"
	"fmt"

	"myTrendyMart/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RedemptionRepository struct {
	DB *gorm.DB
}

func NewRedemptionRepository(db *gorm.DB) *RedemptionRepository {
	return &RedemptionRepository{DB: db}
}

// Create inserts the redemption row for an order. The order_id unique index
// plus ON CONFLICT DO NOTHING makes a repeated commit a no-op, reported as
// false so the caller skips the counter increment.
func (r *RedemptionRepository) Create(ctx context.Context, redemption domain.CouponRedemption) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context error: %w", err)
	}

	if redemption.ID == "" {
		redemption.ID = uuid.NewString()
	}

	res := r.DB.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoNothing: true,
		},
	).Create(&redemption)
	if res.Error != nil {
		return false, fmt.Errorf("failed to create redemption: %w", res.Error)
	}

	return res.RowsAffected > 0, nil
}

func (r *RedemptionRepository) DeleteByOrder(ctx context.Context, orderID string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&domain.CouponRedemption{}).Error; err != nil {
		return fmt.Errorf("failed to delete redemption: %w", err)
	}

	return nil
}

func (r *RedemptionRepository) CountByCouponAndUser(ctx context.Context, couponID, customerID uint) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	var count int64
	err := r.DB.WithContext(ctx).
		Model(&domain.CouponRedemption{}).
		Where("coupon_id = ? AND customer_id = ?", couponID, customerID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count redemptions: %w", err)
	}

	return int(count), nil
}
