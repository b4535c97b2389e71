package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"myTrendyMart/business/recovery"
	"myTrendyMart/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartSnapshotRepository struct {
	DB *gorm.DB
}

func NewCartSnapshotRepository(db *gorm.DB) *CartSnapshotRepository {
	return &CartSnapshotRepository{DB: db}
}

// UpsertActivity inserts the snapshot or refreshes its activity columns,
// keyed by session id. Lifecycle columns are deliberately excluded from
// the conflict update: activity never clears an abandonment or a reminder
// checkpoint.
func (r *CartSnapshotRepository) UpsertActivity(ctx context.Context, snap *domain.CartSnapshot) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	err := r.DB.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"user_id", "email", "items", "cart_total", "last_activity_at", "updated_at",
			}),
		},
	).Create(snap).Error
	if err != nil {
		return fmt.Errorf("failed to upsert cart snapshot: %w", err)
	}

	return nil
}

func (r *CartSnapshotRepository) GetBySession(ctx context.Context, sessionID string) (*domain.CartSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var snap domain.CartSnapshot
	err := r.DB.WithContext(ctx).First(&snap, "session_id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cart snapshot: %w", err)
	}

	return &snap, nil
}

func (r *CartSnapshotRepository) ListIdleActive(ctx context.Context, cutoff time.Time) ([]domain.CartSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var carts []domain.CartSnapshot
	err := r.DB.WithContext(ctx).
		Where("abandoned_at IS NULL AND recovered_at IS NULL").
		Where("last_activity_at <= ?", cutoff).
		Find(&carts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list idle carts: %w", err)
	}

	return carts, nil
}

func (r *CartSnapshotRepository) ListAbandonedUnrecovered(ctx context.Context) ([]domain.CartSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var carts []domain.CartSnapshot
	err := r.DB.WithContext(ctx).
		Where("abandoned_at IS NOT NULL AND recovered_at IS NULL").
		Where("reminder_sent_count < ?", recovery.MaxReminders).
		Find(&carts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list abandoned carts: %w", err)
	}

	return carts, nil
}

// FindRecoverable prefers the session match; a signed-in customer's order
// can also recover a cart tracked under a different (older) session.
func (r *CartSnapshotRepository) FindRecoverable(ctx context.Context, sessionID string, userID *uint) (*domain.CartSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if sessionID != "" {
		var snap domain.CartSnapshot
		err := r.DB.WithContext(ctx).
			Where("session_id = ? AND recovered_at IS NULL", sessionID).
			First(&snap).Error
		if err == nil {
			return &snap, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to query cart by session: %w", err)
		}
	}

	if userID != nil {
		var snap domain.CartSnapshot
		err := r.DB.WithContext(ctx).
			Where("user_id = ? AND recovered_at IS NULL", *userID).
			Order("last_activity_at DESC").
			First(&snap).Error
		if err == nil {
			return &snap, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to query cart by user: %w", err)
		}
	}

	return nil, nil
}

// MarkAbandoned flags the cart abandoned only while it is still idle:
// abandoned_at must be unset and last_activity_at must still be at or
// before the idle cutoff, so activity landing between the list query and
// this update cancels the pending transition.
func (r *CartSnapshotRepository) MarkAbandoned(ctx context.Context, id uint, cutoff, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context error: %w", err)
	}

	res := r.DB.WithContext(ctx).
		Model(&domain.CartSnapshot{}).
		Where("id = ? AND abandoned_at IS NULL AND recovered_at IS NULL", id).
		Where("last_activity_at <= ?", cutoff).
		Update("abandoned_at", at)
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark abandoned: %w", res.Error)
	}

	return res.RowsAffected > 0, nil
}

func (r *CartSnapshotRepository) MarkRecovered(ctx context.Context, id uint, orderID string, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context error: %w", err)
	}

	res := r.DB.WithContext(ctx).
		Model(&domain.CartSnapshot{}).
		Where("id = ? AND recovered_at IS NULL", id).
		Updates(map[string]interface{}{
			"recovered_at":       at,
			"recovered_order_id": orderID,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark recovered: %w", res.Error)
	}

	return res.RowsAffected > 0, nil
}

// MarkReminderSent is the checkpoint commit point: the stage column is
// written only while still null and the cart is unrecovered, so exactly one
// of any number of racing sweeps wins.
func (r *CartSnapshotRepository) MarkReminderSent(ctx context.Context, id uint, stage recovery.ReminderStage, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context error: %w", err)
	}

	var column string
	switch stage {
	case recovery.StageFirst:
		column = "first_reminder_sent_at"
	case recovery.StageSecond:
		column = "second_reminder_sent_at"
	case recovery.StageFinal:
		column = "final_reminder_sent_at"
	default:
		return false, fmt.Errorf("unknown reminder stage %d", stage)
	}

	res := r.DB.WithContext(ctx).
		Model(&domain.CartSnapshot{}).
		Where("id = ? AND recovered_at IS NULL AND reminder_sent_count < ?", id, recovery.MaxReminders).
		Where(column+" IS NULL").
		Updates(map[string]interface{}{
			column:                at,
			"reminder_sent_count": gorm.Expr("reminder_sent_count + 1"),
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark reminder sent: %w", res.Error)
	}

	return res.RowsAffected > 0, nil
}
