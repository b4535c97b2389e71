package domain

import (
	"time"

	"gorm.io/datatypes"
)

type CartItem struct {
	ProductID  uint64  `json:"product_id"`
	CategoryID uint64  `json:"category_id,omitempty"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
}

type CartState string

const (
	CartActive    CartState = "active"
	CartAbandoned CartState = "abandoned"
	CartRecovered CartState = "recovered"
)

// CartSnapshot tracks an in-progress cart per session. Rows are written on
// meaningful cart activity and are never hard-deleted; abandonment and
// recovery are recorded as timestamps, and reminder checkpoint timestamps
// are immutable once set.
type CartSnapshot struct {
	ID                   uint                          `gorm:"primaryKey" json:"id"`
	SessionID            string                        `gorm:"type:varchar(64);uniqueIndex;not null" json:"session_id"`
	UserID               *uint                         `gorm:"index" json:"user_id,omitempty"`
	Email                string                        `gorm:"type:varchar(255)" json:"email,omitempty"`
	Items                datatypes.JSONSlice[CartItem] `json:"items"`
	CartTotal            float64                       `gorm:"not null;default:0" json:"cart_total"`
	LastActivityAt       time.Time                     `gorm:"index;not null" json:"last_activity_at"`
	AbandonedAt          *time.Time                    `gorm:"index" json:"abandoned_at,omitempty"`
	RecoveredAt          *time.Time                    `json:"recovered_at,omitempty"`
	RecoveredOrderID     *string                       `gorm:"type:varchar(64)" json:"recovered_order_id,omitempty"`
	ReminderSentCount    int                           `gorm:"not null;default:0" json:"reminder_sent_count"`
	FirstReminderSentAt  *time.Time                    `json:"first_reminder_sent_at,omitempty"`
	SecondReminderSentAt *time.Time                    `json:"second_reminder_sent_at,omitempty"`
	FinalReminderSentAt  *time.Time                    `json:"final_reminder_sent_at,omitempty"`
	CreatedAt            time.Time                     `json:"created_at"`
	UpdatedAt            time.Time                     `json:"updated_at"`
}

// State derives the lifecycle state from the recorded timestamps.
func (c CartSnapshot) State() CartState {
	switch {
	case c.RecoveredAt != nil:
		return CartRecovered
	case c.AbandonedAt != nil:
		return CartAbandoned
	default:
		return CartActive
	}
}
