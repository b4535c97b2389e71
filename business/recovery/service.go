package recovery

import (
	"context"
	"fmt"
	"time"

	"myTrendyMart/domain"
	"myTrendyMart/pkg/logger"
	"myTrendyMart/pkg/metrics"

	"github.com/google/uuid"
)

// ---- Repository / collaborator interfaces ----

type SnapshotRepository interface {
	// UpsertActivity inserts the snapshot or refreshes its activity fields
	// (items, total, owner, last_activity_at) keyed by session id. State
	// fields (abandoned/recovered/reminder timestamps) are never touched.
	UpsertActivity(ctx context.Context, snap *domain.CartSnapshot) error

	GetBySession(ctx context.Context, sessionID string) (*domain.CartSnapshot, error)

	// ListIdleActive returns carts with no abandonment or recovery mark
	// whose last activity is at or before the cutoff.
	ListIdleActive(ctx context.Context, cutoff time.Time) ([]domain.CartSnapshot, error)

	// ListAbandonedUnrecovered returns abandoned carts that have not been
	// recovered and still have reminder checkpoints left.
	ListAbandonedUnrecovered(ctx context.Context) ([]domain.CartSnapshot, error)

	// FindRecoverable locates the tracked cart for a session or customer
	// that has not yet been recovered.
	FindRecoverable(ctx context.Context, sessionID string, userID *uint) (*domain.CartSnapshot, error)

	// The Mark* methods are conditional updates: they succeed only while
	// the guarded field is still unset, and report false when another
	// writer got there first. That conditional write is the commit point
	// for each transition.
	//
	// MarkAbandoned additionally guards last_activity_at <= cutoff, so
	// activity landing between the idle listing and the mark cancels the
	// pending transition.
	MarkAbandoned(ctx context.Context, id uint, cutoff, at time.Time) (bool, error)
	MarkRecovered(ctx context.Context, id uint, orderID string, at time.Time) (bool, error)
	MarkReminderSent(ctx context.Context, id uint, stage ReminderStage, at time.Time) (bool, error)
}

// ReminderSender delivers one reminder contact. It is an opaque, possibly
// failing dependency; a failed send is retried on the next sweep because
// the checkpoint timestamp is only written after a successful send.
type ReminderSender interface {
	Send(ctx context.Context, stage ReminderStage, cart domain.CartSnapshot) error
}

// ---- Usecase / Service ----

// Service owns the cart-abandonment lifecycle: activity tracking,
// idle detection, reminder escalation and order reconciliation. It holds
// no state between calls; Sweep is driven by any external timer and is
// safe to run repeatedly or concurrently.
type Service struct {
	repo   SnapshotRepository
	sender ReminderSender
	cfg    Config
}

func NewService(repo SnapshotRepository, sender ReminderSender, cfg Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recovery config: %w", err)
	}
	return &Service{repo: repo, sender: sender, cfg: cfg}, nil
}

type TouchInput struct {
	SessionID string
	UserID    *uint
	Email     string
	Items     []domain.CartItem
	CartTotal float64
}

// Touch records meaningful cart activity. A missing session id mints one
// for a guest cart. Activity on a cart that is already abandoned updates
// the contents but does not revert the abandonment: only a completed order
// does that.
func (s *Service) Touch(ctx context.Context, in TouchInput) (*domain.CartSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if in.CartTotal < 0 {
		return nil, fmt.Errorf("cart total must not be negative")
	}

	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	snap := &domain.CartSnapshot{
		SessionID:      sessionID,
		UserID:         in.UserID,
		Email:          in.Email,
		Items:          in.Items,
		CartTotal:      in.CartTotal,
		LastActivityAt: time.Now(),
	}

	if err := s.repo.UpsertActivity(ctx, snap); err != nil {
		return nil, fmt.Errorf("upsert cart snapshot: %w", err)
	}

	return s.repo.GetBySession(ctx, sessionID)
}

type SweepResult struct {
	Flagged       int `json:"flagged"`
	RemindersSent int `json:"reminders_sent"`
	SendFailures  int `json:"send_failures"`
}

// Sweep runs one detection pass followed by one escalation pass. Both
// passes commit through conditional updates, so overlapping sweeps never
// double-flag a cart and never double-write a checkpoint timestamp.
func (s *Service) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	if err := ctx.Err(); err != nil {
		return SweepResult{}, fmt.Errorf("context error: %w", err)
	}

	start := time.Now()
	defer func() {
		metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}()

	var result SweepResult

	flagged, err := s.detectAbandoned(ctx, now)
	if err != nil {
		return result, err
	}
	result.Flagged = flagged

	sent, failed, err := s.escalate(ctx, now)
	if err != nil {
		return result, err
	}
	result.RemindersSent = sent
	result.SendFailures = failed

	logger.Debug("recovery_sweep",
		"flagged", result.Flagged,
		"reminders_sent", result.RemindersSent,
		"send_failures", result.SendFailures,
	)

	return result, nil
}

func (s *Service) detectAbandoned(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.cfg.IdleThreshold)

	carts, err := s.repo.ListIdleActive(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list idle carts: %w", err)
	}

	flagged := 0
	for i := range carts {
		ok, err := s.repo.MarkAbandoned(ctx, carts[i].ID, cutoff, now)
		if err != nil {
			return flagged, fmt.Errorf("mark abandoned: %w", err)
		}
		if !ok {
			// Another sweep flagged it, or activity resumed in between.
			continue
		}
		flagged++
		metrics.CartsAbandonedTotal.Inc()
		logger.Info("cart abandoned",
			"session_id", carts[i].SessionID,
			"cart_total", carts[i].CartTotal,
		)
	}

	return flagged, nil
}

func (s *Service) escalate(ctx context.Context, now time.Time) (sent, failed int, err error) {
	carts, err := s.repo.ListAbandonedUnrecovered(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list abandoned carts: %w", err)
	}

	for i := range carts {
		cart := carts[i]

		stage, due := s.dueStage(cart, now)
		if !due {
			continue
		}
		if cart.Email == "" {
			// No contact channel for this cart; nothing to escalate.
			continue
		}

		if err := s.sender.Send(ctx, stage, cart); err != nil {
			// Checkpoint stays unset so the next sweep retries it.
			failed++
			metrics.ReminderFailuresTotal.WithLabelValues(stage.String()).Inc()
			logger.Error("reminder send failed",
				"session_id", cart.SessionID,
				"stage", stage.String(),
				"error", err,
			)
			continue
		}

		ok, err := s.repo.MarkReminderSent(ctx, cart.ID, stage, now)
		if err != nil {
			return sent, failed, fmt.Errorf("mark reminder sent: %w", err)
		}
		if !ok {
			// A concurrent sweep committed this checkpoint first.
			logger.Warn("reminder checkpoint already committed",
				"session_id", cart.SessionID,
				"stage", stage.String(),
			)
			continue
		}

		sent++
		metrics.RemindersSentTotal.WithLabelValues(stage.String()).Inc()
		logger.Info("reminder sent",
			"session_id", cart.SessionID,
			"stage", stage.String(),
		)
	}

	return sent, failed, nil
}

// dueStage picks the next unsent checkpoint that is due, in order. At most
// one reminder goes out per cart per sweep; a backlog (e.g. after sender
// downtime) drains one checkpoint per sweep instead of bursting.
func (s *Service) dueStage(cart domain.CartSnapshot, now time.Time) (ReminderStage, bool) {
	if cart.AbandonedAt == nil || cart.RecoveredAt != nil {
		return 0, false
	}
	if cart.ReminderSentCount >= MaxReminders {
		return 0, false
	}

	idle := now.Sub(*cart.AbandonedAt)

	checkpoints := []struct {
		stage  ReminderStage
		offset time.Duration
		sentAt *time.Time
	}{
		{StageFirst, s.cfg.FirstReminderAfter, cart.FirstReminderSentAt},
		{StageSecond, s.cfg.SecondReminderAfter, cart.SecondReminderSentAt},
		{StageFinal, s.cfg.FinalReminderAfter, cart.FinalReminderSentAt},
	}

	for _, cp := range checkpoints {
		if cp.sentAt != nil {
			continue
		}
		if idle >= cp.offset {
			return cp.stage, true
		}
		// Offsets ascend, so a later checkpoint cannot be due yet.
		return 0, false
	}

	return 0, false
}

// ReconcileRecovery matches a freshly placed order against the tracked
// cart for the same session or customer. An abandoned cart is recovered
// only when the order postdates the abandonment; an order against a still
// active cart closes it out the same way so it is never flagged later.
// Returns true when a cart transitioned.
func (s *Service) ReconcileRecovery(
	ctx context.Context,
	sessionID string,
	userID *uint,
	orderID string,
	orderCreatedAt time.Time,
) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context error: %w", err)
	}
	if orderID == "" {
		return false, fmt.Errorf("order id required")
	}

	cart, err := s.repo.FindRecoverable(ctx, sessionID, userID)
	if err != nil {
		return false, fmt.Errorf("find recoverable cart: %w", err)
	}
	if cart == nil {
		return false, nil
	}

	wasAbandoned := cart.AbandonedAt != nil
	if wasAbandoned && !orderCreatedAt.After(*cart.AbandonedAt) {
		// Order predates the abandonment; not a recovery of this cart.
		return false, nil
	}

	ok, err := s.repo.MarkRecovered(ctx, cart.ID, orderID, orderCreatedAt)
	if err != nil {
		return false, fmt.Errorf("mark recovered: %w", err)
	}
	if !ok {
		return false, nil
	}

	if wasAbandoned {
		metrics.CartsRecoveredTotal.Inc()
		logger.Info("cart recovered",
			"session_id", cart.SessionID,
			"order_id", orderID,
		)
	}

	return true, nil
}
