package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Resolutions served, labelled by winning source (coupon/auto_rule/none)
	DiscountResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "discount_resolutions_total",
		Help: "Total discount resolutions served, by winning source",
	}, []string{"source"})

	// Coupon rejections by typed reason
	CouponRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_rejections_total",
		Help: "Coupon validation rejections, by reason",
	}, []string{"reason"})

	// Redemptions that lost the usage-cap race at commit time
	RedemptionConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coupon_redemption_conflicts_total",
		Help: "Coupon commits rejected by the conditional usage increment",
	})

	CartsAbandonedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "carts_abandoned_total",
		Help: "Tracked carts flagged abandoned by the sweep",
	})

	CartsRecoveredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "carts_recovered_total",
		Help: "Abandoned carts reconciled to a completed order",
	})

	RemindersSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_reminders_sent_total",
		Help: "Abandonment reminders sent, by checkpoint stage",
	}, []string{"stage"})

	ReminderFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_reminder_failures_total",
		Help: "Reminder sends that failed and will be retried next sweep",
	}, []string{"stage"})

	SweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "recovery_sweep_duration_seconds",
		Help:    "Latency of a full detection + escalation sweep",
		Buckets: prometheus.DefBuckets,
	})
)

func Init() {
	prometheus.MustRegister(
		DiscountResolutionsTotal,
		CouponRejectionsTotal,
		RedemptionConflictsTotal,
		CartsAbandonedTotal,
		CartsRecoveredTotal,
		RemindersSentTotal,
		ReminderFailuresTotal,
		SweepDuration,
	)
}
