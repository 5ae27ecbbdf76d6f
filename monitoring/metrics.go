package monitoring

import (
	"context"
	"time"

	"booking-system/utils"

	"github.com/pocketbase/pocketbase/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	offerCapacity = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "offer_capacity_remaining",
			Help: "Remaining capacity per offer",
		},
		[]string{"offer"},
	)

	reservationBacklog = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reservations_by_status_total",
			Help: "Current number of reservations per status",
		},
		[]string{"status"},
	)

	ticketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Tickets issued per offer",
		},
		[]string{"offer"},
	)

	issueFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_issue_failures_total",
			Help: "Failed ticket issues per offer (capacity or store errors)",
		},
		[]string{"offer"},
	)

	paymentOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_confirmations_total",
			Help: "Payment confirmation outcomes",
		},
		[]string{"outcome"},
	)

	confirmDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "payment_confirm_duration_seconds",
			Help:    "Duration of the confirm transaction including retries",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)
)

// TrackTicketIssued counts a successful issue.
func TrackTicketIssued(offer string) {
	ticketsIssued.WithLabelValues(offer).Inc()
}

// TrackIssueFailure counts a rejected or failed issue.
func TrackIssueFailure(offer string) {
	issueFailures.WithLabelValues(offer).Inc()
}

// TrackPayment counts a confirmation outcome (confirmed, already_paid, error).
func TrackPayment(outcome string) {
	paymentOutcomes.WithLabelValues(outcome).Inc()
}

// TrackConfirmDuration records one confirm round trip.
func TrackConfirmDuration(d time.Duration) {
	confirmDuration.Observe(d.Seconds())
}

type Monitor struct {
	app   core.App
	redis *redis.Client
}

func NewMonitor(app core.App, redisClient *redis.Client) *Monitor {
	monitor := &Monitor{app: app, redis: redisClient}

	// Start metrics collection
	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.collectOfferMetrics()
		m.collectReservationMetrics()
	}
}

func (m *Monitor) collectOfferMetrics() {
	var rows []struct {
		Name     string  `db:"name"`
		Capacity float64 `db:"capacity"`
	}
	if err := m.app.DB().NewQuery("SELECT name, capacity FROM offers WHERE is_active = TRUE").All(&rows); err != nil {
		return
	}
	for _, row := range rows {
		offerCapacity.WithLabelValues(row.Name).Set(row.Capacity)
	}
}

func (m *Monitor) collectReservationMetrics() {
	var rows []struct {
		Status string  `db:"status"`
		N      float64 `db:"n"`
	}
	if err := m.app.DB().NewQuery("SELECT status, COUNT(*) AS n FROM reservations GROUP BY status").All(&rows); err != nil {
		return
	}
	for _, row := range rows {
		reservationBacklog.WithLabelValues(row.Status).Set(row.N)
	}
}

// Healthy reports whether the receipt cache and the store are reachable.
func (m *Monitor) Healthy(ctx context.Context) error {
	if err := utils.RedisHealthCheck(m.redis); err != nil {
		return err
	}

	var one int
	return m.app.DB().NewQuery("SELECT 1").WithContext(ctx).Row(&one)
}
