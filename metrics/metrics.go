package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bookclub/events"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bookclub"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	applications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "applications_total",
			Help:      "Applications created, by initial status.",
		},
		[]string{"status"},
	)

	approvals = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "approvals_total",
			Help:      "Applications moved to APPROVED or CONFIRMED by an approval batch.",
		},
	)

	coinRefunds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coin_refunds_total",
			Help:      "Approved applications whose coin guarantee was returned.",
		},
	)

	coinsMoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coins_moved_total",
			Help:      "Absolute coins moved through the ledger, by transaction type.",
		},
		[]string{"type"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Payment DMs attempted, by result.",
		},
		[]string{"result"},
	)

	cancellations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancellations_total",
			Help:      "Applications cancelled by their applicant.",
		},
	)

	paymentsConfirmed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_confirmed_total",
			Help:      "Applications confirmed after payment.",
		},
	)

	memberSyncs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "member_syncs_total",
			Help:      "Discord member syncs, by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		applications,
		approvals,
		coinRefunds,
		coinsMoved,
		notifications,
		cancellations,
		paymentsConfirmed,
		memberSyncs,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// SubscribeToBus feeds the domain counters from committed events
func SubscribeToBus(bus *events.Bus) {
	for _, eventType := range []events.EventType{
		events.EventTypeApplicationCreated,
		events.EventTypeApplicationApproved,
		events.EventTypePaymentConfirmed,
		events.EventTypeApplicationCancelled,
		events.EventTypeCoinBalanceChanged,
		events.EventTypeNotificationSent,
		events.EventTypeUserSynced,
	} {
		bus.Subscribe(eventType, handleEvent)
	}
}

func handleEvent(ctx context.Context, event events.Event) {
	switch e := event.(type) {
	case events.ApplicationCreatedEvent:
		applications.WithLabelValues(string(e.Status)).Inc()
	case events.ApplicationApprovedEvent:
		approvals.Inc()
		if e.RefundedCoins > 0 {
			coinRefunds.Inc()
		}
	case events.PaymentConfirmedEvent:
		paymentsConfirmed.Inc()
	case events.ApplicationCancelledEvent:
		cancellations.Inc()
	case events.CoinBalanceChangedEvent:
		amount := e.ChangeAmount
		if amount < 0 {
			amount = -amount
		}
		coinsMoved.WithLabelValues(string(e.TransactionType)).Add(float64(amount))
	case events.NotificationSentEvent:
		result := "failure"
		if e.Success {
			result = "success"
		}
		notifications.WithLabelValues(result).Inc()
	case events.UserSyncedEvent:
		outcome := "updated"
		if e.IsNew {
			outcome = "created"
		}
		memberSyncs.WithLabelValues(outcome).Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// canonicalPath collapses identifiers so label cardinality stays bounded,
// e.g. /events/<uuid>/apply becomes /events/:id/apply
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	for i, part := range parts {
		if _, err := uuid.Parse(part); err == nil {
			parts[i] = ":id"
		}
	}
	return "/" + strings.Join(parts, "/")
}
