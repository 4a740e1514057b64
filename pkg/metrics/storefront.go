package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Storefront records checkout, backend, and cart-count activity.
type Storefront struct {
	checkoutOutcomes *prometheus.CounterVec
	backendDuration  *prometheus.HistogramVec
	cartRefresh      *prometheus.CounterVec
}

// NewStorefront registers the storefront metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewStorefront(reg prometheus.Registerer) *Storefront {
	if reg == nil {
		return &Storefront{}
	}
	checkoutOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_outcomes_total",
		Help: "Checkout and payment-return outcomes by stage.",
	}, []string{"stage", "outcome"})
	backendDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backend_request_duration_seconds",
		Help:    "Duration of calls to the catalog/order backend.",
		Buckets: prometheus.DefBuckets,
	}, []string{"resource", "method", "status"})
	cartRefresh := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_count_refresh_total",
		Help: "Cart count refreshes by result.",
	}, []string{"result"})
	reg.MustRegister(checkoutOutcomes, backendDuration, cartRefresh)
	return &Storefront{
		checkoutOutcomes: checkoutOutcomes,
		backendDuration:  backendDuration,
		cartRefresh:      cartRefresh,
	}
}

// IncCheckoutOutcome counts one outcome for the stage (start, success, cancel).
func (s *Storefront) IncCheckoutOutcome(stage, outcome string) {
	if s == nil || s.checkoutOutcomes == nil {
		return
	}
	s.checkoutOutcomes.WithLabelValues(normalizeLabel(stage), normalizeLabel(outcome)).Inc()
}

// ObserveBackendRequest records one upstream call. status 0 means a transport failure.
func (s *Storefront) ObserveBackendRequest(resource, method string, status int, duration time.Duration) {
	if s == nil || s.backendDuration == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	s.backendDuration.WithLabelValues(normalizeLabel(resource), normalizeLabel(method), code).Observe(duration.Seconds())
}

// IncCartRefresh counts a cart count refresh (ok, error, skipped).
func (s *Storefront) IncCartRefresh(result string) {
	if s == nil || s.cartRefresh == nil {
		return
	}
	s.cartRefresh.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
