package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

// Registry holds the service's collectors. It satisfies
// domain.CheckoutMetrics and the HTTP request observer used by middleware.
type Registry struct {
	checkouts        *prometheus.CounterVec
	checkoutDuration *prometheus.HistogramVec
	promoRedemptions *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Registry {
	r := &Registry{
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "attempts_total",
			Help:      "Checkout attempts by outcome.",
		}, []string{"outcome"}),
		checkoutDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "duration_seconds",
			Help:      "Checkout latency by outcome.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"outcome"}),
		promoRedemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "promo",
			Name:      "redemptions_total",
			Help:      "Promo codes redeemed on placed orders.",
		}, []string{"code"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		r.checkouts,
		r.checkoutDuration,
		r.promoRedemptions,
		r.httpRequests,
		r.httpDuration,
	)
	return r
}

func (r *Registry) ObserveCheckout(outcome string, d time.Duration) {
	r.checkouts.WithLabelValues(outcome).Inc()
	r.checkoutDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (r *Registry) PromoRedeemed(code string) {
	r.promoRedemptions.WithLabelValues(code).Inc()
}

func (r *Registry) ObserveHTTP(method, route string, status int, d time.Duration) {
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
