package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveCheckout("success", 120*time.Millisecond)
	m.ObserveCheckout("success", 80*time.Millisecond)
	m.ObserveCheckout("insufficient_stock", 10*time.Millisecond)
	m.PromoRedeemed("SAVE10")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.checkouts.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checkouts.WithLabelValues("insufficient_stock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.promoRedemptions.WithLabelValues("SAVE10")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.checkoutDuration))
}

func TestObserveHTTP(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveHTTP("POST", "/api/v1/orders", 201, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/v1/orders", "201")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestDoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
