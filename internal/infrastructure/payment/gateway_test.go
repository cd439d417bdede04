package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	c := NewClient(Config{BaseURL: url, APIKey: "sk_test", Currency: "USD", Timeout: time.Second})
	c.backoff = time.Millisecond
	return c
}

func TestAuthorizeSendsMinorUnitsAndMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("Idempotency-Key"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "4599", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "user-1", r.PostForm.Get("metadata[user_id]"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_123","status":"requires_payment_method"}`))
	}))
	defer srv.Close()

	auth, err := newTestClient(srv.URL).Authorize(context.Background(), 4599, map[string]string{"user_id": "user-1"})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", auth.ReferenceID)
	assert.Equal(t, "requires_payment_method", auth.Status)
}

func TestAuthorizeRetriesServerErrorsWithSameKey(t *testing.T) {
	var calls atomic.Int32
	keys := make(chan string, 3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys <- r.Header.Get("Idempotency-Key")
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"id":"pi_retry","status":"requires_confirmation"}`))
	}))
	defer srv.Close()

	auth, err := newTestClient(srv.URL).Authorize(context.Background(), 100, nil)
	require.NoError(t, err)
	assert.Equal(t, "pi_retry", auth.ReferenceID)
	assert.EqualValues(t, 3, calls.Load())

	first := <-keys
	assert.Equal(t, first, <-keys)
	assert.Equal(t, first, <-keys)
}

func TestAuthorizeDoesNotRetryCardErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"card_error","message":"Your card was declined."}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Authorize(context.Background(), 100, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Your card was declined.")
	assert.EqualValues(t, 1, calls.Load())
}

func TestAuthorizeRejectsNonPositiveAmount(t *testing.T) {
	_, err := newTestClient("http://unused").Authorize(context.Background(), 0, nil)
	assert.Error(t, err)
}

func TestVoidCancelsIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents/pi_123/cancel", r.URL.Path)
		w.Write([]byte(`{"id":"pi_123","status":"canceled"}`))
	}))
	defer srv.Close()

	require.NoError(t, newTestClient(srv.URL).Void(context.Background(), "pi_123"))
}

func TestDisabledGateway(t *testing.T) {
	gw := NewGateway(Config{})
	_, err := gw.Authorize(context.Background(), 100, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
