package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storefront-backend/internal/domain"
	"storefront-backend/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

var ErrNotConfigured = errors.New("card payments are not configured")

// Client talks to a Stripe-compatible payment intents API.
type Client struct {
	baseURL     string
	apiKey      string
	currency    string
	maxAttempts int
	backoff     time.Duration
	httpClient  *http.Client
}

type Config struct {
	BaseURL  string
	APIKey   string
	Currency string
	Timeout  time.Duration
}

// NewGateway returns a live client, or one that refuses every authorization
// when no gateway URL is configured.
func NewGateway(cfg Config) domain.PaymentGateway {
	if cfg.BaseURL == "" {
		logger.Warn().Msg("Payment gateway URL not configured. Card payments disabled.")
		return disabledGateway{}
	}
	return NewClient(cfg)
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = "usd"
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		currency:    currency,
		maxAttempts: 3,
		backoff:     500 * time.Millisecond,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

type intentResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Authorize creates a payment intent for amountMinor in the configured
// currency. Retries reuse one idempotency key so a retried request cannot
// create a second intent.
func (c *Client) Authorize(ctx context.Context, amountMinor int64, metadata map[string]string) (*domain.PaymentAuthorization, error) {
	if amountMinor <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", amountMinor)
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountMinor, 10))
	form.Set("currency", c.currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range metadata {
		form.Set("metadata["+k+"]", v)
	}

	var intent intentResponse
	if err := c.post(ctx, "/v1/payment_intents", form, uuid.NewString(), &intent); err != nil {
		return nil, err
	}
	if intent.ID == "" {
		return nil, errors.New("payment gateway returned no intent id")
	}

	logger.WithContext(ctx).Info().
		Str("payment_reference", intent.ID).
		Int64("amount_minor", amountMinor).
		Msg("Payment authorized")
	return &domain.PaymentAuthorization{ReferenceID: intent.ID, Status: intent.Status}, nil
}

// Void cancels a previously created intent.
func (c *Client) Void(ctx context.Context, referenceID string) error {
	if referenceID == "" {
		return errors.New("payment reference is required")
	}
	path := "/v1/payment_intents/" + url.PathEscape(referenceID) + "/cancel"
	return c.post(ctx, path, url.Values{}, "void-"+referenceID, nil)
}

func (c *Client) post(ctx context.Context, path string, form url.Values, idempotencyKey string, out any) error {
	body := form.Encode()

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Idempotency-Key", idempotencyKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("payment gateway request failed: %w", err)
			continue
		}
		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("read payment gateway response: %w", readErr)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if out == nil {
				return nil
			}
			return json.Unmarshal(data, out)
		}

		lastErr = gatewayError(resp.StatusCode, data)
		// 4xx other than 429 is a permanent rejection
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			break
		}
	}
	return lastErr
}

func gatewayError(status int, body []byte) error {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return fmt.Errorf("payment gateway error (status %d): %s", status, e.Error.Message)
	}
	return fmt.Errorf("payment gateway error (status %d): %s", status, strings.TrimSpace(string(body)))
}

type disabledGateway struct{}

func (disabledGateway) Authorize(context.Context, int64, map[string]string) (*domain.PaymentAuthorization, error) {
	return nil, ErrNotConfigured
}

func (disabledGateway) Void(context.Context, string) error {
	return ErrNotConfigured
}
