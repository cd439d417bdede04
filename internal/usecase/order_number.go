package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"storefront-backend/internal/domain"
)

const (
	orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	orderNumberLength   = 8

	DefaultOrderNumberAttempts = 20
)

// OrderNumberChecker reports whether a candidate is already taken.
type OrderNumberChecker interface {
	OrderNumberExists(ctx context.Context, orderNumber string) (bool, error)
}

// OrderNumberGenerator allocates short human-facing order numbers.
type OrderNumberGenerator struct {
	checker     OrderNumberChecker
	maxAttempts int
	random      io.Reader
}

func NewOrderNumberGenerator(checker OrderNumberChecker, maxAttempts int) *OrderNumberGenerator {
	if maxAttempts < 1 {
		maxAttempts = DefaultOrderNumberAttempts
	}
	return &OrderNumberGenerator{checker: checker, maxAttempts: maxAttempts, random: rand.Reader}
}

// Allocate returns a number not currently in storage. Exhausting the attempt
// budget yields ErrOrderNumberAllocation. Uniqueness is only final once the
// order row is committed.
func (g *OrderNumberGenerator) Allocate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		candidate, err := g.candidate()
		if err != nil {
			return "", err
		}
		taken, err := g.checker.OrderNumberExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", domain.ErrOrderNumberAllocation, g.maxAttempts)
}

func (g *OrderNumberGenerator) candidate() (string, error) {
	max := big.NewInt(int64(len(orderNumberAlphabet)))
	buf := make([]byte, orderNumberLength)
	for i := range buf {
		n, err := rand.Int(g.random, max)
		if err != nil {
			return "", fmt.Errorf("order number entropy: %w", err)
		}
		buf[i] = orderNumberAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// IsValidOrderNumber reports whether s has the shape Allocate produces.
func IsValidOrderNumber(s string) bool {
	if len(s) != orderNumberLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
