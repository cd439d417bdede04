package usecase

import (
	"context"
	"testing"
	"time"

	"storefront-backend/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPromoUsecase() (*PromoUsecase, *memStore) {
	store := newMemStore()
	uc := NewPromoUsecase(fakePromos{store})
	uc.now = func() time.Time { return fixedNow }
	return uc, store
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestPromoValidate(t *testing.T) {
	uc, store := newPromoUsecase()

	capped := activePromo("CAP15", domain.DiscountPercentage, "15")
	capped.MaxDiscountAmount = decPtr("10.00")
	store.addPromo(capped)

	minimum := activePromo("BIGSPEND", domain.DiscountFixed, "25")
	minimum.MinPurchaseAmount = decPtr("100.00")
	store.addPromo(minimum)

	limit := 3
	spent := activePromo("GONE", domain.DiscountFixed, "5")
	spent.UsageLimit = &limit
	spent.UsedCount = 3
	store.addPromo(spent)

	inactive := activePromo("OFF", domain.DiscountFixed, "5")
	inactive.IsActive = false
	store.addPromo(inactive)

	future := activePromo("SOON", domain.DiscountFixed, "5")
	future.ValidFrom = fixedNow.Add(time.Hour)
	store.addPromo(future)

	store.addPromo(activePromo("SAVE10", domain.DiscountPercentage, "10"))
	store.addPromo(activePromo("ODD", domain.DiscountPercentage, "12.5"))

	tests := []struct {
		name     string
		code     string
		total    string
		valid    bool
		discount string
		message  string
	}{
		{"percentage", "SAVE10", "200.00", true, "20.00", "Promo code applied successfully"},
		{"lowercase input", "  save10", "50.00", true, "5.00", ""},
		{"half-up rounding", "ODD", "0.36", true, "0.05", ""},
		{"cap applied", "CAP15", "200.00", true, "10.00", ""},
		{"cap not reached", "CAP15", "40.00", true, "6.00", ""},
		{"below minimum", "BIGSPEND", "99.99", false, "", "Minimum purchase amount of 100.00 required"},
		{"minimum met", "BIGSPEND", "100.00", true, "25.00", ""},
		{"usage exhausted", "GONE", "50.00", false, "", "Promo code usage limit reached"},
		{"inactive", "OFF", "50.00", false, "", msgPromoNotFound},
		{"not started", "SOON", "50.00", false, "", msgPromoNotFound},
		{"unknown", "NOPE", "50.00", false, "", msgPromoNotFound},
		{"blank", "   ", "50.00", false, "", msgPromoNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := uc.Validate(context.Background(), tt.code, dec(tt.total), "u1")
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Valid)
			if tt.message != "" {
				assert.Equal(t, tt.message, res.Message)
			}
			if tt.valid {
				require.NotNil(t, res.DiscountAmount)
				assert.Equal(t, tt.discount, res.DiscountAmount.StringFixed(2))
				assert.True(t, res.DiscountAmount.LessThanOrEqual(dec(tt.total)))
			} else {
				assert.Nil(t, res.DiscountAmount)
			}
		})
	}
}

func TestPromoValidateHasNoSideEffects(t *testing.T) {
	uc, store := newPromoUsecase()
	p := store.addPromo(activePromo("SAVE10", domain.DiscountPercentage, "10"))

	for i := 0; i < 3; i++ {
		_, err := uc.Validate(context.Background(), "SAVE10", dec("10"), "")
		require.NoError(t, err)
	}
	assert.Zero(t, store.promo(p.ID).UsedCount)
	assert.Zero(t, store.usageCount())
}

func validRequest(code string) PromoCodeRequest {
	return PromoCodeRequest{
		Code:          code,
		DiscountType:  "percentage",
		DiscountValue: dec("15"),
		ValidFrom:     "2026-01-01",
		ValidUntil:    "2026-12-31T23:59:59Z",
	}
}

func TestCreatePromoCode(t *testing.T) {
	uc, _ := newPromoUsecase()
	ctx := context.Background()

	promo, err := uc.CreatePromoCode(ctx, validRequest(" spring15 "))
	require.NoError(t, err)
	assert.Equal(t, "SPRING15", promo.Code)
	assert.True(t, promo.IsActive)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), promo.ValidFrom)

	_, err = uc.CreatePromoCode(ctx, validRequest("Spring15"))
	assert.ErrorIs(t, err, domain.ErrDuplicatePromoCode)
}

func TestCreatePromoCodeRejectsBadDefinitions(t *testing.T) {
	uc, _ := newPromoUsecase()

	mutate := map[string]func(*PromoCodeRequest){
		"blank code":          func(r *PromoCodeRequest) { r.Code = " " },
		"unknown type":        func(r *PromoCodeRequest) { r.DiscountType = "bogo" },
		"zero value":          func(r *PromoCodeRequest) { r.DiscountValue = decimal.Zero },
		"over 100 percent":    func(r *PromoCodeRequest) { r.DiscountValue = dec("100.01") },
		"negative minimum":    func(r *PromoCodeRequest) { r.MinPurchaseAmount = decPtr("-1") },
		"bad date":            func(r *PromoCodeRequest) { r.ValidFrom = "01/01/2026" },
		"missing date":        func(r *PromoCodeRequest) { r.ValidUntil = "" },
		"window ends early":   func(r *PromoCodeRequest) { r.ValidUntil = "2025-12-31" },
		"negative usage cap":  func(r *PromoCodeRequest) { n := -1; r.UsageLimit = &n },
		"negative max amount": func(r *PromoCodeRequest) { r.MaxDiscountAmount = decPtr("-5") },
	}
	for name, fn := range mutate {
		t.Run(name, func(t *testing.T) {
			req := validRequest("BAD")
			fn(&req)
			_, err := uc.CreatePromoCode(context.Background(), req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestFixedPromoDropsCap(t *testing.T) {
	uc, _ := newPromoUsecase()
	req := validRequest("FLAT5")
	req.DiscountType = "fixed"
	req.DiscountValue = dec("500")
	req.MaxDiscountAmount = decPtr("10")

	promo, err := uc.CreatePromoCode(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, promo.MaxDiscountAmount)
}

func TestUpdatePromoCode(t *testing.T) {
	uc, store := newPromoUsecase()
	ctx := context.Background()
	existing := activePromo("SAVE10", domain.DiscountPercentage, "10")
	existing.UsedCount = 4
	p := store.addPromo(existing)

	req := validRequest("SAVE10")
	req.DiscountValue = dec("20")
	active := false
	req.IsActive = &active
	updated, err := uc.UpdatePromoCode(ctx, p.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "20", updated.DiscountValue.String())
	assert.False(t, updated.IsActive)
	assert.Equal(t, 4, store.promo(p.ID).UsedCount)

	limit := 3
	req.UsageLimit = &limit
	_, err = uc.UpdatePromoCode(ctx, p.ID, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.UpdatePromoCode(ctx, "not-a-uuid", req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListAndDeletePromoCodes(t *testing.T) {
	uc, store := newPromoUsecase()
	ctx := context.Background()
	for _, code := range []string{"SUMMER10", "SUMMER20", "WINTER10"} {
		store.addPromo(activePromo(code, domain.DiscountPercentage, "10"))
	}

	promos, total, err := uc.ListPromoCodes(ctx, "summer", 1, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, promos, 1)
	assert.Equal(t, "SUMMER10", promos[0].Code)

	require.NoError(t, uc.DeletePromoCode(ctx, promos[0].ID))
	_, err = uc.GetPromoCode(ctx, promos[0].ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, total, err = uc.ListPromoCodes(ctx, "", 0, -5)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestParseISO8601(t *testing.T) {
	for _, in := range []string{"2026-05-01", "2026-05-01T00:00:00", "2026-05-01T05:45:00+05:45"} {
		got, err := parseISO8601(in)
		require.NoError(t, err, in)
		assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), got, in)
	}
}
