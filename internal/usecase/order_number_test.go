package usecase

import (
	"context"
	"testing"

	"storefront-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type numberSet map[string]bool

func (s numberSet) OrderNumberExists(_ context.Context, n string) (bool, error) {
	return s[n], nil
}

func TestAllocateProducesWellFormedDistinctNumbers(t *testing.T) {
	taken := numberSet{}
	gen := NewOrderNumberGenerator(taken, 0)

	for i := 0; i < 500; i++ {
		n, err := gen.Allocate(context.Background())
		require.NoError(t, err)
		require.True(t, IsValidOrderNumber(n), n)
		require.False(t, taken[n], "duplicate %s", n)
		taken[n] = true
	}
}

func TestAllocateSkipsTakenNumbers(t *testing.T) {
	gen := NewOrderNumberGenerator(numberSet{"AAAAAAAA": true}, 5)
	gen.random = zeroReader{}

	_, err := gen.Allocate(context.Background())
	require.ErrorIs(t, err, domain.ErrOrderNumberAllocation)
	assert.Contains(t, err.Error(), "after 5 attempts")

	gen.checker = numberSet{}
	n, err := gen.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AAAAAAAA", n)
}

func TestNewOrderNumberGeneratorDefaultsAttempts(t *testing.T) {
	gen := NewOrderNumberGenerator(numberSet{}, -1)
	assert.Equal(t, DefaultOrderNumberAttempts, gen.maxAttempts)
}

func TestIsValidOrderNumber(t *testing.T) {
	assert.True(t, IsValidOrderNumber("AB12CD34"))
	assert.False(t, IsValidOrderNumber("ab12cd34"))
	assert.False(t, IsValidOrderNumber("AB12CD3"))
	assert.False(t, IsValidOrderNumber("AB12CD345"))
	assert.False(t, IsValidOrderNumber("AB12-D34"))
}
