package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONBScan(t *testing.T) {
	var j JSONB
	require.NoError(t, j.Scan([]byte(`{"city":"Pokhara"}`)))
	assert.Equal(t, "Pokhara", j["city"])

	require.NoError(t, j.Scan(`{"city":"Lalitpur"}`))
	assert.Equal(t, "Lalitpur", j["city"])

	require.NoError(t, j.Scan(nil))
	assert.Nil(t, j)

	assert.Error(t, j.Scan(42))
}

func TestJSONBIsEmpty(t *testing.T) {
	assert.True(t, JSONB{}.IsEmpty())
	assert.True(t, JSONB{"street": "", "city": nil}.IsEmpty())
	assert.False(t, JSONB{"street": "", "city": "Biratnagar"}.IsEmpty())
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 20, 41)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 0, NewPagination(1, 0, 10).TotalPages)
}

func TestAddressSnapshot(t *testing.T) {
	a := Address{FullName: "Jane Doe", City: "Kathmandu", Country: "NP"}
	snap := a.Snapshot()
	assert.Equal(t, "Jane Doe", snap["full_name"])
	assert.Equal(t, "NP", snap["country"])
	assert.False(t, snap.IsEmpty())
}
