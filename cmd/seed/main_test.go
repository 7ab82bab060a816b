package main

import (
	"testing"

	"github.com/megbaru-hub/teffexpo/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := hashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret-pass")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("wrong")))
}

func TestProductIDIsStable(t *testing.T) {
	a := productID("merchant-1", models.VarietyWhite)
	assert.Equal(t, a, productID("merchant-1", models.VarietyWhite))
	assert.NotEqual(t, a, productID("merchant-1", models.VarietyRed))
	assert.NotEqual(t, a, productID("merchant-2", models.VarietyWhite))
}

func TestSeedMerchantsAreValid(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range merchants {
		assert.True(t, m.Variety.IsValid(), m.Email)
		assert.False(t, seen[m.Email], "duplicate %s", m.Email)
		seen[m.Email] = true
	}
}
