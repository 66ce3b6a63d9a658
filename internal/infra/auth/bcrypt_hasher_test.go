package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"intuitive/config"
	domainerrors "intuitive/internal/domain/errors"
)

func TestBcryptHasher_HashAndCheck(t *testing.T) {
	hasher := newBcryptHasher(bcrypt.MinCost)
	password := "StrongPass123!"

	hash, err := hasher.Hash(password)
	require.NoError(t, err)
	assert.NotEqual(t, password, hash)

	assert.True(t, hasher.Check(password, hash))
	assert.False(t, hasher.Check("WrongPassword123!", hash))
	assert.False(t, hasher.Check("", hash))
	assert.False(t, hasher.Check(password, "invalid_hash"))
}

func TestBcryptHasher_UsesConfiguredCost(t *testing.T) {
	cfg := &config.Config{Auth: &config.AuthConfig{BcryptCost: 5}}
	hasher := NewBcryptHasher(cfg)

	hash, err := hasher.Hash("password")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 5, cost)
}

func TestBcryptHasher_ClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.MinCost, newBcryptHasher(1).cost)
	assert.Equal(t, bcrypt.MaxCost, newBcryptHasher(99).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(nil).(*bcryptHasher).cost)
}

func TestBcryptHasher_TooLong(t *testing.T) {
	hasher := newBcryptHasher(bcrypt.MinCost)

	_, err := hasher.Hash(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, domainerrors.ErrPasswordHashFailed)
}
