package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	digest, err := h.Hash("Alice#2024pw")
	require.NoError(t, err)
	assert.NotEqual(t, "Alice#2024pw", digest)

	assert.True(t, h.Verify("Alice#2024pw", digest))
	assert.False(t, h.Verify("alice#2024pw", digest))
	assert.False(t, h.Verify("Alice#2024pw", "not-a-digest"))
}

func TestNewPasswordHasherClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.MinCost, NewPasswordHasher(1).cost)
	assert.Equal(t, bcrypt.MaxCost, NewPasswordHasher(99).cost)
	assert.Equal(t, DefaultCost, NewPasswordHasher(DefaultCost).cost)
}
