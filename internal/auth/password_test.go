package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2hunter2", hash)

	assert.True(t, CheckPassword(hash, "hunter2hunter2"))
	assert.False(t, CheckPassword(hash, "hunter2hunter3"))
	assert.False(t, CheckPassword("", "hunter2hunter2"))
}

func TestPasswordMinimumLength(t *testing.T) {
	_, err := HashPassword("seven77")
	assert.Error(t, err)

	_, err = HashPassword("eight888")
	assert.NoError(t, err)
}

func TestHashesAreSalted(t *testing.T) {
	a, err := HashPassword("hunter2hunter2")
	require.NoError(t, err)
	b, err := HashPassword("hunter2hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
