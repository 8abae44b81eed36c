package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("Sup3r$ecret")
	require.NoError(t, err)
	require.NotEqual(t, "Sup3r$ecret", hash)

	assert.True(t, Verify("Sup3r$ecret", hash))
	assert.False(t, Verify("wrong-password", hash))
	assert.False(t, Verify("Sup3r$ecret", "not-a-bcrypt-hash"))
}
