package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	raw, hashed := GenerateToken()
	require.Len(t, raw, 64)
	assert.Equal(t, HashToken(raw), hashed)
	assert.NotEqual(t, raw, hashed)

	raw2, _ := GenerateToken()
	assert.NotEqual(t, raw, raw2)
}

func TestHashToken(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
}

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hashed)

	assert.True(t, CheckPassword("s3cret-pass", hashed))
	assert.False(t, CheckPassword("wrong", hashed))
}
