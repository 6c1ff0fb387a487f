package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptVerifier(t *testing.T) {
	hash, err := Hash("s3cret")
	require.NoError(t, err)

	var v BcryptVerifier
	assert.True(t, v.Verify(hash, "s3cret"))
	assert.False(t, v.Verify(hash, "wrong"))
	assert.False(t, v.Verify("not-a-hash", "s3cret"), "malformed hashes must never match")
}
