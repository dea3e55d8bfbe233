package security

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashHex(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", HashHex(nil))
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", HashHex([]byte("abc")))
}

func TestValidateHash(t *testing.T) {
	data := []byte("%PDF-1.4 signed")
	v := NewValidator()

	info, err := v.ValidateHash(context.Background(), bytes.NewReader(data), HashHex(data))
	require.NoError(t, err)
	assert.True(t, info.IsValid)
	assert.Equal(t, int64(len(data)), info.Size)

	info, err = v.ValidateHash(context.Background(), bytes.NewReader(data), strings.ToUpper(HashHex(data)))
	require.NoError(t, err)
	assert.True(t, info.IsValid)

	info, err = v.ValidateHash(context.Background(), bytes.NewReader(append(data, '\n')), HashHex(data))
	require.NoError(t, err)
	assert.False(t, info.IsValid)
	assert.NotEqual(t, info.ExpectedHash, info.ActualHash)
}

func TestValidateHashCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewValidator().ValidateHash(ctx, strings.NewReader("x"), "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewVerificationToken(t *testing.T) {
	a, b := NewVerificationToken(), NewVerificationToken()
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "-")
}
