package auth

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hasher := NewBcryptHasher()

	hash, err := hasher.Hash("GoodPass#1Long")
	require.NoError(t, err)
	assert.Equal(t, byte('$'), hash[0])

	ok, err := hasher.Verify("GoodPass#1Long", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify("WrongPass#1Long", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashEmptyPassword(t *testing.T) {
	hasher := NewBcryptHasher()

	_, err := hasher.Hash("")
	assert.Error(t, err)
}

func TestVerifyLegacyEncodings(t *testing.T) {
	hasher := NewBcryptHasher()

	hash, err := hasher.Hash("GoodPass#1Long")
	require.NoError(t, err)

	hexEncoded := hex.EncodeToString(hash)

	tests := []struct {
		name   string
		stored []byte
	}{
		{name: "canonical bcrypt text", stored: hash},
		{name: "hex blob", stored: []byte(hexEncoded)},
		{name: "hex blob with driver prefix", stored: []byte(`\x` + hexEncoded)},
		{name: "surrounding whitespace", stored: []byte(" " + string(hash) + "\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := hasher.Verify("GoodPass#1Long", tt.stored)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = hasher.Verify("WrongPass#1Long", tt.stored)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestVerifyUnknownEncoding(t *testing.T) {
	hasher := NewBcryptHasher()

	// Garbage that is neither bcrypt text nor hex must fail verification
	// without returning an error
	ok, err := hasher.Verify("GoodPass#1Long", []byte("not-a-hash"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = hasher.Verify("GoodPass#1Long", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNormalizePasswordHash(t *testing.T) {
	bcryptText := []byte("$2a$10$abcdefghijklmnopqrstuv")
	hexBlob := []byte(hex.EncodeToString(bcryptText))

	got, err := NormalizePasswordHash(bcryptText)
	require.NoError(t, err)
	assert.Equal(t, bcryptText, got)

	got, err = NormalizePasswordHash(hexBlob)
	require.NoError(t, err)
	assert.Equal(t, bcryptText, got)

	got, err = NormalizePasswordHash(append([]byte(`\x`), hexBlob...))
	require.NoError(t, err)
	assert.Equal(t, bcryptText, got)

	_, err = NormalizePasswordHash([]byte("zzzz"))
	assert.ErrorIs(t, err, ErrUnknownHashEncoding)

	_, err = NormalizePasswordHash(nil)
	assert.ErrorIs(t, err, ErrUnknownHashEncoding)
}

func TestNewBcryptHasherWithCost(t *testing.T) {
	_, err := NewBcryptHasherWithCost(100)
	assert.Error(t, err)

	hasher, err := NewBcryptHasherWithCost(4)
	require.NoError(t, err)

	hash, err := hasher.Hash("GoodPass#1Long")
	require.NoError(t, err)
	ok, err := hasher.Verify("GoodPass#1Long", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}
