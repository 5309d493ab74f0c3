package crypto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveKey_DevFallback(t *testing.T) {
	key := ResolveKey("", nil)

	assert.True(t, key.DevFallback, "empty secret must resolve to the flagged dev fallback")
	assert.Len(t, key.Bytes(), KeySize)
}

func TestResolveKey_Normalization(t *testing.T) {
	short := ResolveKey("abc", nil)
	assert.False(t, short.DevFallback)
	assert.Len(t, short.Bytes(), KeySize)
	assert.Equal(t, byte('a'), short.Bytes()[0])
	assert.Equal(t, byte('0'), short.Bytes()[3], "short secrets are right-padded with '0'")
	assert.Equal(t, byte('0'), short.Bytes()[KeySize-1])

	long := ResolveKey("0123456789012345678901234567890123456789", nil)
	assert.False(t, long.DevFallback)
	assert.Len(t, long.Bytes(), KeySize, "long secrets are truncated")
}

func TestCipher_RoundTrip(t *testing.T) {
	c, err := NewCipher(ResolveKey("round-trip-secret", nil))
	require.NoError(t, err)

	plaintext := []byte("hello")
	ciphertext, iv, err := c.Encrypt(plaintext)
	require.NoError(t, err)

	assert.Len(t, iv, IVSize)
	assert.Equal(t, 0, len(ciphertext)%16)
	assert.NotEqual(t, plaintext, ciphertext)

	recovered, err := c.Decrypt(ciphertext, iv)
	require.NoError(t, err)
	assert.Equal(t, plaintext, recovered)
}

func TestCipher_RoundTripEdgeSizes(t *testing.T) {
	c, err := NewCipher(ResolveKey("", nil))
	require.NoError(t, err)

	for _, plaintext := range [][]byte{
		nil,
		[]byte("x"),
		bytes.Repeat([]byte("b"), 16), // exact block, forces a full padding block
		bytes.Repeat([]byte("c"), 1000),
	} {
		ciphertext, iv, err := c.Encrypt(plaintext)
		require.NoError(t, err)
		require.NotEmpty(t, ciphertext, "padding guarantees at least one block")

		recovered, err := c.Decrypt(ciphertext, iv)
		require.NoError(t, err)
		assert.Equal(t, len(plaintext), len(recovered))
		assert.True(t, bytes.Equal(plaintext, recovered))
	}
}

func TestCipher_FreshIVPerCall(t *testing.T) {
	c, err := NewCipher(ResolveKey("", nil))
	require.NoError(t, err)

	ct1, iv1, err := c.Encrypt([]byte("identical plaintext"))
	require.NoError(t, err)
	ct2, iv2, err := c.Encrypt([]byte("identical plaintext"))
	require.NoError(t, err)

	assert.NotEqual(t, iv1, iv2)
	assert.NotEqual(t, ct1, ct2, "IV divergence must propagate into the ciphertext")
}

func TestCipher_InjectedEntropy(t *testing.T) {
	fixed := bytes.Repeat([]byte{0xAB}, IVSize)
	c, err := NewCipherWithRand(ResolveKey("secret", nil), bytes.NewReader(fixed))
	require.NoError(t, err)

	_, iv, err := c.Encrypt([]byte("reproducible"))
	require.NoError(t, err)
	assert.Equal(t, fixed, iv, "injected entropy source must drive the IV")
}

func TestNewCipher_BadKeyLength(t *testing.T) {
	_, err := NewCipher(Key{bytes: []byte("short")})
	require.Error(t, err)

	var confErr *ConfigurationError
	assert.True(t, errors.As(err, &confErr))
}

func TestDecrypt_Faults(t *testing.T) {
	c, err := NewCipher(ResolveKey("", nil))
	require.NoError(t, err)

	ciphertext, iv, err := c.Encrypt([]byte("payload"))
	require.NoError(t, err)

	var cryptoErr *CryptoError

	_, err = c.Decrypt(ciphertext, iv[:8])
	require.Error(t, err, "truncated IV")
	assert.True(t, errors.As(err, &cryptoErr))

	_, err = c.Decrypt(ciphertext[:len(ciphertext)-3], iv)
	require.Error(t, err, "ciphertext not a block multiple")
	assert.True(t, errors.As(err, &cryptoErr))

	tampered := append([]byte(nil), ciphertext...)
	tampered[len(tampered)-1] ^= 0xFF
	_, err = c.Decrypt(tampered, iv)
	require.Error(t, err, "tampered padding block")
	assert.True(t, errors.As(err, &cryptoErr))
}

func TestDigestStrong(t *testing.T) {
	digest := DigestStrong([]byte{})

	// SHA3-512 of the empty input, pinned as an external test vector.
	assert.Equal(t,
		"a69f73cca23a9ac5c8b567dc185a756e97c982164fe25859e0d1dcc1475c80a6"+
			"615b2123af1f5f94c11e3e9402c3ac558f500199d95b6d3e301758586281dcd26",
		digest)
	assert.Len(t, digest, 128)

	_, err := hex.DecodeString(DigestStrong([]byte("bid content")))
	assert.NoError(t, err)
}

func TestDigestFast(t *testing.T) {
	// SHA-256 of the empty input.
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		DigestFast(""))

	assert.Equal(t, DigestFast("TENDER-001:x:admin"), DigestFast("TENDER-001:x:admin"))
	assert.NotEqual(t, DigestFast("TENDER-001:x:admin"), DigestFast("TENDER-001:x:other"))
}

func TestCanonicalMarshal_KeyOrderIndependent(t *testing.T) {
	a, err := CanonicalMarshal(map[string]int{"a": 1, "b": 2})
	require.NoError(t, err)
	b, err := CanonicalMarshal(map[string]int{"b": 2, "a": 1})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}
