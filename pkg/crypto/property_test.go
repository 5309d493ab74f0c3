//go:build property
// +build property

// Property-based tests for the seal cipher and fingerprint primitives.
package crypto_test

import (
	"bytes"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/procurex/tenderseal/pkg/crypto"
)

// TestEncryptDecryptRoundTrip verifies Decrypt(Encrypt(p)) == p for any p.
func TestEncryptDecryptRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	c, err := crypto.NewCipher(crypto.ResolveKey("property-secret", nil))
	if err != nil {
		t.Fatalf("cipher init: %v", err)
	}

	properties.Property("decrypt inverts encrypt", prop.ForAll(
		func(plaintext []byte) bool {
			ciphertext, iv, err := c.Encrypt(plaintext)
			if err != nil {
				return false
			}
			recovered, err := c.Decrypt(ciphertext, iv)
			if err != nil {
				return false
			}
			return bytes.Equal(plaintext, recovered)
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t)
}

// TestFingerprintAntiCorrelation verifies two encryptions of the same
// plaintext never share a content fingerprint: the random IV decorrelates
// them.
func TestFingerprintAntiCorrelation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	c, err := crypto.NewCipher(crypto.ResolveKey("", nil))
	if err != nil {
		t.Fatalf("cipher init: %v", err)
	}

	properties.Property("repeated seals diverge", prop.ForAll(
		func(plaintext []byte) bool {
			ct1, _, err := c.Encrypt(plaintext)
			if err != nil {
				return false
			}
			ct2, _, err := c.Encrypt(plaintext)
			if err != nil {
				return false
			}
			return crypto.DigestStrong(ct1) != crypto.DigestStrong(ct2)
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t)
}
