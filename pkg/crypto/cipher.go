// Package crypto wraps the symmetric encryption and hashing primitives used
// to seal bids: AES-256-CBC with PKCS#7 padding, SHA3-512 content
// fingerprinting and SHA-256 event hashing.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// IVSize is the AES block size; every seal operation draws a fresh IV of this
// length from the entropy source.
const IVSize = aes.BlockSize

// Cipher performs AES-256-CBC encryption with a per-call random IV.
type Cipher struct {
	key  Key
	rand io.Reader
}

// NewCipher creates a Cipher using crypto/rand as the entropy source.
func NewCipher(key Key) (*Cipher, error) {
	return NewCipherWithRand(key, rand.Reader)
}

// NewCipherWithRand creates a Cipher with an injected entropy source.
// This allows deterministic IVs in tests; production wiring must pass a
// cryptographically secure reader.
func NewCipherWithRand(key Key, r io.Reader) (*Cipher, error) {
	if len(key.Bytes()) != KeySize {
		return nil, &ConfigurationError{
			Op:     "cipher init",
			Reason: fmt.Sprintf("key material is %d bytes, need %d", len(key.Bytes()), KeySize),
		}
	}
	if r == nil {
		r = rand.Reader
	}
	return &Cipher{key: key, rand: r}, nil
}

// DevFallback reports whether the cipher runs on the development fallback key.
func (c *Cipher) DevFallback() bool {
	return c.key.DevFallback
}

// Encrypt encrypts plaintext under AES-256-CBC with a fresh random IV and
// returns (ciphertext, iv). The plaintext is PKCS#7-padded to the block size,
// so the ciphertext is never empty and always a block multiple.
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, []byte, error) {
	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(c.rand, iv); err != nil {
		return nil, nil, &CryptoError{Op: "iv generation", Err: err}
	}

	block, err := aes.NewCipher(c.key.Bytes())
	if err != nil {
		return nil, nil, &CryptoError{Op: "encrypt", Err: err}
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return ciphertext, iv, nil
}

// Decrypt reverses Encrypt given the ciphertext and the IV returned with it.
func (c *Cipher) Decrypt(ciphertext, iv []byte) ([]byte, error) {
	if len(iv) != IVSize {
		return nil, &CryptoError{Op: "decrypt", Err: fmt.Errorf("iv is %d bytes, need %d", len(iv), IVSize)}
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, &CryptoError{Op: "decrypt", Err: errors.New("ciphertext is not a block multiple")}
	}

	block, err := aes.NewCipher(c.key.Bytes())
	if err != nil {
		return nil, &CryptoError{Op: "decrypt", Err: err}
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return nil, &CryptoError{Op: "decrypt", Err: err}
	}
	return unpadded, nil
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	padded := make([]byte, len(b)+n)
	copy(padded, b)
	for i := len(b); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, errors.New("invalid padding")
	}
	if !bytes.Equal(b[len(b)-n:], bytes.Repeat([]byte{byte(n)}, n)) {
		return nil, errors.New("invalid padding")
	}
	return b[:len(b)-n], nil
}
