package crypto

import "log/slog"

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// devFallbackSecret keeps the service runnable without external setup. It
// provides no real confidentiality and every resolution through it is flagged.
const devFallbackSecret = "dev_aes_256_key_32_bytes_long_12345678901234567890"

// Key is the resolved symmetric key. Resolved once at startup, read-only
// afterwards.
type Key struct {
	bytes []byte

	// DevFallback marks key material that came from the built-in development
	// secret rather than configuration. Callers must surface this.
	DevFallback bool
}

// Bytes returns the raw 32-byte key.
func (k Key) Bytes() []byte {
	return k.bytes
}

// ResolveKey derives the AES-256 key from the configured secret. An empty
// secret resolves to the development fallback and is logged as such. Non-empty
// secrets are normalized to exactly KeySize bytes: truncated if longer,
// right-padded with '0' if shorter.
func ResolveKey(secret string, log *slog.Logger) Key {
	fallback := secret == ""
	if fallback {
		secret = devFallbackSecret
		if log != nil {
			log.Warn("encryption key secret not configured, using development fallback key",
				"key_material", "dev-fallback")
		}
	}

	return Key{bytes: normalizeKey([]byte(secret)), DevFallback: fallback}
}

func normalizeKey(b []byte) []byte {
	key := make([]byte, KeySize)
	n := copy(key, b)
	for i := n; i < KeySize; i++ {
		key[i] = '0'
	}
	return key
}
