package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// DigestStrong computes the SHA3-512 digest of content as a lowercase hex
// string (128 characters). Used to fingerprint encrypted payloads; SHA-3 is
// chosen for its security margin and length-extension resistance.
func DigestStrong(content []byte) string {
	sum := sha3.Sum512(content)
	return hex.EncodeToString(sum[:])
}

// DigestFast computes the SHA-256 digest of a UTF-8 string as lowercase hex
// (64 characters). Used for deterministic event hashing where third parties
// must be able to reproduce the digest exactly.
func DigestFast(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
