package crypto

import "fmt"

// ConfigurationError indicates key material could not be resolved to the
// length the cipher requires. It is fatal: proceeding would silently weaken
// confidentiality.
type ConfigurationError struct {
	Op     string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("crypto configuration: %s: %s", e.Op, e.Reason)
}

// CryptoError wraps a cipher or digest fault. The message carries the failing
// operation for log correlation but never plaintext or key bytes.
type CryptoError struct {
	Op  string
	Err error
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("crypto %s failed: %v", e.Op, e.Err)
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}
