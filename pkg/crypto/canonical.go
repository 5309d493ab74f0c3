package crypto

import (
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// CanonicalMarshal serializes v to RFC 8785 canonical JSON. Two structurally
// equal values always produce identical bytes, which makes the output safe
// to hash for tamper evidence.
func CanonicalMarshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical encoding failed: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonical transform failed: %w", err)
	}
	return canonical, nil
}
