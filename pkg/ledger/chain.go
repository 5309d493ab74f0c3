package ledger

import (
	"errors"
	"fmt"

	"github.com/procurex/tenderseal/pkg/crypto"
)

// ErrChainBroken is returned by VerifyChain when a recomputed entry hash does
// not match the stored one.
var ErrChainBroken = errors.New("audit hash chain is broken")

// chainGenesis seeds the hash chain before the first entry.
const chainGenesis = "genesis"

// entryHash links an audit projection to its predecessor: the SHA-256 of the
// canonical JSON of the entry concatenated with the previous entry hash.
func entryHash(prev string, entry AuditEntry) (string, error) {
	canonical, err := crypto.CanonicalMarshal(entry)
	if err != nil {
		return "", fmt.Errorf("chain hash: %w", err)
	}
	return crypto.DigestFast(string(canonical) + prev), nil
}
