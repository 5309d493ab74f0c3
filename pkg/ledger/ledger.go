// Package ledger implements the append-only audit trail of sealed bids.
// Records are immutable once appended; the read path projects only
// non-confidential fields and never exposes ciphertext or IVs.
package ledger

import (
	"context"
	"fmt"
	"time"
)

// StatusSealed is the terminal (and only) status of a sealed record.
const StatusSealed = "SEALED"

// SealedRecord is a bid after sealing: encrypted payload, the IV needed to
// decrypt it, and the SHA3-512 fingerprint of the encrypted bytes.
type SealedRecord struct {
	TenderID             string    `json:"tenderId"`
	ContentFingerprint   string    `json:"contentFingerprint"`
	CreatedAt            time.Time `json:"createdAt"`
	SubmitterID          string    `json:"submitterId"`
	Status               string    `json:"status"`
	EncryptedPayload     []byte    `json:"encryptedPayload"`
	InitializationVector []byte    `json:"initializationVector"`
}

// AuditEntry is the exposable projection of a SealedRecord. The encrypted
// payload and IV are structurally absent, not merely omitted on serialization.
type AuditEntry struct {
	TenderID           string    `json:"tenderId"`
	ContentFingerprint string    `json:"bidHash"`
	CreatedAt          time.Time `json:"timestamp"`
	SubmitterID        string    `json:"bidderId"`
	Status             string    `json:"status"`
}

// Projection returns the audit-safe view of the record.
func (r SealedRecord) Projection() AuditEntry {
	return AuditEntry{
		TenderID:           r.TenderID,
		ContentFingerprint: r.ContentFingerprint,
		CreatedAt:          r.CreatedAt,
		SubmitterID:        r.SubmitterID,
		Status:             r.Status,
	}
}

// Ledger is the append-only store of sealed records. There is deliberately no
// update or delete operation.
type Ledger interface {
	// Append durably stores the record. Atomic from a reader's perspective:
	// ListDescending never observes a partially written record.
	Append(ctx context.Context, record SealedRecord) error

	// ListDescending returns up to limit entries ordered by CreatedAt
	// descending. Side-effect free and idempotent.
	ListDescending(ctx context.Context, limit int) ([]AuditEntry, error)
}

// ChainVerifier is implemented by ledgers that maintain a per-entry hash
// chain over their audit projections.
type ChainVerifier interface {
	// VerifyChain recomputes the hash chain and returns ErrChainBroken
	// (wrapped with position context) on the first mismatch.
	VerifyChain(ctx context.Context) error
}

// PersistenceError reports a failed read or write against the persistence
// collaborator. The subsystem performs no automatic retry: blind retries on
// an append-only store risk duplicate entries.
type PersistenceError struct {
	Op         string
	Collection string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s on %s failed: %v", e.Op, e.Collection, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
