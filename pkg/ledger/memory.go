package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryLedger is a transient Ledger for tests and local development.
type MemoryLedger struct {
	mu      sync.RWMutex
	records []SealedRecord
	hashes  []string
	head    string
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{head: chainGenesis}
}

// Append adds a record. Records are copied in; callers cannot mutate stored
// entries afterwards.
func (l *MemoryLedger) Append(ctx context.Context, record SealedRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	linked, err := entryHash(l.head, record.Projection())
	if err != nil {
		return &PersistenceError{Op: "append", Collection: "bids", Err: err}
	}

	stored := record
	stored.EncryptedPayload = append([]byte(nil), record.EncryptedPayload...)
	stored.InitializationVector = append([]byte(nil), record.InitializationVector...)

	l.records = append(l.records, stored)
	l.hashes = append(l.hashes, linked)
	l.head = linked
	return nil
}

// ListDescending returns up to limit projections, newest first.
func (l *MemoryLedger) ListDescending(ctx context.Context, limit int) ([]AuditEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := make([]AuditEntry, 0, len(l.records))
	for _, r := range l.records {
		entries = append(entries, r.Projection())
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// VerifyChain recomputes the in-memory hash chain.
func (l *MemoryLedger) VerifyChain(ctx context.Context) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	prev := chainGenesis
	for i, r := range l.records {
		want, err := entryHash(prev, r.Projection())
		if err != nil {
			return err
		}
		if want != l.hashes[i] {
			return fmt.Errorf("%w: entry %d", ErrChainBroken, i)
		}
		prev = l.hashes[i]
	}
	return nil
}
