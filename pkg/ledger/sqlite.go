package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// sqliteTimeLayout is fixed-width so that lexicographic ordering of the
// stored text matches chronological ordering. RFC3339Nano trims trailing
// fractional zeros and would sort "…00Z" after "…00.123Z". Times are forced
// to UTC before formatting; the trailing Z is a literal.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteLedger persists sealed records in a SQLite `bids` table. Insert-only:
// no UPDATE or DELETE statement exists anywhere in this type.
//
// The hash chain head is cached in-process under a mutex so that Append stays
// a single-document INSERT; deployments run a single authoritative ledger
// instance.
type SQLiteLedger struct {
	db *sql.DB

	mu   sync.Mutex
	head string
}

// NewSQLiteLedger migrates the schema and loads the current chain head.
func NewSQLiteLedger(db *sql.DB) (*SQLiteLedger, error) {
	l := &SQLiteLedger{db: db, head: chainGenesis}
	if err := l.migrate(); err != nil {
		return nil, &PersistenceError{Op: "migrate", Collection: "bids", Err: err}
	}
	if err := l.loadChainHead(); err != nil {
		return nil, &PersistenceError{Op: "chain head load", Collection: "bids", Err: err}
	}
	return l, nil
}

func (l *SQLiteLedger) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS bids (
		id TEXT PRIMARY KEY,
		tender_id TEXT NOT NULL,
		content_fingerprint TEXT NOT NULL,
		created_at TEXT NOT NULL,
		submitter_id TEXT NOT NULL,
		status TEXT NOT NULL,
		encrypted_payload BLOB NOT NULL,
		iv BLOB NOT NULL,
		prev_hash TEXT NOT NULL,
		entry_hash TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_bids_created_at ON bids (created_at DESC);`
	_, err := l.db.ExecContext(context.Background(), query)
	return err
}

func (l *SQLiteLedger) loadChainHead() error {
	row := l.db.QueryRowContext(context.Background(),
		`SELECT entry_hash FROM bids ORDER BY rowid DESC LIMIT 1`)
	var head string
	switch err := row.Scan(&head); {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return err
	}
	l.head = head
	return nil
}

// Append inserts the record as a new row. Never overwrites: the primary key
// is freshly generated per call.
func (l *SQLiteLedger) Append(ctx context.Context, record SealedRecord) error {
	// Hash exactly what a verifier will read back.
	record.CreatedAt = record.CreatedAt.UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	hash, err := entryHash(l.head, record.Projection())
	if err != nil {
		return &PersistenceError{Op: "append", Collection: "bids", Err: err}
	}

	query := `INSERT INTO bids (
		id, tender_id, content_fingerprint, created_at, submitter_id, status,
		encrypted_payload, iv, prev_hash, entry_hash
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = l.db.ExecContext(ctx, query,
		uuid.NewString(),
		record.TenderID,
		record.ContentFingerprint,
		record.CreatedAt.Format(sqliteTimeLayout),
		record.SubmitterID,
		record.Status,
		record.EncryptedPayload,
		record.InitializationVector,
		l.head,
		hash,
	)
	if err != nil {
		return &PersistenceError{Op: "append", Collection: "bids", Err: err}
	}

	l.head = hash
	return nil
}

// ListDescending selects only the audit projection columns; encrypted payload
// and IV never enter this query.
func (l *SQLiteLedger) ListDescending(ctx context.Context, limit int) ([]AuditEntry, error) {
	query := `
		SELECT tender_id, content_fingerprint, created_at, submitter_id, status
		FROM bids
		ORDER BY created_at DESC, id DESC
		LIMIT ?`

	rows, err := l.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, &PersistenceError{Op: "list", Collection: "bids", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var createdAt string
		if err := rows.Scan(&e.TenderID, &e.ContentFingerprint, &createdAt, &e.SubmitterID, &e.Status); err != nil {
			return nil, &PersistenceError{Op: "list", Collection: "bids", Err: err}
		}
		e.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt)
		if err != nil {
			return nil, &PersistenceError{Op: "list", Collection: "bids", Err: err}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "list", Collection: "bids", Err: err}
	}
	return entries, nil
}

// VerifyChain walks the table in insertion order and recomputes every link.
func (l *SQLiteLedger) VerifyChain(ctx context.Context) error {
	query := `
		SELECT tender_id, content_fingerprint, created_at, submitter_id, status, prev_hash, entry_hash
		FROM bids
		ORDER BY rowid ASC`

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return &PersistenceError{Op: "chain verify", Collection: "bids", Err: err}
	}
	defer func() { _ = rows.Close() }()

	prev := chainGenesis
	i := 0
	for rows.Next() {
		var e AuditEntry
		var createdAt, prevHash, storedHash string
		if err := rows.Scan(&e.TenderID, &e.ContentFingerprint, &createdAt, &e.SubmitterID, &e.Status, &prevHash, &storedHash); err != nil {
			return &PersistenceError{Op: "chain verify", Collection: "bids", Err: err}
		}
		if e.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
			return &PersistenceError{Op: "chain verify", Collection: "bids", Err: err}
		}
		if prevHash != prev {
			return fmt.Errorf("%w: entry %d links to %q, expected %q", ErrChainBroken, i, prevHash, prev)
		}
		want, err := entryHash(prev, e)
		if err != nil {
			return err
		}
		if want != storedHash {
			return fmt.Errorf("%w: entry %d", ErrChainBroken, i)
		}
		prev = storedHash
		i++
	}
	if err := rows.Err(); err != nil {
		return &PersistenceError{Op: "chain verify", Collection: "bids", Err: err}
	}
	return nil
}
