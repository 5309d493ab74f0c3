package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PostgresLedger implements Ledger against Postgres via lib/pq. Same contract
// as SQLiteLedger; only the dialect differs.
type PostgresLedger struct {
	db *sql.DB

	mu   sync.Mutex
	head string
}

// NewPostgresLedger migrates the schema and loads the current chain head.
func NewPostgresLedger(db *sql.DB) (*PostgresLedger, error) {
	l := &PostgresLedger{db: db, head: chainGenesis}
	if err := l.migrate(); err != nil {
		return nil, &PersistenceError{Op: "migrate", Collection: "bids", Err: err}
	}
	if err := l.loadChainHead(); err != nil {
		return nil, &PersistenceError{Op: "chain head load", Collection: "bids", Err: err}
	}
	return l, nil
}

func (l *PostgresLedger) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS bids (
		seq BIGSERIAL PRIMARY KEY,
		id TEXT UNIQUE NOT NULL,
		tender_id TEXT NOT NULL,
		content_fingerprint TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		submitter_id TEXT NOT NULL,
		status TEXT NOT NULL,
		encrypted_payload BYTEA NOT NULL,
		iv BYTEA NOT NULL,
		prev_hash TEXT NOT NULL,
		entry_hash TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_bids_created_at ON bids (created_at DESC);`
	_, err := l.db.ExecContext(context.Background(), query)
	return err
}

func (l *PostgresLedger) loadChainHead() error {
	row := l.db.QueryRowContext(context.Background(),
		`SELECT entry_hash FROM bids ORDER BY seq DESC LIMIT 1`)
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

// Append inserts the record as a new row.
func (l *PostgresLedger) Append(ctx context.Context, record SealedRecord) error {
	// timestamptz stores microseconds; hash exactly what a verifier reads back.
	record.CreatedAt = record.CreatedAt.UTC().Truncate(time.Microsecond)

	l.mu.Lock()
	defer l.mu.Unlock()

	hash, err := entryHash(l.head, record.Projection())
	if err != nil {
		return &PersistenceError{Op: "append", Collection: "bids", Err: err}
	}

	query := `INSERT INTO bids (
		id, tender_id, content_fingerprint, created_at, submitter_id, status,
		encrypted_payload, iv, prev_hash, entry_hash
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = l.db.ExecContext(ctx, query,
		uuid.NewString(),
		record.TenderID,
		record.ContentFingerprint,
		record.CreatedAt,
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

// ListDescending selects only the audit projection columns.
func (l *PostgresLedger) ListDescending(ctx context.Context, limit int) ([]AuditEntry, error) {
	query := `
		SELECT tender_id, content_fingerprint, created_at, submitter_id, status
		FROM bids
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	rows, err := l.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, &PersistenceError{Op: "list", Collection: "bids", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.TenderID, &e.ContentFingerprint, &e.CreatedAt, &e.SubmitterID, &e.Status); err != nil {
			return nil, &PersistenceError{Op: "list", Collection: "bids", Err: err}
		}
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "list", Collection: "bids", Err: err}
	}
	return entries, nil
}

// VerifyChain walks the table in insertion order and recomputes every link.
func (l *PostgresLedger) VerifyChain(ctx context.Context) error {
	query := `
		SELECT tender_id, content_fingerprint, created_at, submitter_id, status, prev_hash, entry_hash
		FROM bids
		ORDER BY seq ASC`

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return &PersistenceError{Op: "chain verify", Collection: "bids", Err: err}
	}
	defer func() { _ = rows.Close() }()

	prev := chainGenesis
	i := 0
	for rows.Next() {
		var e AuditEntry
		var prevHash, storedHash string
		if err := rows.Scan(&e.TenderID, &e.ContentFingerprint, &e.CreatedAt, &e.SubmitterID, &e.Status, &prevHash, &storedHash); err != nil {
			return &PersistenceError{Op: "chain verify", Collection: "bids", Err: err}
		}
		e.CreatedAt = e.CreatedAt.UTC()
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
