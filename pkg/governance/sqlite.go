package governance

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// sqliteTimeLayout is fixed-width so that `ORDER BY timestamp` over the
// stored text orders chronologically. RFC3339Nano trims trailing fractional
// zeros and is not lexicographically order-preserving. Times are forced to
// UTC before formatting; the trailing Z is a literal.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore persists governance updates in a SQLite `tender_updates` table.
// Insert-only.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore migrates the schema.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	query := `
	CREATE TABLE IF NOT EXISTS tender_updates (
		id TEXT PRIMARY KEY,
		tender_id TEXT NOT NULL,
		update_content TEXT NOT NULL,
		updated_by TEXT NOT NULL,
		update_hash TEXT NOT NULL,
		timestamp TEXT NOT NULL
	);`
	if _, err := s.db.ExecContext(context.Background(), query); err != nil {
		return nil, &PersistenceError{Op: "migrate", Err: err}
	}
	return s, nil
}

func (s *SQLiteStore) Append(ctx context.Context, update Update) error {
	query := `INSERT INTO tender_updates (id, tender_id, update_content, updated_by, update_hash, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		uuid.NewString(),
		update.TenderID,
		update.UpdateContent,
		update.UpdatedBy,
		update.UpdateHash,
		update.Timestamp.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}
	return nil
}

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Update, error) {
	query := `
		SELECT tender_id, update_content, updated_by, update_hash, timestamp
		FROM tender_updates
		ORDER BY timestamp DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var updates []Update
	for rows.Next() {
		var u Update
		var ts string
		if err := rows.Scan(&u.TenderID, &u.UpdateContent, &u.UpdatedBy, &u.UpdateHash, &ts); err != nil {
			return nil, &PersistenceError{Op: "list", Err: err}
		}
		if u.Timestamp, err = time.Parse(sqliteTimeLayout, ts); err != nil {
			return nil, &PersistenceError{Op: "list", Err: err}
		}
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	return updates, nil
}
