package governance

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// PostgresStore persists governance updates in Postgres. Insert-only.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore migrates the schema.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	s := &PostgresStore{db: db}
	query := `
	CREATE TABLE IF NOT EXISTS tender_updates (
		id TEXT PRIMARY KEY,
		tender_id TEXT NOT NULL,
		update_content TEXT NOT NULL,
		updated_by TEXT NOT NULL,
		update_hash TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL
	);`
	if _, err := s.db.ExecContext(context.Background(), query); err != nil {
		return nil, &PersistenceError{Op: "migrate", Err: err}
	}
	return s, nil
}

func (s *PostgresStore) Append(ctx context.Context, update Update) error {
	query := `INSERT INTO tender_updates (id, tender_id, update_content, updated_by, update_hash, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.db.ExecContext(ctx, query,
		uuid.NewString(),
		update.TenderID,
		update.UpdateContent,
		update.UpdatedBy,
		update.UpdateHash,
		update.Timestamp.UTC(),
	)
	if err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}
	return nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Update, error) {
	query := `
		SELECT tender_id, update_content, updated_by, update_hash, timestamp
		FROM tender_updates
		ORDER BY timestamp DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var updates []Update
	for rows.Next() {
		var u Update
		if err := rows.Scan(&u.TenderID, &u.UpdateContent, &u.UpdatedBy, &u.UpdateHash, &u.Timestamp); err != nil {
			return nil, &PersistenceError{Op: "list", Err: err}
		}
		u.Timestamp = u.Timestamp.UTC()
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	return updates, nil
}
