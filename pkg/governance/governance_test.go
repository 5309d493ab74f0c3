package governance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordUpdate_Deterministic(t *testing.T) {
	recorder := NewRecorder(NewMemoryStore(), nil)
	ctx := context.Background()

	first, err := recorder.RecordUpdate(ctx, "TENDER-001", "deadline extended", "admin")
	require.NoError(t, err)
	second, err := recorder.RecordUpdate(ctx, "TENDER-001", "deadline extended", "admin")
	require.NoError(t, err)

	assert.Equal(t, first.UpdateHash, second.UpdateHash,
		"identical inputs must reproduce the identical hash")

	other, err := recorder.RecordUpdate(ctx, "TENDER-001", "deadline extended", "other")
	require.NoError(t, err)
	assert.NotEqual(t, first.UpdateHash, other.UpdateHash,
		"changing updatedBy must change the hash")
}

func TestRecordUpdate_HashMatchesWireContract(t *testing.T) {
	recorder := NewRecorder(NewMemoryStore(), nil)

	update, err := recorder.RecordUpdate(context.Background(), "T1", "x", "admin")
	require.NoError(t, err)

	// Independent recomputation, exactly as an external verifier would do it.
	sum := sha256.Sum256([]byte("T1:x:admin"))
	assert.Equal(t, hex.EncodeToString(sum[:]), update.UpdateHash)
}

func TestRecordUpdate_DefaultsToSystemIdentity(t *testing.T) {
	recorder := NewRecorder(NewMemoryStore(), nil)

	update, err := recorder.RecordUpdate(context.Background(), "T1", "x", "")
	require.NoError(t, err)

	assert.Equal(t, SystemIdentity, update.UpdatedBy)
	assert.Equal(t, HashUpdate("T1", "x", SystemIdentity), update.UpdateHash)
	assert.Equal(t, time.UTC, update.Timestamp.Location())
}

func TestRecordUpdate_StoreFailurePropagates(t *testing.T) {
	recorder := NewRecorder(failingStore{}, nil)

	_, err := recorder.RecordUpdate(context.Background(), "T1", "x", "admin")
	require.Error(t, err)

	var pErr *PersistenceError
	assert.True(t, errors.As(err, &pErr))
}

type failingStore struct{}

func (failingStore) Append(ctx context.Context, update Update) error {
	return &PersistenceError{Op: "append", Err: fmt.Errorf("connection reset")}
}

func (failingStore) Recent(ctx context.Context, limit int) ([]Update, error) {
	return nil, nil
}

func TestMemoryStore_RecentIsNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append(ctx, Update{
			TenderID:   fmt.Sprintf("T%d", i),
			UpdateHash: fmt.Sprintf("h%d", i),
			Timestamp:  time.Now().UTC(),
		}))
	}

	recent, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "T2", recent[0].TenderID)
	assert.Equal(t, "T1", recent[1].TenderID)
}

func TestSQLiteStore_AppendFailureIsPersistenceError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS tender_updates").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store, err := NewSQLiteStore(db)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO tender_updates").
		WillReturnError(fmt.Errorf("disk full"))

	err = store.Append(context.Background(), Update{TenderID: "T1", UpdateHash: "h", Timestamp: time.Now()})
	require.Error(t, err)

	var pErr *PersistenceError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, "append", pErr.Op)
}
