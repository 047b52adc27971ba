package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, Exchange{
		RequestID:    "req-1",
		Question:     "total spend in 2023?",
		Status:       "ok",
		Answer:       "Total spend was $4.2M.",
		PipelineJSON: `[{"$match": {"calendar_year": 2023}}]`,
	}))
	require.NoError(t, store.Record(ctx, Exchange{
		RequestID: "req-2",
		Question:  "spend?",
		Status:    "needs_clarification",
	}))

	got, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first.
	assert.Equal(t, "req-2", got[0].RequestID)
	assert.Equal(t, "needs_clarification", got[0].Status)
	assert.Empty(t, got[0].PipelineJSON)

	assert.Equal(t, "req-1", got[1].RequestID)
	assert.Equal(t, "Total spend was $4.2M.", got[1].Answer)
	assert.Contains(t, got[1].PipelineJSON, "$match")
	assert.WithinDuration(t, time.Now(), got[1].CreatedAt, time.Minute)
}

func TestRecentHonorsLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, Exchange{
			RequestID: "req",
			Question:  "q",
			Status:    "ok",
		}))
	}

	got, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening applies no pending migrations and keeps existing rows.
	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	require.NoError(t, store.Record(context.Background(), Exchange{RequestID: "r", Question: "q", Status: "ok"}))
}
