package memory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordercore/pkg/platform/faults"
	"ordercore/pkg/platform/outbox"
)

func pendingMessage(t *testing.T, createdAt time.Time) outbox.Message {
	t.Helper()
	return outbox.Message{
		ID:            uuid.New(),
		OccurredOnUTC: createdAt,
		Type:          "order.created",
		Content:       []byte(`{"k":"v"}`),
		CreatedAt:     createdAt,
	}
}

func TestFetchPendingOldestFirst(t *testing.T) {
	store := New()
	ctx := context.Background()

	newer := pendingMessage(t, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	older := pendingMessage(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, store.Insert(ctx, newer, older))

	pending, err := store.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, older.ID, pending[0].ID)
	assert.Equal(t, newer.ID, pending[1].ID)

	limited, err := store.FetchPending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, older.ID, limited[0].ID)
}

func TestMarkProcessedRemovesFromPending(t *testing.T) {
	store := New()
	ctx := context.Background()
	msg := pendingMessage(t, time.Now().UTC())
	require.NoError(t, store.Insert(ctx, msg))

	require.NoError(t, store.MarkProcessed(ctx, msg.ID))

	pending, err := store.FetchPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	all := store.All()
	require.Len(t, all, 1)
	assert.False(t, all[0].Pending())
	assert.NotNil(t, all[0].ProcessedOnUTC)
}

func TestMarkFailedRecordsCauseAndStaysPending(t *testing.T) {
	store := New()
	ctx := context.Background()
	msg := pendingMessage(t, time.Now().UTC())
	require.NoError(t, store.Insert(ctx, msg))

	require.NoError(t, store.MarkFailed(ctx, msg.ID, "broker unreachable"))
	require.NoError(t, store.MarkFailed(ctx, msg.ID, "still unreachable"))

	pending, err := store.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Attempts)
	require.NotNil(t, pending[0].Error)
	assert.Equal(t, "still unreachable", *pending[0].Error)
}

func TestMarkFailedTruncatesLongCauses(t *testing.T) {
	store := New()
	ctx := context.Background()
	msg := pendingMessage(t, time.Now().UTC())
	require.NoError(t, store.Insert(ctx, msg))

	require.NoError(t, store.MarkFailed(ctx, msg.ID, strings.Repeat("x", outbox.MaxErrorLen+100)))

	pending, err := store.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, pending[0].Error)
	assert.Len(t, *pending[0].Error, outbox.MaxErrorLen)
}

func TestMarkUnknownMessage(t *testing.T) {
	store := New()
	ctx := context.Background()

	assert.ErrorIs(t, store.MarkProcessed(ctx, uuid.New()), faults.ErrNotFound)
	assert.ErrorIs(t, store.MarkFailed(ctx, uuid.New(), "cause"), faults.ErrNotFound)
}
