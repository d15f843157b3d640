package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordercore/pkg/platform/faults"
	"ordercore/pkg/platform/idempotency"
)

func record(requestID uuid.UUID) idempotency.Record {
	return idempotency.Record{
		RequestID:     requestID,
		CorrelationID: uuid.NewString(),
		ActionName:    "orders.create",
		CreatedAt:     time.Now().UTC(),
	}
}

func TestAddAndExists(t *testing.T) {
	store := New()
	ctx := context.Background()
	requestID := uuid.New()

	exists, err := store.Exists(ctx, requestID)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Add(ctx, record(requestID)))

	exists, err = store.Exists(ctx, requestID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDuplicateAddConflicts(t *testing.T) {
	store := New()
	ctx := context.Background()
	requestID := uuid.New()

	require.NoError(t, store.Add(ctx, record(requestID)))

	// Same request id under a different correlation id is still a duplicate.
	err := store.Add(ctx, record(requestID))
	assert.ErrorIs(t, err, faults.ErrIdempotenceConflict)
	assert.Len(t, store.All(), 1)
}

func TestConcurrentAddAcceptsExactlyOne(t *testing.T) {
	store := New()
	ctx := context.Background()
	requestID := uuid.New()
	const goroutines = 50

	var wg sync.WaitGroup
	var accepted atomic.Int32
	var conflicted atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch err := store.Add(ctx, record(requestID)); {
			case err == nil:
				accepted.Add(1)
			default:
				assert.ErrorIs(t, err, faults.ErrIdempotenceConflict)
				conflicted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())
	assert.Equal(t, int32(goroutines-1), conflicted.Load())
}
