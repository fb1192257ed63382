package importer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestProcessInChunksPartitionsInOrder(t *testing.T) {
	rows := make([]int, 1250)
	var chunks [][]int

	result := ProcessInChunks(context.Background(), rows, 500, nil, func(ctx context.Context, chunk []int) error {
		chunks = append(chunks, chunk)
		return nil
	})

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 500)
	assert.Len(t, chunks[1], 500)
	assert.Len(t, chunks[2], 250)
	assert.Equal(t, 1250, result.Imported)
	assert.Empty(t, result.Errors)
}

func TestProcessInChunksContainsPartialFailure(t *testing.T) {
	rows := make([]int, 250)
	boom := errors.New("constraint violated")
	calls := 0

	result := ProcessInChunks(context.Background(), rows, 100, nil, func(ctx context.Context, chunk []int) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	})

	// Chunks 0 and 2 persisted, chunk 1 failed with exactly one error entry.
	assert.Equal(t, 3, calls)
	assert.Equal(t, 150, result.Imported)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 1, result.Errors[0].Chunk)
	assert.ErrorIs(t, result.Errors[0].Err, boom)
}

func TestProcessInChunksLimiterPacesBetweenChunks(t *testing.T) {
	rows := make([]int, 30)
	limiter := rate.NewLimiter(rate.Every(20*time.Millisecond), 1)

	start := time.Now()
	result := ProcessInChunks(context.Background(), rows, 10, limiter, func(ctx context.Context, chunk []int) error {
		return nil
	})

	// The second inter-chunk wait has to refill the bucket.
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
	assert.Equal(t, 30, result.Imported)
}

func TestProcessInChunksEmptyInput(t *testing.T) {
	result := ProcessInChunks(context.Background(), []int{}, 100, nil, func(ctx context.Context, chunk []int) error {
		t.Fatal("write should not be called")
		return nil
	})
	assert.Zero(t, result.Imported)
	assert.Empty(t, result.Errors)
}
