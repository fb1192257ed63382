package importer

import (
	"context"

	"golang.org/x/time/rate"
)

const (
	// EntityBatchSize is the chunk size for entity table writes.
	EntityBatchSize = 500
	// RelationshipBatchSize is the smaller chunk size for join-table writes,
	// which are costlier per row.
	RelationshipBatchSize = 100
)

// BatchResult reports a chunked write: rows in chunks that succeeded, plus
// one WriteError per failed chunk. A failed chunk never halts later chunks.
type BatchResult struct {
	Imported int
	Errors   []*WriteError
}

// ErrorStrings flattens chunk errors for the run summary.
func (r BatchResult) ErrorStrings() []string {
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Error()
	}
	return out
}

// ProcessInChunks partitions rows into consecutive chunks of size and issues
// one write per chunk, in order. When limiter is non-nil it paces the gap
// between chunks (join-table backpressure); entity writes pass nil.
func ProcessInChunks[T any](ctx context.Context, rows []T, size int, limiter *rate.Limiter, write func(ctx context.Context, chunk []T) error) BatchResult {
	var result BatchResult
	if size <= 0 {
		size = EntityBatchSize
	}

	for i, chunk := 0, 0; i < len(rows); i, chunk = i+size, chunk+1 {
		if chunk > 0 && limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				result.Errors = append(result.Errors, &WriteError{Chunk: chunk, Err: err})
				return result
			}
		}

		end := i + size
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[i:end]

		if err := write(ctx, batch); err != nil {
			result.Errors = append(result.Errors, &WriteError{Chunk: chunk, Err: err})
			continue
		}
		result.Imported += len(batch)
	}
	return result
}
