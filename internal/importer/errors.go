// Package importer implements the bulk reconciliation pipeline: workbook
// validation, name resolution, deduplication, chunked writes, and the
// coordinator that sequences the five entity phases.
package importer

import (
	"errors"
	"fmt"
)

// SchemaError marks a sheet that cannot be imported at all: the sheet is
// missing, has no data rows, or lacks a required column. It aborts the
// sheet's phase, not the whole run.
type SchemaError struct {
	Sheet  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("sheet %q: %s", e.Sheet, e.Reason)
}

// NameResolutionError marks a row that references an unknown account, seller,
// manager, or profile. The row is dropped and the phase continues.
type NameResolutionError struct {
	Sheet string
	Row   int
	Field string
	Value string
	Cause error
}

func (e *NameResolutionError) Error() string {
	return fmt.Sprintf("%s row %d: %s %q: %v", e.Sheet, e.Row, e.Field, e.Value, e.Cause)
}

func (e *NameResolutionError) Unwrap() error {
	return e.Cause
}

// WriteError records one failed chunk of a batched write. Rows in the chunk
// are not persisted; later chunks are still attempted.
type WriteError struct {
	Chunk int
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("chunk %d: %v", e.Chunk, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Lookup failure causes, wrapped by NameResolutionError.
var (
	ErrNameNotFound  = errors.New("not found")
	ErrAmbiguousName = errors.New("ambiguous (multiple case-insensitive matches)")
)
