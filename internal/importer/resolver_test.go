package importer

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexExactThenCaseInsensitive(t *testing.T) {
	acmeID := uuid.New()
	globexID := uuid.New()

	ix := newIndex(2)
	ix.add("Acme", acmeID)
	ix.add("Globex", globexID)

	id, err := ix.Resolve("Acme")
	require.NoError(t, err)
	assert.Equal(t, acmeID, id)

	id, err = ix.Resolve("ACME")
	require.NoError(t, err)
	assert.Equal(t, acmeID, id)

	_, err = ix.Resolve("Hooli")
	assert.ErrorIs(t, err, ErrNameNotFound)
}

func TestIndexAmbiguousFallbackIsReported(t *testing.T) {
	ix := newIndex(2)
	ix.add("Acme", uuid.New())
	ix.add("ACME", uuid.New())

	// Exact hits still work.
	_, err := ix.Resolve("Acme")
	require.NoError(t, err)

	// A third casing matches both and must not be guessed.
	_, err = ix.Resolve("acme")
	assert.ErrorIs(t, err, ErrAmbiguousName)
}

func TestIndexDuplicateNamesKeepFirst(t *testing.T) {
	first := uuid.New()
	ix := newIndex(2)
	ix.add("Acme", first)
	ix.add("Acme", uuid.New())

	assert.Equal(t, 1, ix.Len())
	id, err := ix.Resolve("Acme")
	require.NoError(t, err)
	assert.Equal(t, first, id)
}

func TestEmailIndexExactMatchOnly(t *testing.T) {
	id := uuid.New()
	ix := &EmailIndex{byEmail: map[string]uuid.UUID{"dana.reeve@company.com": id}}

	got, err := ix.Resolve("  Dana.Reeve@Company.com ")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ix.Resolve("dana.reev@company.com")
	assert.ErrorIs(t, err, ErrNameNotFound)
}

func TestFetchAllStopsOnShortPage(t *testing.T) {
	pages := [][]int{make([]int, 3), make([]int, 3), make([]int, 1)}
	calls := 0

	rows, err := fetchAll(3, 10, func(offset, limit int) ([]int, error) {
		assert.Equal(t, calls*3, offset)
		assert.Equal(t, 3, limit)
		page := pages[calls]
		calls++
		return page, nil
	})

	require.NoError(t, err)
	assert.Len(t, rows, 7)
	assert.Equal(t, 3, calls)
}

func TestFetchAllHardCapStopsRunawayScan(t *testing.T) {
	_, err := fetchAll(2, 5, func(offset, limit int) ([]int, error) {
		return make([]int, 2), nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runaway")
}

func TestFetchAllPropagatesPageError(t *testing.T) {
	boom := fmt.Errorf("connection reset")
	_, err := fetchAll(10, 10, func(offset, limit int) ([]int, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}
