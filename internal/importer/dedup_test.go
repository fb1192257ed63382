package importer

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeduplicateKeepsFirstOccurrence(t *testing.T) {
	type row struct {
		name  string
		value int
	}
	rows := []row{
		{"Acme", 1},
		{"Globex", 2},
		{"acme", 3},
		{"Acme", 4},
		{"Initech", 5},
	}

	kept, removed := Deduplicate(rows, func(r row) string { return strings.ToLower(r.name) })

	assert.Equal(t, 2, removed)
	assert.Equal(t, []row{{"Acme", 1}, {"Globex", 2}, {"Initech", 5}}, kept)
}

func TestDeduplicateOneRowPerDistinctKey(t *testing.T) {
	rows := make([]int, 100)
	for i := range rows {
		rows[i] = i
	}

	kept, removed := Deduplicate(rows, func(n int) string { return strconv.Itoa(n % 7) })

	assert.Len(t, kept, 7)
	assert.Equal(t, 93, removed)
	// First occurrences are 0..6 in order.
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, kept)
}

func TestDeduplicateEmptyInput(t *testing.T) {
	kept, removed := Deduplicate(nil, func(s string) string { return s })
	assert.Empty(t, kept)
	assert.Zero(t, removed)
}
