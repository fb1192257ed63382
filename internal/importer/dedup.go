package importer

// Deduplicate keeps the first occurrence of each key and drops later
// duplicates, returning the kept rows and the number removed. Runs before
// name resolution and before any write, so a single store call never carries
// two rows for the same natural key.
func Deduplicate[T any](rows []T, key func(T) string) ([]T, int) {
	seen := make(map[string]bool, len(rows))
	kept := make([]T, 0, len(rows))
	removed := 0
	for _, row := range rows {
		k := key(row)
		if seen[k] {
			removed++
			continue
		}
		seen[k] = true
		kept = append(kept, row)
	}
	return kept, removed
}
