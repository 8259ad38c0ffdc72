// Package bieb holds the library-catalog domain model and the error
// taxonomy shared between the persistence layer and its callers.
//
// Entities carry a surrogate int64 key; zero means the entity has not been
// persisted yet. Relation sets are owned by the entity and only reachable
// through accessors that copy, so a caller can never mutate an entity's
// internal state by poking at a returned slice.
package bieb

// dedupeByID drops later occurrences of the same non-zero key while keeping
// the original order. Transient entities (key 0) are never collapsed.
func dedupeByID[T any](items []T, key func(T) int64) []T {
	seen := make(map[int64]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if k != 0 {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
		}
		out = append(out, item)
	}
	return out
}
