// Package group implements the single reusable bucketing primitive every
// dedup stage is built from (§4.3): partition a sequence by a key function
// and drop any bucket with fewer than two members.
package group

// By partitions items into buckets keyed by key(item), dropping any bucket
// that ends up with fewer than two members. Bucket order is unspecified;
// callers that need determinism sort afterward.
func By[T any, K comparable](items []T, key func(T) K) [][]T {
	buckets := make(map[K][]T)
	for _, it := range items {
		k := key(it)
		buckets[k] = append(buckets[k], it)
	}

	out := make([][]T, 0, len(buckets))
	for _, b := range buckets {
		if len(b) >= 2 {
			out = append(out, b)
		}
	}
	return out
}
