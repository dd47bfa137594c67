package star

// InnerJoin matches every left row against the right rows sharing its key and
// emits combine(l, r) per pair. Left rows without a partner are dropped and
// counted. Output order follows left order, then right order per key.
func InnerJoin[L, R, O any, K comparable](
	left []L,
	right []R,
	leftKey func(L) K,
	rightKey func(R) K,
	combine func(L, R) O,
) (out []O, dropped int) {
	idx := IndexBy(right, rightKey)
	out = make([]O, 0, len(left))
	for _, l := range left {
		matches, ok := idx[leftKey(l)]
		if !ok {
			dropped++
			continue
		}
		for _, r := range matches {
			out = append(out, combine(l, r))
		}
	}
	return out, dropped
}

// IndexBy groups rows by key, keeping input order inside each group.
func IndexBy[T any, K comparable](rows []T, key func(T) K) map[K][]T {
	idx := make(map[K][]T, len(rows))
	for _, r := range rows {
		k := key(r)
		idx[k] = append(idx[k], r)
	}
	return idx
}

// GroupBy is IndexBy plus the keys in first-seen order, so callers can
// iterate groups deterministically.
func GroupBy[T any, K comparable](rows []T, key func(T) K) ([]K, map[K][]T) {
	idx := make(map[K][]T, len(rows))
	var keys []K
	for _, r := range rows {
		k := key(r)
		if _, seen := idx[k]; !seen {
			keys = append(keys, k)
		}
		idx[k] = append(idx[k], r)
	}
	return keys, idx
}

// Distinct keeps the first row for every key.
func Distinct[T any, K comparable](rows []T, key func(T) K) []T {
	seen := make(map[K]struct{}, len(rows))
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// CrossUnnest expands two list-valued fields of one row into their full
// cartesian product. An empty side yields no rows.
func CrossUnnest[A, B, O any](as []A, bs []B, combine func(A, B) O) []O {
	if len(as) == 0 || len(bs) == 0 {
		return nil
	}
	out := make([]O, 0, len(as)*len(bs))
	for _, a := range as {
		for _, b := range bs {
			out = append(out, combine(a, b))
		}
	}
	return out
}
