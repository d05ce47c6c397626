package store

import "iter"

// Collect drains seq into a slice, stopping at the first error.
func Collect[E any](seq iter.Seq2[E, error]) ([]E, error) {
	var out []E
	for item, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, item)
	}
	return out, nil
}

// Slice yields the items of a materialized result.
func Slice[E any](items []E) iter.Seq2[E, error] {
	return func(yield func(E, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

// Failed yields a single error.
func Failed[E any](err error) iter.Seq2[E, error] {
	return func(yield func(E, error) bool) {
		var zero E
		yield(zero, err)
	}
}
