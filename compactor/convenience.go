package compactor

import "iter"

// CompactSlice groups a slice into batches, folding each batch down to an
// Acc. The source cursor is just a slice index, so this is the common
// case: compacting an in-memory slice without writing a custom source
// function.
func CompactSlice[T, Acc any](items []T, zero func() Acc, fold func(Acc, T) (Acc, error), opts ...Option) iter.Seq[Group[Acc]] {
	source := func(i int) (T, int, bool) {
		if i >= len(items) {
			var zero T
			return zero, i, false
		}
		return items[i], i + 1, true
	}
	c := New(source, zero, fold, opts...)
	return c.Sequence(0)
}

// CompactSeq groups an iter.Seq into batches, folding each batch down to
// an Acc. The sequence is pulled lazily via iter.Pull, one item at a time,
// matching the push-to-pull adaptation the rest of this package makes.
func CompactSeq[T, Acc any](seq iter.Seq[T], zero func() Acc, fold func(Acc, T) (Acc, error), opts ...Option) iter.Seq[Group[Acc]] {
	next, stop := iter.Pull(seq)
	source := func(s struct{}) (T, struct{}, bool) {
		v, ok := next()
		return v, s, ok
	}
	c := New(source, zero, fold, opts...)
	return func(yield func(Group[Acc]) bool) {
		defer stop()
		c.Sequence(struct{}{})(yield)
	}
}

// MapSlice groups a slice into batches and maps f over each item,
// producing one []R per group rather than a single folded value.
func MapSlice[T, R any](items []T, f func(T) (R, error), opts ...Option) iter.Seq[Group[[]R]] {
	zero := func() []R { return nil }
	fold := func(acc []R, v T) ([]R, error) {
		r, err := f(v)
		if err != nil {
			return acc, err
		}
		return append(acc, r), nil
	}
	return CompactSlice(items, zero, fold, opts...)
}

// FlatMapSeq groups an iter.Seq into batches and maps f over each item,
// flattening every item's result slice into the group's accumulated []R.
func FlatMapSeq[T, R any](seq iter.Seq[T], f func(T) ([]R, error), opts ...Option) iter.Seq[Group[[]R]] {
	zero := func() []R { return nil }
	fold := func(acc []R, v T) ([]R, error) {
		rs, err := f(v)
		if err != nil {
			return acc, err
		}
		return append(acc, rs...), nil
	}
	return CompactSeq(seq, zero, fold, opts...)
}

// MapSeq groups an iter.Seq into batches and maps f over each item,
// producing one []R per group rather than a single folded value.
func MapSeq[T, R any](seq iter.Seq[T], f func(T) (R, error), opts ...Option) iter.Seq[Group[[]R]] {
	zero := func() []R { return nil }
	fold := func(acc []R, v T) ([]R, error) {
		r, err := f(v)
		if err != nil {
			return acc, err
		}
		return append(acc, r), nil
	}
	return CompactSeq(seq, zero, fold, opts...)
}

// FlatMapSlice groups a slice into batches and maps f over each item,
// flattening every item's result slice into the group's accumulated []R.
func FlatMapSlice[T, R any](items []T, f func(T) ([]R, error), opts ...Option) iter.Seq[Group[[]R]] {
	zero := func() []R { return nil }
	fold := func(acc []R, v T) ([]R, error) {
		rs, err := f(v)
		if err != nil {
			return acc, err
		}
		return append(acc, rs...), nil
	}
	return CompactSlice(items, zero, fold, opts...)
}
