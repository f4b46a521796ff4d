package progress

import (
	"context"
	"iter"
)

// Each calls fn for every item of seq and counts it on the bar. When fn fails
// the bar closes with that error and Each returns it; otherwise the bar closes
// with Terminate after the last item.
func Each[T any](ctx context.Context, bar *Bar, seq iter.Seq[T], fn func(context.Context, T) error) error {
	var failed error
	for item := range seq {
		if err := fn(ctx, item); err != nil {
			failed = err
			break
		}
		if _, err := bar.Add(ctx, 1); err != nil {
			return err
		}
	}
	if _, err := bar.Close(ctx, failed); err != nil {
		return err
	}
	return failed
}

// Range runs fn for 0..n-1, counting each call on bar like Each.
func Range(ctx context.Context, bar *Bar, n int, fn func(context.Context, int) error) error {
	return Each(ctx, bar, count(n), fn)
}

func count(n int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := range n {
			if !yield(i) {
				return
			}
		}
	}
}
