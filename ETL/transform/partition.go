package transform

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// splitPartitions делит rows не более чем на n непрерывных партиций почти равного размера
func splitPartitions[T any](rows []T, n int) [][]T {
	if n < 1 {
		n = 1
	}
	if n > len(rows) {
		n = len(rows)
	}
	if n == 0 {
		return nil
	}

	parts := make([][]T, 0, n)
	size, rest := len(rows)/n, len(rows)%n
	start := 0
	for i := 0; i < n; i++ {
		end := start + size
		if i < rest {
			end++
		}
		parts = append(parts, rows[start:end:end])
		start = end
	}
	return parts
}

// mapPartitions применяет fn ко всем партициям параллельно. Результаты идут
// в порядке партиций, поэтому их склейка детерминирована для данного входа.
func mapPartitions[In, Out any](ctx context.Context, parts [][]In, fn func(ctx context.Context, part []In) (Out, error)) ([]Out, error) {
	results := make([]Out, len(parts))

	g, gctx := errgroup.WithContext(ctx)
	for i, part := range parts {
		g.Go(func() error {
			out, err := fn(gctx, part)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
