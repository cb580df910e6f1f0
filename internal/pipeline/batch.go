package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ProcessBatch processes sources concurrently, at most Options.Workers at a
// time. A failing file never stops its siblings; its error is in its
// FileResult. Results are in completion order, not submission order.
func (p *Processor) ProcessBatch(ctx context.Context, sources []Source) []FileResult {
	var (
		mu      sync.Mutex
		results = make([]FileResult, 0, len(sources))
		g       errgroup.Group
	)
	g.SetLimit(p.opts.Workers)

	for _, src := range sources {
		g.Go(func() error {
			res := p.ProcessFile(ctx, src)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Failed returns the results that carry an error.
func Failed(results []FileResult) []FileResult {
	var out []FileResult
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
