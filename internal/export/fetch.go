package export

import (
	"context"
	"slices"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/wesm/leaddesk/internal/query"
)

// fetcher loads export rows from the engine in batches of pageSize, running
// at most concurrency batches at once.
type fetcher struct {
	engine      query.Engine
	pageSize    int
	concurrency int
	progress    func(loaded int)
}

// byIDs loads the given leads in ascending ID order.
func (f *fetcher) byIDs(ctx context.Context, ids []int64) ([]query.Lead, error) {
	ids = slices.Clone(ids)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	var batches [][]int64
	for start := 0; start < len(ids); start += f.pageSize {
		batches = append(batches, ids[start:min(start+f.pageSize, len(ids))])
	}

	results := make([][]query.Lead, len(batches))
	var loaded atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, batch := range batches {
		g.Go(func() error {
			leads, err := f.engine.GetLeadsByIDs(ctx, batch)
			if err != nil {
				return eris.Wrapf(err, "fetch leads by id (batch %d)", i)
			}
			results[i] = leads
			f.progress(int(loaded.Add(int64(len(batch)))))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices.Concat(results...), nil
}

// filtered loads every lead matching params, total rows at most, one page
// per call.
func (f *fetcher) filtered(ctx context.Context, params query.ListParams, total int) ([]query.Lead, error) {
	pages := (total + f.pageSize - 1) / f.pageSize
	results := make([][]query.Lead, pages)
	var loaded atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i := range pages {
		g.Go(func() error {
			page, err := f.engine.ListLeads(ctx, params.WithPage(i+1, f.pageSize))
			if err != nil {
				return eris.Wrapf(err, "fetch leads page %d", i+1)
			}
			results[i] = page.Data
			f.progress(int(loaded.Add(int64(len(page.Data)))))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	leads := slices.Concat(results...)
	// Rows can shift between pages if data changes mid-export.
	seen := make(map[int64]bool, len(leads))
	out := leads[:0]
	for _, l := range leads {
		if seen[l.ID] {
			continue
		}
		seen[l.ID] = true
		out = append(out, l)
	}
	return out, nil
}
