package reconcile

import (
	"context"

	"github.com/maltedev/sourcing-triads/internal/models"
	"golang.org/x/sync/errgroup"
)

// ReconcileAll reconciles every group on up to workers goroutines and
// returns the valid listings in group order.
func ReconcileAll(ctx context.Context, groups []Group, workers int) ([]models.Listing, error) {
	if workers < 1 {
		workers = 1
	}

	results := make([]models.Listing, len(groups))
	valid := make([]bool, len(groups))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range groups {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i], valid[i] = Reconcile(groups[i].Partials)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	listings := make([]models.Listing, 0, len(groups))
	for i, ok := range valid {
		if ok {
			listings = append(listings, results[i])
		}
	}
	return listings, nil
}
