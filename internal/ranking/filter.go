package ranking

import "github.com/maltedev/sourcing-triads/internal/models"

type FilterOptions struct {
	MinReviews      int
	RequireVerified bool
}

// Filter keeps listings with at least MinReviews product reviews and, when
// required, a verified supplier.
func Filter(listings []models.Listing, opts FilterOptions) []models.Listing {
	out := make([]models.Listing, 0, len(listings))
	for i := range listings {
		l := &listings[i]
		if opts.MinReviews > 0 && l.ProductReview.Count.OrElse(0) < opts.MinReviews {
			continue
		}
		if opts.RequireVerified && !l.IsVerified() {
			continue
		}
		out = append(out, *l)
	}
	return out
}
