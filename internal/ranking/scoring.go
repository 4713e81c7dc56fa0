package ranking

import (
	"math"
	"slices"

	"github.com/maltedev/sourcing-triads/internal/models"
)

// Supplier score weights. They are summed as-is and are not renormalized,
// so a score can exceed 1.0 once the years and sold terms apply.
const (
	weightVerified      = 0.2
	weightRating        = 0.5
	weightReviewCount   = 0.3
	weightYears         = 0.2
	weightSold          = 0.1
	yearsCap            = 20.0
	certificationTarget = 3.0
)

// SupplierScores scores every listing's supplier relative to the set.
func SupplierScores(listings []models.Listing) []float64 {
	maxReviews, maxSold := 0, 0
	for i := range listings {
		maxReviews = max(maxReviews, listings[i].Supplier.Review.Count.OrElse(0))
		maxSold = max(maxSold, listings[i].SoldQuantity.OrElse(0))
	}

	scores := make([]float64, len(listings))
	for i := range listings {
		l := &listings[i]
		var s float64

		if l.IsVerified() {
			s += weightVerified
		}
		s += clamp01(l.Supplier.Review.Avg.OrElse(0)/5) * weightRating
		if maxReviews > 0 {
			s += float64(l.Supplier.Review.Count.OrElse(0)) / float64(maxReviews) * weightReviewCount
		}
		s += clamp01(float64(l.Supplier.Years.OrElse(0))/yearsCap) * weightYears
		if maxSold > 0 {
			s += float64(l.SoldQuantity.OrElse(0)) / float64(maxSold) * weightSold
		}

		scores[i] = s
	}
	return scores
}

// CertScore is the share of three certifications a listing carries.
func CertScore(l *models.Listing) float64 {
	return math.Min(float64(len(l.Certifications))/certificationTarget, 1)
}

// PriceScores maps prices to 1 for the cheapest and 0 for the most
// expensive. All prices equal gives 1 everywhere.
func PriceScores(prices []float64) []float64 {
	scores := make([]float64, len(prices))
	if len(prices) == 0 {
		return scores
	}
	lo, hi := slices.Min(prices), slices.Max(prices)
	for i, p := range prices {
		if hi > lo {
			scores[i] = 1 - (p-lo)/(hi-lo)
		} else {
			scores[i] = 1
		}
	}
	return scores
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(v, 1))
}
