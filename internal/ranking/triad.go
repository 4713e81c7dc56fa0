// Package ranking picks the cheapest, best quality and best value listings
// from a result set.
package ranking

import (
	"github.com/maltedev/sourcing-triads/internal/models"
)

type Kind string

const (
	KindCheapest    Kind = "cheapest"
	KindBestQuality Kind = "best_quality"
	KindBestValue   Kind = "best_value"
)

// productScore stays zero until there is a product-level quality signal
// that is not supplier data.
const productScore = 0.0

type Selection struct {
	Kind    Kind           `json:"kind"`
	Index   int            `json:"index"`
	Score   float64        `json:"score"`
	Landed  *LandedPrice   `json:"landed,omitempty"`
	Listing models.Listing `json:"listing"`
}

// Triad holds three mutually exclusive picks. A pick is nil when no unused
// candidate is left for it.
type Triad struct {
	Cheapest    *Selection `json:"cheapest"`
	BestQuality *Selection `json:"best_quality"`
	BestValue   *Selection `json:"best_value"`
	// MinReviews is a display threshold only; picks are not filtered by it.
	MinReviews int `json:"min_reviews"`
	Candidates int `json:"candidates"`
}

// Selections returns the non-nil picks in pick order.
func (t *Triad) Selections() []*Selection {
	var out []*Selection
	for _, s := range []*Selection{t.Cheapest, t.BestQuality, t.BestValue} {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// ApplyLanded attaches landed prices to every pick.
func (t *Triad) ApplyLanded(multiplier, fxRate float64) {
	for _, s := range t.Selections() {
		if price, ok := s.Listing.Price.Get(); ok {
			lp := Landed(price, multiplier, fxRate)
			s.Landed = &lp
		}
	}
}

// RankTriad draws cheapest, then best quality, then best value without
// replacement. Listings without a positive price are not candidates. Ties
// go to the listing that comes first. Index refers to the input slice.
func RankTriad(listings []models.Listing, minReviews int) Triad {
	triad := Triad{MinReviews: minReviews}

	var candidates []models.Listing
	var positions []int
	for i := range listings {
		if listings[i].HasPrice() {
			candidates = append(candidates, listings[i])
			positions = append(positions, i)
		}
	}
	triad.Candidates = len(candidates)
	if len(candidates) == 0 {
		return triad
	}

	prices := make([]float64, len(candidates))
	for i := range candidates {
		prices[i], _ = candidates[i].Price.Get()
	}
	supplier := SupplierScores(candidates)
	priceScores := PriceScores(prices)

	quality := make([]float64, len(candidates))
	value := make([]float64, len(candidates))
	for i := range candidates {
		cert := CertScore(&candidates[i])
		quality[i] = 0.6*supplier[i] + 0.3*productScore + 0.1*cert
		value[i] = 0.5*priceScores[i] + 0.3*supplier[i] + 0.15*productScore + 0.05*cert
	}

	used := make([]bool, len(candidates))
	pick := func(kind Kind, scores []float64, better func(a, b float64) bool) *Selection {
		best := -1
		for i := range candidates {
			if used[i] {
				continue
			}
			if best < 0 || better(scores[i], scores[best]) {
				best = i
			}
		}
		if best < 0 {
			return nil
		}
		used[best] = true
		return &Selection{
			Kind:    kind,
			Index:   positions[best],
			Score:   scores[best],
			Listing: candidates[best],
		}
	}

	lower := func(a, b float64) bool { return a < b }
	higher := func(a, b float64) bool { return a > b }

	triad.Cheapest = pick(KindCheapest, prices, lower)
	triad.BestQuality = pick(KindBestQuality, quality, higher)
	triad.BestValue = pick(KindBestValue, value, higher)
	return triad
}
