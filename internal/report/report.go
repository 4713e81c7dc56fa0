// Package report summarizes a result set for the console.
package report

import (
	"math"
	"slices"

	"github.com/maltedev/sourcing-triads/internal/models"
)

// reliableReviews is the review count a listing needs before its rating is
// trusted for the best rated and best value highlights.
const reliableReviews = 5

type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

type PriceStats struct {
	Range
	Median float64 `json:"median"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
	Low    int     `json:"low"`
	Mid    int     `json:"mid"`
	High   int     `json:"high"`
	Count  int     `json:"count"`
}

type FieldRate struct {
	Field string `json:"field"`
	Count int    `json:"count"`
}

type Highlights struct {
	MostReviewed *models.Listing `json:"most_reviewed,omitempty"`
	BestRated    *models.Listing `json:"best_rated,omitempty"`
	BestSeller   *models.Listing `json:"best_seller,omitempty"`
	BestValue    *models.Listing `json:"best_value,omitempty"`
}

type Summary struct {
	Count    int         `json:"count"`
	Fields   []FieldRate `json:"fields"`
	Price    *PriceStats `json:"price,omitempty"`
	MOQ      *Range      `json:"moq,omitempty"`
	Reviews  *Range      `json:"reviews,omitempty"`
	Sold     *Range      `json:"sold,omitempty"`
	Verified int         `json:"verified"`

	Highlights Highlights `json:"highlights"`
}

// VerifiedRate is the share of listings with a verified supplier.
func (s *Summary) VerifiedRate() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Verified) / float64(s.Count)
}

var fieldChecks = []struct {
	name string
	set  func(l *models.Listing) bool
}{
	{"title", func(l *models.Listing) bool { return l.Title != "" }},
	{"price", func(l *models.Listing) bool { return l.HasPrice() }},
	{"seller_name", func(l *models.Listing) bool { return l.Supplier.Name != "" }},
	{"seller_link", func(l *models.Listing) bool { return l.Supplier.ProfileURL != "" }},
	{"product_link", func(l *models.Listing) bool { return l.URL != "" }},
	{"image_link", func(l *models.Listing) bool { return l.ImageURL != "" }},
	{"minimum_order", func(l *models.Listing) bool { return l.MOQ.OrElse(0) != 0 }},
	{"is_supplier_verified", func(l *models.Listing) bool { return l.IsVerified() }},
	{"amount_of_reviews", func(l *models.Listing) bool { return l.ProductReview.Count.OrElse(0) != 0 }},
	{"review_average", func(l *models.Listing) bool { return l.ProductReview.Avg.OrElse(0) != 0 }},
	{"amount_sold", func(l *models.Listing) bool { return l.SoldQuantity.OrElse(0) != 0 }},
}

// Summarize computes counts, price quartiles and per-field coverage.
func Summarize(listings []models.Listing) Summary {
	s := Summary{Count: len(listings)}
	if len(listings) == 0 {
		return s
	}

	for _, fc := range fieldChecks {
		rate := FieldRate{Field: fc.name}
		for i := range listings {
			if fc.set(&listings[i]) {
				rate.Count++
			}
		}
		s.Fields = append(s.Fields, rate)
	}

	var prices, moqs, reviews, sold []float64
	for i := range listings {
		l := &listings[i]
		if p, ok := l.Price.Get(); ok {
			prices = append(prices, p)
		}
		if m, ok := l.MOQ.Get(); ok {
			moqs = append(moqs, m)
		}
		if c := l.ProductReview.Count.OrElse(0); c > 0 {
			reviews = append(reviews, float64(c))
		}
		if q, ok := l.SoldQuantity.Get(); ok {
			sold = append(sold, float64(q))
		}
		if l.IsVerified() {
			s.Verified++
		}
	}

	s.Price = priceStats(prices)
	s.MOQ = rangeOf(moqs)
	s.Reviews = rangeOf(reviews)
	s.Sold = rangeOf(sold)
	s.Highlights = highlights(listings)
	return s
}

func rangeOf(values []float64) *Range {
	if len(values) == 0 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return &Range{
		Min: slices.Min(values),
		Max: slices.Max(values),
		Avg: sum / float64(len(values)),
	}
}

func priceStats(prices []float64) *PriceStats {
	r := rangeOf(prices)
	if r == nil {
		return nil
	}
	sorted := slices.Clone(prices)
	slices.Sort(sorted)
	n := len(sorted)

	ps := &PriceStats{
		Range: *r,
		Count: n,
		P25:   sorted[int(float64(n)*0.25)],
		P75:   sorted[int(float64(n)*0.75)],
	}
	if n%2 == 1 {
		ps.Median = sorted[n/2]
	} else {
		ps.Median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	for _, p := range prices {
		switch {
		case p <= ps.P25:
			ps.Low++
		case p <= ps.P75:
			ps.Mid++
		default:
			ps.High++
		}
	}
	return ps
}

// highlights only considers verified suppliers whose listings carry both a
// review count and a rating.
func highlights(listings []models.Listing) Highlights {
	var h Highlights
	var bestValue float64

	for i := range listings {
		l := &listings[i]
		count := l.ProductReview.Count.OrElse(0)
		avg := l.ProductReview.Avg.OrElse(0)
		if !l.IsVerified() || count <= 0 || avg <= 0 {
			continue
		}

		if h.MostReviewed == nil || count > h.MostReviewed.ProductReview.Count.OrElse(0) {
			h.MostReviewed = l
		}
		if sold := l.SoldQuantity.OrElse(0); sold > 0 {
			if h.BestSeller == nil || sold > h.BestSeller.SoldQuantity.OrElse(0) {
				h.BestSeller = l
			}
		}
		if count < reliableReviews {
			continue
		}
		if h.BestRated == nil || avg > h.BestRated.ProductReview.Avg.OrElse(0) {
			h.BestRated = l
		}
		if price, ok := l.Price.Get(); ok && price > 0 {
			score := ValueScore(avg, price)
			if h.BestValue == nil || score > bestValue {
				h.BestValue, bestValue = l, score
			}
		}
	}
	return h
}

// ValueScore blends a 0..5 rating with a log-damped price preference.
func ValueScore(rating, price float64) float64 {
	return 0.7*(rating/5) + 0.3*(1/math.Log(price+1))
}
