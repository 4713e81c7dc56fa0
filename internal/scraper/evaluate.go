package scraper

import (
	"github.com/maltedev/sourcing-triads/internal/models"
	"github.com/maltedev/sourcing-triads/internal/ranking"
	"github.com/maltedev/sourcing-triads/internal/report"
)

type EvalOptions struct {
	MinReviews      int
	RequireVerified bool
	NoFilter        bool
	Multiplier      float64
	FXRate          float64
}

// Evaluation is a result set after filtering and ranking. Selected is the
// set the triad was drawn from.
type Evaluation struct {
	All      []models.Listing `json:"-"`
	Selected []models.Listing `json:"listings"`
	// FilterFallback is set when no listing passed the filter and the
	// unfiltered set was ranked instead.
	FilterFallback bool           `json:"filter_fallback"`
	Triad          ranking.Triad  `json:"triad"`
	Summary        report.Summary `json:"summary"`
}

// Evaluate filters listings, ranks the survivors and summarizes them.
func Evaluate(listings []models.Listing, opts EvalOptions) Evaluation {
	ev := Evaluation{All: listings, Selected: listings}

	if !opts.NoFilter {
		filtered := ranking.Filter(listings, ranking.FilterOptions{
			MinReviews:      opts.MinReviews,
			RequireVerified: opts.RequireVerified,
		})
		if len(filtered) > 0 {
			ev.Selected = filtered
		} else {
			ev.FilterFallback = len(listings) > 0
		}
	}

	ev.Triad = ranking.RankTriad(ev.Selected, opts.MinReviews)
	ev.Triad.ApplyLanded(opts.Multiplier, opts.FXRate)
	ev.Summary = report.Summarize(ev.Selected)
	return ev
}
