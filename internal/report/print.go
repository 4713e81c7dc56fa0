package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/maltedev/sourcing-triads/internal/models"
	"github.com/maltedev/sourcing-triads/internal/ranking"
)

const (
	rule        = "============================================================"
	maxTitleLen = 80
)

// Print writes the summary, the triad and up to sample listings to w.
func Print(w io.Writer, s Summary, triad *ranking.Triad, sample []models.Listing) {
	if s.Count == 0 {
		fmt.Fprintln(w, "No products found")
		return
	}

	fmt.Fprintf(w, "\n%s\nALIBABA SOURCING RESULTS\n%s\n", rule, rule)
	fmt.Fprintf(w, "Total products found: %d\n", s.Count)

	fmt.Fprintln(w, "\nField extraction rates:")
	for _, f := range s.Fields {
		fmt.Fprintf(w, "  %-20s: %3d/%d (%5.1f%%)\n", f.Field, f.Count, s.Count, percent(f.Count, s.Count))
	}

	if p := s.Price; p != nil {
		fmt.Fprintln(w, "\nPrice statistics:")
		fmt.Fprintf(w, "  Range: $%.2f - $%.2f\n", p.Min, p.Max)
		fmt.Fprintf(w, "  Average: $%.2f\n", p.Avg)
		fmt.Fprintf(w, "  Median: $%.2f\n", p.Median)
		fmt.Fprintf(w, "  25th percentile: $%.2f\n", p.P25)
		fmt.Fprintf(w, "  75th percentile: $%.2f\n", p.P75)
		fmt.Fprintf(w, "  Low (<= $%.2f): %d (%.1f%%)\n", p.P25, p.Low, percent(p.Low, p.Count))
		fmt.Fprintf(w, "  Mid ($%.2f - $%.2f): %d (%.1f%%)\n", p.P25, p.P75, p.Mid, percent(p.Mid, p.Count))
		fmt.Fprintf(w, "  High (> $%.2f): %d (%.1f%%)\n", p.P75, p.High, percent(p.High, p.Count))
	}
	if m := s.MOQ; m != nil {
		fmt.Fprintf(w, "\nMinimum order: %.0f - %.0f (avg %.0f)\n", m.Min, m.Max, m.Avg)
	}
	if r := s.Reviews; r != nil {
		fmt.Fprintf(w, "Reviews: %.0f - %.0f (avg %.1f)\n", r.Min, r.Max, r.Avg)
	}
	if q := s.Sold; q != nil {
		fmt.Fprintf(w, "Sold: %.0f - %.0f (avg %.0f)\n", q.Min, q.Max, q.Avg)
	}
	fmt.Fprintf(w, "Verified suppliers: %d/%d (%.1f%%)\n", s.Verified, s.Count, s.VerifiedRate()*100)

	printHighlights(w, s.Highlights)

	if triad != nil {
		fmt.Fprintf(w, "\nTriad (%d candidates, min reviews %d):\n", triad.Candidates, triad.MinReviews)
		for _, sel := range triad.Selections() {
			fmt.Fprintf(w, "\n[%s] score %.3f\n", sel.Kind, sel.Score)
			printListing(w, &sel.Listing)
			if sel.Landed != nil {
				fmt.Fprintf(w, "  Landed: $%.2f", sel.Landed.USD)
				if local, ok := sel.Landed.Local.Get(); ok {
					fmt.Fprintf(w, " (local %.2f)", local)
				}
				fmt.Fprintln(w)
			}
		}
	}

	if len(sample) > 0 {
		fmt.Fprintln(w, "\nSample:")
		for i := range sample {
			fmt.Fprintf(w, "\n%d.\n", i+1)
			printListing(w, &sample[i])
		}
	}
	fmt.Fprintln(w, rule)
}

func printHighlights(w io.Writer, h Highlights) {
	if h.MostReviewed == nil {
		fmt.Fprintln(w, "\nNo verified suppliers with reviews found")
		return
	}
	fmt.Fprintln(w, "\nBest products (verified suppliers):")
	for _, item := range []struct {
		label   string
		listing *models.Listing
	}{
		{"Most reviewed", h.MostReviewed},
		{"Highest rated (5+ reviews)", h.BestRated},
		{"Best seller", h.BestSeller},
		{"Best value", h.BestValue},
	} {
		if item.listing == nil {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", item.label)
		printListing(w, item.listing)
	}
}

func printListing(w io.Writer, l *models.Listing) {
	fmt.Fprintf(w, "  %s\n", truncate(l.Title, maxTitleLen))
	if p, ok := l.Price.Get(); ok {
		fmt.Fprintf(w, "  Price: $%.2f\n", p)
	}
	if l.Supplier.Name != "" {
		fmt.Fprintf(w, "  Seller: %s\n", l.Supplier.Name)
	}
	if c := l.ProductReview.Count.OrElse(0); c > 0 {
		fmt.Fprintf(w, "  Reviews: %d (%.1f/5.0)\n", c, l.ProductReview.Avg.OrElse(0))
	}
	if q := l.SoldQuantity.OrElse(0); q > 0 {
		fmt.Fprintf(w, "  Sold: %d\n", q)
	}
	if m := l.MOQ.OrElse(0); m > 0 {
		unit := l.MOQUnit
		if unit == "" {
			unit = "piece"
		}
		fmt.Fprintf(w, "  MOQ: %.0f %s\n", m, unit)
	}
	if l.URL != "" {
		fmt.Fprintf(w, "  Link: %s\n", l.URL)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-3])) + "..."
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
