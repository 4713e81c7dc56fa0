package parser

import (
	"strings"

	"github.com/maltedev/sourcing-triads/internal/models"
	"github.com/maltedev/sourcing-triads/internal/numparse"
	"github.com/maltedev/sourcing-triads/internal/opt"
)

const descriptorAttr = "data-aplus-auto-card-mod"

// ParseDescriptor splits a packed "area=review&areaContent=4.6@@36" string
// into its keys. Later duplicates do not replace earlier ones.
func ParseDescriptor(s string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(s, "&") {
		key, value, found := strings.Cut(part, "=")
		if !found || key == "" {
			continue
		}
		if _, exists := out[key]; !exists {
			out[key] = value
		}
	}
	return out
}

// ParseReviewPair reads an "<avg>@@<count>" pair. A pair whose average is
// outside 0..5 yields no review at all.
func ParseReviewPair(s string) models.ProductReview {
	avgText, countText, _ := strings.Cut(s, "@@")

	var review models.ProductReview
	avg, ok := numparse.ParseRating(avgText).Get()
	if !ok || avg < 0 || avg > 5 {
		return review
	}
	review.Avg = opt.Some(avg)

	if count, ok := numparse.ParseDigits(countText).Get(); ok {
		review.Count = opt.Some(count)
	}
	return review
}
