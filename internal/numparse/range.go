package numparse

import (
	"regexp"
	"slices"
	"strings"

	"github.com/maltedev/sourcing-triads/internal/opt"
)

var tokenPattern = regexp.MustCompile(`\d[\d.,]*`)

// ExtractRange pulls every numeric token out of text such as "$6.80-9.90"
// and returns the distinct values in ascending order. Separators trailing a
// token are sentence punctuation and are dropped.
func ExtractRange(text string) []float64 {
	var values []float64
	for _, tok := range tokenPattern.FindAllString(text, -1) {
		v, ok := ParseToken(strings.TrimRight(tok, ".,")).Get()
		if !ok || slices.Contains(values, v) {
			continue
		}
		values = append(values, v)
	}
	slices.Sort(values)
	return values
}

func MaxOf(values []float64) opt.Value[float64] {
	if len(values) == 0 {
		return opt.None[float64]()
	}
	return opt.Some(slices.Max(values))
}

func MinOf(values []float64) opt.Value[float64] {
	if len(values) == 0 {
		return opt.None[float64]()
	}
	return opt.Some(slices.Min(values))
}
