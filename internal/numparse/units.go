package numparse

import (
	"regexp"
	"strings"

	"github.com/maltedev/sourcing-triads/internal/opt"
)

var decimalPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// ParseRating reads a score like "4,8" or "4.8/5", where a comma is always
// a decimal point.
func ParseRating(text string) opt.Value[float64] {
	m := decimalPattern.FindString(strings.ReplaceAll(text, ",", "."))
	if m == "" {
		return opt.None[float64]()
	}
	return toFinite(m)
}

var unitAliases = []struct {
	needle string
	unit   string
}{
	{"piece", "piece"},
	{"pc", "piece"},
	{"set", "set"},
	{"box", "box"},
	{"carton", "carton"},
	{"pair", "pair"},
	{"pack", "pack"},
}

// NormalizeUnit maps MOQ unit words to a canonical singular unit. Unknown
// units pass through lowercased; an empty unit means "piece".
func NormalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	if u == "" {
		return "piece"
	}
	for _, a := range unitAliases {
		if strings.HasPrefix(u, a.needle) {
			return a.unit
		}
	}
	return u
}

// CurrencyMarker returns the currency code named by a symbol or code in
// text, or "" when there is none.
func CurrencyMarker(text string) string {
	upper := strings.ToUpper(text)
	switch {
	case strings.Contains(text, "€"), strings.Contains(upper, "EUR"):
		return "EUR"
	case strings.Contains(text, "$"), strings.Contains(upper, "USD"):
		return "USD"
	default:
		return ""
	}
}

// DetectCurrency is CurrencyMarker with USD as the default.
func DetectCurrency(text string) string {
	if c := CurrencyMarker(text); c != "" {
		return c
	}
	return "USD"
}
