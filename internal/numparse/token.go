// Package numparse turns loosely formatted numeric text from listing pages
// into canonical numbers. Every parser returns an absent value instead of
// guessing zero.
package numparse

import (
	"math"
	"strconv"
	"strings"

	"github.com/maltedev/sourcing-triads/internal/opt"
)

// ParseToken parses one numeric token of unknown locale, e.g. "1.299,50",
// "1,299.50" or "1.200". The token may only contain digits, ',', '.' and a
// leading '-'.
func ParseToken(token string) opt.Value[float64] {
	t := strings.TrimSpace(token)
	if !isTokenShape(t) {
		return opt.None[float64]()
	}

	hasComma := strings.Contains(t, ",")
	hasPeriod := strings.Contains(t, ".")

	switch {
	case hasComma && hasPeriod:
		if strings.LastIndex(t, ",") > strings.LastIndex(t, ".") {
			t = strings.ReplaceAll(t, ".", "")
			t = strings.ReplaceAll(t, ",", ".")
		} else {
			t = strings.ReplaceAll(t, ",", "")
		}
	case hasComma:
		if len(t)-strings.LastIndex(t, ",")-1 == 3 {
			t = strings.ReplaceAll(t, ",", "")
		} else {
			t = strings.ReplaceAll(t, ",", ".")
		}
	case hasPeriod:
		var ok bool
		if t, ok = resolvePeriods(t); !ok {
			return opt.None[float64]()
		}
	}

	return toFinite(t)
}

// resolvePeriods handles tokens whose only separator is '.'. A token with
// several periods and an empty final group, such as "6.80.", is rejected.
func resolvePeriods(t string) (string, bool) {
	last := strings.LastIndex(t, ".")
	tail := len(t) - last - 1

	if strings.Count(t, ".") >= 2 {
		switch tail {
		case 0:
			return "", false
		case 3:
			return strings.ReplaceAll(t, ".", ""), true
		}
		return strings.ReplaceAll(t[:last], ".", "") + t[last:], true
	}

	if tail == 3 {
		return strings.ReplaceAll(t, ".", ""), true
	}
	return t, true
}

func isTokenShape(t string) bool {
	digits := 0
	for i, r := range t {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == ',' || r == '.':
		case r == '-' && i == 0:
		default:
			return false
		}
	}
	return digits > 0
}

func toFinite(s string) opt.Value[float64] {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return opt.None[float64]()
	}
	return opt.Some(f)
}
