package numparse

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/maltedev/sourcing-triads/internal/opt"
)

var (
	magnitudePattern = regexp.MustCompile(`(?i)([\d.,]+)\s*([km])\b`)
	nonDigits        = regexp.MustCompile(`\D`)
)

// ParseMagnitude parses approximate counts such as "1.5k", "2M" or
// "1,234 sold". It is looser than ParseToken and is meant for counts only.
func ParseMagnitude(text string) opt.Value[int] {
	if m := magnitudePattern.FindStringSubmatch(text); m != nil {
		base, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err == nil {
			mult := 1_000.0
			if strings.EqualFold(m[2], "m") {
				mult = 1_000_000
			}
			return opt.Some(int(math.Round(base * mult)))
		}
	}
	return ParseDigits(text)
}

// ParseDigits strips everything but digits and parses what remains.
func ParseDigits(text string) opt.Value[int] {
	digits := nonDigits.ReplaceAllString(text, "")
	if digits == "" {
		return opt.None[int]()
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return opt.None[int]()
	}
	return opt.Some(n)
}
