package ranking

import "github.com/maltedev/sourcing-triads/internal/opt"

const DefaultMultiplier = 3.0

// LandedPrice estimates the delivered unit cost. Local is set only when an
// exchange rate is configured.
type LandedPrice struct {
	USD   float64            `json:"usd"`
	Local opt.Value[float64] `json:"local"`
}

func Landed(price, multiplier, fxRate float64) LandedPrice {
	if multiplier <= 0 {
		multiplier = DefaultMultiplier
	}
	lp := LandedPrice{USD: price * multiplier}
	if fxRate > 0 {
		lp.Local = opt.Some(lp.USD * fxRate)
	}
	return lp
}
