package engine

import (
	"math"

	"trendflow/models"
)

// Fixed confidence weights; they sum to 1.0 so the score stays in [0,1].
const (
	matchCountWeight  = 0.4
	relevanceWeight   = 0.4
	consistencyWeight = 0.2

	// A combined sample of ten listings (five per source) counts as a
	// full-size sample.
	fullSampleSize = 10
)

// Confidence combines sample size, top-match relevance and cross-listing
// price consistency into a single heuristic in [0,1]. Empty or degenerate
// sets lower the score; they never raise an error.
func Confidence(supply, retail models.QuoteSet) float64 {
	countScore := math.Min(float64(len(supply.Quotes)+len(retail.Quotes))/fullSampleSize, 1)

	relevanceScore := (supply.TopRelevance() + retail.TopRelevance()) / 2

	consistencyScore := (consistency(supply) + consistency(retail)) / 2

	return countScore*matchCountWeight +
		relevanceScore*relevanceWeight +
		consistencyScore*consistencyWeight
}

// consistency rewards tightly clustered prices: 1 - stddev relative to the
// provider's top-ranked price, floored at 0. A set without a usable price
// contributes nothing.
func consistency(set models.QuoteSet) float64 {
	prices := set.Prices()
	if len(prices) == 0 || prices[0] <= 0 {
		return 0
	}
	return math.Max(0, 1-stddev(prices)/prices[0])
}

func stddev(values []float64) float64 {
	n := float64(len(values))
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= n

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / n)
}
