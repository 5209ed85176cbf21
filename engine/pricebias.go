// Package engine holds the scoring core: price bias estimation, confidence
// scoring, time-window bucketing, order-volume grading and the final metric
// assembly. Every function is deterministic given its inputs (margin jitter
// takes an injected random source) and free of I/O so the pipeline stays the
// only place that talks to providers.
package engine

import (
	"math"
	"sort"

	"trendflow/models"
)

// Bias selects which end of a sorted price list the representative price is
// pulled toward.
type Bias int

const (
	// BiasLow skews toward the cheapest quotes; used for the wholesale
	// supply source where the low end approximates sourcing cost.
	BiasLow Bias = iota
	// BiasHigh skews toward the priciest quotes; used for the retail
	// source where the high end approximates achievable resale value.
	BiasHigh
)

// BiasFor maps a marketplace source to its directional bias.
func BiasFor(source models.Source) Bias {
	if source == models.SourceRetail {
		return BiasHigh
	}
	return BiasLow
}

// EstimatePrice reduces a quote set to one representative price. Prices are
// sorted ascending and weighted exponentially toward the biased end, then the
// weighted mean is blended 50/50 with the extreme value (minimum for BiasLow,
// maximum for BiasHigh). A plain mean is too easily skewed by a single
// premium or clearance listing; the blend keeps the estimate stable while
// preserving the directional skew.
//
// An empty set yields a zero estimate, which downstream treats as "no usable
// data" rather than an error.
func EstimatePrice(set models.QuoteSet) models.PriceEstimate {
	prices := set.Prices()
	if len(prices) == 0 {
		return models.PriceEstimate{Source: set.Source}
	}

	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)

	bias := BiasFor(set.Source)
	n := float64(len(sorted))

	var weightedSum, totalWeight float64
	for i, price := range sorted {
		var weight float64
		switch bias {
		case BiasHigh:
			weight = math.Exp(0.5 * (float64(i) / n))
		default:
			weight = math.Exp(-0.5 * float64(i))
		}
		weightedSum += price * weight
		totalWeight += weight
	}
	weightedMean := weightedSum / totalWeight

	extreme := sorted[0]
	if bias == BiasHigh {
		extreme = sorted[len(sorted)-1]
	}

	return models.PriceEstimate{
		Source:              set.Source,
		RepresentativePrice: (weightedMean + extreme) / 2,
		SampleSize:          len(sorted),
	}
}
