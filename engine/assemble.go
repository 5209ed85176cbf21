package engine

import (
	"trendflow/models"
)

// BuildResaleMetrics composes the two price estimates, the confidence score
// and the jittered margin into the immutable resale section. Both sets empty
// is not an error: averages and confidence simply come out zero.
func BuildResaleMetrics(supply, retail models.QuoteSet, jitter JitterSource) *models.ResaleMetrics {
	supplyEstimate := EstimatePrice(supply)
	retailEstimate := EstimatePrice(retail)

	cost := supplyEstimate.RepresentativePrice
	resale := retailEstimate.RepresentativePrice

	return &models.ResaleMetrics{
		AliExpressAverage: cost,
		AmazonAverage:     resale,
		PotentialProfit:   resale - cost,
		ProfitMargin:      ProfitMargin(cost, resale, jitter),
		Confidence:        Confidence(supply, retail),
		MatchDetails: models.MatchDetails{
			AliExpressMatches:  len(supply.Quotes),
			AmazonMatches:      len(retail.Quotes),
			AliExpressTopScore: supply.TopRelevance(),
			AmazonTopScore:     retail.TopRelevance(),
		},
	}
}

// AssembleReport is pure composition: it attaches whichever metric sections
// were produced to the terminal report. Sections that failed or had no data
// stay nil; the report itself is always returned.
func AssembleReport(report models.AnalysisReport, resale *models.ResaleMetrics, engagement *models.EngagementReport, orders *models.OrderVolume) models.AnalysisReport {
	report.Metrics = models.Metrics{
		ResaleValue: resale,
		Engagement:  engagement,
		OrderVolume: orders,
	}
	return report
}
