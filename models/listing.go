package models

// Source identifies which marketplace a quote set was collected from. The
// supply source is biased toward wholesale cost, the retail source toward
// resale value.
type Source string

const (
	SourceSupply Source = "aliexpress"
	SourceRetail Source = "amazon"
)

// RawListing represents a single shopping result exactly as decoded from the
// provider payload. Listings are ephemeral: they live only for the duration of
// one analysis request and are discarded after normalization.
type RawListing struct {
	Title     string `json:"title"`
	PriceText string `json:"price_text"`
	Source    Source `json:"source"`
}

// Quote is a normalized listing: a parseable non-negative price plus the
// provider's own relevance score for the listing. Rank 0 is the provider's
// best match.
type Quote struct {
	Price     float64 `json:"price"`
	Relevance float64 `json:"relevance"`
	Rank      int     `json:"rank"`
}

// QuoteSet holds up to MaxQuotesPerSource normalized quotes for one source,
// in the provider's relevance order.
type QuoteSet struct {
	Source Source  `json:"source"`
	Quotes []Quote `json:"quotes"`
}

// MaxQuotesPerSource caps how many listings per source feed the estimator.
const MaxQuotesPerSource = 5

// Prices returns the quote prices in provider relevance order.
func (s QuoteSet) Prices() []float64 {
	prices := make([]float64, 0, len(s.Quotes))
	for _, q := range s.Quotes {
		prices = append(prices, q.Price)
	}
	return prices
}

// TopRelevance returns the relevance of the provider's best match, or 0 when
// the set is empty.
func (s QuoteSet) TopRelevance() float64 {
	if len(s.Quotes) == 0 {
		return 0
	}
	return s.Quotes[0].Relevance
}

// PriceEstimate is the representative price derived from one QuoteSet. It is
// recomputed whenever the set changes and never mutated in place.
type PriceEstimate struct {
	Source              Source  `json:"source"`
	RepresentativePrice float64 `json:"representative_price"`
	SampleSize          int     `json:"sample_size"`
}

// RawOrderListing is one marketplace search result carrying an order counter,
// as decoded from the order-volume provider.
type RawOrderListing struct {
	Title      string `json:"title"`
	OrdersText string `json:"orders_text"`
}
