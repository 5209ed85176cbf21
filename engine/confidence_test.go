package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"trendflow/models"
)

func TestConfidenceBothEmpty(t *testing.T) {
	got := Confidence(models.QuoteSet{Source: models.SourceSupply}, models.QuoteSet{Source: models.SourceRetail})
	assert.Zero(t, got)
}

func TestConfidenceFullSample(t *testing.T) {
	// five identical perfectly relevant quotes per source: every component maxes out
	supply := quoteSet(models.SourceSupply, 5, 5, 5, 5, 5)
	retail := quoteSet(models.SourceRetail, 40, 40, 40, 40, 40)

	got := Confidence(supply, retail)
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestConfidenceAlwaysInUnitInterval(t *testing.T) {
	cases := []struct {
		supply models.QuoteSet
		retail models.QuoteSet
	}{
		{quoteSet(models.SourceSupply, 5), models.QuoteSet{Source: models.SourceRetail}},
		{quoteSet(models.SourceSupply, 1, 1000), quoteSet(models.SourceRetail, 2, 2000)},
		{quoteSet(models.SourceSupply, 0.01, 99, 3, 500), quoteSet(models.SourceRetail, 5)},
	}

	for _, c := range cases {
		got := Confidence(c.supply, c.retail)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}
}

func TestConfidenceScatteredPricesScoreLower(t *testing.T) {
	tight := Confidence(quoteSet(models.SourceSupply, 10, 10, 10), quoteSet(models.SourceRetail, 50, 50, 50))
	scattered := Confidence(quoteSet(models.SourceSupply, 10, 90, 400), quoteSet(models.SourceRetail, 50, 500, 900))
	assert.Greater(t, tight, scattered)
}

func TestConfidenceCountComponent(t *testing.T) {
	// 3 + 2 listings with zero relevance and a single price each side:
	// only the count component contributes meaningfully.
	supply := models.QuoteSet{Source: models.SourceSupply, Quotes: []models.Quote{
		{Price: 5}, {Price: 5}, {Price: 5},
	}}
	retail := models.QuoteSet{Source: models.SourceRetail, Quotes: []models.Quote{
		{Price: 40}, {Price: 40},
	}}

	// count: 5/10*0.4 = 0.2, relevance: 0, consistency: identical prices => 1*0.2
	assert.InDelta(t, 0.2+0.2, Confidence(supply, retail), 1e-9)
}
