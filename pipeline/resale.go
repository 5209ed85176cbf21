package pipeline

import (
	"context"
	"fmt"

	"trendflow/engine"
	"trendflow/logger"
	"trendflow/models"
	"trendflow/normalize"
)

// defaultRelevance is assigned to every listing: the search provider
// already orders results by relevance and exposes no per-item score.
const defaultRelevance = 1.0

func (a *Analyzer) resaleMetrics(ctx context.Context, description string) (*models.ResaleMetrics, error) {
	log := a.log.WithComponent("shop_search").WithFields(logger.Fields{
		"operation": "resale_metrics",
	})

	supplyListings, err := a.shop.Search(ctx, description, models.SourceSupply)
	if err != nil {
		return nil, fmt.Errorf("supply search failed: %w", err)
	}

	retailListings, err := a.shop.Search(ctx, description, models.SourceRetail)
	if err != nil {
		return nil, fmt.Errorf("retail search failed: %w", err)
	}

	supply := buildQuoteSet(models.SourceSupply, supplyListings)
	retail := buildQuoteSet(models.SourceRetail, retailListings)

	log.WithFields(logger.Fields{
		"supply_quotes": len(supply.Quotes),
		"retail_quotes": len(retail.Quotes),
	}).Info("quote sets normalized")

	return engine.BuildResaleMetrics(supply, retail, a.jitter), nil
}

// buildQuoteSet normalizes raw listings into quotes. Listings without a
// parseable price are dropped; ranks stay contiguous over the survivors.
func buildQuoteSet(source models.Source, listings []models.RawListing) models.QuoteSet {
	set := models.QuoteSet{Source: source}
	for _, listing := range listings {
		price, ok := normalize.Price(listing.PriceText)
		if !ok {
			continue
		}
		set.Quotes = append(set.Quotes, models.Quote{
			Price:     price,
			Relevance: defaultRelevance,
			Rank:      len(set.Quotes),
		})
		if len(set.Quotes) >= models.MaxQuotesPerSource {
			break
		}
	}
	return set
}
