package pipeline

import (
	"context"
	"errors"
	"fmt"

	"trendflow/engine"
	"trendflow/logger"
	"trendflow/models"
	"trendflow/provider"
)

// orderVolume fetches listing order counters and grades them. Nil with a
// nil error means the marketplace had no listings for the term.
func (a *Analyzer) orderVolume(ctx context.Context, searchTerm string) (*models.OrderVolume, error) {
	if a.orders == nil {
		return nil, nil
	}

	log := a.log.WithComponent("orders").WithFields(logger.Fields{
		"operation": "order_volume",
	})

	listings, err := a.orders.Fetch(ctx, searchTerm)
	if errors.Is(err, provider.ErrNotFound) {
		log.Info("no order listings for search term")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("order fetch failed: %w", err)
	}

	volume := engine.GradeOrderVolume(listings)
	if volume == nil {
		log.Info("order listings empty, no volume grade")
		return nil, nil
	}

	log.WithFields(logger.Fields{
		"volume_level": string(volume.VolumeLevel),
		"total_orders": volume.Metrics.TotalOrders,
	}).Info("order volume graded")

	return volume, nil
}
