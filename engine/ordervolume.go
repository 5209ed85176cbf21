package engine

import (
	"math"

	"trendflow/models"
	"trendflow/normalize"
)

// Order-volume grading thresholds. A level is reached when any one of its
// three conditions holds.
const (
	highAverageOrders = 2000
	highTopOrders     = 5000
	highTotalOrders   = 15000

	mediumAverageOrders = 500
	mediumTopOrders     = 1500
	mediumTotalOrders   = 5000
)

// GradeOrderVolume reduces raw marketplace order counters to a coarse
// low/medium/high demand level. Listings whose counter cannot be parsed count
// as zero orders, matching how marketplaces render missing counters. A batch
// with no listings at all yields nil ("no data").
func GradeOrderVolume(listings []models.RawOrderListing) *models.OrderVolume {
	if len(listings) == 0 {
		return nil
	}

	var total, top int64
	for _, l := range listings {
		orders, ok := normalize.OrderCount(l.OrdersText)
		if !ok {
			orders = 0
		}
		total += orders
		if orders > top {
			top = orders
		}
	}

	average := int64(math.Round(float64(total) / float64(len(listings))))

	level := models.VolumeLow
	switch {
	case average >= highAverageOrders || top >= highTopOrders || total >= highTotalOrders:
		level = models.VolumeHigh
	case average >= mediumAverageOrders || top >= mediumTopOrders || total >= mediumTotalOrders:
		level = models.VolumeMedium
	}

	return &models.OrderVolume{
		VolumeLevel: level,
		Metrics: models.OrderVolumeMetrics{
			AverageOrders:    average,
			TopListingOrders: top,
			TotalOrders:      total,
		},
	}
}
