package models

import (
	"time"
)

// MatchDetails exposes the sample the resale estimate was computed from.
type MatchDetails struct {
	AliExpressMatches  int     `json:"aliExpressMatches"`
	AmazonMatches      int     `json:"amazonMatches"`
	AliExpressTopScore float64 `json:"aliExpressTopScore"`
	AmazonTopScore     float64 `json:"amazonTopScore"`
}

// ResaleMetrics is the terminal resale aggregate. It is immutable once
// computed; a new analysis always produces a new value.
type ResaleMetrics struct {
	AliExpressAverage float64      `json:"aliExpressAverage"`
	AmazonAverage     float64      `json:"amazonAverage"`
	PotentialProfit   float64      `json:"potentialProfit"`
	ProfitMargin      float64      `json:"profitMargin"`
	Confidence        float64      `json:"confidence"`
	MatchDetails      MatchDetails `json:"matchDetails"`
}

// VolumeLevel grades marketplace order volume against fixed thresholds.
type VolumeLevel string

const (
	VolumeLow    VolumeLevel = "low"
	VolumeMedium VolumeLevel = "medium"
	VolumeHigh   VolumeLevel = "high"
)

// OrderVolumeMetrics holds the raw order-count aggregates behind a volume
// level.
type OrderVolumeMetrics struct {
	AverageOrders    int64 `json:"averageOrders"`
	TopListingOrders int64 `json:"topListingOrders"`
	TotalOrders      int64 `json:"totalOrders"`
}

// OrderVolume is the order-volume section of an analysis.
type OrderVolume struct {
	VolumeLevel VolumeLevel        `json:"volumeLevel"`
	Metrics     OrderVolumeMetrics `json:"metrics"`
}

// ProductDescription is the output of the vision collaborator: the textual
// identity of the product that seeds every downstream search.
type ProductDescription struct {
	SearchTerm         string `json:"searchTerm"`
	SocialSearchTerm   string `json:"tiktokSearchTerm"`
	ExactText          string `json:"exactText"`
	Microniche         string `json:"microniche"`
	AdjacentMicroniche string `json:"adjacentMicroniche"`
}

// Metrics groups the three independently optional sections of a report. Any
// subset may be nil while the others are populated.
type Metrics struct {
	ResaleValue *ResaleMetrics    `json:"resaleValue"`
	Engagement  *EngagementReport `json:"engagement"`
	OrderVolume *OrderVolume      `json:"orderVolume"`
}

// AnalysisReport is the terminal response for one product query.
type AnalysisReport struct {
	ReportID    string    `json:"reportId"`
	Description string    `json:"description"`
	SocialQuery string    `json:"tiktokSearchTerm,omitempty"`
	Microniche  string    `json:"microniche,omitempty"`
	Metrics     Metrics   `json:"metrics"`
	GeneratedAt time.Time `json:"generatedAt"`
}
