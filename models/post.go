package models

import (
	"time"
)

// RawPost is one social post as decoded from the provider payload. CreatedAt
// is seconds since epoch; a zero or negative value means the timestamp was
// missing or malformed and the post is skipped during bucketing.
type RawPost struct {
	CreatedAtEpoch int64  `json:"created_at_epoch"`
	Likes          int64  `json:"likes"`
	Comments       int64  `json:"comments"`
	Shares         int64  `json:"shares"`
	Author         string `json:"author,omitempty"`
	PostID         string `json:"post_id,omitempty"`
}

// TotalEngagement sums the three engagement counters.
func (p RawPost) TotalEngagement() int64 {
	return p.Likes + p.Comments + p.Shares
}

// Granularity selects the calendar step of a time window.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// Granularities lists every supported window in the order summaries are
// reported.
var Granularities = []Granularity{GranularityDay, GranularityWeek, GranularityMonth}

// TimeBucket accumulates engagement for one calendar period. Key is
// YYYY-MM-DD for day and week buckets (week keys are the Sunday the period
// starts on) and YYYY-MM for month buckets.
type TimeBucket struct {
	Key       string
	Likes     int64
	Comments  int64
	Shares    int64
	PostCount int
}

// BucketStat is the chart-ready view of one bucket: per-bucket averages
// rounded to whole counts, with empty buckets reporting zeros.
type BucketStat struct {
	Date            string `json:"date"`
	Likes           int64  `json:"likes"`
	Comments        int64  `json:"comments"`
	Shares          int64  `json:"shares"`
	TotalEngagement int64  `json:"totalEngagement"`
	PostCount       int    `json:"postCount"`
}

// EngagementSummary aggregates one window. Buckets are dense: every calendar
// period between the window start and end is present, ascending by key, even
// when no post landed in it. The summary averages cover the whole post sample
// used for the window, not individual buckets.
type EngagementSummary struct {
	Posts           []BucketStat `json:"posts"`
	AverageLikes    int64        `json:"averageLikes"`
	AverageComments int64        `json:"averageComments"`
	AverageShares   int64        `json:"averageShares"`
	TotalPosts      int          `json:"totalPosts"`
}

// EngagementReport carries one summary per requested granularity.
type EngagementReport struct {
	Daily   *EngagementSummary `json:"day,omitempty"`
	Weekly  *EngagementSummary `json:"week,omitempty"`
	Monthly *EngagementSummary `json:"monthly,omitempty"`
}

// PostDigest is one entry of the top-posts log emitted after pagination
// completes.
type PostDigest struct {
	Date            string `json:"date"`
	Likes           int64  `json:"likes"`
	Comments        int64  `json:"comments"`
	Shares          int64  `json:"shares"`
	TotalEngagement int64  `json:"totalEngagement"`
	URL             string `json:"url"`
}

// Window bounds a bucketed time span.
type Window struct {
	Start time.Time
	End   time.Time
}
