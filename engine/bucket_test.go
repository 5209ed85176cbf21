package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendflow/models"
)

var bucketNow = time.Date(2025, time.April, 18, 15, 30, 0, 0, time.UTC)

func postAt(t time.Time, likes, comments, shares int64) models.RawPost {
	return models.RawPost{
		CreatedAtEpoch: t.Unix(),
		Likes:          likes,
		Comments:       comments,
		Shares:         shares,
	}
}

func TestBucketKeysDenseSeries(t *testing.T) {
	// seven calendar days spanned -> exactly seven daily keys, posts or not
	window := models.Window{Start: bucketNow.AddDate(0, 0, -6), End: bucketNow}
	keys := BucketKeys(window, models.GranularityDay)
	require.Len(t, keys, 7)
	assert.Equal(t, "2025-04-12", keys[0])
	assert.Equal(t, "2025-04-18", keys[6])
}

func TestBucketKeyWeekAlignsToSunday(t *testing.T) {
	// 2025-04-18 is a Friday; its week bucket starts Sunday 2025-04-13
	assert.Equal(t, "2025-04-13", BucketKey(bucketNow, models.GranularityWeek))

	sunday := time.Date(2025, time.April, 13, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-04-13", BucketKey(sunday, models.GranularityWeek))
}

func TestBucketKeyMonth(t *testing.T) {
	assert.Equal(t, "2025-04", BucketKey(bucketNow, models.GranularityMonth))
}

func TestBucketizeSingleDayBurst(t *testing.T) {
	// ten posts with likes=100 all inside the same day: exactly one non-zero
	// bucket with postCount=10 and averageLikes=100
	posts := make([]models.RawPost, 0, 10)
	for i := 0; i < 10; i++ {
		posts = append(posts, postAt(bucketNow.Add(-time.Duration(i)*time.Minute), 100, 0, 0))
	}

	summary := Bucketize(posts, models.GranularityDay, bucketNow)
	require.NotNil(t, summary)

	nonZero := 0
	for _, b := range summary.Posts {
		if b.PostCount > 0 {
			nonZero++
			assert.Equal(t, 10, b.PostCount)
			assert.Equal(t, int64(100), b.Likes)
		}
	}
	assert.Equal(t, 1, nonZero)
	assert.Equal(t, int64(100), summary.AverageLikes)
	assert.Equal(t, 10, summary.TotalPosts)
}

func TestBucketizePostCountConservation(t *testing.T) {
	inWindow := []models.RawPost{
		postAt(bucketNow.Add(-2*time.Hour), 10, 1, 0),
		postAt(bucketNow.AddDate(0, 0, -3), 20, 2, 1),
		postAt(bucketNow.AddDate(0, 0, -6), 30, 3, 2),
	}
	outOfWindow := []models.RawPost{
		postAt(bucketNow.AddDate(0, -3, 0), 99, 9, 9),
		{CreatedAtEpoch: 0, Likes: 5}, // unparseable timestamp
	}

	summary := Bucketize(append(inWindow, outOfWindow...), models.GranularityWeek, bucketNow)
	require.NotNil(t, summary)

	total := 0
	for _, b := range summary.Posts {
		total += b.PostCount
	}
	assert.Equal(t, len(inWindow), total)
}

func TestBucketizeEmptyBucketsReportZeroAverages(t *testing.T) {
	summary := Bucketize(nil, models.GranularityDay, bucketNow)
	require.NotNil(t, summary)
	require.NotEmpty(t, summary.Posts)

	for _, b := range summary.Posts {
		assert.Zero(t, b.Likes)
		assert.Zero(t, b.TotalEngagement)
		assert.Zero(t, b.PostCount)
	}
	assert.Zero(t, summary.AverageLikes)
	assert.Zero(t, summary.TotalPosts)
}

func TestBucketizeAscendingOrder(t *testing.T) {
	posts := []models.RawPost{
		postAt(bucketNow, 1, 0, 0),
		postAt(bucketNow.AddDate(0, 0, -20), 2, 0, 0),
	}
	summary := Bucketize(posts, models.GranularityMonth, bucketNow)
	for i := 1; i < len(summary.Posts); i++ {
		assert.Less(t, summary.Posts[i-1].Date, summary.Posts[i].Date)
	}
}

func TestBuildEngagementReport(t *testing.T) {
	assert.Nil(t, BuildEngagementReport(nil, bucketNow))

	report := BuildEngagementReport([]models.RawPost{postAt(bucketNow, 100, 10, 1)}, bucketNow)
	require.NotNil(t, report)
	require.NotNil(t, report.Daily)
	require.NotNil(t, report.Weekly)
	require.NotNil(t, report.Monthly)
	assert.Equal(t, 1, report.Monthly.TotalPosts)
}
