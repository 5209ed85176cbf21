package engine

import (
	"math"
	"sort"
	"time"

	"trendflow/models"
	"trendflow/normalize"
)

const (
	dayKeyFormat   = "2006-01-02"
	monthKeyFormat = "2006-01"
)

// WindowFor derives the bucketing window for a granularity: the window always
// ends now and reaches back one day, seven days or one calendar month.
func WindowFor(now time.Time, g models.Granularity) models.Window {
	now = now.UTC()
	switch g {
	case models.GranularityDay:
		return models.Window{Start: now.AddDate(0, 0, -1), End: now}
	case models.GranularityWeek:
		return models.Window{Start: now.AddDate(0, 0, -7), End: now}
	default:
		return models.Window{Start: now.AddDate(0, -1, 0), End: now}
	}
}

// BucketKeys pre-generates every bucket key between start and end inclusive,
// stepping by the granularity. The series is dense by construction: a window
// spanning N calendar periods always produces exactly N keys, so charts never
// have gaps even when no post landed in a period.
func BucketKeys(window models.Window, g models.Granularity) []string {
	keys := make([]string, 0, 8)
	for cursor := window.Start; !cursor.After(window.End); {
		keys = append(keys, BucketKey(cursor, g))
		switch g {
		case models.GranularityDay:
			cursor = cursor.AddDate(0, 0, 1)
		case models.GranularityWeek:
			cursor = cursor.AddDate(0, 0, 7)
		default:
			cursor = cursor.AddDate(0, 1, 0)
		}
	}
	return keys
}

// BucketKey maps a timestamp to its calendar bucket: the date for day
// buckets, the date of the enclosing week's Sunday for week buckets and
// YYYY-MM for month buckets.
func BucketKey(t time.Time, g models.Granularity) string {
	t = t.UTC()
	switch g {
	case models.GranularityDay:
		return t.Format(dayKeyFormat)
	case models.GranularityWeek:
		weekStart := t.AddDate(0, 0, -int(t.Weekday()))
		return weekStart.Format(dayKeyFormat)
	default:
		return t.Format(monthKeyFormat)
	}
}

// Bucketize groups a post sample into the dense calendar series for one
// granularity and computes per-bucket and sample-wide averages. Posts with
// unparseable timestamps, or timestamps outside the window, are skipped
// silently; they still never produce NaN because averages divide by
// max(postCount, 1).
func Bucketize(posts []models.RawPost, g models.Granularity, now time.Time) *models.EngagementSummary {
	window := WindowFor(now, g)
	keys := BucketKeys(window, g)

	buckets := make(map[string]*models.TimeBucket, len(keys))
	for _, key := range keys {
		buckets[key] = &models.TimeBucket{Key: key}
	}

	var sampleLikes, sampleComments, sampleShares int64
	sampleSize := 0

	for _, post := range posts {
		created, ok := normalize.EpochSeconds(post.CreatedAtEpoch, now)
		if !ok {
			continue
		}

		sampleLikes += post.Likes
		sampleComments += post.Comments
		sampleShares += post.Shares
		sampleSize++

		bucket, inWindow := buckets[BucketKey(created, g)]
		if !inWindow {
			continue
		}
		bucket.Likes += post.Likes
		bucket.Comments += post.Comments
		bucket.Shares += post.Shares
		bucket.PostCount++
	}

	stats := make([]models.BucketStat, 0, len(keys))
	for _, key := range keys {
		bucket := buckets[key]
		likes := roundedAverage(bucket.Likes, bucket.PostCount)
		comments := roundedAverage(bucket.Comments, bucket.PostCount)
		shares := roundedAverage(bucket.Shares, bucket.PostCount)
		stats = append(stats, models.BucketStat{
			Date:            key,
			Likes:           likes,
			Comments:        comments,
			Shares:          shares,
			TotalEngagement: likes + comments + shares,
			PostCount:       bucket.PostCount,
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Date < stats[j].Date })

	return &models.EngagementSummary{
		Posts:           stats,
		AverageLikes:    roundedAverage(sampleLikes, sampleSize),
		AverageComments: roundedAverage(sampleComments, sampleSize),
		AverageShares:   roundedAverage(sampleShares, sampleSize),
		TotalPosts:      sampleSize,
	}
}

// BuildEngagementReport produces one summary per granularity from a single
// post sample. A sample with no posts yields nil, which the assembler maps to
// the "no data" section.
func BuildEngagementReport(posts []models.RawPost, now time.Time) *models.EngagementReport {
	if len(posts) == 0 {
		return nil
	}
	return &models.EngagementReport{
		Daily:   Bucketize(posts, models.GranularityDay, now),
		Weekly:  Bucketize(posts, models.GranularityWeek, now),
		Monthly: Bucketize(posts, models.GranularityMonth, now),
	}
}

// roundedAverage divides sum by count rounding half away from zero, guarding
// the empty-bucket case: zero posts report zero averages.
func roundedAverage(sum int64, count int) int64 {
	if count < 1 {
		count = 1
	}
	return int64(math.Round(float64(sum) / float64(count)))
}
