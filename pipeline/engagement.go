package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"trendflow/engine"
	"trendflow/logger"
	"trendflow/models"
	"trendflow/normalize"
	"trendflow/provider"
)

const topPostCount = 5

// engagementReport runs the paginated general search, falls back to the
// hashtag lookup when the search yields nothing, and buckets whatever posts
// were collected. A nil report with a nil error means no data, which is not
// a failure.
func (a *Analyzer) engagementReport(ctx context.Context, rawQuery string) (*models.EngagementReport, []models.PostDigest, error) {
	log := a.log.WithComponent("social").WithFields(logger.Fields{
		"operation": "engagement_report",
	})

	query := normalize.Query(rawQuery)
	if len(query) < normalize.MinQueryLength {
		log.WithFields(logger.Fields{"raw_query": rawQuery}).Warn("search query too weak, skipping social fetch")
		return nil, nil, nil
	}

	posts, err := a.collectPosts(ctx, query)
	if err != nil {
		log.WithError(err).Warn("general search failed, falling back to hashtag lookup")
		posts = nil
	}

	if len(posts) == 0 {
		posts, err = a.hashtagPosts(ctx, query)
		if err != nil {
			return nil, nil, err
		}
	}

	if len(posts) == 0 {
		log.Info("no posts found for query")
		return nil, nil, nil
	}

	limit := a.cfg.Engagement.TopPosts
	if limit <= 0 {
		limit = topPostCount
	}
	digest := topPosts(posts, limit, time.Now().UTC())
	report := engine.BuildEngagementReport(posts, time.Now().UTC())

	log.WithFields(logger.Fields{"posts": len(posts)}).Info("engagement report built")

	return report, digest, nil
}

// collectPosts pages through the general search until the provider runs out
// of results or one of the fetch ceilings is hit. Requests after the first
// are paced by the configured page delay.
func (a *Analyzer) collectPosts(ctx context.Context, query string) ([]models.RawPost, error) {
	log := a.log.WithComponent("social").WithFields(logger.Fields{
		"operation": "collect_posts",
	})

	fetchCfg := a.cfg.Fetch
	limiter := rate.NewLimiter(rate.Every(fetchCfg.PageDelay), 1)
	if fetchCfg.PageDelay <= 0 {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	var posts []models.RawPost
	cursor := ""

	for page := 0; page < fetchCfg.MaxPages && len(posts) < fetchCfg.MaxRecords; page++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("pagination cancelled: %w", err)
		}

		result, err := a.social.SearchPage(ctx, query, cursor, fetchCfg.PageSize)
		if err != nil {
			return nil, fmt.Errorf("search page %d failed: %w", page+1, err)
		}

		if len(result.Posts) == 0 {
			log.WithFields(logger.Fields{"page": page + 1}).Info("no more posts, stopping pagination")
			break
		}

		posts = append(posts, result.Posts...)
		log.WithFields(logger.Fields{
			"page":        page + 1,
			"total_posts": len(posts),
		}).Debug("page collected")

		cursor = result.NextCursor
		if cursor == "" {
			break
		}
	}

	if len(posts) > fetchCfg.MaxRecords {
		posts = posts[:fetchCfg.MaxRecords]
	}

	return posts, nil
}

// hashtagPosts is the fallback path: resolve the query as a hashtag name
// and fetch its posts. A hashtag that does not exist yields no data rather
// than an error.
func (a *Analyzer) hashtagPosts(ctx context.Context, query string) ([]models.RawPost, error) {
	log := a.log.WithComponent("social").WithFields(logger.Fields{
		"operation": "hashtag_fallback",
	})

	id, err := a.social.HashtagID(ctx, query)
	if errors.Is(err, provider.ErrNotFound) {
		log.Info("no hashtag for query")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("hashtag lookup failed: %w", err)
	}

	posts, err := a.social.HashtagPosts(ctx, id)
	if errors.Is(err, provider.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("hashtag posts fetch failed: %w", err)
	}

	log.WithFields(logger.Fields{"posts": len(posts)}).Info("hashtag fallback collected posts")
	return posts, nil
}

// topPosts picks the highest-engagement posts for the post-run digest.
func topPosts(posts []models.RawPost, limit int, now time.Time) []models.PostDigest {
	sorted := make([]models.RawPost, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalEngagement() > sorted[j].TotalEngagement()
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	digest := make([]models.PostDigest, 0, len(sorted))
	for _, p := range sorted {
		date := ""
		if ts, ok := normalize.EpochSeconds(p.CreatedAtEpoch, now); ok {
			date = ts.UTC().Format("2006-01-02")
		}
		url := ""
		if p.Author != "" && p.PostID != "" {
			url = fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", p.Author, p.PostID)
		}
		digest = append(digest, models.PostDigest{
			Date:            date,
			Likes:           p.Likes,
			Comments:        p.Comments,
			Shares:          p.Shares,
			TotalEngagement: p.TotalEngagement(),
			URL:             url,
		})
	}
	return digest
}
