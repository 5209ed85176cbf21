package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"trendflow/config"
	"trendflow/engine"
	"trendflow/logger"
	"trendflow/models"
	"trendflow/provider/social"
)

// ShopSearcher fetches marketplace listings for a product description.
type ShopSearcher interface {
	Search(ctx context.Context, description string, source models.Source) ([]models.RawListing, error)
}

// SocialFetcher provides paginated post search plus the hashtag fallback.
type SocialFetcher interface {
	SearchPage(ctx context.Context, query, cursor string, count int) (*social.Page, error)
	HashtagID(ctx context.Context, name string) (string, error)
	HashtagPosts(ctx context.Context, id string) ([]models.RawPost, error)
}

// OrderFetcher collects per-listing order counters for a search term.
type OrderFetcher interface {
	Fetch(ctx context.Context, searchTerm string) ([]models.RawOrderListing, error)
}

// Describer turns a product image into a structured description.
type Describer interface {
	Describe(ctx context.Context, image []byte, mimeType string) (*models.ProductDescription, error)
}

// Analyzer orchestrates the three metric paths for one product and
// assembles the terminal report. The sections run concurrently and fail
// independently: a section that errors or has no data stays nil while the
// others are still reported.
type Analyzer struct {
	cfg    *config.Config
	shop   ShopSearcher
	social SocialFetcher
	orders OrderFetcher
	vision Describer
	jitter engine.JitterSource
	log    *logger.Log
}

func NewAnalyzer(cfg *config.Config, shop ShopSearcher, socialClient SocialFetcher, orders OrderFetcher, vision Describer) *Analyzer {
	a := &Analyzer{
		cfg:    cfg,
		shop:   shop,
		social: socialClient,
		orders: orders,
		vision: vision,
		log:    logger.GetLogger(),
	}
	if cfg.Scoring.MarginJitter {
		a.jitter = rand.Float64
	}
	return a
}

// AnalyzeImage runs the vision collaborator first and then the metric
// paths. A vision failure aborts the whole analysis: without a description
// there is nothing to search for.
func (a *Analyzer) AnalyzeImage(ctx context.Context, image []byte, mimeType string, sink ProgressSink) (*models.AnalysisReport, error) {
	sink = orNop(sink)
	sink.Publish(Event{Stage: StageVision, Status: StatusStarted})

	desc, err := a.vision.Describe(ctx, image, mimeType)
	if err != nil {
		sink.Publish(Event{Stage: StageVision, Status: StatusFailed, Detail: err.Error()})
		return nil, fmt.Errorf("vision analysis failed: %w", err)
	}
	sink.Publish(Event{Stage: StageVision, Status: StatusCompleted, Detail: desc.SearchTerm})

	return a.AnalyzeDescription(ctx, desc, sink)
}

// AnalyzeDescription gathers resale, engagement and order-volume metrics
// concurrently for an already known product description.
func (a *Analyzer) AnalyzeDescription(ctx context.Context, desc *models.ProductDescription, sink ProgressSink) (*models.AnalysisReport, error) {
	sink = orNop(sink)
	log := a.log.WithComponent("analyzer").WithFields(logger.Fields{
		"search_term": desc.SearchTerm,
	})

	socialQuery := desc.SocialSearchTerm
	if socialQuery == "" {
		socialQuery = desc.SearchTerm
	}

	var (
		wg         sync.WaitGroup
		resale     *models.ResaleMetrics
		engagement *models.EngagementReport
		orderVol   *models.OrderVolume
	)

	wg.Add(3)

	go func() {
		defer wg.Done()
		sink.Publish(Event{Stage: StageResale, Status: StatusStarted})
		m, err := a.resaleMetrics(ctx, desc.SearchTerm)
		if err != nil {
			log.WithError(err).Warn("resale metrics unavailable")
			sink.Publish(Event{Stage: StageResale, Status: StatusFailed, Detail: err.Error()})
			return
		}
		resale = m
		sink.Publish(Event{Stage: StageResale, Status: StatusCompleted})
	}()

	go func() {
		defer wg.Done()
		sink.Publish(Event{Stage: StageEngagement, Status: StatusStarted})
		report, digest, err := a.engagementReport(ctx, socialQuery)
		if err != nil {
			log.WithError(err).Warn("engagement metrics unavailable")
			sink.Publish(Event{Stage: StageEngagement, Status: StatusFailed, Detail: err.Error()})
			return
		}
		engagement = report
		logTopPosts(a.log, digest)
		sink.Publish(Event{Stage: StageEngagement, Status: StatusCompleted})
	}()

	go func() {
		defer wg.Done()
		sink.Publish(Event{Stage: StageOrders, Status: StatusStarted})
		vol, err := a.orderVolume(ctx, desc.SearchTerm)
		if err != nil {
			log.WithError(err).Warn("order volume unavailable")
			sink.Publish(Event{Stage: StageOrders, Status: StatusFailed, Detail: err.Error()})
			return
		}
		orderVol = vol
		sink.Publish(Event{Stage: StageOrders, Status: StatusCompleted})
	}()

	wg.Wait()

	report := engine.AssembleReport(models.AnalysisReport{
		ReportID:    uuid.NewString(),
		Description: desc.SearchTerm,
		SocialQuery: socialQuery,
		Microniche:  desc.Microniche,
		GeneratedAt: time.Now().UTC(),
	}, resale, engagement, orderVol)

	log.WithFields(logger.Fields{
		"report_id":      report.ReportID,
		"has_resale":     resale != nil,
		"has_engagement": engagement != nil,
		"has_orders":     orderVol != nil,
	}).Info("analysis completed")

	sink.Publish(Event{Stage: StageDone, Status: StatusCompleted, Detail: report.ReportID})

	return &report, nil
}

// OrderVolume exposes the order-volume path on its own for the dedicated
// endpoint.
func (a *Analyzer) OrderVolume(ctx context.Context, searchTerm string) (*models.OrderVolume, error) {
	return a.orderVolume(ctx, searchTerm)
}

func logTopPosts(log *logger.Log, digest []models.PostDigest) {
	if len(digest) == 0 {
		return
	}
	entry := log.WithComponent("analyzer")
	for i, post := range digest {
		entry.WithFields(logger.Fields{
			"rank":             i + 1,
			"date":             post.Date,
			"likes":            post.Likes,
			"comments":         post.Comments,
			"shares":           post.Shares,
			"total_engagement": post.TotalEngagement,
			"url":              post.URL,
		}).Info("top engaging post")
	}
}
