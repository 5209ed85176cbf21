package writer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	appconfig "trendflow/config"
	"trendflow/logger"
	"trendflow/models"
)

// EngagementRow is the flattened parquet view of one daily engagement
// bucket belonging to a report.
type EngagementRow struct {
	ReportID        string `parquet:"name=report_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Description     string `parquet:"name=description, type=BYTE_ARRAY, convertedtype=UTF8"`
	Date            string `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	Likes           int64  `parquet:"name=likes, type=INT64"`
	Comments        int64  `parquet:"name=comments, type=INT64"`
	Shares          int64  `parquet:"name=shares, type=INT64"`
	TotalEngagement int64  `parquet:"name=total_engagement, type=INT64"`
	PostCount       int32  `parquet:"name=post_count, type=INT32"`
}

type reportArchiver struct {
	config      *appconfig.Config
	s3Client    *s3.Client
	reports     chan models.AnalysisReport
	ctx         context.Context
	wg          *sync.WaitGroup
	mu          sync.RWMutex
	running     bool
	log         *logger.Log
	buffer      []models.AnalysisReport
	bufMu       sync.Mutex
	flushTicker *time.Ticker
}

// ReportArchiver buffers finished analysis reports and periodically flushes
// them to S3, one JSON document per report plus a parquet file of the daily
// engagement buckets when the report has any.
type ReportArchiver = reportArchiver

func newReportArchiver(cfg *appconfig.Config) (*reportArchiver, error) {
	log := logger.GetLogger()

	ctx := context.Background()

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Storage.S3.Region),
	}
	if cfg.Storage.S3.AccessKeyID != "" && cfg.Storage.S3.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.Storage.S3.AccessKeyID,
				cfg.Storage.S3.SecretAccessKey,
				"",
			),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		log.WithComponent("archiver").WithError(err).Warn("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	creds, err := awsConfig.Credentials.Retrieve(ctx)
	if err != nil || !creds.HasKeys() {
		return nil, fmt.Errorf("aws credentials not found")
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Storage.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.S3.Endpoint)
		}
		o.UsePathStyle = cfg.Storage.S3.PathStyle
	})

	bufferSize := cfg.Storage.S3.BufferSize
	if bufferSize <= 0 {
		bufferSize = 256
	}

	archiver := &reportArchiver{
		config:   cfg,
		s3Client: s3Client,
		reports:  make(chan models.AnalysisReport, bufferSize),
		wg:       &sync.WaitGroup{},
		log:      log,
	}

	log.WithComponent("archiver").WithFields(logger.Fields{
		"bucket":     cfg.Storage.S3.Bucket,
		"region":     cfg.Storage.S3.Region,
		"endpoint":   cfg.Storage.S3.Endpoint,
		"path_style": cfg.Storage.S3.PathStyle,
	}).Info("report archiver initialized")

	return archiver, nil
}

// NewReportArchiver constructs a new ReportArchiver instance.
func NewReportArchiver(cfg *appconfig.Config) (*ReportArchiver, error) {
	return newReportArchiver(cfg)
}

// Enqueue hands a report to the archiver without blocking the request
// path. When the queue is full the report is dropped with a warning.
func (w *reportArchiver) Enqueue(report models.AnalysisReport) {
	select {
	case w.reports <- report:
	default:
		w.log.WithComponent("archiver").WithFields(logger.Fields{
			"report_id": report.ReportID,
		}).Warn("archive queue full, dropping report")
	}
}

func (w *reportArchiver) start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("report archiver already running")
	}
	w.running = true
	w.ctx = ctx
	w.mu.Unlock()

	log := w.log.WithComponent("archiver").WithFields(logger.Fields{"operation": "start"})
	log.Info("starting report archiver")

	interval := w.config.Storage.S3.FlushInterval
	if interval <= 0 {
		interval = time.Minute
	}
	w.flushTicker = time.NewTicker(interval)

	w.wg.Add(1)
	go w.worker()

	w.wg.Add(1)
	go w.flushWorker()

	log.Info("report archiver started successfully")
	return nil
}

func (w *reportArchiver) stop() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	w.log.WithComponent("archiver").Info("stopping report archiver")
	w.wg.Wait()
	w.log.WithComponent("archiver").Info("report archiver stopped")
}

func (w *reportArchiver) worker() {
	defer w.wg.Done()

	log := w.log.WithComponent("archiver").WithFields(logger.Fields{"worker": "queue"})
	log.Info("starting archive queue worker")

	for {
		select {
		case <-w.ctx.Done():
			w.drainQueue(log)
			log.Info("worker stopped due to context cancellation")
			return
		case report, ok := <-w.reports:
			if !ok {
				log.Info("report channel closed, worker stopping")
				return
			}
			w.bufMu.Lock()
			w.buffer = append(w.buffer, report)
			w.bufMu.Unlock()
		}
	}
}

// drainQueue moves reports still sitting in the queue into the buffer and
// flushes them, so an Enqueue that raced shutdown is not lost.
func (w *reportArchiver) drainQueue(log *logger.Entry) {
	drained := 0
	for {
		select {
		case report := <-w.reports:
			w.bufMu.Lock()
			w.buffer = append(w.buffer, report)
			w.bufMu.Unlock()
			drained++
		default:
			if drained > 0 {
				log.WithFields(logger.Fields{"reports": drained}).Info("drained queued reports at shutdown")
				w.flushBuffer("drain")
			}
			return
		}
	}
}

func (w *reportArchiver) flushWorker() {
	defer w.wg.Done()

	log := w.log.WithComponent("archiver").WithFields(logger.Fields{"worker": "flush"})
	log.Info("starting flush worker")

	for {
		select {
		case <-w.ctx.Done():
			w.flushBuffer("shutdown")
			log.Info("flush worker stopped due to context cancellation")
			return
		case <-w.flushTicker.C:
			w.flushBuffer("interval")
		}
	}
}

func (w *reportArchiver) flushBuffer(reason string) {
	w.bufMu.Lock()
	reports := w.buffer
	w.buffer = nil
	w.bufMu.Unlock()

	if len(reports) == 0 {
		return
	}

	w.log.WithComponent("archiver").WithFields(logger.Fields{
		"reports": len(reports),
		"reason":  reason,
	}).Info("flushing report buffer")

	for _, report := range reports {
		w.processReport(report)
	}
}

func (w *reportArchiver) processReport(report models.AnalysisReport) {
	log := w.log.WithComponent("archiver").WithFields(logger.Fields{
		"report_id": report.ReportID,
		"operation": "process_report",
	})

	body, err := json.Marshal(report)
	if err != nil {
		log.WithError(err).Error("failed to encode report")
		return
	}

	jsonKey := w.reportKey(report, "json")
	if err := w.uploadToS3(jsonKey, body, "application/json"); err != nil {
		log.WithError(err).
			WithEnv("S3_BUCKET").
			WithFields(logger.Fields{"bucket": w.config.Storage.S3.Bucket, "s3_key": jsonKey}).
			Error("failed to upload report JSON")
		return
	}
	logger.IncrementArchiveWrite(int64(len(body)))

	rows := engagementRows(report)
	if len(rows) == 0 {
		log.Info("report archived")
		return
	}

	parquetData, err := w.createParquetFile(rows)
	if err != nil {
		log.WithError(err).Error("failed to create engagement parquet")
		return
	}

	parquetKey := w.reportKey(report, "parquet")
	if err := w.uploadToS3(parquetKey, parquetData, "application/octet-stream"); err != nil {
		log.WithError(err).WithFields(logger.Fields{"s3_key": parquetKey}).Error("failed to upload engagement parquet")
		return
	}
	logger.IncrementArchiveWrite(int64(len(parquetData)))

	log.WithFields(logger.Fields{
		"engagement_rows": len(rows),
	}).Info("report archived with engagement parquet")
}

func (w *reportArchiver) reportKey(report models.AnalysisReport, ext string) string {
	ts := report.GeneratedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	prefix := w.config.Storage.S3.Prefix
	if prefix == "" {
		prefix = "reports"
	}
	return path.Join(
		prefix,
		fmt.Sprintf("date=%s", ts.UTC().Format("2006-01-02")),
		fmt.Sprintf("%s.%s", report.ReportID, ext),
	)
}

// engagementRows flattens the daily engagement buckets of a report into
// parquet records. Buckets with no posts are skipped.
func engagementRows(report models.AnalysisReport) []EngagementRow {
	if report.Metrics.Engagement == nil || report.Metrics.Engagement.Daily == nil {
		return nil
	}
	rows := make([]EngagementRow, 0, len(report.Metrics.Engagement.Daily.Posts))
	for _, bucket := range report.Metrics.Engagement.Daily.Posts {
		if bucket.PostCount == 0 {
			continue
		}
		rows = append(rows, EngagementRow{
			ReportID:        report.ReportID,
			Description:     report.Description,
			Date:            bucket.Date,
			Likes:           bucket.Likes,
			Comments:        bucket.Comments,
			Shares:          bucket.Shares,
			TotalEngagement: bucket.TotalEngagement,
			PostCount:       int32(bucket.PostCount),
		})
	}
	return rows
}

func (w *reportArchiver) createParquetFile(rows []EngagementRow) ([]byte, error) {
	fw := newMemoryFileWriter()

	pw, err := writer.NewParquetWriter(fw, new(EngagementRow), 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			pw.WriteStop()
			return nil, fmt.Errorf("failed to write parquet record: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("failed to finalize parquet writing: %w", err)
	}

	return fw.Bytes(), nil
}

func (w *reportArchiver) uploadToS3(key string, data []byte, contentType string) error {
	log := w.log.WithComponent("archiver").WithFields(logger.Fields{
		"operation": "upload_to_s3",
		"data_size": len(data),
		"s3_key":    key,
	})

	input := &s3.PutObjectInput{
		Bucket:      aws.String(w.config.Storage.S3.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"trendflow-version": w.config.Trendflow.Version,
		},
	}

	ctx := context.WithoutCancel(w.ctx)
	if _, err := w.s3Client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to upload to S3 bucket %s: %w", w.config.Storage.S3.Bucket, err)
	}

	log.Debug("uploaded to S3")
	return nil
}

// Start exposes the start method of reportArchiver.
func (w *ReportArchiver) Start(ctx context.Context) error { return w.start(ctx) }

// Stop exposes the stop method of reportArchiver.
func (w *ReportArchiver) Stop() { w.stop() }
