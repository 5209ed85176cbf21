package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"trendflow/config"
	"trendflow/logger"
	"trendflow/models"
	"trendflow/pipeline"
)

const defaultMaxUploadBytes = 10 << 20

// Archiver receives finished reports for durable storage. Enqueue must not
// block the request path.
type Archiver interface {
	Enqueue(report models.AnalysisReport)
}

// Server hosts the HTTP API for product analysis.
type Server struct {
	cfg        *config.Config
	analyzer   *pipeline.Analyzer
	archiver   Archiver
	log        *logger.Log
	httpServer *http.Server
}

func NewServer(cfg *config.Config, analyzer *pipeline.Analyzer, archiver Archiver) *Server {
	return &Server{
		cfg:      cfg,
		analyzer: analyzer,
		archiver: archiver,
		log:      logger.GetLogger(),
	}
}

// Run starts the HTTP server and blocks until the provided context is
// cancelled or the underlying HTTP server exits with an error.
func (s *Server) Run(ctx context.Context) error {
	router, err := s.buildRouter()
	if err != nil {
		return err
	}

	addr := normalizeAddress(s.cfg.Server.Addr)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	log := s.log.WithComponent("server")
	log.WithFields(logger.Fields{"addr": addr}).Info("starting HTTP server")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		timeout := s.cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		<-errCh
		log.Info("HTTP server stopped")
		return nil
	case err := <-errCh:
		if err == nil {
			return nil
		}
		return err
	}
}

func (s *Server) buildRouter() (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if err := router.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	router.GET("/", s.handleLiveness)
	router.POST("/api/upload", s.handleUpload)
	router.POST("/api/analyze-product", s.handleAnalyzeProduct)
	router.GET("/api/order-volume", s.handleOrderVolume)
	router.GET("/api/analyze/ws", s.handleAnalyzeWS)

	return router, nil
}

func (s *Server) handleLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": s.cfg.Trendflow.Name,
		"version": s.cfg.Trendflow.Version,
	})
}

// handleUpload accepts a multipart product image, runs the full analysis
// and returns the report. The temporary copy of the upload is removed on
// every path.
func (s *Server) handleUpload(c *gin.Context) {
	log := s.log.WithComponent("server").WithFields(logger.Fields{
		"operation": "upload",
	})

	maxBytes := s.cfg.Server.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		log.WithError(err).Warn("failed to open upload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "upload-*.img")
	if err != nil {
		log.WithError(err).Error("failed to create temp file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		log.WithError(err).Warn("failed to spool upload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}
	if err := tmp.Close(); err != nil {
		log.WithError(err).Error("failed to finalize temp file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}

	image, err := os.ReadFile(tmpPath)
	if err != nil {
		log.WithError(err).Error("failed to reload upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(image)
	}

	report, err := s.analyzer.AnalyzeImage(c.Request.Context(), image, mimeType, pipeline.NopSink)
	if err != nil {
		log.WithError(err).Error("image analysis failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	s.archive(*report)
	c.JSON(http.StatusOK, report)
}

type analyzeProductRequest struct {
	SearchTerm       string `json:"searchTerm" binding:"required"`
	SocialSearchTerm string `json:"tiktokSearchTerm"`
	Microniche       string `json:"microniche"`
}

// handleAnalyzeProduct runs the metric paths for an already known product
// description, skipping the vision step.
func (s *Server) handleAnalyzeProduct(c *gin.Context) {
	log := s.log.WithComponent("server").WithFields(logger.Fields{
		"operation": "analyze_product",
	})

	var req analyzeProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "searchTerm is required"})
		return
	}

	report, err := s.analyzer.AnalyzeDescription(c.Request.Context(), &models.ProductDescription{
		SearchTerm:       req.SearchTerm,
		SocialSearchTerm: req.SocialSearchTerm,
		Microniche:       req.Microniche,
	}, pipeline.NopSink)
	if err != nil {
		log.WithError(err).Error("product analysis failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	s.archive(*report)
	c.JSON(http.StatusOK, report)
}

// handleOrderVolume exposes the order-volume path on its own.
func (s *Server) handleOrderVolume(c *gin.Context) {
	searchTerm := strings.TrimSpace(c.Query("searchTerm"))
	if searchTerm == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "searchTerm query parameter is required"})
		return
	}

	volume, err := s.analyzer.OrderVolume(c.Request.Context(), searchTerm)
	if err != nil {
		s.log.WithComponent("server").WithError(err).Error("order volume lookup failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if volume == nil {
		c.JSON(http.StatusOK, gin.H{"orderVolume": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orderVolume": volume})
}

func (s *Server) archive(report models.AnalysisReport) {
	if s.archiver == nil {
		return
	}
	s.archiver.Enqueue(report)
}

func normalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "0.0.0.0:3000"
	}

	if strings.HasPrefix(addr, ":") {
		return "0.0.0.0" + addr
	}

	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}

	return addr
}
