package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"trendflow/config"
	"trendflow/logger"
	"trendflow/pipeline"
	"trendflow/provider/orders"
	"trendflow/provider/shopsearch"
	"trendflow/provider/social"
	"trendflow/provider/vision"
	"trendflow/server"
	"trendflow/writer"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	env := config.AppEnvironment()
	log.WithFields(logger.Fields{
		"service":     cfg.Trendflow.Name,
		"version":     cfg.Trendflow.Version,
		"environment": env,
	}).Info("starting trendflow")

	// Production-like deployments always verify provider credentials at
	// startup, whatever the config says.
	if config.IsProductionLike(env) {
		cfg.Providers.ShopSearch.VerifyOnStart = true
		cfg.Providers.Social.VerifyOnStart = true
		cfg.Providers.Orders.VerifyOnStart = true
		cfg.Providers.Vision.VerifyOnStart = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.InitCloudWatch("", cfg.Trendflow.Name, cfg.Logging.DashboardName)

	if cfg.Report.Enabled || strings.ToLower(cfg.Logging.Level) == "report" {
		interval := cfg.Report.Interval
		if interval <= 0 {
			interval = 30 * time.Second
		}
		logger.StartReport(ctx, log, interval)
	}

	shopClient := shopsearch.NewClient(cfg.Providers.ShopSearch)
	socialClient := social.NewClient(cfg.Providers.Social)
	orderClient := orders.NewClient(cfg.Providers.Orders)
	visionClient := vision.NewClient(cfg.Providers.Vision)

	verifyProviders(ctx, cfg, log, shopClient, socialClient, orderClient, visionClient)

	var archiver *writer.ReportArchiver
	if cfg.Storage.S3.Enabled {
		archiver, err = writer.NewReportArchiver(cfg)
		if err != nil {
			log.WithError(err).Error("failed to create report archiver")
			os.Exit(1)
		}
		if err := archiver.Start(ctx); err != nil {
			log.WithError(err).Error("failed to start report archiver")
			os.Exit(1)
		}
	} else {
		log.WithComponent("main").Info("S3 storage disabled; skipping report archiver")
	}

	analyzer := pipeline.NewAnalyzer(cfg, shopClient, socialClient, orderClient, visionClient)

	var archiverSink server.Archiver
	if archiver != nil {
		archiverSink = archiver
	}
	srv := server.NewServer(cfg, analyzer, archiverSink)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Run(ctx)
	}()

	log.Info("all components started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			log.WithError(err).Error("HTTP server failed")
		}
	}

	log.Info("starting graceful shutdown")
	cancel()

	select {
	case <-serverErr:
	case <-time.After(30 * time.Second):
		log.Warn("graceful shutdown timeout exceeded")
	}

	if archiver != nil {
		log.Info("stopping report archiver")
		archiver.Stop()
	}

	log.Info("trendflow stopped")
}

// verifyProviders confirms each credentialed provider is reachable before the
// service starts accepting work. A failed verification is fatal: every
// analysis would fail anyway.
func verifyProviders(ctx context.Context, cfg *config.Config, log *logger.Log, shopClient *shopsearch.Client, socialClient *social.Client, orderClient *orders.Client, visionClient *vision.Client) {
	verifyCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if cfg.Providers.ShopSearch.VerifyOnStart {
		if err := shopClient.Verify(verifyCtx); err != nil {
			log.WithError(err).Error("shop search provider verification failed")
			os.Exit(1)
		}
	}
	if cfg.Providers.Social.VerifyOnStart {
		if err := socialClient.Verify(verifyCtx); err != nil {
			log.WithError(err).Error("social provider verification failed")
			os.Exit(1)
		}
	}
	if cfg.Providers.Orders.VerifyOnStart {
		if err := orderClient.Verify(verifyCtx); err != nil {
			log.WithError(err).Error("orders provider verification failed")
			os.Exit(1)
		}
	}
	if cfg.Providers.Vision.VerifyOnStart {
		if err := visionClient.Verify(verifyCtx); err != nil {
			log.WithError(err).Error("vision provider verification failed")
			os.Exit(1)
		}
	}

	log.WithComponent("main").Info("provider verification completed")
}
