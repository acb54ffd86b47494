package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/izabele-1801/agiliza-backend/internal/common"
	"github.com/izabele-1801/agiliza-backend/internal/export"
	"github.com/izabele-1801/agiliza-backend/internal/metrics"
	"github.com/izabele-1801/agiliza-backend/internal/ocr"
	"github.com/izabele-1801/agiliza-backend/internal/pipeline"
	"github.com/izabele-1801/agiliza-backend/internal/server"
	"github.com/izabele-1801/agiliza-backend/internal/vendor"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	profilesPath := flag.String("profiles", "", "optional vendor profiles JSON replacing the built-in set")
	flag.Parse()

	// Logger
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()

	cfg, err := common.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Server.Debug {
		logger, _ = zap.NewDevelopment()
		log = logger.Sugar()
	}

	// Pipeline packages log through slog.
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(slogger)

	registry := vendor.Default()
	if *profilesPath != "" {
		data, err := os.ReadFile(*profilesPath)
		if err != nil {
			log.Fatalf("read profiles: %v", err)
		}
		if registry, err = vendor.Load(data); err != nil {
			log.Fatalf("load profiles: %v", err)
		}
	}

	m := metrics.Default()
	ocrHandle := ocr.NewHandle(ocr.ConfigFrom(cfg.OCR), slogger)
	defer func() { _ = ocrHandle.Close() }()

	proc := pipeline.NewProcessor(slogger, pipeline.ConfigFrom(cfg.Engine),
		pipeline.WithRegistry(registry),
		pipeline.WithOCR(ocrHandle),
		pipeline.WithObserver(m),
	)
	srv := server.New(cfg, server.Deps{
		Processor: proc,
		Exporter:  export.NewService(cfg.Export, slogger),
		Metrics:   m,
		OCR:       ocrHandle,
	}, logger)

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("http serve: %v", err)
		}
	}()
	log.Infow("agilizad started", "addr", cfg.Server.Addr, "vendors", len(registry.Names()), "ocr", ocrHandle.Enabled())

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("shutdown", "error", err)
	}
	log.Info("stopped.")
}
