package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/izabele-1801/agiliza-backend/internal/async"
	"github.com/izabele-1801/agiliza-backend/internal/common"
	"github.com/izabele-1801/agiliza-backend/internal/export"
	"github.com/izabele-1801/agiliza-backend/internal/ingest"
	"github.com/izabele-1801/agiliza-backend/internal/metrics"
	"github.com/izabele-1801/agiliza-backend/internal/ocr"
	"github.com/izabele-1801/agiliza-backend/internal/pipeline"
	"github.com/izabele-1801/agiliza-backend/internal/watch"
)

func main() {
	var (
		configPath  = flag.String("config", "", "optional YAML config file")
		inbox       = flag.String("inbox", "", "directory to watch (overrides watch.inbox)")
		outbox      = flag.String("outbox", "", "directory for workbooks (overrides watch.outbox)")
		model       = flag.String("model", "", "output model: winthor or planilha")
		metricsAddr = flag.String("metrics-addr", "", "serve /metrics on this address, e.g. :9100")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := common.Load(*configPath)
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}
	if *inbox != "" {
		cfg.Watch.Inbox = *inbox
	}
	if *outbox != "" {
		cfg.Watch.Outbox = *outbox
	}
	if err := os.MkdirAll(cfg.Watch.Inbox, 0o755); err != nil {
		logger.Error("create inbox", "inbox", cfg.Watch.Inbox, "error", err)
		os.Exit(1)
	}
	mode := export.ParseMode(cfg.Engine.DefaultMode)
	if *model != "" {
		mode = export.ParseMode(*model)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.Default()
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		ms := &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := ms.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics serve", "error", err)
			}
		}()
		defer func() { _ = ms.Close() }()
	}

	ocrHandle := ocr.NewHandle(ocr.ConfigFrom(cfg.OCR), logger)
	defer func() { _ = ocrHandle.Close() }()

	conv := watch.NewConverter(cfg.Watch.Inbox, cfg.Watch.Outbox, mode,
		ingest.NewFSIngestor(int64(cfg.Engine.MaxFileSize()), logger),
		pipeline.NewProcessor(logger, pipeline.ConfigFrom(cfg.Engine),
			pipeline.WithOCR(ocrHandle),
			pipeline.WithObserver(m),
		),
		export.NewService(cfg.Export, logger),
		logger,
	)

	if err := watch.Run(ctx, cfg.Watch, conv, logger, async.WithDepthHook(m.SetQueueDepth)); err != nil {
		logger.Error("watch failed", "error", err)
		os.Exit(1)
	}
}
