package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/izabele-1801/agiliza-backend/internal/common"
	"github.com/izabele-1801/agiliza-backend/internal/ingest"
	"github.com/izabele-1801/agiliza-backend/internal/ocr"
	"github.com/izabele-1801/agiliza-backend/internal/pipeline"
)

// extractdebug runs one file through the processor and prints every
// strategy attempt plus the records as JSON.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	configPath := flag.String("config", "", "optional YAML config file")
	vendorHint := flag.String("vendor", "", "vendor profile to force")
	noOCR := flag.Bool("no-ocr", false, "disable OCR")
	flag.Parse()

	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "extractdebug [-vendor NAME] [-no-ocr] <file>")
		os.Exit(2)
	}

	cfg, err := common.Load(*configPath)
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}
	if *noOCR {
		cfg.OCR.Engine = ocr.EngineNone
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	doc, _, err := ingest.NewFSIngestor(int64(cfg.Engine.MaxFileSize()), logger).LoadPath(ctx, flag.Arg(0))
	if err != nil {
		logger.Error("load", "path", flag.Arg(0), "error", err)
		os.Exit(1)
	}
	doc.VendorHint = *vendorHint

	ocrHandle := ocr.NewHandle(ocr.ConfigFrom(cfg.OCR), logger)
	defer func() { _ = ocrHandle.Close() }()
	p := pipeline.NewProcessor(logger, pipeline.ConfigFrom(cfg.Engine), pipeline.WithOCR(ocrHandle))

	res, err := p.ProcessDocument(ctx, doc)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(res); encErr != nil {
		logger.Error("encode", "error", encErr)
	}
	if err != nil {
		logger.Error("extraction failed", "warning", pipeline.Warning(doc.Filename, err), "error", err)
		os.Exit(1)
	}
}
