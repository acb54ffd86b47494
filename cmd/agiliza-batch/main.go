package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/izabele-1801/agiliza-backend/internal/common"
	"github.com/izabele-1801/agiliza-backend/internal/entity"
	"github.com/izabele-1801/agiliza-backend/internal/export"
	"github.com/izabele-1801/agiliza-backend/internal/ingest"
	"github.com/izabele-1801/agiliza-backend/internal/ocr"
	"github.com/izabele-1801/agiliza-backend/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		configPath = flag.String("config", "", "optional YAML config file")
		dir        = flag.String("dir", "", "directory of order files")
		out        = flag.String("out", "", "output XLSX path (defaults to the export file name next to --dir)")
		model      = flag.String("model", "", "output model: winthor or planilha")
		vendorHint = flag.String("vendor", "", "vendor profile applied to every file")
	)
	flag.Parse()
	files := flag.Args()

	if *dir == "" && len(files) == 0 {
		printError("Error: --dir or at least one file is required\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := common.Load(*configPath)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	mode := export.ParseMode(*model)
	if *model == "" {
		mode = export.ParseMode(cfg.Engine.DefaultMode)
	}

	ctx := context.Background()
	loader := ingest.NewFSIngestor(int64(cfg.Engine.MaxFileSize()), logger)

	var docs []entity.RawDocument
	var warnings []string
	if *dir != "" {
		loaded, results, stats, err := loader.LoadDirectory(ctx, *dir, true)
		if err != nil {
			logger.Error("failed to scan directory", "dir", *dir, "error", err)
			os.Exit(1)
		}
		for _, r := range results {
			if r.Err != "" {
				warnings = append(warnings, fmt.Sprintf("%s: %s", filepath.Base(r.SourcePath), r.Err))
			}
		}
		docs = append(docs, loaded...)
		logger.Info("directory scanned",
			"scanned", stats.Scanned, "matched", stats.Matched,
			"succeeded", stats.Succeeded, "skipped", stats.Skipped, "failed", stats.Failed)
	}
	for _, path := range files {
		doc, _, err := loader.LoadPath(ctx, path)
		if err != nil {
			warnings = append(warnings, pipeline.Warning(filepath.Base(path), err))
			continue
		}
		docs = append(docs, doc)
	}
	for i := range docs {
		docs[i].VendorHint = *vendorHint
	}

	ocrHandle := ocr.NewHandle(ocr.ConfigFrom(cfg.OCR), logger)
	defer func() { _ = ocrHandle.Close() }()
	proc := pipeline.NewProcessor(logger, pipeline.ConfigFrom(cfg.Engine), pipeline.WithOCR(ocrHandle))

	res, err := proc.ProcessBatch(ctx, docs)
	warnings = append(warnings, res.Warnings...)
	if err != nil {
		logger.Error("batch failed", "error", err)
		for _, w := range warnings {
			printError("- %s\n", w)
		}
		os.Exit(1)
	}

	exporter := export.NewService(cfg.Export, logger)
	data, err := exporter.WriteXLSX(ctx, res.Records, mode)
	if err != nil {
		logger.Error("failed to export records", "error", err)
		os.Exit(1)
	}
	if *out == "" {
		base := *dir
		if base == "" {
			base = files[0]
		}
		*out = filepath.Join(filepath.Dir(filepath.Clean(base)), exporter.Filename())
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files processed: %d\n", len(res.Documents))
	fmt.Printf("- Records: %d\n", len(res.Records))
	fmt.Printf("- Model: %s\n", mode)
	fmt.Printf("- Output: %s\n", *out)
	if len(warnings) > 0 {
		fmt.Printf("%s\n", pipeline.WarningPrefix)
		for _, w := range warnings {
			fmt.Printf("- %s\n", w)
		}
	}
}
