// Package watch converts files dropped into an inbox directory into order
// workbooks written to an outbox.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/izabele-1801/agiliza-backend/internal/async"
	"github.com/izabele-1801/agiliza-backend/internal/common"
	"github.com/izabele-1801/agiliza-backend/internal/export"
	"github.com/izabele-1801/agiliza-backend/internal/ingest"
	"github.com/izabele-1801/agiliza-backend/internal/pipeline"
)

// DoneDir and FailedDir receive the source files once handled. Both are
// hidden so the watcher ignores them.
const (
	DoneDir   = ".done"
	FailedDir = ".failed"
)

// Converter handles one inbox file per job.
type Converter struct {
	Inbox  string
	Outbox string
	Mode   export.Mode

	loader    ingest.Ingestor
	processor *pipeline.Processor
	exporter  *export.Service
	logger    *slog.Logger
}

func NewConverter(inbox, outbox string, mode export.Mode, loader ingest.Ingestor,
	proc *pipeline.Processor, exporter *export.Service, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{
		Inbox:     inbox,
		Outbox:    outbox,
		Mode:      mode,
		loader:    loader,
		processor: proc,
		exporter:  exporter,
		logger:    logger,
	}
}

// Handle converts job.Path into "<outbox>/<name>.xlsx". A failure writes
// "<outbox>/<name>.erro.txt" with the user-facing reason instead. The source
// is then moved under the inbox's done or failed directory.
func (c *Converter) Handle(ctx context.Context, job async.Job) error {
	if job.TraceID == "" {
		job.TraceID = uuid.NewString()
	}
	ctx = common.WithBatchID(ctx, job.TraceID)
	name := filepath.Base(job.Path)
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	err := c.convert(ctx, job.Path, stem)
	if err != nil {
		msg := pipeline.Warning(name, err) + "\n"
		if werr := writeAtomic(filepath.Join(c.Outbox, stem+".erro.txt"), []byte(msg)); werr != nil {
			c.logger.Error("watch.report.failed", "path", job.Path, "err", werr)
		}
		c.archive(job.Path, FailedDir)
		return err
	}
	c.archive(job.Path, DoneDir)
	return nil
}

func (c *Converter) convert(ctx context.Context, path, stem string) error {
	start := time.Now()
	doc, _, err := c.loader.LoadPath(ctx, path)
	if err != nil {
		return err
	}
	res, err := c.processor.ProcessDocument(ctx, doc)
	if err != nil {
		return err
	}
	data, err := c.exporter.WriteXLSX(ctx, res.Records, c.Mode)
	if err != nil {
		return err
	}
	out := filepath.Join(c.Outbox, stem+".xlsx")
	if err := writeAtomic(out, data); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	c.logger.Info("watch.file.ok",
		"path", path,
		"out", out,
		"strategy", res.Strategy,
		"records", len(res.Records),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// archive moves a handled source out of the watched tree's visible part.
func (c *Converter) archive(path, dir string) {
	if c.Inbox == "" {
		return
	}
	dest := filepath.Join(c.Inbox, dir)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		c.logger.Warn("watch.archive.failed", "path", path, "err", err)
		return
	}
	target := filepath.Join(dest, time.Now().UTC().Format("20060102T150405")+"_"+filepath.Base(path))
	if err := os.Rename(path, target); err != nil {
		c.logger.Warn("watch.archive.failed", "path", path, "err", err)
	}
}

// writeAtomic writes through a temporary file so readers of the outbox never
// see a partial workbook.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
