package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/izabele-1801/agiliza-backend/internal/async"
	"github.com/izabele-1801/agiliza-backend/internal/common"
	"github.com/izabele-1801/agiliza-backend/internal/ingest"
)

// Run watches cfg.Inbox and feeds every new file through the converter
// with cfg.Workers workers, until ctx is done. Queued jobs are drained
// before it returns.
func Run(ctx context.Context, cfg common.WatchConfig, conv *Converter, logger *slog.Logger, opts ...async.Option) error {
	if logger == nil {
		logger = slog.Default()
	}
	if insideInbox(cfg.Inbox, conv.Outbox) {
		return common.NewAppError("CONFIG_ERROR", "watch.outbox must not be inside watch.inbox", common.ErrInvalidInput)
	}
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.Inbox},
		InitialScan: true,
		Debounce:    cfg.Debounce,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	opts = append([]async.Option{
		async.WithWorkers(cfg.Workers),
		async.WithProcessTimeout(cfg.ProcessTimeout),
	}, opts...)
	q := async.NewWorkerQueue(conv.Handle, logger, opts...)
	logger.Info("watch.started", "inbox", cfg.Inbox, "outbox", conv.Outbox, "workers", cfg.Workers, "mode", string(conv.Mode))

	for events != nil || errs != nil {
		select {
		case p, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if err := q.Enqueue(ctx, async.Job{Path: p}); err != nil {
				logger.Warn("watch.enqueue.failed", "path", p, "err", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watch.watcher.error", "err", err)
		}
	}

	// ctx is already done here; give the queue a fresh one to drain.
	q.Shutdown(context.Background())
	processed, failed := q.Stats()
	logger.Info("watch.stopped", "processed", processed, "failed", failed)
	return nil
}

func insideInbox(inbox, outbox string) bool {
	in, err1 := filepath.Abs(inbox)
	out, err2 := filepath.Abs(outbox)
	if err1 != nil || err2 != nil {
		return false
	}
	rel, err := filepath.Rel(in, out)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
