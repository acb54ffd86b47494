package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

type WatchConfig struct {
	Roots       []string // directories to watch (recursive)
	AllowedExts map[string]struct{}
	InitialScan bool          // if true, walk roots and emit existing files
	Debounce    time.Duration // coalesce rapid update/rename bursts
	Logger      *slog.Logger
}

// StartWatcher emits the path of every allowed file created or rewritten
// under the roots. Both channels close when ctx is done.
func StartWatcher(ctx context.Context, cfg WatchConfig) (<-chan string, <-chan error, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		logger.Error("watcher.start.failed", "err", "no roots provided")
		return nil, nil, errors.New("no roots provided")
	}
	allowedExts := cfg.AllowedExts
	accept := func(path string) bool {
		if IsHidden(path) {
			return false
		}
		if allowedExts == nil {
			return AllowedExt(filepath.Ext(path))
		}
		return allowed(path, allowedExts)
	}

	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("watcher.create.failed", "err", err)
		return nil, nil, err
	}

	var initial []string
	addDir := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if path != root && IsHidden(path) {
					return filepath.SkipDir
				}
				return w.Add(path)
			}
			if cfg.InitialScan && accept(path) {
				initial = append(initial, path)
			}
			return nil
		})
	}
	for _, r := range cfg.Roots {
		if err := addDir(r); err != nil {
			logger.Error("watcher.root.failed", "root", r, "err", err)
			_ = w.Close()
			return nil, nil, err
		}
	}
	sort.Strings(initial)

	var mu sync.Mutex
	pending := map[string]struct{}{}

	// emit blocks until the consumer reads or ctx ends.
	emit := func(p string) bool {
		select {
		case evCh <- p:
			return true
		case <-ctx.Done():
			return false
		}
	}
	flush := func() {
		mu.Lock()
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		clear(pending)
		mu.Unlock()
		sort.Strings(paths)
		for _, p := range paths {
			// Files renamed away or deleted before the flush are dropped.
			if info, err := os.Stat(p); err != nil || info.IsDir() {
				continue
			}
			if !emit(p) {
				return
			}
		}
	}

	var flushing sync.WaitGroup
	go func() {
		defer func() {
			flushing.Wait()
			close(evCh)
			close(errCh)
			if err := w.Close(); err != nil {
				logger.Warn("watcher.close.failed", "err", err)
			}
		}()

		for _, p := range initial {
			select {
			case evCh <- p:
			case <-ctx.Done():
				return
			}
		}

		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				if timer != nil && timer.Stop() {
					flushing.Done()
				}
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Op&fsnotify.Create == fsnotify.Create {
					tryAddDir(w, e.Name, logger)
				}
				if !accept(e.Name) || e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				mu.Lock()
				pending[e.Name] = struct{}{}
				mu.Unlock()
				if cfg.Debounce <= 0 {
					flush()
					continue
				}
				if timer != nil && timer.Stop() {
					flushing.Done()
				}
				flushing.Add(1)
				timer = time.AfterFunc(cfg.Debounce, func() {
					defer flushing.Done()
					flush()
				})
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher.error", "err", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

func allowed(path string, exts map[string]struct{}) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	_, ok := exts[ext]
	return ok
}

// tryAddDir starts watching path when it is a new directory.
func tryAddDir(w *fsnotify.Watcher, path string, logger *slog.Logger) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || IsHidden(path) {
		return
	}
	if err := w.Add(path); err != nil {
		logger.Warn("watcher.add_dir.failed", "path", path, "err", err)
	}
}
