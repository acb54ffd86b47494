package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/izabele-1801/agiliza-backend/constants"
	"github.com/izabele-1801/agiliza-backend/internal/entity"
)

// LoadDirectory walks root, skips hidden entries if requested, and loads
// each file with an allowed extension. Unreadable files are reported in the
// results and do not stop the walk.
func (i *FSIngestor) LoadDirectory(
	ctx context.Context,
	root string,
	skipHidden bool,
) ([]entity.RawDocument, []IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, nil, DirStats{}, errors.New("root path is required")
	}

	var docs []entity.RawDocument
	var results []IngestionResult
	var stats DirStats

	// WalkDir visits entries in lexical order, which keeps batch output stable.
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if path != root && skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			stats.Skipped++
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++
		if !AllowedExt(constants.NormalizeExt(filepath.Ext(path))) {
			stats.Skipped++
			return nil
		}
		stats.Matched++

		doc, r, err := i.LoadPath(ctx, path)
		if err != nil {
			r.Err = err.Error()
			results = append(results, r)
			stats.Failed++
			return nil
		}
		docs = append(docs, doc)
		results = append(results, r)
		stats.Succeeded++
		return nil
	})

	if err != nil {
		return docs, results, stats, fmt.Errorf("walk: %w", err)
	}
	i.Logger.Info("ingest.directory.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
	)
	return docs, results, stats, nil
}
