package ingest

import (
	"context"
	"time"

	"github.com/izabele-1801/agiliza-backend/internal/entity"
)

// IngestionResult is the per-file load outcome.
type IngestionResult struct {
	SourcePath string
	HashHex    string
	FileExt    string
	Size       int64
	LoadedAt   time.Time
	Err        string
}

// DirStats summarizes a directory load.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Skipped   uint32
	Failed    uint32
}

// Ingestor turns filesystem paths into documents ready for the processor.
type Ingestor interface {
	// LoadPath reads a single file.
	LoadPath(ctx context.Context, path string) (entity.RawDocument, IngestionResult, error)
	// LoadDirectory reads every matching file under root, in lexical order.
	LoadDirectory(ctx context.Context, root string, skipHidden bool) ([]entity.RawDocument, []IngestionResult, DirStats, error)
}
