package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/izabele-1801/agiliza-backend/constants"
	"github.com/izabele-1801/agiliza-backend/internal/common"
	"github.com/izabele-1801/agiliza-backend/internal/entity"
)

// FSIngestor reads from the local filesystem.
type FSIngestor struct {
	// MaxFileSize rejects larger files before reading them; 0 means
	// constants.MaxFileSize.
	MaxFileSize int64
	Logger      *slog.Logger
}

func NewFSIngestor(maxFileSize int64, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	if maxFileSize <= 0 {
		maxFileSize = constants.MaxFileSize
	}
	return &FSIngestor{MaxFileSize: maxFileSize, Logger: logger}
}

func (i *FSIngestor) LoadPath(ctx context.Context, path string) (entity.RawDocument, IngestionResult, error) {
	var doc entity.RawDocument
	out := IngestionResult{SourcePath: path}
	if err := ctx.Err(); err != nil {
		return doc, out, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return doc, out, err
	}
	out.SourcePath = abs

	ext := constants.NormalizeExt(filepath.Ext(abs))
	out.FileExt = ext
	if ext == "" || !AllowedExt(ext) {
		i.Logger.Debug("ingest.path.unsupported", "path", abs, "ext", ext)
		return doc, out, common.NewAppError("UNSUPPORTED_FORMAT",
			fmt.Sprintf("extension %q is not supported", ext), common.ErrUnsupportedFormat)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return doc, out, err
	}
	if info.IsDir() {
		return doc, out, common.NewAppError("INVALID_PATH", abs+" is a directory", common.ErrInvalidInput)
	}
	out.Size = info.Size()
	if info.Size() > i.MaxFileSize {
		return doc, out, common.NewAppError("FILE_TOO_LARGE",
			fmt.Sprintf("%d bytes exceeds the %d byte limit", info.Size(), i.MaxFileSize), common.ErrTooLarge)
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		i.Logger.Error("ingest.path.read_failed", "path", abs, "err", err)
		return doc, out, err
	}

	sum := sha256.Sum256(content)
	doc = entity.NewRawDocument(filepath.Base(abs), content)
	out.HashHex = hex.EncodeToString(sum[:])
	out.LoadedAt = time.Now().UTC()
	doc.UploadedAt = out.LoadedAt
	return doc, out, nil
}
