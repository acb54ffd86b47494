package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/izabele-1801/agiliza-backend/internal/common"
	"github.com/izabele-1801/agiliza-backend/internal/entity"
)

// WarningPrefix opens the partial-success warning.
const WarningPrefix = "Arquivos não processados: "

// BatchResult concatenates the records of every processed file, in upload
// order, plus one warning per file that failed.
type BatchResult struct {
	ID        uuid.UUID                `json:"id"`
	Records   []entity.CanonicalRecord `json:"records"`
	Documents []DocumentResult         `json:"documents"`
	Warnings  []string                 `json:"warnings,omitempty"`
	ElapsedMS int64                    `json:"elapsed_ms"`
}

// Warning renders the partial-success message, empty when every file
// was processed.
func (b BatchResult) Warning() string {
	if len(b.Warnings) == 0 {
		return ""
	}
	return WarningPrefix + strings.Join(b.Warnings, "; ")
}

// ProcessBatch runs the documents one after the other. A failing file only
// adds a warning; the batch fails when no file produced records.
func (p *Processor) ProcessBatch(ctx context.Context, docs []entity.RawDocument) (BatchResult, error) {
	start := time.Now()
	res := BatchResult{ID: uuid.New()}
	if id := common.BatchIDFromContext(ctx); id != "" {
		if parsed, err := uuid.Parse(id); err == nil {
			res.ID = parsed
		}
	}
	ctx = common.WithBatchID(ctx, res.ID.String())
	if len(docs) == 0 {
		return res, common.NewAppError("NO_FILES", "Nenhum arquivo enviado", common.ErrInvalidInput)
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		dr, err := p.ProcessDocument(ctx, doc)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Warnings = append(res.Warnings, Warning(doc.Filename, err))
			continue
		}
		res.Documents = append(res.Documents, dr)
		res.Records = append(res.Records, dr.Records...)
	}
	res.ElapsedMS = time.Since(start).Milliseconds()

	p.loggerFor(ctx).Info("processor.batch.done",
		"files", len(docs),
		"processed", len(res.Documents),
		"failed", len(res.Warnings),
		"records", len(res.Records),
		"elapsed_ms", res.ElapsedMS,
	)
	if len(res.Documents) == 0 {
		msg := "Nenhum arquivo foi processado com sucesso"
		if len(res.Warnings) > 0 {
			msg += ": " + strings.Join(res.Warnings, "; ")
		}
		return res, common.NewAppError("NO_FILE_PROCESSED", msg, common.ErrNoData)
	}
	return res, nil
}

// Warning renders a per-file failure as "<file>: <reason>".
func Warning(filename string, err error) string {
	return fmt.Sprintf("%s: %s", filename, reason(err))
}

func reason(err error) string {
	switch {
	case errors.Is(err, common.ErrUnsupportedFormat):
		return "Formato não suportado"
	case errors.Is(err, common.ErrTooLarge):
		return "Arquivo muito grande"
	case errors.Is(err, common.ErrMalformed):
		return "Arquivo ilegível ou corrompido"
	case errors.Is(err, common.ErrNoData):
		return "Nenhum dado extraído"
	default:
		return err.Error()
	}
}
