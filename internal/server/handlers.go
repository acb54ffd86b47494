package server

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/izabele-1801/agiliza-backend/constants"
	"github.com/izabele-1801/agiliza-backend/internal/common"
	"github.com/izabele-1801/agiliza-backend/internal/entity"
	"github.com/izabele-1801/agiliza-backend/internal/export"
	"github.com/izabele-1801/agiliza-backend/internal/pipeline"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleInfo(c *fiber.Ctx) error {
	modes := make([]string, 0, len(export.Modes))
	for _, m := range export.Modes {
		modes = append(modes, string(m))
	}
	return c.JSON(fiber.Map{
		"version":          Version,
		"extensions":       constants.SortedExtensions(),
		"fields":           constants.FieldsAsStringSlice(),
		"modes":            modes,
		"default_mode":     string(s.defaultMode()),
		"vendors":          s.processor.Registry().Names(),
		"max_file_size_mb": s.cfg.Engine.MaxFileSizeMB,
		"ocr":              s.ocr.Enabled(),
		"uptime_seconds":   int64(time.Since(s.started).Seconds()),
	})
}

func (s *Server) defaultMode() export.Mode {
	return export.ParseMode(s.cfg.Engine.DefaultMode)
}

// handleUpload converts the uploaded files into one order workbook. Files
// that fail are reported in the warning header; the request fails only when
// none could be converted.
func (s *Server) handleUpload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return common.BadRequestError("Nenhum arquivo enviado")
	}
	headers := form.File["files"]
	headers = append(headers, form.File["files[]"]...)

	mode := s.defaultMode()
	if v := form.Value["model"]; len(v) > 0 && v[0] != "" {
		mode = export.ParseMode(v[0])
	}

	docs, err := s.readUploads(headers, form.Value["vendor"])
	if err != nil {
		return err
	}
	res, err := s.runBatch(c, docs)
	if err != nil {
		return err
	}

	data, err := s.exporter.WriteXLSX(c.UserContext(), res.Records, mode)
	if err != nil {
		return common.NewAppError("EXPORT_FAILED", "could not write the workbook", err)
	}
	if w := res.Warning(); w != "" {
		c.Set(WarningHeader, url.QueryEscape(w))
	}
	c.Set(fiber.HeaderContentType, export.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, s.exporter.Filename()))
	return c.Send(data)
}

type extractFile struct {
	Filename string `json:"filename"`
	Content  string `json:"content"` // base64
	Vendor   string `json:"vendor,omitempty"`
}

type extractRequest struct {
	Files []extractFile `json:"files"`
}

// handleExtract runs the engine over base64 payloads and answers with the
// records and the strategy trace instead of a workbook.
func (s *Server) handleExtract(c *fiber.Ctx) error {
	var req extractRequest
	if err := c.BodyParser(&req); err != nil {
		return common.BadRequestError("invalid request body")
	}
	vendors := s.processor.Registry().Names()
	docs := make([]entity.RawDocument, 0, len(req.Files))
	for i, f := range req.Files {
		content, err := base64.StdEncoding.DecodeString(f.Content)
		if err != nil {
			return common.BadRequestErrorf("files[%d].content must be base64", i)
		}
		vendorHint := strings.ToUpper(strings.TrimSpace(f.Vendor))
		v := common.NewValidator().
			Field(fmt.Sprintf("files[%d].filename", i), f.Filename, common.Required, common.MaxLength(255)).
			Field(fmt.Sprintf("files[%d].content", i), content, common.Required, common.MaxBytes(s.cfg.Engine.MaxFileSize()))
		if vendorHint != "" {
			v.Field(fmt.Sprintf("files[%d].vendor", i), vendorHint, common.OneOf(vendors...))
		}
		if err := common.ValidateAndReturnError(v); err != nil {
			return err
		}
		doc := entity.NewRawDocument(f.Filename, content)
		doc.VendorHint = vendorHint
		docs = append(docs, doc)
	}

	res, err := s.runBatch(c, docs)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (s *Server) readUploads(headers []*multipart.FileHeader, vendors []string) ([]entity.RawDocument, error) {
	limit := s.cfg.Engine.MaxFileSize()
	docs := make([]entity.RawDocument, 0, len(headers))
	for i, h := range headers {
		if h.Filename == "" {
			continue
		}
		content, err := readPart(h, limit)
		if err != nil {
			return nil, common.NewAppError("UPLOAD_FAILED", "could not read "+h.Filename, err)
		}
		doc := entity.NewRawDocument(h.Filename, content)
		if i < len(vendors) {
			doc.VendorHint = vendors[i]
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// readPart reads at most limit+1 bytes so the processor can still reject an
// oversized file by size without buffering all of it.
func readPart(h *multipart.FileHeader, limit int) ([]byte, error) {
	f, err := h.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if limit <= 0 {
		return io.ReadAll(f)
	}
	return io.ReadAll(io.LimitReader(f, int64(limit)+1))
}

func (s *Server) runBatch(c *fiber.Ctx, docs []entity.RawDocument) (pipeline.BatchResult, error) {
	batchID := uuid.NewString()
	ctx := common.WithBatchID(c.UserContext(), batchID)

	res, err := s.processor.ProcessBatch(ctx, docs)
	if len(docs) > 0 {
		s.metrics.RecordBatch(len(docs), len(res.Warnings))
	}
	s.logger.Info("upload.batch",
		zap.String("request_id", requestID(c)),
		zap.String("batch_id", batchID),
		zap.Int("files", len(docs)),
		zap.Int("records", len(res.Records)),
		zap.Int("failed", len(res.Warnings)),
		zap.Error(err),
	)
	return res, err
}
