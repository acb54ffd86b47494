// Package pipeline routes a document to its decoder, builds the strategy
// chain for its kind and vendor profile, and runs it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/izabele-1801/agiliza-backend/constants"
	"github.com/izabele-1801/agiliza-backend/internal/assemble"
	"github.com/izabele-1801/agiliza-backend/internal/common"
	"github.com/izabele-1801/agiliza-backend/internal/entity"
	"github.com/izabele-1801/agiliza-backend/internal/ocr"
	"github.com/izabele-1801/agiliza-backend/internal/pdfdoc"
	"github.com/izabele-1801/agiliza-backend/internal/strategy"
	"github.com/izabele-1801/agiliza-backend/internal/vendor"
)

// Outcomes reported to the Observer per file.
const (
	OutcomeOK          = "ok"
	OutcomeNoData      = "no_data"
	OutcomeUnsupported = "unsupported"
	OutcomeTooLarge    = "too_large"
	OutcomeMalformed   = "malformed"
	OutcomeError       = "error"
)

// Config holds the engine tuning the processor needs.
type Config struct {
	MaxFileSize     int     // bytes; 0 means constants.MaxFileSize
	RowTolerancePx  float64 // image row bucket size
	SimilarityFloor float64 // column mapper floor
	MaxQuantity     int
}

// ConfigFrom adapts the application engine settings.
func ConfigFrom(e common.EngineConfig) Config {
	return Config{
		MaxFileSize:     e.MaxFileSize(),
		RowTolerancePx:  e.RowTolerancePx,
		SimilarityFloor: e.SimilarityFloor,
		MaxQuantity:     e.MaxQuantity,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = constants.MaxFileSize
	}
	if c.SimilarityFloor <= 0 {
		c.SimilarityFloor = 0.6
	}
	if c.MaxQuantity <= 0 {
		c.MaxQuantity = assemble.DefaultMaxQuantity
	}
	return c
}

// DocumentResult is the outcome of one document.
type DocumentResult struct {
	File      string                   `json:"file"`
	Kind      constants.Kind           `json:"kind"`
	Vendor    string                   `json:"vendor"`
	Profile   string                   `json:"profile"`
	Strategy  string                   `json:"strategy,omitempty"`
	Records   []entity.CanonicalRecord `json:"records"`
	Stats     assemble.Stats           `json:"stats"`
	Attempts  []strategy.Attempt       `json:"attempts,omitempty"`
	ElapsedMS int64                    `json:"elapsed_ms"`
}

// Processor coordinates decoding then extraction for one document at a time.
type Processor struct {
	Logger   *slog.Logger
	cfg      Config
	registry *vendor.Registry
	pdf      *pdfdoc.Reader
	ocr      *ocr.Handle
	observer Observer
}

// Option configures a Processor.
type Option func(*Processor)

// WithRegistry replaces the embedded vendor profiles.
func WithRegistry(r *vendor.Registry) Option {
	return func(p *Processor) { p.registry = r }
}

// WithOCR installs the shared OCR handle. Without one, images fail and
// scanned PDFs yield no data.
func WithOCR(h *ocr.Handle) Option {
	return func(p *Processor) { p.ocr = h }
}

// WithObserver installs a metrics observer.
func WithObserver(o Observer) Option {
	return func(p *Processor) {
		if o != nil {
			p.observer = o
		}
	}
}

func NewProcessor(logger *slog.Logger, cfg Config, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		Logger:   logger,
		cfg:      cfg.withDefaults(),
		pdf:      pdfdoc.NewReader(logger),
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.registry == nil {
		p.registry = vendor.Default()
	}
	return p
}

// Registry exposes the vendor profiles in use.
func (p *Processor) Registry() *vendor.Registry {
	return p.registry
}

// ProcessDocument extracts the canonical records of one document. The
// error is an AppError wrapping one of the engine sentinels.
func (p *Processor) ProcessDocument(ctx context.Context, doc entity.RawDocument) (DocumentResult, error) {
	start := time.Now()
	res := DocumentResult{File: doc.Filename, Kind: doc.Kind}
	logger := p.loggerFor(ctx)

	err := p.process(ctx, doc, &res, logger)
	res.ElapsedMS = time.Since(start).Milliseconds()
	outcome := outcomeOf(err)
	p.observer.FileProcessed(doc.Kind, outcome, time.Since(start))

	if err != nil {
		logger.Warn("processor.document.failed",
			"file", doc.Filename, "kind", doc.Kind, "vendor", res.Vendor,
			"outcome", outcome, "elapsed_ms", res.ElapsedMS, "err", err)
		return res, err
	}
	p.observer.RecordsEmitted(res.Strategy, len(res.Records))
	logger.Info("processor.document.ok",
		"file", doc.Filename,
		"kind", doc.Kind,
		"vendor", res.Vendor,
		"profile", res.Profile,
		"strategy", res.Strategy,
		"records", len(res.Records),
		"rejected", res.Stats.Rejected,
		"elapsed_ms", res.ElapsedMS,
	)
	return res, nil
}

// loggerFor tags the processor's logger with the request and batch ids
// carried by ctx.
func (p *Processor) loggerFor(ctx context.Context) *slog.Logger {
	logger := p.Logger
	if id := common.RequestIDFromContext(ctx); id != "" {
		logger = logger.With("request_id", id)
	}
	if id := common.BatchIDFromContext(ctx); id != "" {
		logger = logger.With("batch_id", id)
	}
	return logger
}

func (p *Processor) process(ctx context.Context, doc entity.RawDocument, res *DocumentResult, logger *slog.Logger) error {
	if doc.Kind == "" {
		return common.NewAppError("UNSUPPORTED_FORMAT",
			fmt.Sprintf("extension %q is not supported", doc.FileExt), common.ErrUnsupportedFormat)
	}
	if doc.Size() > p.cfg.MaxFileSize {
		return common.NewAppError("FILE_TOO_LARGE",
			fmt.Sprintf("%d bytes exceeds the %d byte limit", doc.Size(), p.cfg.MaxFileSize), common.ErrTooLarge)
	}
	if doc.Size() == 0 {
		return common.NewAppError("EMPTY_FILE", "file is empty", common.ErrMalformed)
	}

	res.Vendor = doc.VendorHint
	if res.Vendor == "" {
		res.Vendor = p.registry.DetectVendor(doc.Filename)
	}
	prof := p.registry.Resolve(res.Vendor, doc.FileExt)
	res.Profile = prof.Name

	src, err := p.decode(ctx, doc, prof)
	if err != nil {
		return common.NewAppError("DECODE_FAILED", "could not read the file", err)
	}

	chain := strategy.NewChain(p.steps(doc, prof),
		strategy.WithLogger(logger),
		strategy.WithObserver(p.observer.StrategyAttempt),
	)
	out, err := chain.Run(ctx, src)
	res.Attempts = out.Attempts
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return common.NewAppError("NO_DATA", "no records extracted", err)
	}
	res.Strategy, res.Records, res.Stats = out.Strategy, out.Records, out.Stats
	return nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, common.ErrUnsupportedFormat):
		return OutcomeUnsupported
	case errors.Is(err, common.ErrTooLarge):
		return OutcomeTooLarge
	case errors.Is(err, common.ErrMalformed):
		return OutcomeMalformed
	case errors.Is(err, common.ErrNoData):
		return OutcomeNoData
	default:
		return OutcomeError
	}
}
