// Package ocr turns images and scanned PDF pages into positioned words. A
// single engine handle is shared by the whole process: it is created on
// first use and calls into it are serialised.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/izabele-1801/agiliza-backend/internal/common"
	"github.com/izabele-1801/agiliza-backend/internal/entity"
)

// Engine names accepted in Config.Engine.
const (
	EngineTesseract = "tesseract"
	EngineGosseract = "gosseract"
	EngineNone      = "none"
)

// ErrDisabled is returned when OCR is configured off.
var ErrDisabled = errors.New("ocr engine disabled")

type Config struct {
	Engine      string // tesseract | gosseract | none; empty -> tesseract
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	Pdftoppm    string // binary name or absolute path; if empty -> "pdftoppm"
	Lang        string // default "por"
	TessdataDir string

	PSM      int // 6 is a uniform block of text
	DPI      int // rasterization DPI for scanned PDFs, default 300
	MaxPages int // 0 = no limit

	// MaxConcurrent bounds calls into the engine; default 1.
	MaxConcurrent int
	// MinConfidence drops words below this confidence, 0..1.
	MinConfidence float64
}

// ConfigFrom adapts the application OCR settings.
func ConfigFrom(c common.OCRConfig) Config {
	return Config{
		Engine:        c.Engine,
		Tesseract:     c.Tesseract,
		Pdftoppm:      c.Pdftoppm,
		Lang:          c.Lang,
		TessdataDir:   c.TessdataDir,
		PSM:           c.PSM,
		DPI:           c.DPI,
		MaxPages:      c.MaxPages,
		MaxConcurrent: c.MaxConcurrent,
	}
}

func (c Config) withDefaults() Config {
	if c.Engine == "" {
		c.Engine = EngineTesseract
	}
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.Pdftoppm == "" {
		c.Pdftoppm = "pdftoppm"
	}
	if c.Lang == "" {
		c.Lang = "por"
	}
	if c.PSM <= 0 {
		c.PSM = 6
	}
	if c.DPI <= 0 {
		c.DPI = 300
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 1
	}
	return c
}

// Engine recognizes the words of one image.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, image []byte) (entity.Page, error)
	Close() error
}

// Factory builds the engine on first use.
type Factory func(cfg Config, runner Runner, logger *slog.Logger) (Engine, error)

// Handle is the shared engine handle.
type Handle struct {
	cfg     Config
	runner  Runner
	factory Factory
	logger  *slog.Logger

	mu     sync.Mutex
	ready  atomic.Bool
	engine Engine

	sem *semaphore.Weighted
}

// Option configures a Handle.
type Option func(*Handle)

// WithRunner replaces the external command runner.
func WithRunner(r Runner) Option {
	return func(h *Handle) { h.runner = r }
}

// WithFactory replaces the engine constructor.
func WithFactory(f Factory) Option {
	return func(h *Handle) { h.factory = f }
}

// WithEngine installs a ready engine.
func WithEngine(e Engine) Option {
	return func(h *Handle) {
		h.factory = func(Config, Runner, *slog.Logger) (Engine, error) { return e, nil }
	}
}

// NewHandle configures a handle. No engine is created until the first call.
func NewHandle(cfg Config, logger *slog.Logger, opts ...Option) *Handle {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	h := &Handle{
		cfg:     cfg,
		runner:  ExecRunner{Logger: logger},
		factory: defaultFactory,
		logger:  logger,
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Enabled reports whether an engine is configured.
func (h *Handle) Enabled() bool {
	return h != nil && h.cfg.Engine != EngineNone
}

func defaultFactory(cfg Config, runner Runner, logger *slog.Logger) (Engine, error) {
	switch cfg.Engine {
	case EngineTesseract:
		return NewTesseract(cfg, runner, logger), nil
	case EngineGosseract:
		return newGosseract(cfg)
	case EngineNone:
		return nil, ErrDisabled
	default:
		return nil, fmt.Errorf("unknown ocr engine %q", cfg.Engine)
	}
}

// load returns the engine, creating it once. A failed creation is retried
// on the next call.
func (h *Handle) load() (Engine, error) {
	if h.ready.Load() {
		return h.engine, nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ready.Load() {
		return h.engine, nil
	}
	if !h.Enabled() {
		return nil, ErrDisabled
	}
	e, err := h.factory(h.cfg, h.runner, h.logger)
	if err != nil {
		h.logger.Error("ocr.engine.init_failed", "engine", h.cfg.Engine, "error", err)
		return nil, err
	}
	h.engine = e
	h.ready.Store(true)
	h.logger.Info("ocr.engine.ready", "engine", e.Name(), "lang", h.cfg.Lang)
	return e, nil
}

// Recognize runs OCR on one image payload. The image is probed first so
// that page dimensions are known even when the engine does not report them.
func (h *Handle) Recognize(ctx context.Context, image []byte) (entity.Page, error) {
	info, err := Probe(image)
	if err != nil {
		return entity.Page{}, err
	}
	e, err := h.load()
	if err != nil {
		return entity.Page{}, err
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return entity.Page{}, err
	}
	start := time.Now()
	page, err := e.Recognize(ctx, image)
	h.sem.Release(1)
	if err != nil {
		return entity.Page{}, fmt.Errorf("%s: %w", e.Name(), err)
	}

	page.Unit = entity.UnitPixel
	if page.Width <= 0 {
		page.Width = float64(info.Width)
	}
	if page.Height <= 0 {
		page.Height = float64(info.Height)
	}
	page.Detections = filterConfidence(page.Detections, h.cfg.MinConfidence)
	h.logger.Debug("ocr.image.ok",
		"engine", e.Name(),
		"format", info.Format,
		"words", len(page.Detections),
		"confidence", MeanConfidence(page),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return page, nil
}

// RecognizePDF rasterizes a scanned PDF and runs OCR on every page.
// Pages that fail are logged and skipped.
func (h *Handle) RecognizePDF(ctx context.Context, pdf []byte) ([]entity.Page, error) {
	if !h.Enabled() {
		return nil, ErrDisabled
	}
	images, err := Rasterize(ctx, h.runner, h.cfg, pdf)
	if err != nil {
		return nil, err
	}
	pages := make([]entity.Page, 0, len(images))
	for i, img := range images {
		page, err := h.Recognize(ctx, img)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			h.logger.Warn("ocr.pdf.page_failed", "page", i+1, "error", err)
			continue
		}
		page.Number = i + 1
		pages = append(pages, page)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no page of %d could be recognized", len(images))
	}
	return pages, nil
}

// Close releases the engine, if one was created.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.ready.Load() {
		return nil
	}
	h.ready.Store(false)
	err := h.engine.Close()
	h.engine = nil
	return err
}

func filterConfidence(dets []entity.Detection, min float64) []entity.Detection {
	if min <= 0 {
		return dets
	}
	out := make([]entity.Detection, 0, len(dets))
	for _, d := range dets {
		if d.Confidence >= min {
			out = append(out, d)
		}
	}
	return out
}
