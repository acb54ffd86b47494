// Package server exposes the conversion engine over HTTP.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/izabele-1801/agiliza-backend/internal/common"
	"github.com/izabele-1801/agiliza-backend/internal/export"
	"github.com/izabele-1801/agiliza-backend/internal/metrics"
	"github.com/izabele-1801/agiliza-backend/internal/ocr"
	"github.com/izabele-1801/agiliza-backend/internal/pipeline"
)

// WarningHeader carries the partial-success message, URL-encoded.
const WarningHeader = "X-Agiliza-Warning"

// Version is reported by /api/health and /api/info.
var Version = "dev"

// Server handles the HTTP API.
type Server struct {
	app       *fiber.App
	cfg       *common.Config
	processor *pipeline.Processor
	exporter  *export.Service
	metrics   *metrics.Metrics
	ocr       *ocr.Handle
	logger    *zap.Logger
	started   time.Time
}

// Deps are the collaborators the server drives.
type Deps struct {
	Processor *pipeline.Processor
	Exporter  *export.Service
	Metrics   *metrics.Metrics
	OCR       *ocr.Handle
}

// New creates a new API server
func New(cfg *common.Config, deps Deps, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Exporter == nil {
		deps.Exporter = export.NewService(cfg.Export, nil)
	}
	if deps.Processor == nil {
		deps.Processor = pipeline.NewProcessor(nil, pipeline.ConfigFrom(cfg.Engine),
			pipeline.WithOCR(deps.OCR), pipeline.WithObserver(deps.Metrics))
	}

	bodyLimit := cfg.Server.BodyLimitMB << 20
	if bodyLimit <= 0 {
		bodyLimit = fiber.DefaultBodyLimit
	}
	app := fiber.New(fiber.Config{
		AppName:               "agiliza",
		BodyLimit:             bodyLimit,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           120 * time.Second,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
	})

	s := &Server{
		app:       app,
		cfg:       cfg,
		processor: deps.Processor,
		exporter:  deps.Exporter,
		metrics:   deps.Metrics,
		ocr:       deps.OCR,
		logger:    logger,
		started:   time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Use(recover.New())
	s.app.Use(s.requestContext())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins:  s.cfg.Server.AllowOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept",
		AllowMethods:  "GET, POST, OPTIONS",
		ExposeHeaders: "Content-Disposition, " + WarningHeader + ", " + RequestIDHeader,
	}))

	api := s.app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/info", s.handleInfo)
	api.Post("/upload", s.handleUpload)
	api.Post("/extract", s.handleExtract)

	s.app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
}

// App exposes the fiber application, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("server.listen", zap.String("addr", s.cfg.Server.Addr))
	return s.app.Listen(s.cfg.Server.Addr)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// errorHandler renders every error as {"detail": msg}, with the status the
// error chain maps to.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := common.StatusFromError(err)
		detail := err.Error()
		var appErr *common.AppError
		var fe *fiber.Error
		switch {
		case errors.As(err, &appErr):
			detail = appErr.Message
		case errors.As(err, &fe):
			detail = fe.Message
		}
		if status >= fiber.StatusInternalServerError {
			logger.Error("http.request.failed",
				zap.String("path", c.Path()),
				zap.String("request_id", requestID(c)),
				zap.Error(err))
			detail = "Erro interno ao processar a requisição"
		}
		return c.Status(status).JSON(fiber.Map{"detail": detail})
	}
}
