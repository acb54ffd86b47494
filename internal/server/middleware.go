package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/izabele-1801/agiliza-backend/internal/common"
)

// RequestIDHeader echoes the correlation id of every request.
const RequestIDHeader = "X-Request-ID"

const localRequestID = "request_id"

// requestContext assigns a correlation id, then logs and meters the request
// once the handler chain returns.
func (s *Server) requestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		id := c.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Locals(localRequestID, id)
		c.SetUserContext(common.WithRequestID(c.UserContext(), id))
		c.Set(RequestIDHeader, id)

		err := c.Next()
		if err != nil {
			// Let the error handler write the response so the status is final.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		route := c.Route().Path
		elapsed := time.Since(start)
		s.metrics.RecordRequest(c.Method(), route, status, elapsed)
		s.logger.Info("http.request",
			zap.String("request_id", id),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Int64("duration_ms", elapsed.Milliseconds()),
		)
		return nil
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(localRequestID).(string); ok {
		return id
	}
	return ""
}
