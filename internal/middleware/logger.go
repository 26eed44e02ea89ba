package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/dm-backend/internal/reqctx"
	"github.com/sirupsen/logrus"
)

// RequestLogger puts the request id and a scoped logger on the request context
// and logs one line per request. It must run after echo's RequestID middleware.
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = req.Header.Get(echo.HeaderXRequestID)
			}
			entry := log.WithField("request_id", rid)
			c.SetRequest(req.WithContext(reqctx.WithLogger(reqctx.WithRID(req.Context(), rid), entry)))

			if err := next(c); err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			fields := entry.WithFields(logrus.Fields{
				"method":     req.Method,
				"path":       c.Path(),
				"uri":        req.RequestURI,
				"status":     status,
				"latency_ms": time.Since(start).Milliseconds(),
			})
			switch {
			case status >= 500:
				fields.Error("request")
			case status >= 400:
				fields.Warn("request")
			default:
				fields.Info("request")
			}
			return nil
		}
	}
}
