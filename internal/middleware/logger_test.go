package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/dm-backend/internal/reqctx"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestRequestLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	e := echo.New()
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: func() string { return "rid-1" }}))
	e.Use(RequestLogger(logger))

	var seen string
	e.GET("/ok", func(c echo.Context) error {
		seen = reqctx.RID(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusInternalServerError, "boom")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if seen != "rid-1" {
		t.Fatalf("rid in context=%q", seen)
	}
	entry := hook.LastEntry()
	if entry.Level != logrus.InfoLevel || entry.Data["request_id"] != "rid-1" || entry.Data["status"] != http.StatusOK {
		t.Fatalf("unexpected entry: %+v", entry.Data)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rec.Code)
	}
	if hook.LastEntry().Level != logrus.ErrorLevel {
		t.Fatalf("level=%v", hook.LastEntry().Level)
	}
}
