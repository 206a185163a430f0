package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMiddlewareThreadsRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base = zap.New(core)
	defer func() { base = nil }()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := Middleware()(func(c echo.Context) error {
		FromEcho(c).Info("inside handler")
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		t.Fatalf("middleware: %v", err)
	}

	requestID := rec.Header().Get(echo.HeaderXRequestID)
	if requestID == "" {
		t.Fatal("expected a generated request id header")
	}

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected handler line plus completion line, got %d entries", len(entries))
	}
	for _, entry := range entries {
		fields := entry.ContextMap()
		if fields["request_id"] != requestID {
			t.Fatalf("entry %q missing request id %q: %v", entry.Message, requestID, fields)
		}
	}
}

func TestMiddlewareKeepsClientRequestID(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	base = zap.New(core)
	defer func() { base = nil }()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(echo.HeaderXRequestID, "client-supplied")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := Middleware()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if got := rec.Header().Get(echo.HeaderXRequestID); got != "client-supplied" {
		t.Fatalf("expected client request id echoed back, got %q", got)
	}
}

func TestMiddlewareLevelsByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base = zap.New(core)
	defer func() { base = nil }()

	run := func(status int) zapcore.Level {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		err := Middleware()(func(c echo.Context) error {
			return c.NoContent(status)
		})(c)
		if err != nil {
			t.Fatalf("middleware: %v", err)
		}
		entries := logs.TakeAll()
		if len(entries) != 1 {
			t.Fatalf("expected one completion line, got %d", len(entries))
		}
		return entries[0].Level
	}

	if lvl := run(http.StatusOK); lvl != zapcore.InfoLevel {
		t.Fatalf("2xx should log info, got %v", lvl)
	}
	if lvl := run(http.StatusNotFound); lvl != zapcore.WarnLevel {
		t.Fatalf("4xx should log warn, got %v", lvl)
	}
	if lvl := run(http.StatusInternalServerError); lvl != zapcore.ErrorLevel {
		t.Fatalf("5xx should log error, got %v", lvl)
	}
}

func TestFromContextFallsBack(t *testing.T) {
	base = nil
	if FromContext(context.Background()) == nil {
		t.Fatal("expected a usable fallback logger")
	}

	core, logs := observer.New(zapcore.InfoLevel)
	scoped := zap.New(core)
	ctx := WithContext(context.Background(), scoped)
	FromContext(ctx).Info("scoped")
	if logs.Len() != 1 {
		t.Fatal("expected the stored logger to be returned")
	}
}
