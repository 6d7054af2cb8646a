package versoserver

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/verso-proxy/verso/pkg/gateway"
)

func TestRequestLoggerFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	l := log.New(&buf, "", 0)

	r := gin.New()
	r.Use(requestIDMiddleware(requestIDHeader))
	r.Use(requestLoggerWithColor(l, false, requestIDHeader))
	r.GET("/v1/thing", func(c *gin.Context) {
		c.Set(gateway.CtxKeyVersion, "v1")
		c.Set(gateway.CtxKeyResponseType, "application/json")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/thing", nil)
	req.Header.Set(requestIDHeader, "req-1")
	r.ServeHTTP(w, req)

	line := buf.String()
	for _, want := range []string{
		"GET /v1/thing",
		"request_id=req-1",
		"version=v1",
		"response_type=application/json",
		" 200 ",
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("access line missing %q:\n%s", want, line)
		}
	}
}

func TestRequestLoggerKeepsOriginalPath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	l := log.New(&buf, "", 0)

	r := gin.New()
	r.Use(requestLoggerWithColor(l, false, requestIDHeader))
	r.GET("/v1/thing", func(c *gin.Context) {
		// Dispatch rewrites the path before forwarding; the access line
		// must keep the path as received.
		c.Request.URL.Path = "/thing"
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/thing", nil))

	if !strings.Contains(buf.String(), "GET /v1/thing") {
		t.Fatalf("access line must log the original path:\n%s", buf.String())
	}
}

func TestRequestLoggerNilLoggerDefaultsToStdout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(requestLoggerWithColor(nil, false, requestIDHeader))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("status got=%d", w.Code)
	}
}
