package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/verso-proxy/verso/pkg/gateway"
)

func TestMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/thing", func(c *gin.Context) {
		c.Set(gateway.CtxKeyVersion, "v1")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/thing", nil))

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("v1", "200")); got != 1 {
		t.Fatalf("requests_total{v1,200} got=%v", got)
	}
	if got := testutil.ToFloat64(m.unresolvedTotal); got != 0 {
		t.Fatalf("unresolved_requests_total got=%v", got)
	}
}

func TestMiddlewareCountsUnresolved(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/thing", func(c *gin.Context) {
		c.Set(gateway.CtxKeyDispatchError, "unresolved")
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/thing", nil))

	if got := testutil.ToFloat64(m.unresolvedTotal); got != 1 {
		t.Fatalf("unresolved_requests_total got=%v", got)
	}
	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("none", "500")); got != 1 {
		t.Fatalf("requests_total{none,500} got=%v", got)
	}
}

func TestObserveReload(t *testing.T) {
	m := New()
	m.ObserveReload(nil)
	m.ObserveReload(errors.New("boom"))
	if got := testutil.ToFloat64(m.reloadsTotal.WithLabelValues("ok")); got != 1 {
		t.Fatalf("rule_reloads_total{ok} got=%v", got)
	}
	if got := testutil.ToFloat64(m.reloadsTotal.WithLabelValues("error")); got != 1 {
		t.Fatalf("rule_reloads_total{error} got=%v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.requestsTotal.WithLabelValues("v1", "200").Inc()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status got=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "verso_requests_total") {
		t.Fatalf("exposition missing verso_requests_total:\n%s", w.Body.String())
	}
}
