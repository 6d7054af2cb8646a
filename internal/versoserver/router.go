package versoserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/verso-proxy/verso/internal/metrics"
	"github.com/verso-proxy/verso/pkg/config"
)

const requestIDHeader = "X-Verso-Request-Id"

// NewRouter builds the gin engine. Operational endpoints are registered as
// routes; everything else falls through to the dispatch gateway via NoRoute.
func NewRouter(cfg *config.Config, st *state, mets *metrics.Metrics, accessLogger *log.Logger, accessColor bool) *gin.Engine {
	r := gin.New()
	r.Use(requestIDMiddleware(requestIDHeader))
	if cfg.Logging.AccessLog {
		r.Use(requestLoggerWithColor(accessLogger, accessColor, requestIDHeader))
	}
	r.Use(gin.Recovery())
	if mets != nil {
		r.Use(mets.Middleware())
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "started_at": st.StartedAtUnix()})
	})
	r.GET("/admin/rules", func(c *gin.Context) {
		c.JSON(http.StatusOK, st.Gateway().Rules().Summary())
	})
	if mets != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(mets.Handler()))
	}

	// The gateway is fetched per request so reloads take effect without
	// rebuilding the engine.
	r.NoRoute(func(c *gin.Context) {
		st.Gateway().Handler()(c)
	})

	return r
}
