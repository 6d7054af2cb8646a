package versoserver

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/verso-proxy/verso/internal/logx"
	"github.com/verso-proxy/verso/pkg/gateway"
)

type contextFieldSpec struct {
	ctxKey string
	logKey string
}

// Dispatch outcome fields pulled off the gin context into the access line.
var accessLogContextFieldSpecs = []contextFieldSpec{
	{ctxKey: gateway.CtxKeyVersion, logKey: "version"},
	{ctxKey: gateway.CtxKeyResponseType, logKey: "response_type"},
	{ctxKey: gateway.CtxKeyOrigResponseType, logKey: "orig_response_type"},
	{ctxKey: gateway.CtxKeyRequestType, logKey: "request_type"},
	{ctxKey: gateway.CtxKeyContentType, logKey: "content_type"},
	{ctxKey: gateway.CtxKeyDispatchError, logKey: "dispatch_error"},
}

func requestIDMiddleware(headerKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(headerKey))
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(headerKey, id)
		c.Set(headerKey, id)
		c.Next()
	}
}

func requestLoggerWithColor(l *log.Logger, color bool, requestIDHeaderKey string) gin.HandlerFunc {
	if l == nil {
		l = log.New(os.Stdout, "", log.LstdFlags)
	}
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		fields := map[string]any{}
		if id := c.GetString(requestIDHeaderKey); strings.TrimSpace(id) != "" {
			fields["request_id"] = id
		}
		copyContextFieldsBySpec(c, fields, accessLogContextFieldSpecs)

		l.Println(logx.FormatRequestLineWithColor(time.Now(), status, latency, c.ClientIP(), c.Request.Method, path, fields, color))
	}
}

func copyContextFieldsBySpec(c *gin.Context, dst map[string]any, specs []contextFieldSpec) {
	for _, s := range specs {
		if v, ok := c.Get(s.ctxKey); ok {
			dst[s.logKey] = v
		}
	}
}
