// Package gateway implements the per-request dispatch pipeline: three
// negotiation stages over a write-once Result, application resolution through
// the alias and version tables, header rewriting and metadata attachment, and
// the forward to the winning backend.
//
// All per-request state is local to the request; the Gateway itself only reads
// the immutable rule tables and is safe for concurrent use.
package gateway

import (
	"log"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/verso-proxy/verso/pkg/mediatype"
	"github.com/verso-proxy/verso/pkg/ruleset"
)

// Gateway dispatches requests according to a loaded rule set.
type Gateway struct {
	rules  *ruleset.Rules
	logger *log.Logger

	// typeNames and suffixes are precomputed deterministic scan orders over
	// the type and format tables.
	typeNames []string
	suffixes  []string
}

// New builds a Gateway over an immutable rule set. The logger receives
// per-request dispatch failures; nil means stderr.
func New(rules *ruleset.Rules, logger *log.Logger) *Gateway {
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	g := &Gateway{rules: rules, logger: logger}

	g.typeNames = make([]string, 0, len(rules.Types))
	for name := range rules.Types {
		g.typeNames = append(g.typeNames, name)
	}
	sort.Strings(g.typeNames)

	g.suffixes = make([]string, 0, len(rules.Formats))
	for suffix := range rules.Formats {
		g.suffixes = append(g.suffixes, suffix)
	}
	// Longest suffix first so ".tar.gz" wins over ".gz".
	sort.Slice(g.suffixes, func(i, j int) bool {
		if len(g.suffixes[i]) != len(g.suffixes[j]) {
			return len(g.suffixes[i]) > len(g.suffixes[j])
		}
		return g.suffixes[i] < g.suffixes[j]
	})
	return g
}

// Rules returns the rule set this gateway dispatches with.
func (g *Gateway) Rules() *ruleset.Rules { return g.rules }

// Handler returns the dispatch handler. It negotiates the version and content
// type, rewrites headers when enabled, attaches metadata and forwards to the
// resolved application; with no resolvable application the request fails with
// a configuration error and no backend is invoked.
func (g *Gateway) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		meta := &Metadata{Config: g.rules.Summary()}
		c.Set(CtxKeyConfig, meta.Config)

		res := g.process(c, meta)
		app, version := g.resolveApp(res.Version)

		meta.Version = version
		c.Set(CtxKeyVersion, version)

		if res.CType != "" {
			meta.ResponseType = res.CType
			meta.OrigResponseType = res.OrigCType
			meta.Accept = c.GetHeader("Accept")
			c.Set(CtxKeyResponseType, meta.ResponseType)
			c.Set(CtxKeyOrigResponseType, meta.OrigResponseType)
			c.Set(CtxKeyAccept, meta.Accept)
			if g.rules.OverwriteHeaders {
				c.Request.Header.Set("Accept", res.CType+";q=1.0")
			}
		}

		if app == nil {
			g.logger.Printf("no application for version %q and no fallback configured: path=%q",
				res.Version, c.Request.URL.Path)
			c.Set(CtxKeyDispatchError, "unresolved")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"message": "no application configured for this request",
					"type":    "configuration_error",
				},
			})
			return
		}

		req := c.Request.WithContext(NewContext(c.Request.Context(), meta))
		if version != "" {
			req.Header.Set(VersionHeader, version)
		}
		app.ServeHTTP(c.Writer, req)
	}
}

// process runs the three negotiation stages. Each stage is skipped entirely
// once the result is fully determined.
func (g *Gateway) process(c *gin.Context, meta *Metadata) *Result {
	res := &Result{}
	g.procURI(c, res)
	g.procCTypeHeader(c, res, meta)
	g.procAcceptHeader(c, res)
	return res
}

// procURI derives version and content type from the request path: the
// longest-prefix routing entry sets the version and is stripped from the
// path, then a matching suffix sets the content type and is stripped as well.
func (g *Gateway) procURI(c *gin.Context, res *Result) {
	if res.Complete() {
		return
	}
	path := c.Request.URL.Path

	for _, m := range g.rules.URIs {
		if path != m.Prefix && !strings.HasPrefix(path, m.Prefix+"/") {
			continue
		}
		res.SetVersion(m.Version)
		path = path[len(m.Prefix):]
		if path == "" {
			path = "/"
		}
		break
	}

	for _, suffix := range g.suffixes {
		if !strings.HasSuffix(path, suffix) {
			continue
		}
		res.SetCType(g.rules.Formats[suffix], "")
		path = strings.TrimSuffix(path, suffix)
		if path == "" {
			path = "/"
		}
		break
	}

	c.Request.URL.Path = path
}

// procCTypeHeader evaluates the type rule for the request's Content-Type
// header. A rule-produced content type rewrites the header when rewriting is
// enabled; the decision metadata is exposed either way. A rule-produced
// version participates in the result (first-write).
func (g *Gateway) procCTypeHeader(c *gin.Context, res *Result, meta *Metadata) {
	if res.Complete() {
		return
	}
	raw := c.GetHeader("Content-Type")
	if raw == "" {
		return
	}
	name, params := mediatype.ParseCType(raw)
	rule, ok := g.rules.Types[name]
	if !ok {
		return
	}
	out := rule.Apply(params)
	if out.CType != "" {
		if g.rules.OverwriteHeaders {
			c.Request.Header.Set("Content-Type", out.CType)
		}
		meta.RequestType = out.CType
		meta.OrigRequestType = name
		meta.ContentType = raw
		c.Set(CtxKeyRequestType, out.CType)
		c.Set(CtxKeyOrigRequestType, name)
		c.Set(CtxKeyContentType, raw)
	}
	if out.Version != "" {
		res.SetVersion(out.Version)
	}
}

// procAcceptHeader best-matches the Accept header against the configured type
// names and applies the winning rule to fill whatever the earlier stages left
// undetermined.
func (g *Gateway) procAcceptHeader(c *gin.Context, res *Result) {
	if res.Complete() {
		return
	}
	accept := c.GetHeader("Accept")
	if accept == "" {
		return
	}
	name, params := mediatype.BestMatch(accept, g.typeNames)
	rule, ok := g.rules.Types[name]
	if !ok {
		return
	}
	out := rule.Apply(params)
	if out.CType != "" {
		res.SetCType(out.CType, name)
	}
	if out.Version != "" {
		res.SetVersion(out.Version)
	}
}

// resolveApp maps the negotiated version, through the alias table, to its
// application. It returns the fallback application and an empty version when
// no specific application is registered.
func (g *Gateway) resolveApp(version string) (http.Handler, string) {
	if canonical, ok := g.rules.Aliases[version]; ok {
		version = canonical
	}
	if app, ok := g.rules.Versions[version]; ok {
		return app, version
	}
	return g.rules.FallbackApp, ""
}
