// Package ruleset builds the immutable negotiation tables from the flat
// key/value rule namespace:
//
//	version             fallback application
//	version.<V>         application serving version V
//	alias.<A>           alias A for a canonical version
//	uri.<P>             URI prefix P selects a version
//	type.<CT>           rule text (pkg/typerule) for inbound content type CT
//	.<SUFFIX>           path suffix maps to a content type
//	overwrite_headers   fuzzy boolean, default true
//
// Unknown keys are ignored. All tables are built single-threaded at load time
// and are read-only afterwards, so a loaded Rules value is safe for concurrent
// use without locking.
package ruleset

import (
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/verso-proxy/verso/pkg/typerule"
)

// Resolver turns a configured application name into a servable handler. It is
// injected by the host; the ruleset itself knows nothing about how backends
// are materialized.
type Resolver interface {
	App(name string) (http.Handler, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(name string) (http.Handler, error)

func (f ResolverFunc) App(name string) (http.Handler, error) { return f(name) }

// URIMapping is one routing-table entry: a normalized URI prefix selecting a
// version.
type URIMapping struct {
	Prefix  string
	Version string
}

// Rules holds the negotiation tables. Fields are populated once by Load and
// must not be mutated afterwards.
type Rules struct {
	// FallbackApp serves requests whose version resolves to no registered
	// application. May be nil.
	FallbackApp http.Handler
	// Versions maps canonical version names to their applications.
	Versions map[string]http.Handler
	// Aliases maps alias version names to canonical ones.
	Aliases map[string]string
	// URIs is ordered longest-normalized-prefix-first for linear scanning.
	URIs []URIMapping
	// Types maps inbound content-type names to their rules.
	Types map[string]typerule.TypeRule
	// Formats maps path suffixes (".json") to content types.
	Formats map[string]string
	// OverwriteHeaders controls whether negotiation rewrites the request's
	// Content-Type and Accept headers. Defaults to true.
	OverwriteHeaders bool

	summary Summary
}

// Load builds a Rules value from the flat rule namespace. The resolver is
// consulted for every version.* value and for the fallback version key; a
// resolver failure aborts the load. Everything else is non-fatal: malformed
// rule tokens and unrecognized boolean values are logged through logger and
// replaced with a safe default.
func Load(conf map[string]string, res Resolver, logger *log.Logger) (*Rules, error) {
	r := &Rules{
		Versions:         map[string]http.Handler{},
		Aliases:          map[string]string{},
		Types:            map[string]typerule.TypeRule{},
		Formats:          map[string]string{},
		OverwriteHeaders: true,
	}
	uris := map[string]string{}

	// Deterministic load order keeps warnings stable across runs.
	keys := make([]string, 0, len(conf))
	for k := range conf {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := conf[key]
		switch {
		case key == "version":
			app, err := res.App(value)
			if err != nil {
				return nil, fmt.Errorf("resolve fallback application %q: %w", value, err)
			}
			r.FallbackApp = app
		case strings.HasPrefix(key, "version."):
			app, err := res.App(value)
			if err != nil {
				return nil, fmt.Errorf("resolve application %q for %q: %w", value, key, err)
			}
			r.Versions[key[len("version."):]] = app
		case strings.HasPrefix(key, "alias."):
			r.Aliases[key[len("alias."):]] = value
		case strings.HasPrefix(key, "uri."):
			uris[NormalizeURI(key[len("uri."):])] = value
		case strings.HasPrefix(key, "type."):
			ctype := key[len("type."):]
			r.Types[ctype] = typerule.Parse(logger, ctype, value)
		case strings.HasPrefix(key, "."):
			r.Formats[key] = value
		case key == "overwrite_headers":
			r.OverwriteHeaders = parseBool(logger, key, value)
		}
	}

	r.URIs = sortURIs(uris)
	r.summary = buildSummary(r)
	return r, nil
}

// NormalizeURI collapses repeated slashes and strips the trailing one, always
// keeping a leading slash.
func NormalizeURI(p string) string {
	parts := make([]string, 0, 8)
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return "/" + strings.Join(parts, "/")
}

// sortURIs orders prefixes longest-first so a linear scan finds the most
// specific mount. Equal lengths order lexically to keep the table stable.
func sortURIs(uris map[string]string) []URIMapping {
	out := make([]URIMapping, 0, len(uris))
	for prefix, version := range uris {
		out = append(out, URIMapping{Prefix: prefix, Version: version})
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Prefix) != len(out[j].Prefix) {
			return len(out[i].Prefix) > len(out[j].Prefix)
		}
		return out[i].Prefix < out[j].Prefix
	})
	return out
}

var (
	truthyWords = map[string]bool{"true": true, "t": true, "on": true, "yes": true, "enable": true}
	falsyWords  = map[string]bool{"false": true, "f": true, "off": true, "no": true, "disable": true}
)

// parseBool interprets a configuration boolean loosely: well-known words
// first, then any integer with C truthiness. Anything else is logged and
// defaults to true.
func parseBool(logger *log.Logger, key, value string) bool {
	v := strings.ToLower(value)
	if truthyWords[v] {
		return true
	}
	if falsyWords[v] {
		return false
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n != 0
	}
	logger.Printf("unrecognized value %q for configuration key %q", value, key)
	return true
}
