package versoserver

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"strings"

	"github.com/verso-proxy/verso/pkg/config"
)

// backendResolver maps version rule values to reverse proxies over the
// configured backends.
type backendResolver struct {
	apps map[string]http.Handler
}

func newBackendResolver(backends map[string]config.BackendConfig) (*backendResolver, error) {
	apps := make(map[string]http.Handler, len(backends))
	for name, backend := range backends {
		u, err := url.Parse(strings.TrimSpace(backend.URL))
		if err != nil {
			return nil, fmt.Errorf("backend %q: parse url: %w", name, err)
		}
		apps[name] = httputil.NewSingleHostReverseProxy(u)
	}
	return &backendResolver{apps: apps}, nil
}

func (r *backendResolver) App(name string) (http.Handler, error) {
	app, ok := r.apps[name]
	if !ok {
		return nil, fmt.Errorf("unknown backend %q (known: %s)", name, strings.Join(r.names(), ", "))
	}
	return app, nil
}

func (r *backendResolver) names() []string {
	out := make([]string, 0, len(r.apps))
	for name := range r.apps {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
