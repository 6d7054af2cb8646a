// Package versoserver wires the serving shell: configuration, the access
// log, pid file handling, rule reloads and the gin router in front of the
// dispatch gateway.
package versoserver

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/verso-proxy/verso/internal/metrics"
	"github.com/verso-proxy/verso/pkg/config"
	"github.com/verso-proxy/verso/pkg/gateway"
	"github.com/verso-proxy/verso/pkg/ruleset"
)

func Run(cfgPath string) error {
	startedAt := time.Now().Unix()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	accessLogger, accessClose, accessColor, err := openAccessLogger(cfg)
	if err != nil {
		return fmt.Errorf("init access log: %w", err)
	}
	if accessClose != nil {
		defer func() { _ = accessClose.Close() }()
	}

	pidCleanup, err := writePIDFile(cfg)
	if err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	if pidCleanup != nil {
		defer func() { _ = pidCleanup.Close() }()
	}

	ruleLogger := log.New(os.Stderr, "", log.LstdFlags)
	gw, err := buildGateway(cfg, ruleLogger)
	if err != nil {
		return err
	}

	st := &state{}
	st.SetGateway(gw)
	st.SetStartedAtUnix(startedAt)

	var mets *metrics.Metrics
	if cfg.Metrics.Enabled {
		mets = metrics.New()
	}

	reloadMu := &sync.Mutex{}
	installReloadSignalHandler(cfgPath, st, mets, ruleLogger, reloadMu)
	autoReloadClose, err := installRulesAutoReload(cfg, cfgPath, st, mets, ruleLogger, reloadMu)
	if err != nil {
		return fmt.Errorf("init rules auto reload: %w", err)
	}
	if autoReloadClose != nil {
		defer func() { _ = autoReloadClose.Close() }()
	}

	engine := NewRouter(cfg, st, mets, accessLogger, accessColor)
	srv := newHTTPServer(cfg, engine)

	log.Printf("verso listening on %s", cfg.Server.Listen)
	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutMs) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutMs) * time.Millisecond,
	}
}

func buildGateway(cfg *config.Config, logger *log.Logger) (*gateway.Gateway, error) {
	res, err := newBackendResolver(cfg.Backends)
	if err != nil {
		return nil, err
	}
	rules, err := ruleset.Load(cfg.Negotiation.Rules, res, logger)
	if err != nil {
		return nil, fmt.Errorf("load negotiation rules: %w", err)
	}
	return gateway.New(rules, logger), nil
}

// reloadRuntime re-reads the config file and swaps in freshly built rule
// tables. The serving shell (listen address, log targets) is not re-applied;
// those changes need a restart.
func reloadRuntime(cfgPath string, st *state, logger *log.Logger) (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("reload config %q: %w", cfgPath, err)
	}
	gw, err := buildGateway(cfg, logger)
	if err != nil {
		return nil, err
	}
	st.SetGateway(gw)
	return cfg, nil
}

func installReloadSignalHandler(cfgPath string, st *state, mets *metrics.Metrics, logger *log.Logger, mu *sync.Mutex) {
	if st == nil || mu == nil {
		return
	}
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGHUP)
	go func() {
		for range ch {
			mu.Lock()
			_, err := reloadRuntime(cfgPath, st, logger)
			mu.Unlock()
			if mets != nil {
				mets.ObserveReload(err)
			}
			if err != nil {
				log.Printf("reload failed (signal): %v", err)
				continue
			}
			log.Printf("reload ok (signal): config=%q %s", cfgPath, summarizeRules(st.Gateway()))
		}
	}()
}

func summarizeRules(gw *gateway.Gateway) string {
	if gw == nil {
		return "rules=<none>"
	}
	r := gw.Rules()
	return fmt.Sprintf("versions=%d aliases=%d uris=%d types=%d formats=%d",
		len(r.Versions), len(r.Aliases), len(r.URIs), len(r.Types), len(r.Formats))
}

type closerFunc func() error

func (c closerFunc) Close() error { return c() }

func openAccessLogger(cfg *config.Config) (*log.Logger, io.Closer, bool, error) {
	if cfg == nil || !cfg.Logging.AccessLog {
		return nil, nil, false, nil
	}

	path := strings.TrimSpace(cfg.Logging.AccessLogPath)
	if path == "" {
		return log.New(os.Stdout, "", log.LstdFlags), nil, true, nil
	}

	dir := filepath.Dir(path)
	if strings.TrimSpace(dir) != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, false, err
		}
	}
	// #nosec G304 -- access_log_path comes from trusted config/env.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, false, err
	}
	return log.New(f, "", log.LstdFlags), f, false, nil
}

func writePIDFile(cfg *config.Config) (io.Closer, error) {
	if cfg == nil {
		return nil, nil
	}
	path := strings.TrimSpace(cfg.Server.PidFile)
	if path == "" {
		return nil, nil
	}
	dir := filepath.Dir(path)
	if strings.TrimSpace(dir) != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}

	tmp := path + ".tmp"
	pid := strconv.Itoa(os.Getpid()) + "\n"
	// #nosec G304 -- pid_file comes from trusted config/env.
	if err := os.WriteFile(tmp, []byte(pid), 0o600); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return nil, err
	}
	return closerFunc(func() error { return os.Remove(path) }), nil
}
