package versoserver

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/verso-proxy/verso/pkg/config"
)

func TestOpenAccessLoggerDisabled(t *testing.T) {
	cfg := &config.Config{}
	l, closer, color, err := openAccessLogger(cfg)
	if err != nil {
		t.Fatalf("openAccessLogger err=%v", err)
	}
	if l != nil || closer != nil || color {
		t.Fatalf("expected nil logger when access_log disabled")
	}
}

func TestOpenAccessLoggerFileAppend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "access.log")
	cfg := &config.Config{}
	cfg.Logging.AccessLog = true
	cfg.Logging.AccessLogPath = path

	l, closer, color, err := openAccessLogger(cfg)
	if err != nil {
		t.Fatalf("openAccessLogger err=%v", err)
	}
	if l == nil {
		t.Fatalf("expected logger")
	}
	if color {
		t.Fatalf("expected color disabled for file logger")
	}
	if _, ok := closer.(*os.File); !ok {
		t.Fatalf("expected os.File closer, got %T", closer)
	}

	l.Println("hello")
	if err := closer.Close(); err != nil {
		t.Fatalf("close err=%v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), "hello") {
		t.Fatalf("log content, got=%q", string(b))
	}
}

func TestWritePIDFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run", "verso.pid")
	cfg := &config.Config{}
	cfg.Server.PidFile = path

	cleanup, err := writePIDFile(cfg)
	if err != nil {
		t.Fatalf("writePIDFile err=%v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pid file: %v", err)
	}
	if got := strings.TrimSpace(string(b)); got != strconv.Itoa(os.Getpid()) {
		t.Fatalf("pid content, got=%q", got)
	}
	if err := cleanup.Close(); err != nil {
		t.Fatalf("cleanup err=%v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("pid file should be removed, stat err=%v", err)
	}
}

func writeServerConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "verso.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const testConfigV1 = `
backends:
  app_v1:
    url: http://127.0.0.1:8081
negotiation:
  rules:
    version.v1: app_v1
    uri./v1: v1
`

const testConfigV2 = `
backends:
  app_v1:
    url: http://127.0.0.1:8081
  app_v2:
    url: http://127.0.0.1:8082
negotiation:
  rules:
    version.v1: app_v1
    version.v2: app_v2
    uri./v1: v1
    uri./v2: v2
`

func TestReloadRuntimeSwapsGateway(t *testing.T) {
	path := writeServerConfig(t, testConfigV1)
	logger := log.New(os.Stderr, "", 0)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	gw, err := buildGateway(cfg, logger)
	if err != nil {
		t.Fatalf("buildGateway: %v", err)
	}
	st := &state{}
	st.SetGateway(gw)
	if got := len(st.Gateway().Rules().Versions); got != 1 {
		t.Fatalf("initial versions, got=%d", got)
	}

	if err := os.WriteFile(path, []byte(testConfigV2), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if _, err := reloadRuntime(path, st, logger); err != nil {
		t.Fatalf("reloadRuntime: %v", err)
	}
	if got := len(st.Gateway().Rules().Versions); got != 2 {
		t.Fatalf("reloaded versions, got=%d", got)
	}
}

func TestNewHTTPServerAppliesTimeouts(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Listen = ":8080"
	cfg.Server.ReadTimeoutMs = 1500
	cfg.Server.WriteTimeoutMs = 2500

	srv := newHTTPServer(cfg, http.NotFoundHandler())
	if srv.Addr != ":8080" {
		t.Fatalf("addr got=%q", srv.Addr)
	}
	if srv.ReadTimeout != 1500*time.Millisecond {
		t.Fatalf("read timeout got=%v", srv.ReadTimeout)
	}
	if srv.WriteTimeout != 2500*time.Millisecond {
		t.Fatalf("write timeout got=%v", srv.WriteTimeout)
	}
	if srv.Handler == nil {
		t.Fatalf("handler must be set")
	}
}

func TestInstallReloadSignalHandlerSwapsOnSIGHUP(t *testing.T) {
	path := writeServerConfig(t, testConfigV1)
	logger := log.New(os.Stderr, "", 0)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	gw, err := buildGateway(cfg, logger)
	if err != nil {
		t.Fatalf("buildGateway: %v", err)
	}
	st := &state{}
	st.SetGateway(gw)

	mu := &sync.Mutex{}
	installReloadSignalHandler(path, st, nil, logger, mu)

	if err := os.WriteFile(path, []byte(testConfigV2), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if err := syscall.Kill(os.Getpid(), syscall.SIGHUP); err != nil {
		t.Fatalf("send SIGHUP: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(st.Gateway().Rules().Versions)
		mu.Unlock()
		if n == 2 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("gateway not swapped after SIGHUP, versions=%d", len(st.Gateway().Rules().Versions))
}

func TestReloadRuntimeKeepsGatewayOnError(t *testing.T) {
	path := writeServerConfig(t, testConfigV1)
	logger := log.New(os.Stderr, "", 0)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	gw, err := buildGateway(cfg, logger)
	if err != nil {
		t.Fatalf("buildGateway: %v", err)
	}
	st := &state{}
	st.SetGateway(gw)

	if err := os.WriteFile(path, []byte(":::not yaml"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if _, err := reloadRuntime(path, st, logger); err == nil {
		t.Fatalf("expected reload error for broken config")
	}
	if st.Gateway() != gw {
		t.Fatalf("gateway must be kept on failed reload")
	}
}
