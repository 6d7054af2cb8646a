package versoserver

import (
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/verso-proxy/verso/internal/metrics"
	"github.com/verso-proxy/verso/pkg/config"
)

// installRulesAutoReload watches the config file and rebuilds the rule
// tables after edits settle. The parent directory is watched rather than the
// file itself so rename-based saves keep triggering.
func installRulesAutoReload(cfg *config.Config, cfgPath string, st *state, mets *metrics.Metrics, logger *log.Logger, mu *sync.Mutex) (io.Closer, error) {
	if cfg == nil || st == nil || mu == nil {
		return nil, nil
	}
	if !cfg.Negotiation.AutoReload.Enabled {
		return nil, nil
	}

	path := strings.TrimSpace(cfgPath)
	if path == "" {
		return nil, nil
	}
	debounce := time.Duration(cfg.Negotiation.AutoReload.DebounceMs) * time.Millisecond

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	triggerCh := make(chan struct{}, 1)

	go func() {
		defer close(doneCh)
		var (
			timer  *time.Timer
			timerC <-chan time.Time
		)
		resetTimer := func() {
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
				return
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
			timerC = timer.C
		}
		runReload := func() {
			mu.Lock()
			_, err := reloadRuntime(path, st, logger)
			mu.Unlock()
			if mets != nil {
				mets.ObserveReload(err)
			}
			if err != nil {
				log.Printf("reload failed (auto): %v", err)
				return
			}
			log.Printf("reload ok (auto): config=%q %s", path, summarizeRules(st.Gateway()))
		}

		for {
			select {
			case <-stopCh:
				if timer != nil {
					timer.Stop()
				}
				return
			case <-timerC:
				timerC = nil
				runReload()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("rules auto-reload watcher error: %v", err)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if shouldTriggerRulesReload(evt, path) {
					select {
					case triggerCh <- struct{}{}:
					default:
					}
				}
			case <-triggerCh:
				resetTimer()
			}
		}
	}()

	log.Printf("rules auto-reload enabled: config=%q debounce_ms=%d", path, cfg.Negotiation.AutoReload.DebounceMs)
	return closerFunc(func() error {
		close(stopCh)
		_ = watcher.Close()
		<-doneCh
		return nil
	}), nil
}

func shouldTriggerRulesReload(evt fsnotify.Event, cfgPath string) bool {
	if strings.TrimSpace(evt.Name) == "" {
		return false
	}
	if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename|fsnotify.Chmod) == 0 {
		return false
	}
	return filepath.Base(evt.Name) == filepath.Base(cfgPath)
}
