package versoserver

import (
	"sync"
	"sync/atomic"

	"github.com/verso-proxy/verso/pkg/gateway"
)

// state holds the runtime pieces that reloads swap out under the server.
type state struct {
	mu sync.RWMutex
	gw *gateway.Gateway

	startedAtUnix atomic.Int64
}

func (s *state) Gateway() *gateway.Gateway {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gw
}

func (s *state) SetGateway(gw *gateway.Gateway) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gw = gw
}

func (s *state) StartedAtUnix() int64 { return s.startedAtUnix.Load() }

func (s *state) SetStartedAtUnix(v int64) { s.startedAtUnix.Store(v) }
