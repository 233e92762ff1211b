package server

import (
	"context"
	"sync"
	"time"

	"github.com/KilimcininKorOglu/oba-pagedresults/internal/backend"
	"github.com/KilimcininKorOglu/oba-pagedresults/internal/config"
	"github.com/KilimcininKorOglu/oba-pagedresults/internal/logging"
)

// Server owns the backend and the set of open connections.
type Server struct {
	// backend serves every search
	backend *backend.Memory
	// cfg holds the paging limits
	cfg config.PagingConfig
	// logger is the server's logger
	logger logging.Logger
	// now is the clock used for paged search deadlines
	now func() time.Time

	mu    sync.Mutex
	conns map[string]*Connection
}

// Option configures a Server.
type Option func(*Server)

// WithClock sets the clock used for paged search deadlines.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithLogger sets the server's logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a Server searching b.
func NewServer(b *backend.Memory, cfg config.PagingConfig, opts ...Option) *Server {
	s := &Server{
		backend: b,
		cfg:     cfg,
		logger:  logging.NewNop(),
		now:     time.Now,
		conns:   make(map[string]*Connection),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the server's backend.
func (s *Server) Backend() *backend.Memory {
	return s.backend
}

// Connect opens a new client connection.
func (s *Server) Connect() *Connection {
	c := newConnection(s)

	s.mu.Lock()
	s.conns[c.id] = c
	s.mu.Unlock()

	return c
}

func (s *Server) remove(c *Connection) {
	s.mu.Lock()
	delete(s.conns, c.id)
	s.mu.Unlock()
}

// Connections returns the number of open connections.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) snapshot() []*Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Connection, 0, len(s.conns))
	for _, c := range s.conns {
		out = append(out, c)
	}
	return out
}

// CheckPagedTimeouts runs one pass of the idle check over every
// connection and returns how many had timed out.
func (s *Server) CheckPagedTimeouts() int {
	now := s.now()
	n := 0
	for _, c := range s.snapshot() {
		if c.CheckPagedTimeout(now) {
			n++
		}
	}
	return n
}

// Run calls CheckPagedTimeouts every interval until ctx is done.
func (s *Server) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.CheckPagedTimeouts(); n > 0 {
				s.logger.Debug("paged search timeouts", "connections", n)
			}
		}
	}
}

// Shutdown closes every open connection.
func (s *Server) Shutdown() {
	for _, c := range s.snapshot() {
		c.Close()
	}
	s.logger.Info("server shut down")
}
