package server

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/KilimcininKorOglu/oba-pagedresults/internal/logging"
	"github.com/KilimcininKorOglu/oba-pagedresults/internal/pagedresults"
)

// ErrConnectionClosed is returned when the connection is closed.
var ErrConnectionClosed = errors.New("server: connection closed")

// Connection is one client connection. It carries the paged results table
// of the connection, guarded by the connection lock.
type Connection struct {
	// id is the unique identifier for this connection
	id string
	// server is the parent server instance
	server *Server
	// mu is the connection lock. It guards closed and the paged results
	// table structure.
	mu sync.Mutex
	// closed indicates whether the connection has been closed
	closed bool
	// paged holds the connection's paged search slots
	paged *pagedresults.Table
	// abandon tracks in-flight operations
	abandon *AbandonHandler
	// sem bounds concurrent searches
	sem *semaphore.Weighted
	// logger is the logger for this connection
	logger logging.Logger
	// startTime is when the connection was established
	startTime time.Time
}

func newConnection(s *Server) *Connection {
	id := logging.GenerateRequestID()

	limit := int64(s.cfg.MaxConcurrentSearches)
	if limit <= 0 {
		limit = 1
	}

	c := &Connection{
		id:        id,
		server:    s,
		abandon:   NewAbandonHandler(),
		sem:       semaphore.NewWeighted(limit),
		logger:    s.logger.WithRequestID(id),
		startTime: s.now(),
	}
	c.paged = pagedresults.NewTable(&c.mu,
		pagedresults.WithClock(s.now),
		pagedresults.WithLogger(c.logger),
	)

	c.logger.Info("connection established")
	return c
}

// ID returns the connection ID.
func (c *Connection) ID() string {
	return c.id
}

// Paged returns the connection's paged results table.
func (c *Connection) Paged() *pagedresults.Table {
	return c.paged
}

// IsClosed returns true if the connection has been closed.
func (c *Connection) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// CheckPagedTimeout reports whether the connection's only paged search
// has passed its time limit. Such a connection is closed when the server
// is configured to disconnect idle paged searches.
func (c *Connection) CheckPagedTimeout(now time.Time) bool {
	l := c.paged.Lock()
	timedOut := !c.closed && l.IsTimedOut(now)
	l.Unlock()

	if !timedOut {
		return false
	}
	if !c.server.cfg.IdleDisconnect {
		c.logger.Info("paged search timed out")
		return true
	}
	c.logger.Info("closing connection", "reason", "paged search limit")
	c.Close()
	return true
}

// ResetIdle clears the time limit of every paged search on the
// connection.
func (c *Connection) ResetIdle() {
	l := c.paged.Lock()
	l.ResetTimeLimits()
	l.Unlock()
}

// Abandon handles an abandon request for msgID. The paged search last
// driven by msgID is marked abandoned and its result set released, then
// the in-flight operation, if any, is cancelled.
func (c *Connection) Abandon(msgID int32) {
	l := c.paged.Lock()
	found := l.ReleaseByMessageID(msgID)
	l.Unlock()

	cancelled := c.abandon.Handle(msgID)
	c.logger.Debug("abandon", "msgid", msgID, "paged", found, "inflight", cancelled)
}

// Close releases every paged search and cancels pending operations.
func (c *Connection) Close() {
	l := c.paged.Lock()
	if c.closed {
		l.Unlock()
		return
	}
	c.closed = true
	l.CleanupAll()
	l.Unlock()

	c.abandon.CancelAll()
	c.server.remove(c)

	c.logger.Info("connection closed", "duration", c.server.now().Sub(c.startTime).String())
}
