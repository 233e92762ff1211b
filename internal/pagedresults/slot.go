package pagedresults

import (
	"sync"
	"time"

	"github.com/KilimcininKorOglu/oba-pagedresults/internal/ldap"
)

// Backend is the search backend a slot is bound to. It owns every result
// set it hands out and gets each one back exactly once.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string
	// ReleaseResultSet returns a result set to the backend. The handle is
	// never used again after the call.
	ReleaseResultSet(rs any)
}

// Operation is the part of an LDAP operation the slot table needs.
type Operation interface {
	// MessageID returns the LDAP message id of the request.
	MessageID() int32
	// IsPagedResults reports whether the request carried the paged results
	// control.
	IsPagedResults() bool
	// PagedSizeLimit returns the per-operation size limit, -1 when unset.
	PagedSizeLimit() int
	// SetPagedSizeLimit stores the per-operation size limit.
	SetPagedSizeLimit(limit int)
}

// State is the lifecycle state of a slot.
type State uint8

const (
	// StateFree marks an unused slot.
	StateFree State = iota
	// StateBound marks a slot bound to a backend.
	StateBound
	// StateAbandoned marks a bound slot whose search was abandoned by the
	// client. Its result set has already been released.
	StateAbandoned
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateFree:
		return "free"
	case StateBound:
		return "bound"
	case StateAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Flags holds the per-slot search flags.
type Flags uint8

const (
	// FlagWithSort is set when the search also carries a sort control.
	FlagWithSort Flags = 1 << iota
	// FlagUnindexed is set when the backend had to scan to answer.
	FlagUnindexed
	// FlagProcessing is set while a page is being produced.
	FlagProcessing
)

// Has reports whether every bit of f2 is set in f.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// resultCell holds a backend result set. take moves the handle out and
// leaves the cell empty, so a handle can only reach the backend once.
type resultCell struct {
	rs any
}

func (c *resultCell) empty() bool {
	return c.rs == nil
}

func (c *resultCell) put(rs any) {
	c.rs = rs
}

func (c *resultCell) peek() any {
	return c.rs
}

func (c *resultCell) take() any {
	rs := c.rs
	c.rs = nil
	return rs
}

// Slot is the server side state of one paged search.
type Slot struct {
	state      State
	backend    Backend
	result     resultCell
	timeLimit  time.Time
	flags      Flags
	count      int
	estimate   int
	sortResult ldap.ResultCode
	msgID      int32

	// lock survives clear; only teardown drops it.
	lock *sync.Mutex
}

// inUse reports whether the slot is bound to a backend.
func (s *Slot) inUse() bool {
	return s.state != StateFree
}

func (s *Slot) expired(now time.Time) bool {
	return !s.timeLimit.IsZero() && now.After(s.timeLimit)
}

// reclaimable reports whether a sweep may clear the slot.
func (s *Slot) reclaimable(now time.Time) bool {
	return s.inUse() && (s.state == StateAbandoned || s.expired(now))
}

// release hands the result set back to the slot's backend. It reports
// whether a live handle was released.
func (s *Slot) release() bool {
	if s.result.empty() {
		return false
	}
	rs := s.result.take()
	if s.backend != nil {
		s.backend.ReleaseResultSet(rs)
	}
	return true
}

// clear releases the result set and zeroes every field except the lock.
func (s *Slot) clear() bool {
	released := s.release()
	lock := s.lock
	*s = Slot{lock: lock}
	return released
}

// bind starts a new search on the slot. Every field but the lock is
// reset, so nothing written to the slot while it was free survives.
func (s *Slot) bind(b Backend) {
	lock := s.lock
	if lock == nil {
		lock = new(sync.Mutex)
	}
	*s = Slot{
		state:      StateBound,
		backend:    b,
		sortResult: ldap.ResultOperationsError,
		lock:       lock,
	}
}

// SlotSnapshot is a copy of the observable state of a slot.
type SlotSnapshot struct {
	Index     int
	State     State
	Backend   string
	HasResult bool
	TimeLimit time.Time
	Flags     Flags
	Count     int
	Estimate  int
	MessageID int32
	HasLock   bool
}

func (s *Slot) snapshot(index int) SlotSnapshot {
	snap := SlotSnapshot{
		Index:     index,
		State:     s.state,
		HasResult: !s.result.empty(),
		TimeLimit: s.timeLimit,
		Flags:     s.flags,
		Count:     s.count,
		Estimate:  s.estimate,
		MessageID: s.msgID,
		HasLock:   s.lock != nil,
	}
	if s.backend != nil {
		snap.Backend = s.backend.Name()
	}
	return snap
}
