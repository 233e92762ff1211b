package pagedresults

import (
	"fmt"
	"sync"
	"time"

	"github.com/KilimcininKorOglu/oba-pagedresults/internal/logging"
)

// Table holds the paged search slots of one connection.
//
// The table has no lock of its own. It is built around the connection's
// lock, and every structural operation is reached through the *Locked
// guard returned by Lock. Slot indexes are stable until the slot is
// cleared; capacity grows 1, 2, 4, ... and only shrinks on CleanupAll,
// after which the table refuses new searches.
type Table struct {
	mu     sync.Locker
	slots  []*Slot
	active int
	closed bool

	now    func() time.Time
	logger logging.Logger
}

// Option configures a Table.
type Option func(*Table)

// WithClock sets the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(t *Table) {
		t.now = now
	}
}

// WithLogger sets the logger for slot lifecycle events.
func WithLogger(l logging.Logger) Option {
	return func(t *Table) {
		t.logger = l
	}
}

// NewTable creates an empty table guarded by the connection lock mu.
func NewTable(mu sync.Locker, opts ...Option) *Table {
	t := &Table{
		mu:     mu,
		now:    time.Now,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Locked is a held connection lock. Structural operations on the table
// exist only on Locked, so they cannot be called without the lock.
// A Locked must not be used after Unlock.
type Locked struct {
	t *Table
}

// Lock acquires the connection lock.
func (t *Table) Lock() *Locked {
	t.mu.Lock()
	return &Locked{t: t}
}

// Unlock releases the connection lock.
func (l *Locked) Unlock() {
	t := l.t
	l.t = nil
	t.mu.Unlock()
}

// AllocateOrResolve maps a request cookie to a slot index.
//
// An empty cookie binds b to the first free slot, reclaiming an expired or
// abandoned slot if needed, and grows the table when none is available.
// A non-empty cookie must name a slot inside the table. A slot that was
// abandoned is cleared and ErrCancelled is returned. A free slot is bound
// to b again. In every case msgID is recorded for abandon correlation.
//
// The whole table is then swept for expired and abandoned slots. If the
// resolved slot is swept, the result is -1 and ErrCancelled. A table that
// was torn down by CleanupAll always returns -1 and ErrCancelled.
func (l *Locked) AllocateOrResolve(cookie []byte, b Backend, msgID int32) (int, error) {
	t := l.t
	if t.closed {
		t.logger.Debug("paged search on torn down table", "msgid", msgID)
		return -1, ErrCancelled
	}
	now := t.now()

	index, fresh, err := DecodeCookie(cookie)
	switch {
	case err != nil:
		index = -1
	case fresh:
		index = l.allocate(b, now)
		t.slots[index].msgID = msgID
	default:
		index, err = l.resolve(index, b, msgID)
	}

	if l.sweep(now, index) {
		t.logger.Debug("paged search expired during resolve", "idx", index, "msgid", msgID)
		index, err = -1, ErrCancelled
	}
	return index, err
}

func (l *Locked) allocate(b Backend, now time.Time) int {
	t := l.t

	index := -1
	for i, s := range t.slots {
		if !s.inUse() {
			index = i
			break
		}
		if s.reclaimable(now) {
			t.logger.Debug("reclaiming paged search slot", "idx", i, "state", s.state.String(), "msgid", s.msgID)
			s.clear()
			l.decActive()
			index = i
			break
		}
	}
	if index < 0 {
		index = len(t.slots)
		l.grow()
	}

	t.slots[index].bind(b)
	t.active++
	t.logger.Debug("paged search slot allocated", "idx", index, "backend", b.Name(), "active", t.active, "cap", len(t.slots))
	return index
}

func (l *Locked) grow() {
	t := l.t
	n := len(t.slots) * 2
	if n == 0 {
		n = 1
	}
	for len(t.slots) < n {
		t.slots = append(t.slots, &Slot{})
	}
}

func (l *Locked) resolve(index int, b Backend, msgID int32) (int, error) {
	t := l.t
	if index < 0 || index >= len(t.slots) {
		return -1, fmt.Errorf("%w: index %d outside table of %d", ErrInvalidCookie, index, len(t.slots))
	}

	s := t.slots[index]
	switch s.state {
	case StateAbandoned:
		t.logger.Debug("paged search was abandoned", "idx", index, "msgid", s.msgID)
		s.clear()
		l.decActive()
		return -1, ErrCancelled
	case StateFree:
		// Released after its last page; the client continues anyway.
		s.bind(b)
		t.active++
	}
	s.msgID = msgID
	return index, nil
}

// sweep clears every expired or abandoned slot and reports whether the
// slot at watch was among them.
func (l *Locked) sweep(now time.Time, watch int) bool {
	t := l.t
	hit := false
	for i, s := range t.slots {
		if !s.reclaimable(now) {
			continue
		}
		t.logger.Debug("sweeping paged search slot", "idx", i, "state", s.state.String(), "msgid", s.msgID)
		s.clear()
		l.decActive()
		if i == watch {
			hit = true
		}
	}
	return hit
}

func (l *Locked) decActive() {
	if l.t.active > 0 {
		l.t.active--
	}
}

// ReleaseSlot releases the result set of the slot at index and clears
// it. It reports whether a result set was released.
func (l *Locked) ReleaseSlot(index int) bool {
	t := l.t
	if index < 0 || index >= len(t.slots) {
		return false
	}
	s := t.slots[index]
	wasInUse := s.inUse()
	released := s.clear()
	if wasInUse {
		l.decActive()
	}
	return released
}

// ReleaseByMessageID marks the slot last used by msgID as abandoned and
// releases its result set. The slot stays counted until a later resolve
// or sweep clears it. It reports whether a slot was found.
func (l *Locked) ReleaseByMessageID(msgID int32) bool {
	t := l.t
	for i, s := range t.slots {
		if !s.inUse() || s.msgID != msgID {
			continue
		}
		s.release()
		s.state = StateAbandoned
		s.flags &^= FlagProcessing
		t.logger.Debug("paged search abandoned", "idx", i, "msgid", msgID, "active", t.active)
		return true
	}
	return false
}

// Cleanup releases every slot and resets the active count. Capacity is
// kept. With releaseLocks the fine locks are dropped as well. It reports
// whether any result set was released.
func (l *Locked) Cleanup(releaseLocks bool) bool {
	t := l.t
	released := false
	for _, s := range t.slots {
		if s.inUse() && s.clear() {
			released = true
		}
		if releaseLocks {
			s.lock = nil
		}
	}
	t.active = 0
	return released
}

// CleanupAll releases every slot and frees the table. The table is closed
// for good: later allocations and resolves fail with ErrCancelled.
func (l *Locked) CleanupAll() bool {
	released := l.Cleanup(true)
	l.t.logger.Debug("paged search table torn down", "cap", len(l.t.slots), "released", released)
	l.t.slots = nil
	l.t.closed = true
	return released
}

// IsClosed reports whether CleanupAll has run.
func (l *Locked) IsClosed() bool {
	return l.t.closed
}

// IsTimedOut reports whether the table holds a single slot that is in use
// and past its time limit. Tables with more slots never time out as a
// whole.
func (l *Locked) IsTimedOut(now time.Time) bool {
	t := l.t
	if len(t.slots) != 1 {
		return false
	}
	s := t.slots[0]
	return s.inUse() && s.expired(now)
}

// ResetTimeLimits clears the time limit of every slot.
func (l *Locked) ResetTimeLimits() {
	for _, s := range l.t.slots {
		s.timeLimit = time.Time{}
	}
}

// InUse returns the number of slots in use.
func (l *Locked) InUse() int {
	return l.t.active
}

// Cap returns the number of slots in the table.
func (l *Locked) Cap() int {
	return len(l.t.slots)
}

// SetSearchResultLocked is SetSearchResult for callers already holding
// the connection lock.
func (l *Locked) SetSearchResultLocked(op Operation, index int, rs any) bool {
	s := l.t.slot(op, index)
	if s == nil {
		return false
	}
	return s.setResult(rs)
}

// Snapshot returns a copy of every slot.
func (l *Locked) Snapshot() []SlotSnapshot {
	out := make([]SlotSnapshot, len(l.t.slots))
	for i, s := range l.t.slots {
		out[i] = s.snapshot(i)
	}
	return out
}
