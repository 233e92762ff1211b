package pagedresults

import (
	"time"

	"github.com/KilimcininKorOglu/oba-pagedresults/internal/ldap"
)

// The accessors below take the connection lock for a single field. They
// return neutral values, and setters do nothing, when op is not a paged
// results operation or index is outside the table. Setters also ignore
// free slots.

// slot returns the slot at index for a paged operation, or nil. The
// connection lock must be held.
func (t *Table) slot(op Operation, index int) *Slot {
	if op == nil || !op.IsPagedResults() {
		return nil
	}
	if index < 0 || index >= len(t.slots) {
		return nil
	}
	return t.slots[index]
}

// setResult stores rs. An abandoned or free slot only accepts nil. A live
// handle being replaced goes back to the backend first.
func (s *Slot) setResult(rs any) bool {
	if rs != nil && s.state != StateBound {
		return false
	}
	if old := s.result.peek(); old != nil && old != rs {
		s.release()
	}
	s.result.put(rs)
	return true
}

func (t *Table) withSlot(op Operation, index int, fn func(s *Slot)) {
	if op == nil || !op.IsPagedResults() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if s := t.slot(op, index); s != nil {
		fn(s)
	}
}

// withLiveSlot is withSlot restricted to slots in use. Setters go through
// it so a free slot stays blank until the next bind.
func (t *Table) withLiveSlot(op Operation, index int, fn func(s *Slot)) {
	t.withSlot(op, index, func(s *Slot) {
		if s.inUse() {
			fn(s)
		}
	})
}

// CurrentBackend returns the backend the slot is bound to.
func (t *Table) CurrentBackend(op Operation, index int) Backend {
	var b Backend
	t.withSlot(op, index, func(s *Slot) { b = s.backend })
	return b
}

// SetCurrentBackend rebinds the slot to b. Any result set of the previous
// backend is released first. A nil b clears the slot.
func (t *Table) SetCurrentBackend(op Operation, index int, b Backend) {
	t.withSlot(op, index, func(s *Slot) {
		if s.backend == b {
			return
		}
		if b == nil {
			if s.inUse() {
				s.clear()
				if t.active > 0 {
					t.active--
				}
			}
			return
		}
		s.release()
		if !s.inUse() {
			s.bind(b)
			t.active++
			return
		}
		s.backend = b
	})
}

// SearchResult returns the slot's result set, or nil.
func (t *Table) SearchResult(op Operation, index int) any {
	var rs any
	t.withSlot(op, index, func(s *Slot) { rs = s.result.peek() })
	return rs
}

// SetSearchResult stores rs in the slot. A non-nil rs is refused for a
// slot that is not bound, including an abandoned one. It reports whether
// the value was stored.
func (t *Table) SetSearchResult(op Operation, index int, rs any) bool {
	ok := false
	t.withSlot(op, index, func(s *Slot) { ok = s.setResult(rs) })
	return ok
}

// SearchResultCount returns the number of entries sent so far.
func (t *Table) SearchResultCount(op Operation, index int) int {
	n := 0
	t.withSlot(op, index, func(s *Slot) { n = s.count })
	return n
}

// SetSearchResultCount sets the number of entries sent so far.
func (t *Table) SetSearchResultCount(op Operation, index int, n int) {
	t.withLiveSlot(op, index, func(s *Slot) { s.count = n })
}

// SizeEstimate returns the result set size estimate.
func (t *Table) SizeEstimate(op Operation, index int) int {
	n := 0
	t.withSlot(op, index, func(s *Slot) { n = s.estimate })
	return n
}

// SetSizeEstimate sets the result set size estimate.
func (t *Table) SetSizeEstimate(op Operation, index int, n int) {
	t.withLiveSlot(op, index, func(s *Slot) { s.estimate = n })
}

// WithSort reports whether the search carries a sort control.
func (t *Table) WithSort(op Operation, index int) bool {
	set := false
	t.withSlot(op, index, func(s *Slot) { set = s.flags.Has(FlagWithSort) })
	return set
}

// SetWithSort marks the search as sorted. The flag is never cleared.
func (t *Table) SetWithSort(op Operation, index int, flag bool) {
	if !flag {
		return
	}
	t.withLiveSlot(op, index, func(s *Slot) { s.flags |= FlagWithSort })
}

// Unindexed reports whether the backend had to scan for this search.
func (t *Table) Unindexed(op Operation, index int) bool {
	set := false
	t.withSlot(op, index, func(s *Slot) { set = s.flags.Has(FlagUnindexed) })
	return set
}

// SetUnindexed marks the search as unindexed. The flag is never cleared.
func (t *Table) SetUnindexed(op Operation, index int) {
	t.withLiveSlot(op, index, func(s *Slot) { s.flags |= FlagUnindexed })
}

// Processing reports whether a page is being produced for the slot.
func (t *Table) Processing(op Operation, index int) bool {
	set := false
	t.withSlot(op, index, func(s *Slot) { set = s.flags.Has(FlagProcessing) })
	return set
}

// SetProcessing sets or clears the processing flag.
func (t *Table) SetProcessing(op Operation, index int, on bool) {
	t.withLiveSlot(op, index, func(s *Slot) {
		if on {
			s.flags |= FlagProcessing
		} else {
			s.flags &^= FlagProcessing
		}
	})
}

// SortResultCode returns the stored sort result code. It defaults to
// operationsError.
func (t *Table) SortResultCode(op Operation, index int) ldap.ResultCode {
	code := ldap.ResultOperationsError
	t.withSlot(op, index, func(s *Slot) { code = s.sortResult })
	return code
}

// SetSortResultCode stores the sort result code.
func (t *Table) SetSortResultCode(op Operation, index int, code ldap.ResultCode) {
	t.withLiveSlot(op, index, func(s *Slot) { s.sortResult = code })
}

// SetTimeLimit sets the slot's deadline. The zero time clears it.
func (t *Table) SetTimeLimit(op Operation, index int, deadline time.Time) {
	t.withLiveSlot(op, index, func(s *Slot) { s.timeLimit = deadline })
}

// IsAbandonedOrUnavailable reports whether the slot can no longer serve
// pages: the operation is not paged, the index is out of range, or the
// search was abandoned.
func (t *Table) IsAbandonedOrUnavailable(op Operation, index int) bool {
	unavailable := true
	t.withSlot(op, index, func(s *Slot) { unavailable = s.state == StateAbandoned })
	return unavailable
}

// SizeLimit returns the operation's paged size limit, -1 when unset.
func (t *Table) SizeLimit(op Operation) int {
	if op == nil || !op.IsPagedResults() {
		return -1
	}
	return op.PagedSizeLimit()
}

// SetSizeLimit stores the paged size limit on the operation.
func (t *Table) SetSizeLimit(op Operation, limit int) {
	if op == nil || !op.IsPagedResults() {
		return
	}
	op.SetPagedSizeLimit(limit)
}

// FreeOne releases the slot at index once its search is complete. It
// reports whether a result set was released.
func (t *Table) FreeOne(op Operation, index int) bool {
	if op == nil || !op.IsPagedResults() {
		return false
	}
	l := t.Lock()
	defer l.Unlock()
	return l.ReleaseSlot(index)
}
