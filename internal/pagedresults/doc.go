// Package pagedresults keeps the server side state of the LDAP Simple Paged
// Results control (RFC 2696, OID 1.2.840.113556.1.4.319).
//
// # Overview
//
// Every connection owns a Table of slots. A slot is the state of one paged
// search: the backend serving it, the backend's result set, a deadline,
// flags and the message id of the request that last used it. The cookie
// sent to the client is the decimal slot index; an empty cookie asks for a
// new slot.
//
// # Locking
//
// The table is guarded by the connection lock passed to NewTable. Lock
// returns a *Locked guard, and structural operations (allocation, sweep,
// release, teardown) are only available on the guard:
//
//	l := table.Lock()
//	idx, err := l.AllocateOrResolve(cookie, backend, msgID)
//	l.Unlock()
//
// The per-field accessors on Table take the connection lock for one field
// at a time. A slot also has a fine lock that outlives clear and reuse. It
// serialises page production on that slot without blocking other slots:
//
//	err := table.WithSlot(idx, func() error {
//	    rs := table.SearchResult(op, idx)
//	    ...
//	})
//
// The connection lock is never held while waiting for a fine lock.
//
// # Result sets
//
// A result set belongs to the backend. The table hands it back through
// Backend.ReleaseResultSet exactly once: when the slot is released,
// reclaimed, abandoned, rebound, or torn down.
//
// # Expiry
//
// There is no reaper. Expired and abandoned slots are cleared whenever
// AllocateOrResolve runs, and a resolved slot that is cleared by that
// sweep yields ErrCancelled.
package pagedresults
