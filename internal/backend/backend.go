package backend

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
)

// Backend errors.
var (
	// ErrEntryExists is returned when adding a DN that is already present.
	ErrEntryExists = errors.New("backend: entry already exists")
	// ErrForeignResultSet is returned when a result set from another
	// backend is passed in.
	ErrForeignResultSet = errors.New("backend: result set belongs to another backend")
	// ErrReleased is returned when reading from a released result set.
	ErrReleased = errors.New("backend: result set already released")
)

// ResultSet is the backend's cursor over the entry IDs a search matched.
// Next is not safe for concurrent use on one result set; the paged results
// fine lock serialises it. Release may race with Next.
type ResultSet struct {
	owner     *Memory
	ids       *roaring.Bitmap
	it        roaring.IntPeekable
	filter    Filter
	estimate  int
	unindexed bool
	returned  int
	// released is guarded by the owner's lock.
	released bool
}

// Estimate returns the total number of entries the search matched.
func (rs *ResultSet) Estimate() int {
	return rs.estimate
}

// Returned returns the number of entries handed out so far.
func (rs *ResultSet) Returned() int {
	return rs.returned
}

// Remaining returns the number of entries not yet returned.
func (rs *ResultSet) Remaining() int {
	return rs.Estimate() - rs.returned
}

// Unindexed reports whether the search had to scan every entry.
func (rs *ResultSet) Unindexed() bool {
	return rs.unindexed
}

// Filter returns the filter that produced the result set.
func (rs *ResultSet) Filter() Filter {
	return rs.filter
}

// Stats is a snapshot of result set accounting.
type Stats struct {
	// Open is the number of result sets created and not yet released.
	Open int64
	// Released counts successful releases.
	Released int64
	// DoubleReleases counts release calls on an already released set.
	DoubleReleases int64
}

// Memory is an in-memory backend. Entries are numbered from 1 in insertion
// order.
type Memory struct {
	name    string
	mu      sync.RWMutex
	entries map[uint32]*Entry
	byDN    map[string]uint32
	all     *roaring.Bitmap
	// index maps attribute -> lowercased value -> entry IDs.
	index  map[string]map[string]*roaring.Bitmap
	nextID uint32

	open           atomic.Int64
	released       atomic.Int64
	doubleReleases atomic.Int64
}

// NewMemory creates an empty backend named name with equality indexes on
// the given attributes.
func NewMemory(name string, indexed ...string) *Memory {
	m := &Memory{
		name:    name,
		entries: make(map[uint32]*Entry),
		byDN:    make(map[string]uint32),
		all:     roaring.New(),
		index:   make(map[string]map[string]*roaring.Bitmap),
		nextID:  1,
	}
	for _, attr := range indexed {
		m.index[strings.ToLower(attr)] = make(map[string]*roaring.Bitmap)
	}
	return m
}

// Name returns the backend name.
func (m *Memory) Name() string {
	return m.name
}

// Add stores entry and assigns its ID.
func (m *Memory) Add(entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dn := strings.ToLower(entry.DN)
	if _, ok := m.byDN[dn]; ok {
		return fmt.Errorf("%w: %s", ErrEntryExists, entry.DN)
	}

	entry.ID = m.nextID
	m.nextID++
	m.entries[entry.ID] = entry
	m.byDN[dn] = entry.ID
	m.all.Add(entry.ID)

	for attr, values := range m.index {
		for _, v := range entry.GetAttribute(attr) {
			key := strings.ToLower(v)
			bm, ok := values[key]
			if !ok {
				bm = roaring.New()
				values[key] = bm
			}
			bm.Add(entry.ID)
		}
	}
	return nil
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Search evaluates f and returns a new result set owned by m.
func (m *Memory) Search(f Filter) (*ResultSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rs := &ResultSet{owner: m, filter: f}
	attr := strings.ToLower(f.Attribute)

	switch values, indexed := m.index[attr]; {
	case f.Attribute == "":
		rs.ids = m.all.Clone()
	case indexed && f.Value != PresenceValue:
		if bm, ok := values[strings.ToLower(f.Value)]; ok {
			rs.ids = bm.Clone()
		} else {
			rs.ids = roaring.New()
		}
	case indexed:
		rs.ids = roaring.New()
		for _, bm := range values {
			rs.ids.Or(bm)
		}
	default:
		rs.unindexed = true
		rs.ids = roaring.New()
		it := m.all.Iterator()
		for it.HasNext() {
			id := it.Next()
			if m.entries[id].matches(f) {
				rs.ids.Add(id)
			}
		}
	}

	rs.estimate = int(rs.ids.GetCardinality())
	rs.it = rs.ids.Iterator()
	m.open.Add(1)
	return rs, nil
}

// Next returns up to n entries from rs and whether more remain.
func (m *Memory) Next(rs *ResultSet, n int) ([]*Entry, bool, error) {
	if rs.owner != m {
		return nil, false, ErrForeignResultSet
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if rs.released {
		return nil, false, ErrReleased
	}

	page := make([]*Entry, 0, n)
	for len(page) < n && rs.it.HasNext() {
		if e, ok := m.entries[rs.it.Next()]; ok {
			page = append(page, e)
		}
	}
	rs.returned += len(page)
	return page, rs.it.HasNext(), nil
}

// ReleaseResultSet returns a result set to the backend. The handle must
// not be used afterwards. Releasing the same set twice is a caller bug and
// is counted in Stats.DoubleReleases.
func (m *Memory) ReleaseResultSet(handle any) {
	rs, ok := handle.(*ResultSet)
	if !ok || rs == nil || rs.owner != m {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if rs.released {
		m.doubleReleases.Add(1)
		return
	}
	rs.released = true
	rs.ids, rs.it = nil, nil
	m.open.Add(-1)
	m.released.Add(1)
}

// Stats returns result set accounting counters.
func (m *Memory) Stats() Stats {
	return Stats{
		Open:           m.open.Load(),
		Released:       m.released.Load(),
		DoubleReleases: m.doubleReleases.Load(),
	}
}
