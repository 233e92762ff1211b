package pagedresults

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/KilimcininKorOglu/oba-pagedresults/internal/ldap"
)

// checkInvariants verifies the table against the handles it was given.
func checkInvariants(t *testing.T, tbl *Table, backends []*fakeBackend, live map[*fakeResult]int) {
	t.Helper()

	l := tbl.Lock()
	snaps := l.Snapshot()
	active := l.InUse()
	l.Unlock()

	used := 0
	for _, s := range snaps {
		if s.State != StateFree {
			used++
		}
		if s.State == StateFree {
			require.False(t, s.HasResult, "free slot %d holds a result set", s.Index)
			require.Empty(t, s.Backend, "free slot %d has a backend", s.Index)
		}
	}
	require.Equal(t, used, active, "active count drifted from slots in use")

	for _, b := range backends {
		b.mu.Lock()
		for rs, n := range b.released {
			require.LessOrEqual(t, n, 1, "result set %d released %d times", rs.id, n)
		}
		b.mu.Unlock()
	}

	held := make(map[int]int)
	for _, idx := range live {
		held[idx]++
	}
	for _, s := range snaps {
		want := 0
		if s.HasResult {
			want = 1
		}
		require.Equal(t, want, held[s.Index], "slot %d: stored result sets vs unreleased handles", s.Index)
	}
}

// TestRandomOperationsKeepInvariants drives the table with random
// operations and checks the slot accounting after every step.
func TestRandomOperationsKeepInvariants(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		tbl, clock := newTestTable()
		backends := []*fakeBackend{newFakeBackend("a"), newFakeBackend("b")}
		// live maps result sets the table still holds to their slot.
		live := make(map[*fakeResult]int)
		var msgID int32

		forgetReleased := func() {
			for _, b := range backends {
				b.mu.Lock()
				for rs := range b.released {
					delete(live, rs)
				}
				b.mu.Unlock()
			}
		}

		for step := 0; step < 300; step++ {
			msgID++
			op := pagedOp(msgID)
			b := backends[rng.Intn(len(backends))]
			_, capacity := inUse(tbl)

			switch rng.Intn(7) {
			case 0, 1:
				idx := allocate(t, tbl, b, msgID)
				rs := b.newResult()
				require.True(t, tbl.SetSearchResult(op, idx, rs))
				live[rs] = idx
			case 2:
				if capacity == 0 {
					continue
				}
				idx := rng.Intn(capacity)
				got, err := resolve(tbl, string(EncodeCookie(idx)), b, msgID)
				if err != nil {
					require.ErrorIs(t, err, ErrCancelled)
					require.Equal(t, -1, got)
				} else {
					require.Equal(t, idx, got)
				}
			case 3:
				if capacity == 0 {
					continue
				}
				tbl.FreeOne(op, rng.Intn(capacity))
			case 4:
				l := tbl.Lock()
				l.ReleaseByMessageID(rng.Int31n(msgID) + 1)
				l.Unlock()
			case 5:
				if capacity == 0 {
					continue
				}
				idx := rng.Intn(capacity)
				tbl.SetTimeLimit(op, idx, clock.Now().Add(time.Duration(rng.Intn(3)-1)*time.Second))
				clock.Advance(500 * time.Millisecond)
			case 6:
				if capacity == 0 {
					continue
				}
				idx := rng.Intn(capacity)
				cur, ok := tbl.CurrentBackend(op, idx).(*fakeBackend)
				if !ok {
					continue
				}
				rs := cur.newResult()
				if tbl.SetSearchResult(op, idx, rs) {
					live[rs] = idx
				}
			}

			forgetReleased()
			checkInvariants(t, tbl, backends, live)
		}

		l := tbl.Lock()
		l.CleanupAll()
		l.Unlock()
		forgetReleased()
		assert.Empty(t, live, "seed %d: result sets leaked after teardown", seed)
		checkInvariants(t, tbl, backends, live)
	}
}

func TestWithSlotSerializesProduction(t *testing.T) {
	var connMu sync.Mutex
	tbl := NewTable(&connMu)
	b := newFakeBackend("userRoot")
	op := pagedOp(1)

	idx := allocate(t, tbl, b, 1)

	var inside, overlaps atomic.Int32
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			return tbl.WithSlot(idx, func() error {
				if inside.Add(1) > 1 {
					overlaps.Add(1)
				}
				n := tbl.SearchResultCount(op, idx)
				time.Sleep(time.Millisecond)
				tbl.SetSearchResultCount(op, idx, n+1)
				inside.Add(-1)
				return nil
			})
		})
	}
	require.NoError(t, g.Wait())

	assert.Zero(t, overlaps.Load())
	assert.Equal(t, 8, tbl.SearchResultCount(op, idx))
}

func TestFineLockDoesNotBlockOtherSlots(t *testing.T) {
	tbl, _ := newTestTable()
	b := newFakeBackend("userRoot")

	idx0 := allocate(t, tbl, b, 1)
	tbl.LockSlot(idx0)
	defer tbl.UnlockSlot(idx0)

	done := make(chan int)
	go func() {
		l := tbl.Lock()
		idx, _ := l.AllocateOrResolve(nil, b, 2)
		l.Unlock()
		tbl.LockSlot(idx)
		tbl.UnlockSlot(idx)
		done <- idx
	}()

	select {
	case idx := <-done:
		assert.Equal(t, 1, idx)
	case <-time.After(5 * time.Second):
		t.Fatal("allocation blocked behind another slot's fine lock")
	}

	// Out of range slots are ignored.
	tbl.LockSlot(99)
	tbl.UnlockSlot(99)
}

func TestAccessorsIgnoreNonPagedOperations(t *testing.T) {
	tbl, _ := newTestTable()
	b := newFakeBackend("userRoot")
	idx := allocate(t, tbl, b, 1)

	plain := &fakeOp{msgID: 1, sizeLimit: 7}
	tbl.SetSearchResultCount(plain, idx, 5)
	tbl.SetWithSort(plain, idx, true)
	tbl.SetSizeLimit(plain, 3)

	assert.Nil(t, tbl.CurrentBackend(plain, idx))
	assert.Nil(t, tbl.SearchResult(plain, idx))
	assert.False(t, tbl.SetSearchResult(plain, idx, b.newResult()))
	assert.Zero(t, tbl.SearchResultCount(plain, idx))
	assert.False(t, tbl.WithSort(plain, idx))
	assert.Equal(t, ldap.ResultOperationsError, tbl.SortResultCode(plain, idx))
	assert.True(t, tbl.IsAbandonedOrUnavailable(plain, idx))
	assert.Equal(t, -1, tbl.SizeLimit(plain))
	assert.Equal(t, 7, plain.sizeLimit)
	assert.False(t, tbl.FreeOne(plain, idx))
	assert.False(t, tbl.FreeOne(nil, idx))

	op := pagedOp(1)
	assert.Zero(t, tbl.SearchResultCount(op, idx))
	assert.Equal(t, b, tbl.CurrentBackend(op, idx))
	assert.Nil(t, tbl.CurrentBackend(op, 42))
	assert.True(t, tbl.IsAbandonedOrUnavailable(op, 42))
}

func TestAccessors(t *testing.T) {
	tbl, _ := newTestTable()
	b := newFakeBackend("userRoot")
	other := newFakeBackend("other")
	op := pagedOp(1)
	idx := allocate(t, tbl, b, 1)

	assert.False(t, tbl.IsAbandonedOrUnavailable(op, idx))
	assert.Equal(t, ldap.ResultOperationsError, tbl.SortResultCode(op, idx))

	tbl.SetSortResultCode(op, idx, ldap.ResultSuccess)
	assert.Equal(t, ldap.ResultSuccess, tbl.SortResultCode(op, idx))

	tbl.SetWithSort(op, idx, true)
	tbl.SetWithSort(op, idx, false)
	assert.True(t, tbl.WithSort(op, idx), "sort flag is additive")

	assert.False(t, tbl.Unindexed(op, idx))
	tbl.SetUnindexed(op, idx)
	assert.True(t, tbl.Unindexed(op, idx))

	tbl.SetProcessing(op, idx, true)
	assert.True(t, tbl.Processing(op, idx))
	tbl.SetProcessing(op, idx, false)
	assert.False(t, tbl.Processing(op, idx))

	tbl.SetSizeEstimate(op, idx, 99)
	assert.Equal(t, 99, tbl.SizeEstimate(op, idx))

	tbl.SetSizeLimit(op, 10)
	assert.Equal(t, 10, tbl.SizeLimit(op))

	// Replacing a live result set hands the old one back.
	rs1, rs2 := b.newResult(), b.newResult()
	require.True(t, tbl.SetSearchResult(op, idx, rs1))
	require.True(t, tbl.SetSearchResult(op, idx, rs1))
	require.True(t, tbl.SetSearchResult(op, idx, rs2))
	assert.Equal(t, 1, b.releases(rs1))
	assert.Equal(t, rs2, tbl.SearchResult(op, idx))

	// Rebinding releases the previous backend's result set.
	tbl.SetCurrentBackend(op, idx, other)
	assert.Equal(t, 1, b.releases(rs2))
	assert.Nil(t, tbl.SearchResult(op, idx))
	assert.Equal(t, other, tbl.CurrentBackend(op, idx))

	tbl.SetCurrentBackend(op, idx, nil)
	active, _ := inUse(tbl)
	assert.Zero(t, active)
	assert.False(t, tbl.IsAbandonedOrUnavailable(op, idx))
}
