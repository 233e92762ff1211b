package pagedresults

import "sync"

// fineLock fetches the slot's lock under the connection lock. The slot
// array may move while it grows, the lock itself does not.
func (t *Table) fineLock(index int) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < 0 || index >= len(t.slots) {
		return nil
	}
	return t.slots[index].lock
}

// LockSlot acquires the fine lock of the slot at index. The connection
// lock is only held while looking the lock up, never while waiting for
// it. Out of range slots and slots without a lock are ignored.
func (t *Table) LockSlot(index int) {
	if mu := t.fineLock(index); mu != nil {
		mu.Lock()
	}
}

// UnlockSlot releases the fine lock of the slot at index.
func (t *Table) UnlockSlot(index int) {
	if mu := t.fineLock(index); mu != nil {
		mu.Unlock()
	}
}

// WithSlot runs fn holding the fine lock of the slot at index. fn may use
// the per-field accessors.
func (t *Table) WithSlot(index int, fn func() error) error {
	mu := t.fineLock(index)
	if mu != nil {
		mu.Lock()
		defer mu.Unlock()
	}
	return fn()
}
