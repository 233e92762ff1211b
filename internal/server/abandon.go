package server

import (
	"context"
	"sync"
)

// PendingOperation represents an operation that can be abandoned.
type PendingOperation struct {
	// MessageID is the LDAP message ID of the operation
	MessageID int32
	// Cancel is the function to call to cancel the operation
	Cancel context.CancelFunc
	// Done is closed when the operation completes
	Done chan struct{}
}

// AbandonHandler tracks the in-flight operations of one connection so an
// abandon request, which carries only a message ID, can cancel them.
//
// Per RFC 4511 Section 4.11 there is no response to an abandon, and the
// server only makes a best-effort attempt to stop the operation.
type AbandonHandler struct {
	// pendingOps maps message IDs to pending operations
	pendingOps map[int32]*PendingOperation
	// mu protects concurrent access to pendingOps
	mu sync.RWMutex
}

// NewAbandonHandler creates a new AbandonHandler.
func NewAbandonHandler() *AbandonHandler {
	return &AbandonHandler{
		pendingOps: make(map[int32]*PendingOperation),
	}
}

// Handle cancels the operation with the given message ID and reports
// whether one was pending. The operation unregisters itself once it
// notices the cancellation.
func (h *AbandonHandler) Handle(messageID int32) bool {
	h.mu.RLock()
	op, exists := h.pendingOps[messageID]
	h.mu.RUnlock()

	if exists {
		op.Cancel()
	}
	return exists
}

// Register registers a pending operation with the given message ID.
func (h *AbandonHandler) Register(messageID int32, cancel context.CancelFunc) *PendingOperation {
	op := &PendingOperation{
		MessageID: messageID,
		Cancel:    cancel,
		Done:      make(chan struct{}),
	}

	h.mu.Lock()
	h.pendingOps[messageID] = op
	h.mu.Unlock()

	return op
}

// Unregister removes a pending operation and closes its Done channel.
func (h *AbandonHandler) Unregister(messageID int32) {
	h.mu.Lock()
	if op, exists := h.pendingOps[messageID]; exists {
		closeDone(op)
		delete(h.pendingOps, messageID)
	}
	h.mu.Unlock()
}

// IsPending returns true if an operation with the given message ID is pending.
func (h *AbandonHandler) IsPending(messageID int32) bool {
	h.mu.RLock()
	_, exists := h.pendingOps[messageID]
	h.mu.RUnlock()
	return exists
}

// PendingCount returns the number of pending operations.
func (h *AbandonHandler) PendingCount() int {
	h.mu.RLock()
	count := len(h.pendingOps)
	h.mu.RUnlock()
	return count
}

// CancelAll cancels all pending operations. It is called when the
// connection closes.
func (h *AbandonHandler) CancelAll() {
	h.mu.Lock()
	for _, op := range h.pendingOps {
		op.Cancel()
		closeDone(op)
	}
	h.pendingOps = make(map[int32]*PendingOperation)
	h.mu.Unlock()
}

func closeDone(op *PendingOperation) {
	select {
	case <-op.Done:
	default:
		close(op.Done)
	}
}
