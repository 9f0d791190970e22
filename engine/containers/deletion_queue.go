package containers

import (
	"sync"

	"github.com/spaghettifunk/vkframes/engine/core"
)

type deletion struct {
	name string
	fn   func()
}

// DeletionQueue collects teardown actions while resources are created and runs
// them in reverse registration order on Flush. Each action runs exactly once.
//
// A queue is single use: once flushed, further pushes are rejected.
type DeletionQueue struct {
	mu      sync.Mutex
	entries []deletion
	flushed bool
}

// Create a new DeletionQueue
func NewDeletionQueue() *DeletionQueue {
	return &DeletionQueue{
		entries: make([]deletion, 0, 32),
	}
}

// Push registers a teardown action. The name is only used for logging.
func (dq *DeletionQueue) Push(name string, fn func()) {
	if fn == nil {
		return
	}

	dq.mu.Lock()
	defer dq.mu.Unlock()

	if dq.flushed {
		core.LogError("deletion queue: rejected `%s`: %s", name, core.ErrQueueFlushed)
		return
	}
	dq.entries = append(dq.entries, deletion{name: name, fn: fn})
}

// Flush runs every registered action, most recent first, and empties the queue.
// The caller must guarantee the GPU is idle before flushing.
func (dq *DeletionQueue) Flush() {
	dq.mu.Lock()
	entries := dq.entries
	dq.entries = nil
	dq.flushed = true
	dq.mu.Unlock()

	for i := len(entries) - 1; i >= 0; i-- {
		core.LogDebug("destroying %s", entries[i].name)
		entries[i].fn()
	}
}

// Len returns the number of pending actions
func (dq *DeletionQueue) Len() int {
	dq.mu.Lock()
	defer dq.mu.Unlock()
	return len(dq.entries)
}

// IsFlushed reports whether Flush has already been called
func (dq *DeletionQueue) IsFlushed() bool {
	dq.mu.Lock()
	defer dq.mu.Unlock()
	return dq.flushed
}
