package chain

import "sync"

// Host serializes state-changing calls into a single total order, the way a
// chain executes transactions one after another.
type Host struct {
	mu sync.Mutex
}

// Exec runs fn while holding the host lock.
func (h *Host) Exec(fn func() error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return fn()
}
