package api

import (
	"sync"
	"time"
)

// notify broadcasts registry changes to every waiting request.
type notify struct {
	mu      sync.Mutex
	changed chan struct{}
}

func newNotify() *notify {
	return &notify{changed: make(chan struct{})}
}

// Changed returns a channel that is closed by the next call to Notify. Callers take the
// channel before checking their condition so that no change is missed.
func (n *notify) Changed() <-chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.changed
}

func (n *notify) Notify() {
	n.mu.Lock()
	close(n.changed)
	n.changed = make(chan struct{})
	n.mu.Unlock()
}

// wait blocks until changed is closed or timeout elapses and reports which happened.
func wait(changed <-chan struct{}, timeout time.Duration) bool {
	if timeout <= 0 {
		return false
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-changed:
		return true
	case <-timer.C:
		return false
	}
}
