package orchestrator

import (
	"reflect"
	"sync"
	"time"
)

// Coalescer collapses bursts of triggers keyed by (board, purpose) into a
// single trailing execution that sees the latest payload.
//
// The timer semantics are deliberate and unusual: the first call for a key
// arms the timer, and later calls within the window only replace the stored
// payload. The window is never extended or reset, so the first call's delay
// governs when the work fires while the last payload governs what state it
// observes. Executions for the same key never overlap; triggers arriving
// while the work runs simply start the next cycle.
type Coalescer struct {
	mu      sync.Mutex
	pending map[string]*pendingWork
	running map[string]*sync.Mutex
}

// pendingWork is one armed debounce window: the latest payload supplied for
// the key and the timer that will fire the trailing execution.
type pendingWork struct {
	payload any
	timer   *time.Timer
}

// NewCoalescer returns an empty coalescer.
func NewCoalescer() *Coalescer {
	return &Coalescer{
		pending: make(map[string]*pendingWork),
		running: make(map[string]*sync.Mutex),
	}
}

// Schedule records payload for key and, if no timer is pending for the key,
// arms one that invokes work(key) after delay. work receives no payload: the
// pipeline behind it re-reads current state itself, with Latest available
// for callers that want the superseding payload.
func (c *Coalescer) Schedule(key string, payload any, work func(key string), delay time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.pending[key]; ok {
		// A timer is already armed: keep its deadline, supersede the payload.
		p.payload = payload
		return
	}

	p := &pendingWork{payload: payload}
	p.timer = time.AfterFunc(delay, func() {
		c.fire(key, work)
	})
	c.pending[key] = p
}

// Latest returns the most recently scheduled payload for key, if a window is
// still pending.
func (c *Coalescer) Latest(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[key]
	if !ok {
		return nil, false
	}
	return p.payload, true
}

// Pending reports whether a timer is currently armed for key.
func (c *Coalescer) Pending(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[key]
	return ok
}

// fire clears the pending window and runs work under the key's execution
// lock, serializing executions per key without blocking other keys.
func (c *Coalescer) fire(key string, work func(key string)) {
	c.mu.Lock()
	delete(c.pending, key)
	lock, ok := c.running[key]
	if !ok {
		lock = &sync.Mutex{}
		c.running[key] = lock
	}
	c.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	work(key)
}

// MeaningfullyChanged reports whether curr differs from prev in a way worth
// re-running the pipeline for: the top-level key sets differ in size, a
// non-object value differs, or an object-valued entry differs in size or in
// any nested value. This is a two-level shallow diff, not deep equality;
// values below the second level are compared wholesale.
func MeaningfullyChanged(prev, curr map[string]any) bool {
	if len(prev) != len(curr) {
		return true
	}

	for key, currVal := range curr {
		prevVal, ok := prev[key]
		if !ok {
			return true
		}

		currObj, currIsObj := currVal.(map[string]any)
		prevObj, prevIsObj := prevVal.(map[string]any)
		if currIsObj != prevIsObj {
			return true
		}

		if !currIsObj {
			if !reflect.DeepEqual(prevVal, currVal) {
				return true
			}
			continue
		}

		if len(prevObj) != len(currObj) {
			return true
		}
		for nested, cv := range currObj {
			pv, ok := prevObj[nested]
			if !ok || !reflect.DeepEqual(pv, cv) {
				return true
			}
		}
	}

	return false
}
