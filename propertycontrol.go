package indicore

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rickbassham/logging"
)

type callbackEntry struct {
	id string
	fn func(Vector)
}

// PropertyControl is the per-property subscription hub: it holds the
// current vector, FIFO one-shot awaiters waiting for the next settled
// update, and two callback registries (persistent and one-shot) keyed by an
// opaque id handed back to the registrant. Its lifetime matches its entry in
// DeviceTree: Remove cancels every pending awaiter and fires every callback
// once with a nil vector, the tree's signal that the property is gone.
type PropertyControl struct {
	log logging.Logger

	mu         sync.Mutex
	vec        Vector
	awaiters   []chan Vector
	callbacks  []callbackEntry
	once       []callbackEntry
	lastUpdate time.Time
}

// NewPropertyControl creates an empty PropertyControl. vec is nil until the
// first Apply.
func NewPropertyControl(log logging.Logger) *PropertyControl {
	return &PropertyControl{log: log, lastUpdate: time.Now()}
}

// Current returns the most recently applied vector, or nil if none has
// arrived yet.
func (p *PropertyControl) Current() Vector {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vec
}

// LastUpdate returns the time of the most recent Apply or Remove.
func (p *PropertyControl) LastUpdate() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastUpdate
}

// Apply replaces the stored vector in full (an INDI set carries all items)
// and, if the new vector is settled (not Busy, and for BLOBs carrying no
// size==0 placeholder), resolves every pending awaiter in FIFO order. Every
// callback, persistent and one-shot, is then invoked with the new vector;
// one-shots are cleared after firing. A panic inside a callback is
// recovered and logged, never allowed to interrupt the remaining
// subscribers or the caller (the framer's read loop).
func (p *PropertyControl) Apply(v Vector) {
	p.mu.Lock()
	p.vec = v

	var ready []chan Vector
	if !IsBusyOrEmpty(v) {
		ready = p.awaiters
		p.awaiters = nil
	}

	fire := make([]callbackEntry, 0, len(p.callbacks)+len(p.once))
	fire = append(fire, p.callbacks...)
	fire = append(fire, p.once...)
	p.once = nil

	p.lastUpdate = time.Now()
	p.mu.Unlock()

	for _, ch := range ready {
		ch <- v
		close(ch)
	}
	for _, cb := range fire {
		p.safeInvoke(cb, v)
	}
}

// Remove cancels every pending awaiter and invokes every callback once with
// a nil vector, then clears the registries. Called when the owning property
// is deleted.
func (p *PropertyControl) Remove() {
	p.mu.Lock()
	ready := p.awaiters
	p.awaiters = nil

	fire := make([]callbackEntry, 0, len(p.callbacks)+len(p.once))
	fire = append(fire, p.callbacks...)
	fire = append(fire, p.once...)
	p.callbacks = nil
	p.once = nil
	p.lastUpdate = time.Now()
	p.mu.Unlock()

	for _, ch := range ready {
		ch <- nil
		close(ch)
	}
	for _, cb := range fire {
		p.safeInvoke(cb, nil)
	}
}

func (p *PropertyControl) safeInvoke(cb callbackEntry, v Vector) {
	defer func() {
		if r := recover(); r != nil && p.log != nil {
			p.log.WithField("callback", cb.id).WithField("panic", r).Error("recovered from panicking property callback")
		}
	}()
	cb.fn(v)
}

// Future returns a channel that receives exactly once: the next settled
// vector, or nil if the property is removed first. If the current vector is
// already settled, the channel is pre-resolved.
func (p *PropertyControl) Future() <-chan Vector {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan Vector, 1)
	if p.vec != nil && !IsBusyOrEmpty(p.vec) {
		ch <- p.vec
		close(ch)
		return ch
	}
	p.awaiters = append(p.awaiters, ch)
	return ch
}

// RegisterCallback adds fn to the persistent registry (once=false) or the
// one-shot registry (once=true) and returns an opaque key for
// UnregisterCallback.
func (p *PropertyControl) RegisterCallback(fn func(Vector), once bool) string {
	entry := callbackEntry{id: uuid.New().String(), fn: fn}

	p.mu.Lock()
	defer p.mu.Unlock()
	if once {
		p.once = append(p.once, entry)
	} else {
		p.callbacks = append(p.callbacks, entry)
	}
	return entry.id
}

// UnregisterCallback removes the callback registered under key from either
// registry, reporting whether it found one.
func (p *PropertyControl) UnregisterCallback(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, cb := range p.callbacks {
		if cb.id == key {
			p.callbacks = append(p.callbacks[:i], p.callbacks[i+1:]...)
			return true
		}
	}
	for i, cb := range p.once {
		if cb.id == key {
			p.once = append(p.once[:i], p.once[i+1:]...)
			return true
		}
	}
	return false
}
