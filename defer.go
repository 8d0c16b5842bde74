package indicore

import (
	"context"
	"sync"
)

// Defer is a value representing an in-flight operation: it can be awaited
// (blocking until settled, or until ctx is done) or polled via Check, a
// non-blocking snapshot. Every implementation caches its result once
// settled, so repeated Check calls after settling are idempotent.
type Defer interface {
	Wait(ctx context.Context) DeferResult
	// Check returns the current result and whether it has settled. Before
	// settling it reports a synthetic Busy result describing what it is
	// waiting on.
	Check() (DeferResult, bool)
}

// Just is an immediately-resolved Defer: used for synchronous errors and as
// a DeferChain's seed.
type Just struct {
	result DeferResult
}

// NewJust creates a Defer that is already settled.
func NewJust(state PropertyState, message string, data interface{}) *Just {
	return &Just{result: DeferResult{State: state, Data: data, Message: message}}
}

// Wait implements Defer.
func (j *Just) Wait(ctx context.Context) DeferResult { return j.result }

// Check implements Defer.
func (j *Just) Check() (DeferResult, bool) { return j.result, true }

// PropertyDefer awaits a property's next settled state. With no trigger it
// subscribes immediately; with a trigger it awaits the trigger first, then
// subscribes — avoiding a race where the subscription is taken before the
// triggering send has even been issued.
type PropertyDefer struct {
	tree   *DeviceTree
	device string
	name   string

	done chan struct{}
	mu   sync.Mutex
	res  *DeferResult
}

// NewDeferProperty starts awaiting device/name's next settled vector. If
// trigger is non-nil, the subscription is not taken until trigger settles.
func NewDeferProperty(tree *DeviceTree, device, name string, trigger Defer) *PropertyDefer {
	d := &PropertyDefer{tree: tree, device: device, name: name, done: make(chan struct{})}
	go d.run(trigger)
	return d
}

func (d *PropertyDefer) run(trigger Defer) {
	if trigger != nil {
		trigger.Wait(context.Background())
	}

	fut, err := d.tree.Future(d.device, d.name)
	if err != nil {
		d.settle(DeferResult{State: PropertyStateAlert, Message: "property not available, maybe device has crashed"})
		return
	}

	v, ok := <-fut
	if !ok || v == nil {
		d.settle(DeferResult{State: PropertyStateAlert, Message: "future cancelled, maybe device has crashed"})
		return
	}
	d.settle(DeferResult{State: v.Head().State, Data: v, Message: "data ready"})
}

func (d *PropertyDefer) settle(r DeferResult) {
	d.mu.Lock()
	d.res = &r
	d.mu.Unlock()
	close(d.done)
}

// Wait implements Defer.
func (d *PropertyDefer) Wait(ctx context.Context) DeferResult {
	select {
	case <-d.done:
		d.mu.Lock()
		defer d.mu.Unlock()
		return *d.res
	case <-ctx.Done():
		return DeferResult{State: PropertyStateAlert, Message: ctx.Err().Error()}
	}
}

// Check implements Defer.
func (d *PropertyDefer) Check() (DeferResult, bool) {
	select {
	case <-d.done:
		d.mu.Lock()
		defer d.mu.Unlock()
		return *d.res, true
	default:
		return DeferResult{State: PropertyStateBusy, Message: "waiting for data"}, false
	}
}

// ActionFunc runs once its predecessor has settled, receiving that result.
type ActionFunc func(prev DeferResult) DeferResult

// ActionDefer runs a continuation after a predecessor Defer settles; its
// own result is whatever the continuation returns.
type ActionDefer struct {
	done chan struct{}
	mu   sync.Mutex
	res  *DeferResult
}

// NewDeferAction starts prev, then (once it settles) runs action, whose
// return value becomes this Defer's result.
func NewDeferAction(prev Defer, action ActionFunc) *ActionDefer {
	d := &ActionDefer{done: make(chan struct{})}
	go d.run(prev, action)
	return d
}

func (d *ActionDefer) run(prev Defer, action ActionFunc) {
	prevResult := prev.Wait(context.Background())
	result := action(prevResult)
	d.mu.Lock()
	d.res = &result
	d.mu.Unlock()
	close(d.done)
}

// Wait implements Defer.
func (d *ActionDefer) Wait(ctx context.Context) DeferResult {
	select {
	case <-d.done:
		d.mu.Lock()
		defer d.mu.Unlock()
		return *d.res
	case <-ctx.Done():
		return DeferResult{State: PropertyStateAlert, Message: ctx.Err().Error()}
	}
}

// Check implements Defer.
func (d *ActionDefer) Check() (DeferResult, bool) {
	select {
	case <-d.done:
		d.mu.Lock()
		defer d.mu.Unlock()
		return *d.res, true
	default:
		return DeferResult{State: PropertyStateBusy, Message: "waiting for action to complete"}, false
	}
}

// ContinueIfOk wraps action so the chain short-circuits to Alert whenever
// the predecessor did not settle Ok, carrying the predecessor's result as
// Data instead of running action at all.
func ContinueIfOk(action ActionFunc) ActionFunc {
	return func(prev DeferResult) DeferResult {
		if prev.State != PropertyStateOk {
			return DeferResult{State: PropertyStateAlert, Data: prev, Message: "fail from previous error"}
		}
		return action(prev)
	}
}

// Chain is a mutable, append-only sequence of DeferAction links. Awaiting
// the chain awaits its current tail; adding a link after the tail has
// settled reopens the chain, since the new tail starts unsettled.
type Chain struct {
	mu    sync.Mutex
	links []Defer
}

// NewDeferChain starts a chain. If first is nil the chain begins from an
// immediately-Ok Just, so the first Add's continuation runs right away.
func NewDeferChain(first Defer) *Chain {
	if first == nil {
		first = NewJust(PropertyStateOk, "chain begin", nil)
	}
	return &Chain{links: []Defer{first}}
}

// Add appends a link whose predecessor is the current tail.
func (c *Chain) Add(action ActionFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tail := c.links[len(c.links)-1]
	c.links = append(c.links, NewDeferAction(tail, action))
}

// AddIfOk appends a link wrapped in ContinueIfOk, the usual case for a
// multi-step device workflow where each step should abort on the first
// failure.
func (c *Chain) AddIfOk(action ActionFunc) {
	c.Add(ContinueIfOk(action))
}

func (c *Chain) tail() Defer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.links[len(c.links)-1]
}

// Wait implements Defer: waits on the current tail.
func (c *Chain) Wait(ctx context.Context) DeferResult {
	return c.tail().Wait(ctx)
}

// Check implements Defer: inspects the current tail.
func (c *Chain) Check() (DeferResult, bool) {
	return c.tail().Check()
}
