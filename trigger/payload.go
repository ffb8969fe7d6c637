package trigger

import (
	"maps"
	"sync"
)

// TargetKey is the key under which the payload records which element the
// activating event was dispatched to.
const TargetKey = "target"

// Data is the caller-supplied payload of a show request.
type Data map[string]any

// Collector produces the payload for an activation. It is called on the loop
// with the trigger's current configuration.
type Collector func(cfg Config) Payload

// CollectNothing is the default collector.
func CollectNothing(Config) Payload { return Immediate(nil) }

// Payload is either an immediate value or a deferred one.
type Payload struct {
	value    Data
	deferred *Future
}

func Immediate(d Data) Payload { return Payload{value: d} }

func Deferred(f *Future) Payload { return Payload{deferred: f} }

// IsDeferred reports whether the payload has to be waited for.
func (p Payload) IsDeferred() bool { return p.deferred != nil }

// Value returns an immediate payload's data.
func (p Payload) Value() Data { return p.value }

// Future returns a deferred payload's future.
func (p Payload) Future() *Future { return p.deferred }

// Future is a payload that becomes available later. It is resolved at most
// once; continuations registered with Then run exactly once after resolution,
// unless the future was canceled first.
//
// Futures may be resolved from any goroutine. Continuations run on the
// goroutine that resolves the future, or on the caller of Then if the future
// had already been resolved.
type Future struct {
	mu       sync.Mutex
	done     bool
	canceled bool
	value    Data
	thens    []func(Data)
}

// NewFuture returns an unresolved future and the function that resolves it.
// Only the first call to resolve has an effect.
func NewFuture() (*Future, func(Data)) {
	f := &Future{}
	return f, f.resolve
}

// Resolved returns a future that has already been resolved with d.
func Resolved(d Data) *Future {
	f := &Future{done: true, value: d}
	return f
}

func (f *Future) resolve(d Data) {
	f.mu.Lock()
	if f.done || f.canceled {
		f.mu.Unlock()
		return
	}
	f.done = true
	f.value = d
	thens := f.thens
	f.thens = nil
	f.mu.Unlock()

	for _, fn := range thens {
		fn(d)
	}
}

// Then registers fn to be called with the resolved value.
func (f *Future) Then(fn func(Data)) {
	f.mu.Lock()
	if f.canceled {
		f.mu.Unlock()
		return
	}
	if !f.done {
		f.thens = append(f.thens, fn)
		f.mu.Unlock()
		return
	}
	v := f.value
	f.mu.Unlock()
	fn(v)
}

// Cancel drops all pending continuations and makes later resolution a no-op.
// It reports whether the future was still pending.
func (f *Future) Cancel() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done || f.canceled {
		return false
	}
	f.canceled = true
	f.thens = nil
	return true
}

// merge returns a fresh copy of d with TargetKey set to target.
func merge(d Data, target any) Data {
	out := make(Data, len(d)+1)
	maps.Copy(out, d)
	out[TargetKey] = target
	return out
}
