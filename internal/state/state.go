// Package state caches marketplace entities in slices with a uniform async
// lifecycle. Each slice guards its state with its own mutex, never holds it
// across a network call, and reports applied mutations to the store.
package state

import (
	"errors"
	"sync"

	"github.com/yungbote/coursemarket/internal/platform/apierr"
	"github.com/yungbote/coursemarket/internal/platform/logger"
)

type Status string

const (
	StatusIdle      Status = "idle"
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Op is the lifecycle of one operation group. Err is kept until the next attempt.
type Op struct {
	Status     Status
	Err        *apierr.Error
	Generation uint64
}

func (o Op) Loading() bool { return o.Status == StatusPending }

func idle() Op { return Op{Status: StatusIdle} }

// ErrStale is returned when a read completed after a newer read of the same
// operation was issued, or after the slice was reset. The result was discarded.
// A discarded failure is joined with ErrStale so the cause stays inspectable.
var ErrStale = errors.New("state: stale result discarded")

// Change is delivered to store subscribers after every applied mutation.
type Change struct {
	Slice string
	Op    string
}

type notifier func(Change)

// core is embedded by every slice.
type core struct {
	name   string
	log    *logger.Logger
	notify notifier

	mu   sync.RWMutex
	gens map[string]uint64
	// epoch moves on every full reset; results begun in an older epoch are dropped.
	epoch uint64
}

// ticket is what a result must still match when it lands. gen is zero for
// mutations, which apply in completion order within one epoch.
type ticket struct {
	gen   uint64
	epoch uint64
}

func newCore(name string, log *logger.Logger, notify notifier) core {
	if log == nil {
		log = logger.Nop()
	}
	return core{
		name:   name,
		log:    log.With("slice", name),
		notify: notify,
		gens:   map[string]uint64{},
	}
}

// begin marks op pending and issues the ticket its result must still hold
// when it lands. Reads pass ticketed=true and also lose to newer reads of the
// same key; mutations only lose to a reset.
func (c *core) begin(key string, op *Op, ticketed bool) ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.beginLocked(key, op, ticketed)
}

func (c *core) beginLocked(key string, op *Op, ticketed bool) ticket {
	t := ticket{epoch: c.epoch}
	if ticketed {
		c.gens[key]++
		t.gen = c.gens[key]
	}
	op.Status = StatusPending
	op.Err = nil
	op.Generation = t.gen
	return t
}

func (c *core) staleLocked(key string, t ticket) bool {
	return t.epoch != c.epoch || (t.gen != 0 && c.gens[key] != t.gen)
}

func (c *core) epochNow() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch
}

// invalidateLocked drops every in-flight result, reads and mutations alike.
func (c *core) invalidateLocked() {
	c.epoch++
	for k := range c.gens {
		c.gens[k]++
	}
}

// finish applies the outcome of an operation. resolve is called under the
// write lock and returns the Op to update (it may live in a map). apply runs
// only on success.
func (c *core) finish(key string, t ticket, err error, resolve func() *Op, apply func()) error {
	c.mu.Lock()
	if c.staleLocked(key, t) {
		c.mu.Unlock()
		c.log.Debug("discarding stale result", "op", key, "generation", t.gen, "epoch", t.epoch)
		if err != nil {
			return errors.Join(ErrStale, apierr.From(err))
		}
		return ErrStale
	}
	op := resolve()
	var out error
	if err != nil {
		e := apierr.From(err)
		op.Status = StatusFailed
		op.Err = e
		out = e
	} else {
		if apply != nil {
			apply()
		}
		op.Status = StatusSucceeded
		op.Err = nil
	}
	c.mu.Unlock()

	if out != nil {
		c.log.Debug("operation failed", "op", key, "kind", apierr.From(out).Kind, "error", out)
	}
	c.emit(key)
	return out
}

// reject records a local failure (validation, missing token) without a network call.
func (c *core) reject(key string, op *Op, err error) error {
	e := apierr.From(err)
	c.mu.Lock()
	op.Status = StatusFailed
	op.Err = e
	c.mu.Unlock()
	c.emit(key)
	return e
}

func (c *core) emit(op string) {
	if c.notify != nil {
		c.notify(Change{Slice: c.name, Op: op})
	}
}

// itemOp returns the Op stored under id, creating it. Callers hold c.mu.
func itemOp(m map[int64]*Op, id int64) *Op {
	op, ok := m[id]
	if !ok {
		op = &Op{Status: StatusIdle}
		m[id] = op
	}
	return op
}

func copyOps(m map[int64]*Op) map[int64]Op {
	out := make(map[int64]Op, len(m))
	for k, v := range m {
		out[k] = *v
	}
	return out
}

func fixed(op *Op) func() *Op { return func() *Op { return op } }

func removeByID[T any](items []T, id int64, idOf func(T) int64) []T {
	out := items[:0:0]
	for _, it := range items {
		if idOf(it) != id {
			out = append(out, it)
		}
	}
	return out
}

func replaceByID[T any](items []T, id int64, idOf func(T) int64, v T) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := range out {
		if idOf(out[i]) == id {
			out[i] = v
		}
	}
	return out
}
