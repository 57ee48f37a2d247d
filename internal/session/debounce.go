package session

import (
	"sync"
	"time"
)

// Debounce is the rearmable single-fire timer spec §4.H describes: each
// UpdateArgs call cancels any pending fire, stores the latest args, and
// schedules exactly one fire after timeout. It is built on time.Timer,
// matching spec §9's "rearmable one-shot timer owning a cancel handle".
//
// fn is expected to run its own logic and, if it decides the session is
// still alive, call Reschedule itself — Debounce does not assume firing
// means "done"; only Cancel does.
type Debounce struct {
	mu        sync.Mutex
	timeout   time.Duration
	fn        func(args any)
	timer     *time.Timer
	args      any
	cancelled bool
}

// NewDebounce builds a Debounce that invokes fn(args) once, timeout after
// the most recent UpdateArgs/Reschedule call.
func NewDebounce(timeout time.Duration, fn func(args any)) *Debounce {
	return &Debounce{timeout: timeout, fn: fn}
}

// UpdateArgs cancels any pending fire, stores args, and schedules a new
// fire. It returns false if Cancel has already been called — a cancelled
// Debounce cannot be rearmed and a new one must be constructed.
func (d *Debounce) UpdateArgs(args any) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancelled {
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.args = args
	d.timer = time.AfterFunc(d.timeout, d.fire)
	return true
}

// Reschedule reschedules without changing the stored args — used when the
// idle-close check decides transports are still open and wants to wait
// again (spec §4.G "Idle & close accounting").
func (d *Debounce) Reschedule() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancelled {
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.timeout, d.fire)
	return true
}

// Cancel stops any pending fire and permanently disables this Debounce;
// used when a session is torn down explicitly rather than via idle expiry.
func (d *Debounce) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.cancelled = true
}

func (d *Debounce) fire() {
	d.mu.Lock()
	if d.cancelled {
		d.mu.Unlock()
		return
	}
	args := d.args
	fn := d.fn
	d.mu.Unlock()

	fn(args)
}
