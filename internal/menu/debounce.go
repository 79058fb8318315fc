package menu

import (
	"sort"
	"sync"
	"time"
)

// DefaultDebounce is how long a text or date edit waits for further
// keystrokes before it is applied.
const DefaultDebounce = 2 * time.Second

// Timer is a scheduled callback.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock schedules callbacks on the runtime timer.
type RealClock struct{}

func (RealClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Debouncer coalesces calls per key: scheduling a key again cancels the
// pending call and restarts its delay.
type Debouncer struct {
	clock Clock
	delay time.Duration
	run   func(func())

	mu      sync.Mutex
	seq     uint64
	pending map[string]pendingCall
}

type pendingCall struct {
	seq   uint64
	timer Timer
	fn    func()
}

// NewDebouncer returns a debouncer firing delay after the last Schedule.
func NewDebouncer(clock Clock, delay time.Duration) *Debouncer {
	if clock == nil {
		clock = RealClock{}
	}
	return &Debouncer{
		clock:   clock,
		delay:   delay,
		run:     func(f func()) { f() },
		pending: make(map[string]pendingCall),
	}
}

// SetRunner sets how timer-fired calls are run. Flush bypasses it.
func (d *Debouncer) SetRunner(run func(func())) { d.run = run }

// Schedule replaces any pending call for key with fn.
func (d *Debouncer) Schedule(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.pending[key]; ok {
		p.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.pending[key] = pendingCall{
		seq:   seq,
		timer: d.clock.AfterFunc(d.delay, func() { d.fire(key, seq) }),
		fn:    fn,
	}
}

func (d *Debouncer) fire(key string, seq uint64) {
	d.mu.Lock()
	p, ok := d.pending[key]
	if !ok || p.seq != seq {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()
	d.run(p.fn)
}

// Cancel drops the pending call for key.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.pending[key]; ok {
		p.timer.Stop()
		delete(d.pending, key)
	}
}

// Flush runs every pending call now, in scheduling order.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	calls := make([]pendingCall, 0, len(d.pending))
	for k, p := range d.pending {
		p.timer.Stop()
		calls = append(calls, p)
		delete(d.pending, k)
	}
	d.mu.Unlock()

	sort.Slice(calls, func(i, j int) bool { return calls[i].seq < calls[j].seq })
	for _, p := range calls {
		p.fn()
	}
}

// Pending returns the number of scheduled calls.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// ManualClock is a Clock that only moves when told to.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock   *ManualClock
	at      time.Duration
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func (c *ManualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward and runs due callbacks on the calling
// goroutine.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*manualTimer
	kept := c.timers[:0]
	for _, t := range c.timers {
		switch {
		case t.stopped:
		case t.at <= c.now:
			t.stopped = true
			due = append(due, t)
		default:
			kept = append(kept, t)
		}
	}
	c.timers = kept
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}
