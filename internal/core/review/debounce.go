package review

import (
	"sync"
	"sync/atomic"
	"time"
)

// Sequence is a monotonic generation counter. A lookup captures Next() when
// it is issued and applies its result only while IsCurrent still holds.
type Sequence struct {
	n atomic.Uint64
}

// Next advances the sequence and returns the new value.
func (s *Sequence) Next() uint64 {
	return s.n.Add(1)
}

// Current returns the latest issued value.
func (s *Sequence) Current() uint64 {
	return s.n.Load()
}

// IsCurrent reports whether n is the latest issued value.
func (s *Sequence) IsCurrent(n uint64) bool {
	return s.n.Load() == n
}

// pending counts outstanding work. Unlike sync.WaitGroup, add may be called
// while another goroutine is blocked in wait.
type pending struct {
	mu   sync.Mutex
	n    int
	idle chan struct{}
}

func (p *pending) add() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.n == 0 {
		p.idle = make(chan struct{})
	}
	p.n++
}

func (p *pending) done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.n--
	if p.n == 0 {
		close(p.idle)
	}
}

// wait blocks until the count drops to zero.
func (p *pending) wait() {
	p.mu.Lock()
	if p.n == 0 {
		p.mu.Unlock()
		return
	}
	idle := p.idle
	p.mu.Unlock()
	<-idle
}

// Debouncer delays a call until input has been quiet for a fixed delay.
// A delay of zero or less runs the call immediately on the caller's goroutine.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending pending
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn, replacing any call that has not fired yet.
func (d *Debouncer) Trigger(fn func()) {
	if d.delay <= 0 {
		fn()
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.pending.add()
	d.timer = time.AfterFunc(d.delay, func() {
		defer d.pending.done()
		fn()
	})
}

// Stop cancels a pending call. A call that already started is not affected.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *Debouncer) stopLocked() {
	if d.timer == nil {
		return
	}
	if d.timer.Stop() {
		d.pending.done()
	}
	d.timer = nil
}

// Wait blocks until every scheduled call has either fired and returned or
// been cancelled.
func (d *Debouncer) Wait() {
	d.pending.wait()
}
