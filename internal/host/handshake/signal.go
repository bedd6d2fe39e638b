package handshake

import "sync/atomic"

// Counters accumulates handshake statistics. Several signals may share one
// Counters so that totals survive a signal being replaced.
type Counters struct {
	arms       atomic.Uint64
	sets       atomic.Uint64
	violations atomic.Uint64
	doubled    atomic.Uint64
}

// Stats is a snapshot of signal counters.
type Stats struct {
	Arms uint64
	Sets uint64
	// Violations counts Arm calls made while the previous arm was never waited on.
	Violations uint64
	// Doubled counts Set calls that found the slot already full.
	Doubled uint64
}

// Stats returns the current counters.
func (c *Counters) Stats() Stats {
	return Stats{
		Arms:       c.arms.Load(),
		Sets:       c.sets.Load(),
		Violations: c.violations.Load(),
		Doubled:    c.doubled.Load(),
	}
}

// Signal is a reusable one-slot auto-reset event.
type Signal struct {
	ch    chan struct{}
	armed atomic.Bool
	c     *Counters
}

// New returns an unarmed signal recording into c. A nil c gets counters
// of its own.
func New(c *Counters) *Signal {
	if c == nil {
		c = new(Counters)
	}
	return &Signal{ch: make(chan struct{}, 1), c: c}
}

// Arm resets the signal before a new wait. A stale set left in the slot is
// discarded.
func (s *Signal) Arm() {
	if s.armed.Swap(true) {
		s.c.violations.Add(1)
	}
	s.c.arms.Add(1)
	s.drain()
}

// Disarm withdraws an arm that will not be waited on, such as when the
// accept it preceded could not be issued.
func (s *Signal) Disarm() {
	s.armed.Store(false)
	s.drain()
}

// Set releases one waiter. It never blocks.
func (s *Signal) Set() {
	s.c.sets.Add(1)
	select {
	case s.ch <- struct{}{}:
	default:
		s.c.doubled.Add(1)
	}
}

// Wait blocks until Set is called.
func (s *Signal) Wait() {
	<-s.ch
	s.armed.Store(false)
}

// Stats returns the counters the signal records into.
func (s *Signal) Stats() Stats {
	return s.c.Stats()
}

func (s *Signal) drain() {
	select {
	case <-s.ch:
	default:
	}
}
