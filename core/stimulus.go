package core

// Stimulus is a tick-ordered event queue for driving external lines
// during a simulation run: testbench waveforms, periodic samplers,
// scripted fault injection. Events fire between ticks, before the next
// compute phase, so from the engines' point of view they are ordinary
// external input changes.

// StimEvent is a scheduled callback
type StimEvent struct {
	At     uint64 // tick the event fires on
	Period uint64 // reschedule interval; 0 for one-shot
	Fn     func()
	next   *StimEvent
}

// Stimulus holds pending events sorted by firing tick
type Stimulus struct {
	head *StimEvent
}

// Schedule queues fn to run just before tick at
func (s *Stimulus) Schedule(at uint64, fn func()) {
	s.insert(&StimEvent{At: at, Fn: fn})
}

// SchedulePeriodic queues fn to run before tick at and then every
// period ticks
func (s *Stimulus) SchedulePeriodic(at, period uint64, fn func()) {
	s.insert(&StimEvent{At: at, Period: period, Fn: fn})
}

// insert keeps the list sorted by At
func (s *Stimulus) insert(e *StimEvent) {
	if s.head == nil || e.At < s.head.At {
		e.next = s.head
		s.head = e
		return
	}
	cur := s.head
	for cur.next != nil && cur.next.At <= e.At {
		cur = cur.next
	}
	e.next = cur.next
	cur.next = e
}

// RunDue fires every event scheduled at or before now
func (s *Stimulus) RunDue(now uint64) {
	for s.head != nil && s.head.At <= now {
		e := s.head
		s.head = e.next
		e.next = nil
		e.Fn()
		if e.Period > 0 {
			e.At += e.Period
			s.insert(e)
		}
	}
}

// Clear drops all pending events
func (s *Stimulus) Clear() {
	s.head = nil
}

// Reset drops pending one-shot events and rebases periodic events to
// their phase within the first period, matching a tick counter that
// returned to zero. Line couplings installed as periodic events stay
// armed across a reset.
func (s *Stimulus) Reset() {
	old := s.head
	s.head = nil
	for old != nil {
		e := old
		old = old.next
		e.next = nil
		if e.Period == 0 {
			continue
		}
		e.At %= e.Period
		s.insert(e)
	}
}
