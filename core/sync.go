package core

// Synchronizer brings an asynchronous input line into the tick domain
// through two cascaded flip-flop stages. Out lags the raw line by exactly
// two ticks; glitches shorter than a tick never reach Out.
type Synchronizer struct {
	name   string
	source func() bool
	idle   bool

	stage [2]bool
	next  [2]bool
}

// NewSynchronizer creates a synchronizer sampling source each tick.
// idle is the reset level of both stages; serial lines that idle high
// must reset high or a reset would look like a start bit.
func NewSynchronizer(name string, source func() bool, idle bool) *Synchronizer {
	s := &Synchronizer{name: name, source: source, idle: idle}
	s.Reset()
	return s
}

func (s *Synchronizer) Name() string { return s.name }

// Out returns the synchronized line level (stage 2)
func (s *Synchronizer) Out() bool {
	return s.stage[1]
}

func (s *Synchronizer) Compute() {
	s.next[0] = s.source()
	s.next[1] = s.stage[0]
}

func (s *Synchronizer) Commit() {
	s.stage = s.next
}

func (s *Synchronizer) Reset() {
	s.stage[0] = s.idle
	s.stage[1] = s.idle
	s.next = s.stage
}
