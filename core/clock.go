// Clocked simulation core for the UART/SPI controller.
//
// Every engine in this package is a state machine advanced in discrete
// ticks. A tick has two phases: all registered parts compute their next
// state from committed state, then all parts commit at once. This mirrors
// flip-flop semantics: no part can observe another part's post-tick state
// within the same tick, so evaluation order never changes the result.
package core

// Clockable is a stateful part driven by the system clock.
// Compute must read only committed state (its own and other parts');
// Commit publishes the state computed in the same tick.
type Clockable interface {
	// Name identifies the part in traces and errors
	Name() string

	// Compute derives the next state from committed state
	Compute()

	// Commit atomically publishes the state derived by Compute
	Commit()

	// Reset returns the part to its power-on state
	Reset()
}

// System owns the tick counter and the registry of clocked parts
type System struct {
	parts []Clockable
	ticks uint64
}

// NewSystem creates an empty system with the tick counter at zero
func NewSystem() *System {
	return &System{}
}

// Register adds a part to the system
// Registration order has no effect on simulation results
func (s *System) Register(c Clockable) {
	s.parts = append(s.parts, c)
}

// Tick advances the whole system by one unit of synchronous time.
// All parts compute, then all parts commit.
func (s *System) Tick() {
	for _, p := range s.parts {
		p.Compute()
	}
	for _, p := range s.parts {
		p.Commit()
	}
	s.ticks++
}

// TickN advances the system by n ticks
func (s *System) TickN(n int) {
	for i := 0; i < n; i++ {
		s.Tick()
	}
}

// Ticks returns the number of ticks since construction or the last Reset.
// The counter is strictly increasing between resets.
func (s *System) Ticks() uint64 {
	return s.ticks
}

// Reset returns every registered part to its power-on state and zeroes
// the tick counter. In-flight frames and transfers are discarded without
// completion signals.
func (s *System) Reset() {
	for _, p := range s.parts {
		p.Reset()
	}
	s.ticks = 0
}
