package core

// UART transmit engine.
//
// A byte popped from the TX FIFO is framed as start bit, 8 data bits (LSB
// first) and stop bit, each driven for one bit period. The line idles
// high. Completion is signalled as a one-tick done pulse; busy holds from
// the byte pop until the done pulse inclusive.

type txState uint8

const (
	txIdle txState = iota
	txStart
	txData
	txStop
	txDone
)

// txRegs is the flip-flop state of the transmitter
type txRegs struct {
	state    txState
	prescale int // ticks until the next baud tick
	bitIdx   int // data bit currently on the wire
	shift    byte
	line     bool
	busy     bool
	done     bool // one-tick pulse
}

// UartTx is the UART transmitter
type UartTx struct {
	sys  *System
	fifo *Fifo[byte]
	div  int // ticks per bit period

	cur txRegs
	nxt txRegs

	popReq bool
}

// NewUartTx creates a transmitter draining fifo and registers it with sys
func NewUartTx(sys *System, fifo *Fifo[byte], clockFreq, baud int) *UartTx {
	div := clockFreq / baud
	if div < 1 {
		div = 1
	}
	u := &UartTx{sys: sys, fifo: fifo, div: div}
	u.Reset()
	sys.Register(u)
	return u
}

func (u *UartTx) Name() string { return "uart_tx" }

// Line returns the serial output level
func (u *UartTx) Line() bool { return u.cur.line }

// Busy reports a frame in flight, from byte pop until done inclusive
func (u *UartTx) Busy() bool { return u.cur.busy }

// Done reports the one-tick completion pulse
func (u *UartTx) Done() bool { return u.cur.done }

// Submit enqueues a byte for transmission. It returns false iff the TX
// FIFO is full. Call between ticks.
func (u *UartTx) Submit(b byte) bool {
	return u.fifo.Push(b)
}

func (u *UartTx) Compute() {
	n := u.cur
	n.done = false
	u.popReq = false

	// the done pulse lasts one tick, not one bit period
	if n.state == txDone {
		n.state = txIdle
		n.busy = false
		n.line = true
	}

	n.prescale++
	if n.prescale < u.div {
		u.nxt = n
		return
	}
	n.prescale = 0

	switch n.state {
	case txIdle:
		if b, ok := u.fifo.Peek(); ok {
			n.shift = b
			u.popReq = true
			n.busy = true
			n.state = txStart
			n.line = false // start bit
		} else {
			n.line = true
		}
	case txStart:
		n.state = txData
		n.bitIdx = 0
		n.line = n.shift&1 != 0
	case txData:
		n.bitIdx++
		if n.bitIdx == 8 {
			n.state = txStop
			n.line = true // stop bit
		} else {
			n.line = n.shift>>n.bitIdx&1 != 0
		}
	case txStop:
		n.state = txDone
		n.done = true
		n.line = true
	}
	u.nxt = n
}

func (u *UartTx) Commit() {
	u.cur = u.nxt
	if u.popReq {
		u.fifo.Pop()
		traceEvent(EvtTxStart, u.sys.Ticks(), uint32(u.cur.shift))
	}
	if u.cur.done {
		traceEvent(EvtTxDone, u.sys.Ticks(), uint32(u.cur.shift))
	}
}

func (u *UartTx) Reset() {
	u.cur = txRegs{line: true}
	u.nxt = u.cur
	u.popReq = false
}
