package core

// UART receive engine.
//
// The line is sampled at Oversample times the bit rate. A falling edge in
// idle arms the start-bit check; half a bit period later the line is
// re-sampled to reject glitches, then one sample is taken at the center of
// each of the 8 data bits (LSB first on the wire) and of the stop bit. A
// high stop bit pushes the assembled byte into the RX FIFO; a low stop bit
// raises the frame-error pulse and discards the byte.

type rxState uint8

const (
	rxIdle rxState = iota
	rxStartConfirm
	rxData
	rxStopCheck
)

// rxRegs is the flip-flop state of the receiver
type rxRegs struct {
	state    rxState
	prescale int  // ticks until the next oversample tick
	sub      int  // oversample ticks spent in the current state
	bitIdx   int  // next data bit position to fill
	shift    byte // frame assembly register
	frameErr bool // one-tick pulse on stop-bit failure
}

// UartRx is the oversampled UART receiver
type UartRx struct {
	sys  *System
	sync *Synchronizer
	fifo *Fifo[byte]
	ovr  int // samples per bit period
	div  int // ticks per oversample tick

	cur rxRegs
	nxt rxRegs

	pushReq  bool
	pushByte byte
}

// NewUartRx creates a receiver sampling line and filling fifo, and
// registers it with sys. clockFreq, baud and ovr must already be
// validated (see Config.Validate).
func NewUartRx(sys *System, line func() bool, fifo *Fifo[byte], clockFreq, baud, ovr int) *UartRx {
	div := clockFreq / (baud * ovr)
	if div < 1 {
		div = 1
	}
	u := &UartRx{
		sys:  sys,
		sync: NewSynchronizer("uart_rx_sync", line, true),
		fifo: fifo,
		ovr:  ovr,
		div:  div,
	}
	u.Reset()
	sys.Register(u)
	return u
}

func (u *UartRx) Name() string { return "uart_rx" }

// FrameError reports the stop-bit failure pulse. It is true only for the
// tick following a failed stop-bit check; poll it promptly.
func (u *UartRx) FrameError() bool { return u.cur.frameErr }

// Fifo exposes the receive FIFO for draining
func (u *UartRx) Fifo() *Fifo[byte] { return u.fifo }

func (u *UartRx) Compute() {
	u.sync.Compute()

	n := u.cur
	n.frameErr = false
	u.pushReq = false

	n.prescale++
	if n.prescale < u.div {
		u.nxt = n
		return
	}
	n.prescale = 0

	in := u.sync.Out()
	switch u.cur.state {
	case rxIdle:
		if !in {
			n.state = rxStartConfirm
			n.sub = 0
		}
	case rxStartConfirm:
		n.sub++
		if n.sub == u.ovr/2-1 {
			if !in {
				// confirmed at mid-bit; sampling is now centered
				n.state = rxData
				n.sub = 0
				n.bitIdx = 0
				n.shift = 0
			} else {
				// false start
				n.state = rxIdle
			}
		}
	case rxData:
		n.sub++
		if n.sub == u.ovr {
			n.sub = 0
			if in {
				n.shift |= 1 << n.bitIdx
			}
			n.bitIdx++
			if n.bitIdx == 8 {
				n.state = rxStopCheck
			}
		}
	case rxStopCheck:
		n.sub++
		if n.sub == u.ovr {
			if in {
				u.pushReq = true
				u.pushByte = n.shift
			} else {
				n.frameErr = true
			}
			n.state = rxIdle
		}
	}
	u.nxt = n
}

func (u *UartRx) Commit() {
	u.sync.Commit()
	u.cur = u.nxt
	if u.pushReq {
		if u.fifo.Push(u.pushByte) {
			traceEvent(EvtRxFrame, u.sys.Ticks(), uint32(u.pushByte))
		} else {
			// documented overflow policy: the frame is dropped silently
			traceEvent(EvtFifoDrop, u.sys.Ticks(), uint32(u.pushByte))
		}
	} else if u.nxt.frameErr {
		traceEvent(EvtFrameError, u.sys.Ticks(), uint32(u.nxt.shift))
	}
}

func (u *UartRx) Reset() {
	u.sync.Reset()
	u.cur = rxRegs{}
	u.nxt = u.cur
	u.pushReq = false
}
