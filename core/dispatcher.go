package core

// Command dispatcher: the only place the UART and SPI paths meet.
//
// Bytes decoded on the UART RX path select one of a small closed command
// set; the dispatcher runs the matching SPI exchange (or a local action)
// and hands the result byte to the UART TX path. It never blocks: waiting
// for a data byte, for the SPI master or for TX FIFO space is expressed
// as state residency across ticks.

// Command bytes understood by the dispatcher
const (
	CmdWrite  = 0x01 // next byte is exchanged over SPI, reply is the received byte
	CmdRead   = 0x02 // exchange a 0xFF filler over SPI, reply is the received byte
	CmdStatus = 0x03 // reply is the status bit-field
	CmdEcho   = 0x04 // next byte is replied unchanged
)

type dispState uint8

const (
	dispIdle dispState = iota
	dispCommandReceived
	dispAwaitingDataByte
	dispSpiExecuting
	dispAwaitingSpiResult
	dispResultReady
)

// dispRegs is the flip-flop state of the dispatcher
type dispRegs struct {
	state  dispState
	cmd    byte
	data   byte
	result byte
}

// Dispatcher sequences command bytes onto the SPI master
type Dispatcher struct {
	sys    *System
	rxFifo *Fifo[byte]
	txFifo *Fifo[byte]
	spi    *SpiMaster
	status func() byte

	// SPI mode used for dispatched transfers; changed only while idle
	mode SPIMode

	cur dispRegs
	nxt dispRegs

	popRx   bool
	pushTx  bool
	spiGo   bool
	spiTake bool
}

// NewDispatcher creates a dispatcher between the two FIFOs and the SPI
// master and registers it with sys. status supplies the byte returned by
// the status command.
func NewDispatcher(sys *System, rxFifo, txFifo *Fifo[byte], spi *SpiMaster, mode SPIMode, status func() byte) *Dispatcher {
	d := &Dispatcher{
		sys:    sys,
		rxFifo: rxFifo,
		txFifo: txFifo,
		spi:    spi,
		status: status,
		mode:   mode,
	}
	d.Reset()
	sys.Register(d)
	return d
}

func (d *Dispatcher) Name() string { return "dispatcher" }

// Mode returns the SPI mode used for dispatched transfers
func (d *Dispatcher) Mode() SPIMode { return d.mode }

// SetMode changes the SPI mode for subsequent transfers. It returns
// false while a command is in progress.
func (d *Dispatcher) SetMode(mode SPIMode) bool {
	if d.cur.state != dispIdle || mode > 3 {
		return false
	}
	d.mode = mode
	return true
}

// Idle reports that no command is in progress
func (d *Dispatcher) Idle() bool { return d.cur.state == dispIdle }

func (d *Dispatcher) Compute() {
	n := d.cur
	d.popRx = false
	d.pushTx = false
	d.spiGo = false
	d.spiTake = false

	switch d.cur.state {
	case dispIdle:
		if b, ok := d.rxFifo.Peek(); ok {
			n.cmd = b
			d.popRx = true
			n.state = dispCommandReceived
		}
	case dispCommandReceived:
		switch d.cur.cmd {
		case CmdWrite, CmdEcho:
			n.state = dispAwaitingDataByte
		case CmdRead:
			n.data = 0xFF
			n.state = dispSpiExecuting
		case CmdStatus:
			n.result = d.status()
			n.state = dispResultReady
		default:
			// unknown command bytes are consumed and ignored
			n.state = dispIdle
		}
	case dispAwaitingDataByte:
		if b, ok := d.rxFifo.Peek(); ok {
			n.data = b
			d.popRx = true
			if d.cur.cmd == CmdEcho {
				n.result = b
				n.state = dispResultReady
			} else {
				n.state = dispSpiExecuting
			}
		}
	case dispSpiExecuting:
		if !d.spi.Busy() {
			d.spiGo = true
			n.state = dispAwaitingSpiResult
		}
	case dispAwaitingSpiResult:
		if d.spi.ResultPending() {
			d.spiTake = true
			n.state = dispResultReady
		}
	case dispResultReady:
		if !d.txFifo.Full() {
			d.pushTx = true
			n.state = dispIdle
		}
	}
	d.nxt = n
}

func (d *Dispatcher) Commit() {
	d.cur = d.nxt
	if d.popRx {
		d.rxFifo.Pop()
		if d.cur.state == dispCommandReceived {
			traceEvent(EvtDispatch, d.sys.Ticks(), uint32(d.cur.cmd))
		}
	}
	if d.spiGo {
		if !d.spi.Start(uint32(d.cur.data), d.mode.CPOL(), d.mode.CPHA()) {
			// lost a race for the master; retry next tick
			d.cur.state = dispSpiExecuting
		}
	}
	if d.spiTake {
		if v, ok := d.spi.Poll(); ok {
			d.cur.result = byte(v)
		} else {
			d.cur.state = dispAwaitingSpiResult
		}
	}
	if d.pushTx {
		d.txFifo.Push(d.cur.result)
	}
}

func (d *Dispatcher) Reset() {
	d.cur = dispRegs{}
	d.nxt = d.cur
	d.popRx = false
	d.pushTx = false
	d.spiGo = false
	d.spiTake = false
}
