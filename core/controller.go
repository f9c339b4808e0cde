package core

// Status bit-field layout, sampled by Controller.Status
const (
	StatusRxReady    = 1 << 0 // RX FIFO non-empty
	StatusTxDone     = 1 << 1 // UART TX done pulse
	StatusTxBusy     = 1 << 2 // UART TX frame in flight
	StatusSpiDone    = 1 << 3 // SPI done pulse
	StatusSpiBusy    = 1 << 4 // SPI transfer in flight
	StatusRxFifoFull = 1 << 5 // RX FIFO full
	StatusFrameError = 1 << 6 // UART RX stop-bit failure pulse
)

// Controller wires the UART framer, the SPI master and the command
// dispatcher onto one tick source. External lines are plain levels set
// and read between ticks; everything inside advances in lockstep through
// System.Tick.
type Controller struct {
	cfg  Config
	sys  *System
	stim *Stimulus

	rxLine   bool
	misoLine bool

	rxFifo *Fifo[byte]
	txFifo *Fifo[byte]
	rx     *UartRx
	tx     *UartTx
	spi    *SpiMaster
	disp   *Dispatcher // nil when the dispatcher is disabled
}

// NewController validates cfg and builds the full engine complex
func NewController(cfg Config) (*Controller, error) {
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:      cfg,
		sys:      NewSystem(),
		stim:     &Stimulus{},
		rxLine:   true, // UART line idles high
		misoLine: false,
	}
	c.rxFifo = NewFifo[byte](cfg.FifoDepth)
	c.txFifo = NewFifo[byte](cfg.FifoDepth)
	c.rx = NewUartRx(c.sys, func() bool { return c.rxLine }, c.rxFifo,
		cfg.ClockFreq, cfg.BaudRate, cfg.Oversample)
	c.tx = NewUartTx(c.sys, c.txFifo, cfg.ClockFreq, cfg.BaudRate)
	c.spi = NewSpiMaster(c.sys, func() bool { return c.misoLine },
		cfg.SpiWidth, cfg.SpiClockDivisor, cfg.SpiMode)
	if cfg.Dispatcher {
		c.disp = NewDispatcher(c.sys, c.rxFifo, c.txFifo, c.spi,
			cfg.SpiMode, c.statusByte)
	}
	return c, nil
}

// Config returns the configuration the controller was built with
func (c *Controller) Config() Config { return c.cfg }

// System exposes the tick source, for registering extra parts such as
// slave models
func (c *Controller) System() *System { return c.sys }

// Stimulus exposes the event queue run before each tick
func (c *Controller) Stimulus() *Stimulus { return c.stim }

// Tick advances the whole controller by one unit of synchronous time
func (c *Controller) Tick() {
	c.stim.RunDue(c.sys.Ticks())
	c.sys.Tick()
}

// TickN advances the controller by n ticks
func (c *Controller) TickN(n int) {
	for i := 0; i < n; i++ {
		c.Tick()
	}
}

// Ticks returns the tick counter
func (c *Controller) Ticks() uint64 { return c.sys.Ticks() }

// Reset returns every engine to idle, discarding in-flight frames and
// transfers without completion signals, and clears both FIFOs. Periodic
// stimulus events survive so line couplings stay wired; pending one-shot
// events are dropped.
func (c *Controller) Reset() {
	c.sys.Reset()
	c.rxFifo.Reset()
	c.txFifo.Reset()
	c.stim.Reset()
	c.rxLine = true
	c.misoLine = false
}

// SetRxLine drives the external UART receive line
func (c *Controller) SetRxLine(level bool) { c.rxLine = level }

// SetMisoLine drives the external MISO line
func (c *Controller) SetMisoLine(level bool) { c.misoLine = level }

// TxLine returns the UART transmit line level
func (c *Controller) TxLine() bool { return c.tx.Line() }

// Mosi returns the MOSI line level
func (c *Controller) Mosi() bool { return c.spi.Mosi() }

// Sclk returns the SPI serial clock level
func (c *Controller) Sclk() bool { return c.spi.Sclk() }

// ChipSelect returns the chip-select line level (asserted low)
func (c *Controller) ChipSelect() bool { return c.spi.ChipSelect() }

// UartRx exposes the receive engine
func (c *Controller) UartRx() *UartRx { return c.rx }

// UartTx exposes the transmit engine
func (c *Controller) UartTx() *UartTx { return c.tx }

// Spi exposes the SPI master engine
func (c *Controller) Spi() *SpiMaster { return c.spi }

// Dispatcher exposes the command dispatcher, or nil when disabled
func (c *Controller) Dispatcher() *Dispatcher { return c.disp }

// PollByte drains one byte from the RX FIFO. frameErr carries the
// current frame-error pulse; ok is false when no byte is buffered.
func (c *Controller) PollByte() (b byte, frameErr bool, ok bool) {
	frameErr = c.rx.FrameError()
	b, ok = c.rxFifo.Pop()
	return b, frameErr, ok
}

// Submit enqueues a byte for UART transmission; false iff the TX FIFO
// is full
func (c *Controller) Submit(b byte) bool {
	return c.tx.Submit(b)
}

// InjectRxByte pushes a byte into the RX FIFO as if a frame had just
// been received, bypassing serialization. Byte-level harness for
// collaborators that sit above the wire. False iff the FIFO is full.
func (c *Controller) InjectRxByte(b byte) bool {
	return c.rxFifo.Push(b)
}

// TakeTxByte removes the next byte queued for UART transmission,
// bypassing serialization. Call between ticks; the transmit engine
// only claims a byte during a tick, so a byte seen here is safe to take.
func (c *Controller) TakeTxByte() (byte, bool) {
	return c.txFifo.Pop()
}

// statusByte assembles the status bit-field from committed state
func (c *Controller) statusByte() byte {
	var s byte
	if !c.rxFifo.Empty() {
		s |= StatusRxReady
	}
	if c.tx.Done() {
		s |= StatusTxDone
	}
	if c.tx.Busy() {
		s |= StatusTxBusy
	}
	if c.spi.Done() {
		s |= StatusSpiDone
	}
	if c.spi.Busy() {
		s |= StatusSpiBusy
	}
	if c.rxFifo.Full() {
		s |= StatusRxFifoFull
	}
	if c.rx.FrameError() {
		s |= StatusFrameError
	}
	return s
}

// Status returns the status bit-field sampled at call time
func (c *Controller) Status() byte {
	return c.statusByte()
}
