package core

// SPI master engine.
//
// The serial clock idles at the CPOL level and toggles every divisor
// ticks during a transfer; each toggle is a leading edge (away from idle)
// or a trailing edge (back to idle). CPHA selects the edge roles:
//
//	CPHA=0: leading edge samples MISO, trailing edge shifts MOSI
//	CPHA=1: leading edge shifts MOSI, trailing edge samples MISO
//
// CPOL only changes which clock level counts as idle; the role assignment
// is unchanged. Bits move MSB first in both directions. MISO passes
// through a two-stage synchronizer, so the divisor must leave at least
// two ticks between a responder's shift edge and the sample edge.

type spiState uint8

const (
	spiIdle spiState = iota
	spiTransfer
	spiFinish
)

// spiRegs is the flip-flop state of the master
type spiRegs struct {
	state   spiState
	cpol    bool
	cpha    bool
	sclk    bool
	mosi    bool
	csn     bool // chip-select line level; asserted low
	divCnt  int
	bitCnt  int
	txShift uint32
	rxShift uint32
	done    bool // one-tick pulse
}

// SpiMaster is the mode-parameterized SPI master
type SpiMaster struct {
	sys      *System
	sync     *Synchronizer // MISO
	width    int
	div      int
	mask     uint32
	idleCpol bool // clock level before the first transfer and after Reset

	cur spiRegs
	nxt spiRegs

	// start request latched by Start, consumed on the next tick
	startReq  bool
	startVal  uint32
	startCpol bool
	startCpha bool

	// completion plumbing, deliberately outside the register snapshot
	// so Poll between ticks cannot be clobbered by a later Commit
	loadPending   bool
	finishPending bool
	busy          bool
	result        uint32
	resultValid   bool
}

// NewSpiMaster creates a master with fixed width and clock divisor,
// sampling miso, and registers it with sys. mode sets the clock idle
// level before any transfer; each Start still carries its own mode.
func NewSpiMaster(sys *System, miso func() bool, width, divisor int, mode SPIMode) *SpiMaster {
	if width < 1 {
		width = 8
	}
	if divisor < 2 {
		divisor = 2
	}
	mask := ^uint32(0)
	if width < 32 {
		mask = 1<<width - 1
	}
	m := &SpiMaster{
		sys:      sys,
		sync:     NewSynchronizer("spi_miso_sync", miso, false),
		width:    width,
		div:      divisor,
		mask:     mask,
		idleCpol: mode.CPOL(),
	}
	m.Reset()
	sys.Register(m)
	return m
}

func (m *SpiMaster) Name() string { return "spi_master" }

// Sclk returns the serial clock line level
func (m *SpiMaster) Sclk() bool { return m.cur.sclk }

// Mosi returns the MOSI line level
func (m *SpiMaster) Mosi() bool { return m.cur.mosi }

// ChipSelect returns the chip-select line level (asserted low)
func (m *SpiMaster) ChipSelect() bool { return m.cur.csn }

// Busy reports a transfer in flight, from Start acceptance until the
// done pulse inclusive
func (m *SpiMaster) Busy() bool { return m.busy }

// Done reports the one-tick completion pulse
func (m *SpiMaster) Done() bool { return m.cur.done }

// ResultPending reports an unconsumed completed transfer
func (m *SpiMaster) ResultPending() bool { return m.resultValid }

// Width returns the transfer width in bits
func (m *SpiMaster) Width() int { return m.width }

// Divisor returns the current serial clock divisor
func (m *SpiMaster) Divisor() int { return m.div }

// SetDivisor changes the serial clock divisor for subsequent transfers.
// It returns false while a transfer is in flight or for divisors below 2.
func (m *SpiMaster) SetDivisor(d int) bool {
	if m.busy || d < 2 {
		return false
	}
	m.div = d
	return true
}

// Start requests a single-shot transfer of value with the given mode.
// It returns false and changes nothing while a transfer is in flight.
// The engine loads the shift register and asserts chip select on the
// next tick. Call between ticks.
func (m *SpiMaster) Start(value uint32, cpol, cpha bool) bool {
	if m.busy {
		return false
	}
	m.busy = true
	m.startReq = true
	m.startVal = value & m.mask
	m.startCpol = cpol
	m.startCpha = cpha
	traceEvent(EvtSpiStart, m.sys.Ticks(), m.startVal)
	return true
}

// Poll returns the received value of a completed transfer exactly once.
// An unpolled result is replaced if a new transfer is started.
func (m *SpiMaster) Poll() (uint32, bool) {
	if !m.resultValid {
		return 0, false
	}
	m.resultValid = false
	return m.result, true
}

// msb returns the output bit for the top of the shift register
func (m *SpiMaster) msb(v uint32) bool {
	return v>>(m.width-1)&1 != 0
}

func (m *SpiMaster) Compute() {
	m.sync.Compute()

	n := m.cur
	n.done = false
	m.loadPending = false
	m.finishPending = false

	switch m.cur.state {
	case spiIdle:
		if m.startReq {
			n.state = spiTransfer
			n.cpol = m.startCpol
			n.cpha = m.startCpha
			n.txShift = m.startVal
			n.rxShift = 0
			n.bitCnt = 0
			n.divCnt = 0
			n.sclk = n.cpol
			n.csn = false
			if !n.cpha {
				// first bit is valid from chip-select assert
				n.mosi = m.msb(n.txShift)
				n.txShift = n.txShift << 1 & m.mask
			}
			m.loadPending = true
		}
	case spiTransfer:
		n.divCnt++
		if n.divCnt >= m.div {
			n.divCnt = 0
			n.sclk = !m.cur.sclk
			leading := n.sclk != n.cpol
			sample := leading != n.cpha
			if sample {
				if n.bitCnt < m.width {
					n.rxShift = n.rxShift << 1 & m.mask
					if m.sync.Out() {
						n.rxShift |= 1
					}
					n.bitCnt++
				}
			} else if n.bitCnt < m.width {
				n.mosi = m.msb(n.txShift)
				n.txShift = n.txShift << 1 & m.mask
			}
			// the transfer ends once every bit is sampled and the
			// clock has returned to its idle level
			if n.bitCnt == m.width && n.sclk == n.cpol {
				n.state = spiFinish
			}
		}
	case spiFinish:
		n.csn = true
		n.sclk = n.cpol
		n.done = true
		n.state = spiIdle
		m.finishPending = true
	}
	m.nxt = n
}

func (m *SpiMaster) Commit() {
	m.sync.Commit()
	m.cur = m.nxt
	if m.loadPending {
		m.startReq = false
	}
	if m.finishPending {
		m.result = m.cur.rxShift
		m.resultValid = true
		m.busy = false
		traceEvent(EvtSpiDone, m.sys.Ticks(), m.result)
	}
}

func (m *SpiMaster) Reset() {
	m.sync.Reset()
	m.cur = spiRegs{csn: true, sclk: m.idleCpol, cpol: m.idleCpol}
	m.nxt = m.cur
	m.startReq = false
	m.loadPending = false
	m.finishPending = false
	m.busy = false
	m.result = 0
	m.resultValid = false
}
