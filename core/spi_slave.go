package core

// SpiSlave is a behavioral responder for the SPI master: it watches the
// committed SCLK/CS/MOSI levels and drives the raw MISO line with the
// mirrored edge roles (it shifts where the master samples will land and
// samples MOSI on the master's sample edge).
//
// The slave reacts one tick after an edge commits and the master reads
// MISO through its two-stage synchronizer, so master clock divisors below
// 4 sample stale levels when coupled to this model.
type SpiSlave struct {
	sclkIn func() bool
	csIn   func() bool
	mosiIn func() bool
	width  int
	cpol   bool
	cpha   bool
	mask   uint32

	// committed
	miso     bool
	prevSclk bool
	prevCs   bool
	txShift  uint32
	rxShift  uint32
	bitCnt   int
	received uint32
	haveRx   bool

	// next
	nxtMiso     bool
	nxtPrevSclk bool
	nxtPrevCs   bool
	nxtTxShift  uint32
	nxtRxShift  uint32
	nxtBitCnt   int
	nxtReceived uint32
	nxtHaveRx   bool

	// value presented on the next chip-select assertion
	response uint32
}

// NewSpiSlave creates a responder observing the given line getters and
// registers it with sys. width and mode must match the master's transfer
// parameters.
func NewSpiSlave(sys *System, sclk, cs, mosi func() bool, width int, mode SPIMode) *SpiSlave {
	mask := ^uint32(0)
	if width < 32 {
		mask = 1<<width - 1
	}
	s := &SpiSlave{
		sclkIn: sclk,
		csIn:   cs,
		mosiIn: mosi,
		width:  width,
		cpol:   mode.CPOL(),
		cpha:   mode.CPHA(),
		mask:   mask,
	}
	s.Reset()
	sys.Register(s)
	return s
}

func (s *SpiSlave) Name() string { return "spi_slave" }

// Miso returns the level the slave drives on the MISO line
func (s *SpiSlave) Miso() bool { return s.miso }

// Respond sets the value presented on the next transfer
func (s *SpiSlave) Respond(v uint32) { s.response = v & s.mask }

// TakeReceived returns the value shifted in by the last completed
// transfer, at most once per transfer
func (s *SpiSlave) TakeReceived() (uint32, bool) {
	if !s.haveRx {
		return 0, false
	}
	s.haveRx = false
	return s.received, true
}

func (s *SpiSlave) msb(v uint32) bool {
	return v>>(s.width-1)&1 != 0
}

func (s *SpiSlave) Compute() {
	sclk := s.sclkIn()
	cs := s.csIn()

	miso := s.miso
	txShift := s.txShift
	rxShift := s.rxShift
	bitCnt := s.bitCnt
	received := s.received
	haveRx := s.haveRx

	switch {
	case s.prevCs && !cs:
		// selected: load the response
		txShift = s.response
		rxShift = 0
		bitCnt = 0
		if !s.cpha {
			miso = s.msb(txShift)
			txShift = txShift << 1 & s.mask
		}
	case !s.prevCs && cs:
		// deselected: publish what was shifted in
		received = rxShift
		haveRx = true
	case !cs && sclk != s.prevSclk:
		leading := sclk != s.cpol
		sample := leading != s.cpha
		if sample {
			if bitCnt < s.width {
				rxShift = rxShift << 1 & s.mask
				if s.mosiIn() {
					rxShift |= 1
				}
				bitCnt++
			}
		} else if bitCnt < s.width {
			miso = s.msb(txShift)
			txShift = txShift << 1 & s.mask
		}
	}

	s.nxtMiso = miso
	s.nxtPrevSclk = sclk
	s.nxtPrevCs = cs
	s.nxtTxShift = txShift
	s.nxtRxShift = rxShift
	s.nxtBitCnt = bitCnt
	s.nxtReceived = received
	s.nxtHaveRx = haveRx
}

func (s *SpiSlave) Commit() {
	s.miso = s.nxtMiso
	s.prevSclk = s.nxtPrevSclk
	s.prevCs = s.nxtPrevCs
	s.txShift = s.nxtTxShift
	s.rxShift = s.nxtRxShift
	s.bitCnt = s.nxtBitCnt
	s.received = s.nxtReceived
	s.haveRx = s.nxtHaveRx
}

func (s *SpiSlave) Reset() {
	s.miso = false
	s.prevSclk = s.cpol
	s.prevCs = true
	s.txShift = 0
	s.rxShift = 0
	s.bitCnt = 0
	s.received = 0
	s.haveRx = false
	s.nxtMiso = s.miso
	s.nxtPrevSclk = s.prevSclk
	s.nxtPrevCs = s.prevCs
	s.nxtTxShift = 0
	s.nxtRxShift = 0
	s.nxtBitCnt = 0
	s.nxtReceived = 0
	s.nxtHaveRx = false
}
