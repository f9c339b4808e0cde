package core

import "strconv"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TraceEvent captures a simulation event for post-mortem analysis
type TraceEvent struct {
	Kind  uint8  // Event kind code
	Tick  uint64 // System tick at event
	Value uint32 // Context-dependent value (byte, status, mode)
}

// Trace event kind codes
const (
	EvtRxFrame    = 1 // UART RX assembled a valid frame
	EvtFrameError = 2 // UART RX stop-bit check failed
	EvtFifoDrop   = 3 // RX frame dropped on full FIFO
	EvtTxStart    = 4 // UART TX popped a byte
	EvtTxDone     = 5 // UART TX finished a frame
	EvtSpiStart   = 6 // SPI master accepted a transfer
	EvtSpiDone    = 7 // SPI transfer completed
	EvtDispatch   = 8 // Dispatcher decoded a command byte
)

const (
	// TraceRingSize is the number of events kept for post-mortem
	TraceRingSize = 64
)

var (
	// debugPrintln is the global debug print function
	debugPrintln DebugWriter = func(s string) {}

	// debugEnabled controls whether debug output is active
	debugEnabled bool

	// Trace capture ring (always on, overwrites oldest)
	traceRing     [TraceRingSize]TraceEvent
	traceRingHead int
	traceRingLen  int
)

// SetDebugWriter sets the debug output function.
// Callers can redirect output to stderr, a log file, or a test logger.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output.
// Disabled by default so tight tick loops pay nothing.
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// debugPrint writes a message when debug output is enabled
func debugPrint(s string) {
	if debugEnabled {
		debugPrintln(s)
	}
}

// traceEvent records an event in the post-mortem ring and, when debug
// output is enabled, writes it through the debug writer as it happens
func traceEvent(kind uint8, tick uint64, value uint32) {
	traceRing[traceRingHead] = TraceEvent{Kind: kind, Tick: tick, Value: value}
	traceRingHead = (traceRingHead + 1) % TraceRingSize
	if traceRingLen < TraceRingSize {
		traceRingLen++
	}
	if debugEnabled {
		debugPrint(eventName(kind) +
			" tick=" + strconv.FormatUint(tick, 10) +
			" value=0x" + strconv.FormatUint(uint64(value), 16))
	}
}

// TraceEvents returns the captured events, oldest first
func TraceEvents() []TraceEvent {
	out := make([]TraceEvent, 0, traceRingLen)
	start := traceRingHead - traceRingLen
	if start < 0 {
		start += TraceRingSize
	}
	for i := 0; i < traceRingLen; i++ {
		out = append(out, traceRing[(start+i)%TraceRingSize])
	}
	return out
}

// ResetTrace discards all captured events
func ResetTrace() {
	traceRingHead = 0
	traceRingLen = 0
}

// eventName maps a kind code to a short label for dumps
func eventName(kind uint8) string {
	switch kind {
	case EvtRxFrame:
		return "RX_FRAME"
	case EvtFrameError:
		return "FRAME_ERR"
	case EvtFifoDrop:
		return "FIFO_DROP"
	case EvtTxStart:
		return "TX_START"
	case EvtTxDone:
		return "TX_DONE"
	case EvtSpiStart:
		return "SPI_START"
	case EvtSpiDone:
		return "SPI_DONE"
	case EvtDispatch:
		return "DISPATCH"
	default:
		return "UNKNOWN"
	}
}

// DumpTrace writes the captured events through the debug writer,
// oldest first. Call after stopping the tick loop.
func DumpTrace() {
	debugPrintln("[TRACE] === Event Ring Dump ===")
	for _, evt := range TraceEvents() {
		debugPrintln("[TRACE] " + eventName(evt.Kind) +
			" tick=" + strconv.FormatUint(evt.Tick, 10) +
			" value=0x" + strconv.FormatUint(uint64(evt.Value), 16))
	}
	debugPrintln("[TRACE] === End Dump ===")
}
