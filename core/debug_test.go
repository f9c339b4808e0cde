package core

import (
	"strings"
	"testing"
)

// captureDebug redirects the debug writer into a slice for the duration
// of the test
func captureDebug(t *testing.T, enabled bool) *[]string {
	t.Helper()
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	SetDebugEnabled(enabled)
	ResetTrace()
	t.Cleanup(func() {
		SetDebugEnabled(false)
		SetDebugWriter(func(string) {})
		ResetTrace()
	})
	return &lines
}

func TestDebugWriterReceivesTraceLines(t *testing.T) {
	lines := captureDebug(t, true)
	c := newTestController(t, testConfig())
	c.Submit(0x5A)
	c.TickN(14 * bitTicks)

	joined := strings.Join(*lines, "\n")
	for _, want := range []string{"TX_START", "TX_DONE", "tick=", "value=0x5a"} {
		if !strings.Contains(joined, want) {
			t.Errorf("debug output missing %q:\n%s", want, joined)
		}
	}
}

func TestDebugDisabledStaysSilent(t *testing.T) {
	lines := captureDebug(t, false)
	c := newTestController(t, testConfig())
	c.Submit(0x42)
	c.TickN(14 * bitTicks)

	if len(*lines) != 0 {
		t.Errorf("disabled debug produced %d lines: %v", len(*lines), *lines)
	}
	// the trace ring records regardless
	events := TraceEvents()
	if len(events) == 0 {
		t.Fatal("trace ring empty with debug disabled")
	}
}

func TestTraceRingOrderAndOverflow(t *testing.T) {
	captureDebug(t, false)
	for i := 0; i < TraceRingSize+10; i++ {
		traceEvent(EvtDispatch, uint64(i), uint32(i))
	}
	events := TraceEvents()
	if len(events) != TraceRingSize {
		t.Fatalf("expected %d events after overflow, got %d", TraceRingSize, len(events))
	}
	// oldest first, the first 10 overwritten
	if events[0].Tick != 10 {
		t.Errorf("oldest event at tick %d, expected 10", events[0].Tick)
	}
	if last := events[len(events)-1]; last.Tick != uint64(TraceRingSize+9) {
		t.Errorf("newest event at tick %d, expected %d", last.Tick, TraceRingSize+9)
	}
}

func TestDumpTraceWritesRing(t *testing.T) {
	lines := captureDebug(t, false)
	traceEvent(EvtSpiDone, 42, 0xAB)
	DumpTrace()

	joined := strings.Join(*lines, "\n")
	if !strings.Contains(joined, "SPI_DONE") || !strings.Contains(joined, "tick=42") {
		t.Errorf("dump missing the recorded event:\n%s", joined)
	}
}
