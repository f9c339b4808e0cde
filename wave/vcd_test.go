package wave

import (
	"errors"
	"strings"
	"testing"
)

func TestRecorderHeaderAndChanges(t *testing.T) {
	var buf strings.Builder
	r := NewRecorder(&buf)
	a, b := false, true
	if err := r.Add("sclk", func() bool { return a }); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := r.Add("mosi", func() bool { return b }); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := r.Sample(0); err != nil {
		t.Fatalf("first Sample failed: %v", err)
	}
	a = true
	if err := r.Sample(5); err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	// no change; no record
	if err := r.Sample(6); err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	a, b = false, false
	if err := r.Sample(9); err != nil {
		t.Fatalf("Sample failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"$enddefinitions $end",
		"$var wire 1 ! sclk $end",
		"$var wire 1 \" mosi $end",
		"$dumpvars\n0!\n1\"\n$end",
		"#5\n1!",
		"#9\n0!\n0\"",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "#6") {
		t.Errorf("timestamp written with no changes:\n%s", out)
	}
}

func TestRecorderAddAfterStart(t *testing.T) {
	r := NewRecorder(&strings.Builder{})
	r.Add("x", func() bool { return false })
	r.Sample(0)
	if err := r.Add("late", func() bool { return false }); err == nil {
		t.Error("Add accepted after sampling started")
	}
}

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) {
	return 0, errors.New("short write")
}

func TestRecorderStickyError(t *testing.T) {
	r := NewRecorder(failWriter{})
	r.Add("x", func() bool { return false })
	if err := r.Sample(0); err == nil {
		t.Fatal("write error not surfaced")
	}
	if r.Err() == nil {
		t.Error("Err() lost the failure")
	}
}
