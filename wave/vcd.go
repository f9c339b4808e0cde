// Package wave dumps simulation line activity as a VCD (value change
// dump) file readable by GTKWave and friends. Only single-bit signals
// are supported; that covers every external line of the controller.
package wave

import (
	"fmt"
	"io"
)

// signal is one tracked line
type signal struct {
	name string
	get  func() bool
	id   byte // VCD identifier code
	last bool
	init bool
}

// Recorder samples named lines and writes change records
type Recorder struct {
	w       io.Writer
	signals []*signal
	started bool
	err     error
}

// NewRecorder creates a recorder writing to w
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{w: w}
}

// Add tracks a line under the given name. All signals must be added
// before the first Sample call.
func (r *Recorder) Add(name string, get func() bool) error {
	if r.started {
		return fmt.Errorf("cannot add signal %q after sampling started", name)
	}
	// identifier codes are printable ASCII starting at '!'
	id := byte('!' + len(r.signals))
	if id > '~' {
		return fmt.Errorf("too many signals, cannot add %q", name)
	}
	r.signals = append(r.signals, &signal{name: name, get: get, id: id})
	return nil
}

// printf accumulates the first write error instead of failing every call
func (r *Recorder) printf(format string, args ...any) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, format, args...)
}

// header writes the declaration section and the initial value dump
func (r *Recorder) header(tick uint64) {
	r.printf("$timescale 1ns $end\n")
	r.printf("$scope module controller $end\n")
	for _, s := range r.signals {
		r.printf("$var wire 1 %c %s $end\n", s.id, s.name)
	}
	r.printf("$upscope $end\n")
	r.printf("$enddefinitions $end\n")
	r.printf("#%d\n", tick)
	r.printf("$dumpvars\n")
	for _, s := range r.signals {
		s.last = s.get()
		s.init = true
		r.printf("%s%c\n", bit(s.last), s.id)
	}
	r.printf("$end\n")
}

// Sample records the current level of every signal at the given tick,
// emitting change records for levels that moved since the last sample.
// The first call writes the file header.
func (r *Recorder) Sample(tick uint64) error {
	if !r.started {
		r.started = true
		r.header(tick)
		return r.err
	}
	wroteTime := false
	for _, s := range r.signals {
		v := s.get()
		if v == s.last {
			continue
		}
		if !wroteTime {
			r.printf("#%d\n", tick)
			wroteTime = true
		}
		r.printf("%s%c\n", bit(v), s.id)
		s.last = v
	}
	return r.err
}

// Err returns the first write error encountered
func (r *Recorder) Err() error { return r.err }

func bit(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
