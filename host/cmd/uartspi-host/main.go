// uartspi-host drives the simulated UART/SPI controller from a
// command stream: either an attached serial device or stdin. Each input
// line is one protocol command; each response is written back as one
// line. Optionally a behavioral SPI slave echoes traffic and a VCD
// waveform of the external lines is recorded.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Kingkiri0986/uart-spi-controller/core"
	"github.com/Kingkiri0986/uart-spi-controller/host/serial"
	"github.com/Kingkiri0986/uart-spi-controller/protocol"
	"github.com/Kingkiri0986/uart-spi-controller/wave"
)

var (
	device     = flag.String("device", "", "Serial device path (empty: read commands from stdin)")
	baud       = flag.Int("baud", 115200, "Serial link baud rate")
	configPath = flag.String("config", "", "JSON controller config file")
	wavePath   = flag.String("wave", "", "Write a VCD waveform of the external lines")
	loopback   = flag.Bool("loopback", true, "Attach an SPI slave that echoes received bytes")
	verbose    = flag.Bool("verbose", false, "Enable engine debug output on stderr")
)

func main() {
	flag.Parse()

	cfg := core.DefaultConfig()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		loaded, err := core.LoadConfig(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg = *loaded
	}

	ctrl, err := core.NewController(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		core.SetDebugWriter(func(s string) { fmt.Fprintln(os.Stderr, s) })
		core.SetDebugEnabled(true)
		defer core.DumpTrace()
	}

	if *loopback {
		slave := core.NewSpiSlave(ctrl.System(),
			ctrl.Sclk, ctrl.ChipSelect, ctrl.Mosi,
			cfg.SpiWidth, cfg.SpiMode)
		ctrl.SetMisoLine(slave.Miso())
		// track the slave output onto the MISO line and echo back
		// whatever the master sent last
		ctrl.Stimulus().SchedulePeriodic(0, 1, func() {
			ctrl.SetMisoLine(slave.Miso())
			if v, ok := slave.TakeReceived(); ok {
				slave.Respond(v)
			}
		})
	}

	if *wavePath != "" {
		f, err := os.Create(*wavePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		bw := bufio.NewWriter(f)
		defer bw.Flush()

		rec := wave.NewRecorder(bw)
		signals := []struct {
			name string
			get  func() bool
		}{
			{"uart_tx", ctrl.TxLine},
			{"sclk", ctrl.Sclk},
			{"mosi", ctrl.Mosi},
			{"cs_n", ctrl.ChipSelect},
		}
		for _, sig := range signals {
			if err := rec.Add(sig.name, sig.get); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}
		ctrl.Stimulus().SchedulePeriodic(0, 1, func() {
			rec.Sample(ctrl.Ticks())
		})
	}

	var in io.Reader = os.Stdin
	var out io.Writer = os.Stdout
	if *device != "" {
		cfg := serial.DefaultConfig(*device)
		cfg.Baud = *baud
		port, err := serial.Open(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer port.Close()
		in = port
		out = port
	}

	interp := protocol.NewInterpreter(ctrl)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "quit") {
			break
		}
		resp, err := interp.Execute(line)
		if err != nil {
			fmt.Fprintf(out, "ERR %v\n", err)
			continue
		}
		if resp != "" {
			fmt.Fprintln(out, resp)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
