package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Kingkiri0986/uart-spi-controller/core"
)

// transferTimeout bounds the tick loops that wait for an engine to
// finish; generous for any sane divisor and baud rate
const transferTimeout = 1_000_000

// Interpreter binds the command registry to one controller instance
type Interpreter struct {
	ctrl *core.Controller
	reg  *Registry
}

// NewInterpreter builds an interpreter with the full command set
func NewInterpreter(ctrl *core.Controller) *Interpreter {
	it := &Interpreter{ctrl: ctrl, reg: NewRegistry()}
	it.reg.Register("INIT", "INIT mode=<0-3> [div=<n>] - configure the SPI transfer mode", it.cmdInit)
	it.reg.Register("WRITE", "WRITE <byte> - exchange a byte over SPI, prints the received byte", it.cmdWrite)
	it.reg.Register("READ", "READ - exchange a 0xFF filler over SPI, prints the received byte", it.cmdRead)
	it.reg.Register("STATUS", "STATUS - print the status bit-field", it.cmdStatus)
	it.reg.Register("ECHO", "ECHO <byte> - round-trip a byte through the dispatcher", it.cmdEcho)
	it.reg.Register("RESET", "RESET - reset every engine to idle", it.cmdReset)
	it.reg.Register("TICK", "TICK <n> - advance the simulation by n ticks", it.cmdTick)
	it.reg.Register("HELP", "HELP - list commands", it.cmdHelp)
	return it
}

// Execute runs one command line and returns the response
func (it *Interpreter) Execute(line string) (string, error) {
	return it.reg.Dispatch(line)
}

// Registry exposes the command registry, e.g. to register extra commands
func (it *Interpreter) Registry() *Registry { return it.reg }

// parseByte accepts decimal, 0x-prefixed hex and 0b-prefixed binary
func parseByte(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("bad byte value %q", s)
	}
	return byte(v), nil
}

// kvArgs splits key=value arguments into a map
func kvArgs(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", a)
		}
		out[strings.ToLower(k)] = v
	}
	return out, nil
}

func (it *Interpreter) cmdInit(args []string) (string, error) {
	kv, err := kvArgs(args)
	if err != nil {
		return "", err
	}
	modeStr, ok := kv["mode"]
	if !ok {
		return "", fmt.Errorf("INIT requires mode=<0-3>")
	}
	mode, err := strconv.ParseUint(modeStr, 0, 8)
	if err != nil || mode > 3 {
		return "", fmt.Errorf("bad mode %q", modeStr)
	}
	if divStr, ok := kv["div"]; ok {
		div, err := strconv.Atoi(divStr)
		if err != nil {
			return "", fmt.Errorf("bad divisor %q", divStr)
		}
		if !it.ctrl.Spi().SetDivisor(div) {
			return "", fmt.Errorf("cannot set divisor %d now", div)
		}
	}
	if d := it.ctrl.Dispatcher(); d != nil {
		if !d.SetMode(core.SPIMode(mode)) {
			return "", fmt.Errorf("dispatcher busy, mode unchanged")
		}
	}
	return fmt.Sprintf("OK mode=%d div=%d", mode, it.ctrl.Spi().Divisor()), nil
}

// transfer runs one SPI exchange to completion
func (it *Interpreter) transfer(value byte, mode core.SPIMode) (byte, error) {
	spi := it.ctrl.Spi()
	if !spi.Start(uint32(value), mode.CPOL(), mode.CPHA()) {
		return 0, fmt.Errorf("spi busy")
	}
	for i := 0; i < transferTimeout; i++ {
		it.ctrl.Tick()
		if v, ok := spi.Poll(); ok {
			return byte(v), nil
		}
	}
	return 0, fmt.Errorf("spi transfer did not complete")
}

// dispatchMode returns the mode dispatched transfers use
func (it *Interpreter) dispatchMode() core.SPIMode {
	if d := it.ctrl.Dispatcher(); d != nil {
		return d.Mode()
	}
	return it.ctrl.Config().SpiMode
}

func (it *Interpreter) cmdWrite(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("WRITE requires exactly one byte argument")
	}
	b, err := parseByte(args[0])
	if err != nil {
		return "", err
	}
	rx, err := it.transfer(b, it.dispatchMode())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("RX=0x%02X", rx), nil
}

func (it *Interpreter) cmdRead(args []string) (string, error) {
	if len(args) != 0 {
		return "", fmt.Errorf("READ takes no arguments")
	}
	rx, err := it.transfer(0xFF, it.dispatchMode())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("RX=0x%02X", rx), nil
}

func (it *Interpreter) cmdStatus(args []string) (string, error) {
	s := it.ctrl.Status()
	return fmt.Sprintf("STATUS=0x%02X rx_ready=%d tx_busy=%d spi_busy=%d rx_full=%d frame_err=%d",
		s,
		s&core.StatusRxReady,
		(s&core.StatusTxBusy)>>2,
		(s&core.StatusSpiBusy)>>4,
		(s&core.StatusRxFifoFull)>>5,
		(s&core.StatusFrameError)>>6), nil
}

func (it *Interpreter) cmdEcho(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("ECHO requires exactly one byte argument")
	}
	if it.ctrl.Dispatcher() == nil {
		return "", fmt.Errorf("dispatcher disabled")
	}
	b, err := parseByte(args[0])
	if err != nil {
		return "", err
	}
	if !it.ctrl.InjectRxByte(core.CmdEcho) || !it.ctrl.InjectRxByte(b) {
		return "", fmt.Errorf("rx fifo full")
	}
	for i := 0; i < transferTimeout; i++ {
		it.ctrl.Tick()
		if v, ok := it.ctrl.TakeTxByte(); ok {
			return fmt.Sprintf("ECHO=0x%02X", v), nil
		}
	}
	return "", fmt.Errorf("echo did not complete")
}

func (it *Interpreter) cmdReset(args []string) (string, error) {
	it.ctrl.Reset()
	return "OK", nil
}

func (it *Interpreter) cmdTick(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("TICK requires a tick count")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		return "", fmt.Errorf("bad tick count %q", args[0])
	}
	it.ctrl.TickN(n)
	return fmt.Sprintf("OK ticks=%d", it.ctrl.Ticks()), nil
}

func (it *Interpreter) cmdHelp(args []string) (string, error) {
	return it.reg.Usage(), nil
}
