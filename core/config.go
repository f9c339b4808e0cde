package core

import (
	"encoding/json"
	"fmt"
)

// SPIMode encodes clock polarity and phase as the conventional mode number.
// Mode 0: CPOL=0, CPHA=0 (clock idle low, sample on rising edge)
// Mode 1: CPOL=0, CPHA=1 (clock idle low, sample on falling edge)
// Mode 2: CPOL=1, CPHA=0 (clock idle high, sample on falling edge)
// Mode 3: CPOL=1, CPHA=1 (clock idle high, sample on rising edge)
type SPIMode uint8

// CPOL returns the idle level of the serial clock
func (m SPIMode) CPOL() bool { return m&2 != 0 }

// CPHA reports whether sampling happens on the trailing edge
func (m SPIMode) CPHA() bool { return m&1 != 0 }

// ModeOf builds the mode number from a polarity/phase pair
func ModeOf(cpol, cpha bool) SPIMode {
	var m SPIMode
	if cpol {
		m |= 2
	}
	if cpha {
		m |= 1
	}
	return m
}

// Config holds the construction parameters for a Controller.
// The zero value is not usable; start from DefaultConfig or LoadConfig.
type Config struct {
	// ClockFreq is the reference tick rate in Hz
	ClockFreq int `json:"clock_freq"`

	// BaudRate is the UART bit rate in bits per second
	BaudRate int `json:"baud_rate"`

	// Oversample is the number of RX samples per bit period
	Oversample int `json:"oversample"`

	// FifoDepth is the capacity of the RX and TX byte FIFOs
	FifoDepth int `json:"fifo_depth"`

	// SpiWidth is the number of bits per SPI transfer
	SpiWidth int `json:"spi_width"`

	// SpiMode is the default SPI mode (0-3) used by the dispatcher
	SpiMode SPIMode `json:"spi_mode"`

	// SpiClockDivisor is half the serial clock period in ticks
	SpiClockDivisor int `json:"spi_clock_divisor"`

	// Dispatcher enables the command dispatcher between the UART
	// and SPI paths. When false the byte-level API drives the
	// engines directly.
	Dispatcher bool `json:"dispatcher"`
}

// DefaultConfig returns the configuration matching the reference design:
// 50MHz clock, 115200 baud, 16x oversampling, 16-byte FIFOs, 8-bit SPI
// mode 0 with a divisor of 4.
func DefaultConfig() Config {
	return Config{
		ClockFreq:       50_000_000,
		BaudRate:        115200,
		Oversample:      16,
		FifoDepth:       16,
		SpiWidth:        8,
		SpiMode:         0,
		SpiClockDivisor: 4,
		Dispatcher:      true,
	}
}

// applyDefaults fills in missing values with the reference defaults
func applyDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.ClockFreq == 0 {
		cfg.ClockFreq = def.ClockFreq
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = def.BaudRate
	}
	if cfg.Oversample == 0 {
		cfg.Oversample = def.Oversample
	}
	if cfg.FifoDepth == 0 {
		cfg.FifoDepth = def.FifoDepth
	}
	if cfg.SpiWidth == 0 {
		cfg.SpiWidth = def.SpiWidth
	}
	if cfg.SpiClockDivisor == 0 {
		cfg.SpiClockDivisor = def.SpiClockDivisor
	}
}

// Validate rejects configurations the engines cannot run with
func (cfg *Config) Validate() error {
	if cfg.ClockFreq <= 0 {
		return fmt.Errorf("clock_freq must be positive, got %d", cfg.ClockFreq)
	}
	if cfg.BaudRate <= 0 {
		return fmt.Errorf("baud_rate must be positive, got %d", cfg.BaudRate)
	}
	if cfg.Oversample < 4 {
		return fmt.Errorf("oversample must be at least 4, got %d", cfg.Oversample)
	}
	if cfg.ClockFreq < cfg.BaudRate*cfg.Oversample {
		return fmt.Errorf("clock_freq %d too low for %d baud at %dx oversampling",
			cfg.ClockFreq, cfg.BaudRate, cfg.Oversample)
	}
	if cfg.FifoDepth <= 0 {
		return fmt.Errorf("fifo_depth must be positive, got %d", cfg.FifoDepth)
	}
	if cfg.SpiWidth <= 0 || cfg.SpiWidth > 32 {
		return fmt.Errorf("spi_width must be 1-32, got %d", cfg.SpiWidth)
	}
	if cfg.SpiMode > 3 {
		return fmt.Errorf("spi_mode must be 0-3, got %d", cfg.SpiMode)
	}
	// The MISO synchronizer adds two ticks of latency; a divisor below
	// that would sample stale line levels.
	if cfg.SpiClockDivisor < 2 {
		return fmt.Errorf("spi_clock_divisor must be at least 2, got %d", cfg.SpiClockDivisor)
	}
	return nil
}

// LoadConfig parses a JSON configuration, fills in defaults and validates
func LoadConfig(jsonData []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
