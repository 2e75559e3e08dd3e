// Package max7219 drives the six-digit seven-segment display on the Atlas
// board, a single MAX7219 on the shared SPI bus.  It retains a shadow copy
// of the controller registers so the rest of the program (and the debug web
// page) can see what is on the display without the hardware attached.
package max7219

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
)

// MAX7219 register map.
const (
	regNoop        byte = 0x0
	regDigit0      byte = 0x1
	regDecodeMode  byte = 0x9
	regIntensity   byte = 0xA
	regScanLimit   byte = 0xB
	regShutdown    byte = 0xC
	regDisplayTest byte = 0xF

	// Code B decode on all digits, or raw segment mode.
	decodeAll  byte = 0xFF
	decodeNone byte = 0x00

	// Code B glyphs.
	blankGlyph byte = 0x0F
	minusSign  byte = 0x0A

	// OR into a digit value to light its decimal point.
	decimalPoint byte = 0x80

	digits = 6

	registerCount = 16
)

func digitReg(pos int) byte {
	return regDigit0 + byte(pos)
}

var (
	registerWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "display_register_writes",
		Help: "count of two-byte frames sent to the display controller",
	})
	transportFaults = promauto.NewCounter(prometheus.CounterOpts{
		Name: "display_transport_faults",
		Help: "count of SPI transmission failures while writing to the display",
	})
)

// conn is the byte-level transport; spi.Conn satisfies it.
type conn interface {
	Tx(w, r []byte) error
}

// Dev is the register interface to the display controller.  Every write in
// the program funnels through Register, which holds the one lock protecting
// the shared bus.
type Dev struct {
	mu   sync.Mutex
	conn conn
	cs   gpio.PinOut

	regs [registerCount]byte // shadow of controller register state
}

// New initializes the display controller on the given SPI port, driving cs
// as the chip select around every frame.  A nil port returns a Dev that
// only updates its shadow registers, for running without the display
// attached.  cs may be nil when the port's hardware chip select is wired
// instead.
func New(p spi.Port, cs gpio.PinOut) (*Dev, error) {
	d := &Dev{cs: cs}
	if p != nil {
		// Polarity 1, phase 0 per the board design.
		c, err := p.Connect(10*physic.MegaHertz, spi.Mode2, 8)
		if err != nil {
			return nil, fmt.Errorf("connect to display: %w", err)
		}
		d.conn = c
	}
	if cs != nil {
		if err := cs.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("deassert chip select: %w", err)
		}
	}
	for _, f := range []Frame{
		{regShutdown, 0},
		{regDisplayTest, 0},
		{regScanLimit, 7},
		{regDecodeMode, decodeNone},
		{regShutdown, 1},
	} {
		if err := d.Register(f.Command, f.Data); err != nil {
			return nil, fmt.Errorf("init display: %w", err)
		}
	}
	if err := d.Intensity(5); err != nil {
		return nil, fmt.Errorf("init display: %w", err)
	}
	return d, nil
}

// Register sends one [command, data] frame, bracketed by the chip select.
// It is safe to call from multiple goroutines; a frame in progress is never
// interleaved with another.  A transport error indicates a wiring fault and
// is returned without retrying.
func (d *Dev) Register(command, data byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.registerLocked(command, data)
}

func (d *Dev) registerLocked(command, data byte) error {
	if d.conn != nil {
		if d.cs != nil {
			if err := d.cs.Out(gpio.Low); err != nil {
				return fmt.Errorf("assert chip select: %w", err)
			}
		}
		err := d.conn.Tx([]byte{command, data}, nil)
		if d.cs != nil {
			// Always release the bus, even after a failed transfer.
			if csErr := d.cs.Out(gpio.High); csErr != nil && err == nil {
				err = fmt.Errorf("deassert chip select: %w", csErr)
			}
		}
		if err != nil {
			transportFaults.Inc()
			return fmt.Errorf("write register %#x: %w", command, err)
		}
	}
	registerWrites.Inc()
	if int(command) < len(d.regs) {
		d.regs[command] = data
	}
	return nil
}

// writeFrames sends a batch of frames under one acquisition of the bus
// lock, so a competing writer cannot slip between the decode-mode frame and
// the digit frames it applies to.
func (d *Dev) writeFrames(frames []Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, f := range frames {
		if err := d.registerLocked(f.Command, f.Data); err != nil {
			return err
		}
	}
	return nil
}

// Intensity sets the display brightness, 0 to 15.
func (d *Dev) Intensity(level int) error {
	if level < 0 || level > 15 {
		return fmt.Errorf("brightness %d: %w", level, ErrOutOfRange)
	}
	return d.Register(regIntensity, byte(level))
}

// Snapshot returns the shadow copy of the controller registers.
func (d *Dev) Snapshot() [registerCount]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regs
}

// Digit returns the last value written to digit register pos (0 = least
// significant).
func (d *Dev) Digit(pos int) byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regs[digitReg(pos)]
}
