package max7219

import (
	"errors"
	"fmt"
)

// Mode selects how the six digit registers are interpreted.
type Mode int

const (
	// Blank means no value is on the display; all digits show the blank glyph.
	Blank Mode = iota
	// Decimal uses the controller's Code B decode to show a signed decimal number.
	Decimal
	// Hex disables decoding and writes raw segment patterns for 0-F.
	Hex
)

func (m Mode) String() string {
	switch m {
	case Blank:
		return "blank"
	case Decimal:
		return "decimal"
	case Hex:
		return "hex"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Value bounds for the six-digit display.
const (
	MaxDecimal = 999999
	MinDecimal = -99999
	MaxHex     = 0xFFFFFF
	MinHex     = 0x000000
	MaxDP      = 0b111111
)

// ErrOutOfRange is returned when a value or decimal-point mask does not fit
// on the display.  Nothing is written to the controller in that case.
var ErrOutOfRange = errors.New("value out of range")

// ErrNoActiveValue is returned by Increment and Decrement when the display
// is blank.
var ErrNoActiveValue = errors.New("no value on display")

// Frame is one two-byte register write, the only thing the MAX7219
// understands.
type Frame struct {
	Command byte
	Data    byte
}

// hexSegments maps a nibble to its raw 7-segment pattern (DP excluded).
var hexSegments = [16]byte{
	0x0: 0b1111110,
	0x1: 0b0110000,
	0x2: 0b1101101,
	0x3: 0b1111001,
	0x4: 0b0110011,
	0x5: 0b1011011,
	0x6: 0b1011111,
	0x7: 0b1110000,
	0x8: 0b1111111,
	0x9: 0b1111011,
	0xA: 0b1110111,
	0xB: 0b0011111,
	0xC: 0b1001110,
	0xD: 0b0111101,
	0xE: 0b1001111,
	0xF: 0b1000111,
}

// Encode converts value into the six digit-register frames that render it.
// Bit i of dp turns on the decimal point of digit i (0 = least significant).
// Encode is pure and all-or-nothing: on ErrOutOfRange no frames are
// produced.
func Encode(value int, dp byte, mode Mode) ([]Frame, error) {
	if dp > MaxDP {
		return nil, fmt.Errorf("decimal point mask %#b: %w", dp, ErrOutOfRange)
	}
	switch mode {
	case Decimal:
		if value > MaxDecimal || value < MinDecimal {
			return nil, fmt.Errorf("decimal value %d: %w", value, ErrOutOfRange)
		}
		if value < 0 {
			return encodeNegative(-value, dp), nil
		}
		return encodeDecimal(value, dp), nil
	case Hex:
		if value > MaxHex || value < MinHex {
			return nil, fmt.Errorf("hex value %#x: %w", value, ErrOutOfRange)
		}
		return encodeHex(value, dp), nil
	}
	return nil, fmt.Errorf("cannot encode in mode %v: %w", mode, ErrOutOfRange)
}

func encodeDecimal(value int, dp byte) []Frame {
	frames := make([]Frame, 0, digits)
	for i := 0; i < digits; i++ {
		data := byte(value % 10)
		if dp&1 != 0 {
			data |= decimalPoint
		}
		frames = append(frames, Frame{Command: digitReg(i), Data: data})
		dp >>= 1
		value /= 10
	}
	return frames
}

func encodeNegative(magnitude int, dp byte) []Frame {
	// The most significant digit is reserved for the minus sign; only five
	// positions remain for the magnitude.
	frames := make([]Frame, 0, digits)
	frames = append(frames, Frame{Command: digitReg(digits - 1), Data: minusSign})
	for i := 0; i < digits-1; i++ {
		data := byte(magnitude % 10)
		if dp&1 != 0 {
			data |= decimalPoint
		}
		frames = append(frames, Frame{Command: digitReg(i), Data: data})
		dp >>= 1
		magnitude /= 10
	}
	return frames
}

func encodeHex(value int, dp byte) []Frame {
	frames := make([]Frame, 0, digits)
	for i := 0; i < digits; i++ {
		data := hexSegments[value%16]
		if dp&1 != 0 {
			data |= decimalPoint
		}
		frames = append(frames, Frame{Command: digitReg(i), Data: data})
		dp >>= 1
		value /= 16
	}
	return frames
}
