package max7219

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// Display owns the value currently on the seven-segment display.  All
// mutations go through the encoder, so the shadow registers and the state
// here can never disagree about what was asked for.
type Display struct {
	dev *Dev

	mu    sync.Mutex
	mode  Mode
	value int
	dp    byte
}

// NewDisplay returns a blank display on top of dev.
func NewDisplay(dev *Dev) (*Display, error) {
	s := &Display{dev: dev}
	if err := s.Clear(); err != nil {
		return nil, fmt.Errorf("blank display: %w", err)
	}
	return s, nil
}

// Dev exposes the underlying register interface.
func (s *Display) Dev() *Dev {
	return s.dev
}

// Value returns the current value, decimal-point mask, and mode.
func (s *Display) Value() (int, byte, Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.dp, s.mode
}

// Clear blanks all six digits and forgets the current value.
func (s *Display) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	frames := make([]Frame, 0, digits+1)
	frames = append(frames, Frame{regDecodeMode, decodeAll})
	for i := 0; i < digits; i++ {
		frames = append(frames, Frame{digitReg(i), blankGlyph})
	}
	s.mode, s.value, s.dp = Blank, 0, 0
	return s.dev.writeFrames(frames)
}

// WriteDecimal shows value as a decimal number.  Bit i of dp lights the
// decimal point of digit i.  The previous value is untouched if value or dp
// is out of range.
func (s *Display) WriteDecimal(value int, dp byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(value, dp, Decimal)
}

// WriteHex shows value as six raw hexadecimal digits.  Hex values are
// unsigned: 0 to 0xFFFFFF.
func (s *Display) WriteHex(value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(value, s.dp, Hex)
}

func (s *Display) writeLocked(value int, dp byte, mode Mode) error {
	frames, err := Encode(value, dp, mode)
	if err != nil {
		return err
	}
	decode := decodeAll
	if mode == Hex {
		decode = decodeNone
	}
	// State is replaced before the frames hit the bus.  If a transfer fails
	// partway, readers see the intended value rather than a half-applied
	// one; the controller is the thing that's out of sync, and the next
	// successful write repairs it.
	s.mode, s.value, s.dp = mode, value, dp
	return s.dev.writeFrames(append([]Frame{{regDecodeMode, decode}}, frames...))
}

// Increment adds one to the displayed value.  Past the top of the range the
// value is forced to -1 first, so 999999 increments to 0 (and 0xFFFFFF
// wraps to 0 in hex mode).
func (s *Display) Increment() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.mode {
	case Decimal:
		if s.value+1 > MaxDecimal {
			s.value = -1
		}
		return s.writeLocked(s.value+1, s.dp, Decimal)
	case Hex:
		if s.value+1 > MaxHex {
			s.value = -1
		}
		return s.writeLocked(s.value+1, s.dp, Hex)
	}
	return fmt.Errorf("increment: %w", ErrNoActiveValue)
}

// Decrement subtracts one from the displayed value.  Past the bottom of the
// range the value is forced to 1 first, so -99999 decrements to 0 (and 0
// wraps to 0 in hex mode).
func (s *Display) Decrement() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.mode {
	case Decimal:
		if s.value-1 < MinDecimal {
			s.value = 1
		}
		return s.writeLocked(s.value-1, s.dp, Decimal)
	case Hex:
		if s.value-1 < MinHex {
			s.value = 1
		}
		return s.writeLocked(s.value-1, s.dp, Hex)
	}
	return fmt.Errorf("decrement: %w", ErrNoActiveValue)
}

// ServeHTTP renders the display contents as text, for debugging the rest of
// the program without the display attached.
func (s *Display) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.mu.Lock()
	mode := s.mode
	s.mu.Unlock()
	regs := s.dev.Snapshot()

	var b strings.Builder
	for i := digits - 1; i >= 0; i-- {
		data := regs[digitReg(i)]
		if mode == Hex {
			b.WriteString(fmt.Sprintf("[%08b]", data))
			continue
		}
		switch data &^ decimalPoint {
		case blankGlyph:
			b.WriteByte(' ')
		case minusSign:
			b.WriteByte('-')
		default:
			b.WriteByte('0' + data&^decimalPoint)
		}
		if data&decimalPoint != 0 {
			b.WriteByte('.')
		}
	}
	w.Header().Add("content-type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "%s\nmode: %v\n", b.String(), mode)
}
