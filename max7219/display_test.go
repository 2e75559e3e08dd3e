package max7219

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestDisplay(t *testing.T) *Display {
	t.Helper()
	dev, err := New(nil, nil)
	if err != nil {
		t.Fatalf("init dev: %v", err)
	}
	s, err := NewDisplay(dev)
	if err != nil {
		t.Fatalf("init display: %v", err)
	}
	return s
}

func TestClearBlanksDigits(t *testing.T) {
	s := newTestDisplay(t)
	for pos := 0; pos < 6; pos++ {
		if got, want := s.dev.Digit(pos), blankGlyph; got != want {
			t.Errorf("digit %d:\n  got: %#x\n want: %#x", pos, got, want)
		}
	}
	if _, _, mode := s.Value(); mode != Blank {
		t.Errorf("mode:\n  got: %v\n want: %v", mode, Blank)
	}
}

func TestWriteDecimal(t *testing.T) {
	s := newTestDisplay(t)
	if err := s.WriteDecimal(123, 0b000010); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := []byte{3, 2 | decimalPoint, 1, 0, 0, 0}
	for pos, w := range want {
		if got := s.dev.Digit(pos); got != w {
			t.Errorf("digit %d:\n  got: %#x\n want: %#x", pos, got, w)
		}
	}
	regs := s.dev.Snapshot()
	if got, want := regs[regDecodeMode], decodeAll; got != want {
		t.Errorf("decode mode:\n  got: %#x\n want: %#x", got, want)
	}
}

func TestWriteHexSwitchesDecodeMode(t *testing.T) {
	s := newTestDisplay(t)
	if err := s.WriteHex(0xF); err != nil {
		t.Fatalf("write: %v", err)
	}
	regs := s.dev.Snapshot()
	if got, want := regs[regDecodeMode], decodeNone; got != want {
		t.Errorf("decode mode:\n  got: %#x\n want: %#x", got, want)
	}
	if got, want := s.dev.Digit(0), hexSegments[0xF]; got != want {
		t.Errorf("digit 0:\n  got: %#b\n want: %#b", got, want)
	}
}

func TestOutOfRangeLeavesStateUntouched(t *testing.T) {
	s := newTestDisplay(t)
	if err := s.WriteDecimal(42, 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	for _, value := range []int{MaxDecimal + 1, MinDecimal - 1} {
		if err := s.WriteDecimal(value, 0); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("write %d:\n  got: %v\n want: %v", value, err, ErrOutOfRange)
		}
	}
	if value, _, mode := s.Value(); value != 42 || mode != Decimal {
		t.Errorf("state after rejected writes:\n  got: %d (%v)\n want: 42 (%v)", value, mode, Decimal)
	}
	if got, want := s.dev.Digit(0), byte(2); got != want {
		t.Errorf("digit 0:\n  got: %#x\n want: %#x", got, want)
	}
}

func TestIncrementWrap(t *testing.T) {
	s := newTestDisplay(t)

	// The original forces the value to -1 before adding 1, so the top of
	// the range wraps to 0, not to the minimum.
	if err := s.WriteDecimal(MaxDecimal, 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Increment(); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if value, _, _ := s.Value(); value != 0 {
		t.Errorf("value after wrap:\n  got: %v\n want: 0", value)
	}

	if err := s.WriteHex(MaxHex); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Increment(); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if value, _, _ := s.Value(); value != 0 {
		t.Errorf("hex value after wrap:\n  got: %v\n want: 0", value)
	}
}

func TestDecrementWrap(t *testing.T) {
	s := newTestDisplay(t)

	// Symmetric: the value is forced to 1 before subtracting 1.
	if err := s.WriteDecimal(MinDecimal, 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Decrement(); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if value, _, _ := s.Value(); value != 0 {
		t.Errorf("value after wrap:\n  got: %v\n want: 0", value)
	}

	if err := s.WriteHex(MinHex); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Decrement(); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if value, _, _ := s.Value(); value != 0 {
		t.Errorf("hex value after wrap:\n  got: %v\n want: 0", value)
	}
}

func TestIncrementWhileBlank(t *testing.T) {
	s := newTestDisplay(t)
	if err := s.Increment(); !errors.Is(err, ErrNoActiveValue) {
		t.Errorf("increment:\n  got: %v\n want: %v", err, ErrNoActiveValue)
	}
	if err := s.Decrement(); !errors.Is(err, ErrNoActiveValue) {
		t.Errorf("decrement:\n  got: %v\n want: %v", err, ErrNoActiveValue)
	}
}

func TestIncrementKeepsMask(t *testing.T) {
	s := newTestDisplay(t)
	if err := s.WriteDecimal(9, 0b000010); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Increment(); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if got, want := s.dev.Digit(1), byte(1)|decimalPoint; got != want {
		t.Errorf("digit 1:\n  got: %#x\n want: %#x", got, want)
	}
}

func TestIntensityRange(t *testing.T) {
	s := newTestDisplay(t)
	if err := s.dev.Intensity(15); err != nil {
		t.Errorf("intensity 15: %v", err)
	}
	for _, level := range []int{-1, 16} {
		if err := s.dev.Intensity(level); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("intensity %d:\n  got: %v\n want: %v", level, err, ErrOutOfRange)
		}
	}
}

// brokenConn fails every transfer, like a display with a loose wire.
type brokenConn struct{}

func (brokenConn) Tx(w, r []byte) error {
	return fmt.Errorf("spi: transfer failed")
}

func TestTransportFaultPropagates(t *testing.T) {
	s := newTestDisplay(t)
	s.dev.conn = brokenConn{}
	err := s.WriteDecimal(7, 0)
	if err == nil {
		t.Fatal("write on broken bus unexpectedly succeeded")
	}
	// The state already reflects the intended value; the controller is the
	// thing that's out of sync.
	if value, _, mode := s.Value(); value != 7 || mode != Decimal {
		t.Errorf("state after fault:\n  got: %d (%v)\n want: 7 (%v)", value, mode, Decimal)
	}
}

func TestDebugPage(t *testing.T) {
	s := newTestDisplay(t)
	if err := s.WriteDecimal(-123, 0b000010); err != nil {
		t.Fatalf("write: %v", err)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest("GET", "/display", nil))
	if got, want := rec.Body.String(), "-00012.3"; !strings.Contains(got, want) {
		t.Errorf("debug page:\n  got: %q\n want substring: %q", got, want)
	}
}
