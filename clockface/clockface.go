// Package clockface formats the time of day onto the six-digit display as
// HH.MM.SS, the Atlas board's 24-hour clock face.
package clockface

import (
	"context"
	"fmt"
	"time"

	"github.com/micronote/atlas/max7219"
	"github.com/micronote/atlas/timers"
)

// SeparatorMask lights the decimal points between the hour/minute and
// minute/second digit pairs.
const SeparatorMask = 0b010100

// RefreshInterval is how often the clock face is redrawn.
const RefreshInterval = 1000 * time.Millisecond

// Source is the time authority the clock reads from.  The sample is read
// fresh on every refresh and never cached between them.
type Source interface {
	Clock() (hours, minutes, seconds int)
}

// Sample is one reading of the time authority.
type Sample struct {
	Hours   int // 0-23
	Minutes int // 0-59
	Seconds int // 0-59
}

// Render writes the sample to the display as the decimal value HHMMSS,
// zero-padded, with the fixed separator mask.
func Render(d *max7219.Display, s Sample) error {
	if s.Hours < 0 || s.Hours > 23 || s.Minutes < 0 || s.Minutes > 59 || s.Seconds < 0 || s.Seconds > 59 {
		return fmt.Errorf("clock sample %02d:%02d:%02d: %w", s.Hours, s.Minutes, s.Seconds, max7219.ErrOutOfRange)
	}
	value := s.Hours*10000 + s.Minutes*100 + s.Seconds
	if err := d.WriteDecimal(value, SeparatorMask); err != nil {
		return fmt.Errorf("render clock face: %w", err)
	}
	return nil
}

// Clock redraws the display from a time source once a second.
type Clock struct {
	display *max7219.Display
	src     Source
}

func New(d *max7219.Display, src Source) *Clock {
	return &Clock{display: d, src: src}
}

// Run refreshes the clock face until the context is cancelled.  A render
// failure stops the clock and is returned; the display is left showing the
// last good time.
func (c *Clock) Run(ctx context.Context) error {
	return timers.Periodic(ctx, RefreshInterval, func() error {
		h, m, s := c.src.Clock()
		return Render(c.display, Sample{Hours: h, Minutes: m, Seconds: s})
	})
}
