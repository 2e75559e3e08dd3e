// Package tone generates square-wave audio on the Atlas board's piezo
// buzzer.  A periodic timer toggles the buzzer pin at the note's frequency
// and a one-shot timer cuts the note off after its duration, the same two
// timer channels the board hardware provides.
package tone

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/physic"
)

// The buzzer is active low; the idle level is high.
const idleLevel = gpio.High

var notesPlayed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tone_notes_played",
	Help: "count of notes started on the buzzer",
})

// Pin is the part of gpio.PinOut the player needs.
type Pin interface {
	Out(l gpio.Level) error
}

// channelState tracks the tone timer channel: Idle until a note is
// requested, Armed once the timers are set, Firing while toggles are being
// produced, and back to Idle when the one-shot or StopNote disarms it.
type channelState int

const (
	idle channelState = iota
	armed
	firing
)

// Player owns the buzzer pin.  At most one note plays at a time; a new
// PlayNote replaces the current note, last write wins.
type Player struct {
	pin Pin

	mu    sync.Mutex
	state channelState
	stop  chan struct{} // closed by StopNote or a replacing note
	done  chan struct{} // closed when the toggle goroutine has gone quiet
}

// NewPlayer returns a silent player and forces the buzzer to its idle
// level.
func NewPlayer(pin Pin) (*Player, error) {
	if err := pin.Out(idleLevel); err != nil {
		return nil, fmt.Errorf("silence buzzer: %w", err)
	}
	return &Player{pin: pin}, nil
}

// PlayNote plays a square wave at freq for the given duration and returns
// without waiting for it to finish.  Any note already playing is replaced.
func (p *Player) PlayNote(freq physic.Frequency, duration time.Duration) error {
	_, err := p.start(freq, duration)
	return err
}

func (p *Player) start(freq physic.Frequency, duration time.Duration) (<-chan struct{}, error) {
	if freq <= 0 {
		return nil, fmt.Errorf("frequency %v must be positive", freq)
	}
	period := freq.Duration()

	p.mu.Lock()
	p.stopLocked()
	stop := make(chan struct{})
	done := make(chan struct{})
	p.stop, p.done = stop, done
	p.state = armed
	p.mu.Unlock()

	notesPlayed.Inc()
	go p.toggleLoop(period, duration, stop, done)
	return done, nil
}

func (p *Player) toggleLoop(period, duration time.Duration, stop chan struct{}, done chan struct{}) {
	defer close(done)
	defer p.pin.Out(idleLevel)

	tick := time.NewTicker(period)
	defer tick.Stop()
	cutoff := time.NewTimer(duration)
	defer cutoff.Stop()

	p.mu.Lock()
	if p.stop == stop {
		p.state = firing
	}
	p.mu.Unlock()

	level := idleLevel
	for {
		select {
		case <-stop:
			return
		case <-cutoff.C:
			p.mu.Lock()
			if p.stop == stop {
				p.state = idle
				p.stop, p.done = nil, nil
			}
			p.mu.Unlock()
			return
		case <-tick.C:
			level = !level
			p.pin.Out(level)
		}
	}
}

// StopNote silences the buzzer immediately, regardless of any pending
// cutoff.
func (p *Player) StopNote() {
	p.mu.Lock()
	p.stopLocked()
	p.mu.Unlock()
}

// stopLocked disarms the current note.  Callers hold p.mu.
func (p *Player) stopLocked() {
	if p.stop != nil {
		close(p.stop)
		p.stop, p.done = nil, nil
	}
	p.state = idle
}

// Note is one entry in a song: a pitch and how long to hold it.
type Note struct {
	Freq     physic.Frequency
	Duration time.Duration
}

// PlaySong plays notes in order.  Each note finishes (or is cut off by its
// duration) before the next one starts; there is no queue beyond the slice
// itself.  Cancelling the context silences the buzzer and returns.
func (p *Player) PlaySong(ctx context.Context, song []Note) error {
	for i, n := range song {
		done, err := p.start(n.Freq, n.Duration)
		if err != nil {
			return fmt.Errorf("note %d: %w", i, err)
		}
		select {
		case <-done:
		case <-ctx.Done():
			p.StopNote()
			return fmt.Errorf("playing note %d: %w", i, ctx.Err())
		}
	}
	return nil
}
