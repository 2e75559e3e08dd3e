// Package button turns the bouncy mechanical push-buttons on the Atlas
// board into clean press events.  Each button is a pulled-up input that
// falls to ground when pressed; we watch for the falling edge and then
// sample the pin repeatedly to reject contact bounce.
package button

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"periph.io/x/periph/conn/gpio"
)

// DebounceSamples is the size of the sampling window after an edge.  The
// window is bounded by sample count, not time.
const DebounceSamples = 32

const edgeTimeout = 500 * time.Millisecond

var (
	edgesSeen = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "button_edges",
		Help: "count of falling edges observed, bounces included",
	}, []string{"button"})
	pressesConfirmed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "button_presses",
		Help: "count of edges that the debouncer confirmed as presses",
	}, []string{"button"})
)

// Pin is the part of gpio.PinIO that the debouncer needs.
type Pin interface {
	In(pull gpio.Pull, edge gpio.Edge) error
	Read() gpio.Level
	WaitForEdge(timeout time.Duration) bool
}

// Confirm samples the pin up to window times and reports whether the edge
// was a real press.  This reproduces the shipped firmware's algorithm
// exactly, quirk included: each iteration samples twice, and a high second
// sample returns the negation of the *first* sample, so a bounce observed
// between the two samples still confirms the press.  See the "bounce
// between samples" case in the tests before changing anything here.
func Confirm(pin Pin, window int) bool {
	var flag gpio.Level
	for i := 0; i < window; i++ {
		flag = pin.Read()
		if pin.Read() == gpio.High {
			return flag == gpio.Low
		}
	}
	return flag == gpio.Low
}

// Button watches one physical button and calls its handler once per
// confirmed press.
type Button struct {
	pin     Pin
	name    string
	onPress func()
}

// New configures pin as a pulled-up falling-edge input.  onPress runs on
// the watch goroutine and must not block; a press that arrives while the
// handler is still running waits for it.
func New(pin Pin, name string, onPress func()) (*Button, error) {
	if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return nil, fmt.Errorf("configure button %s: %w", name, err)
	}
	return &Button{pin: pin, name: name, onPress: onPress}, nil
}

// Run watches for presses until the context is cancelled.
func (b *Button) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return fmt.Errorf("watching button %s: %w", b.name, ctx.Err())
		}
		if !b.pin.WaitForEdge(edgeTimeout) {
			continue
		}
		edgesSeen.WithLabelValues(b.name).Inc()
		if !Confirm(b.pin, DebounceSamples) {
			continue
		}
		pressesConfirmed.WithLabelValues(b.name).Inc()
		b.onPress()
	}
}

// Watch runs the button loop in the background, logging the reason it
// stops.
func (b *Button) Watch(ctx context.Context) {
	go func() {
		if err := b.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("button %s watcher exited: %v", b.name, err)
		}
	}()
}
