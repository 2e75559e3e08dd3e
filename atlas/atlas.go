// Package atlas wires up the peripherals on the Atlas board: the six-digit
// display, the three indicator LEDs, the piezo buzzer, and the three
// push-buttons.  Button presses drive the display; the clock face and demo
// counter run on top of the same device.
package atlas

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/micronote/atlas/button"
	"github.com/micronote/atlas/clockface"
	"github.com/micronote/atlas/max7219"
	"github.com/micronote/atlas/timers"
	"github.com/micronote/atlas/timesync"
	"github.com/micronote/atlas/tone"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/spi"
)

// Config names the pins each peripheral is wired to.
type Config struct {
	RedLED, GreenLED, BlueLED          string
	ModeButton, IncrButton, DecrButton string
	Buzzer                             string
	ChipSelect                         string
}

// DefaultConfig is the pin map of the stock board.
func DefaultConfig() Config {
	return Config{
		RedLED:     "GPIO0",
		GreenLED:   "GPIO4",
		BlueLED:    "GPIO5",
		ModeButton: "GPIO12",
		IncrButton: "GPIO10",
		DecrButton: "GPIO2",
		Buzzer:     "GPIO16",
		ChipSelect: "GPIO15",
	}
}

// outPin is the part of gpio.PinOut an indicator needs.
type outPin interface {
	Out(l gpio.Level) error
}

// indicator is one LED and the level we last drove it to; the pin itself
// can't be read back.
type indicator struct {
	pin   outPin
	level gpio.Level
}

// Device is the one process-wide handle on the board, constructed once at
// startup.  There is no teardown: the reset model is a power cycle.
type Device struct {
	Display *max7219.Display
	Tone    *tone.Player
	RTC     *timesync.RTC

	mu      sync.Mutex
	leds    []*indicator
	buttons []*button.Button
}

func pinByName(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("no pin named %q", name)
	}
	return p, nil
}

// New initializes every peripheral: LEDs off, buzzer silent, display
// cleared, buttons armed.  port may be nil to run without the display
// attached (the shadow registers and debug page still work).
func New(port spi.Port, cfg Config) (*Device, error) {
	d := &Device{RTC: timesync.NewRTC()}

	for _, name := range []string{cfg.RedLED, cfg.GreenLED, cfg.BlueLED} {
		p, err := pinByName(name)
		if err != nil {
			return nil, fmt.Errorf("init LEDs: %w", err)
		}
		if err := p.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("turn off LED %s: %w", name, err)
		}
		d.leds = append(d.leds, &indicator{pin: p, level: gpio.Low})
	}

	buzzer, err := pinByName(cfg.Buzzer)
	if err != nil {
		return nil, fmt.Errorf("init buzzer: %w", err)
	}
	d.Tone, err = tone.NewPlayer(buzzer)
	if err != nil {
		return nil, fmt.Errorf("init buzzer: %w", err)
	}

	cs, err := pinByName(cfg.ChipSelect)
	if err != nil {
		return nil, fmt.Errorf("init display: %w", err)
	}
	dev, err := max7219.New(port, cs)
	if err != nil {
		return nil, fmt.Errorf("init display: %w", err)
	}
	d.Display, err = max7219.NewDisplay(dev)
	if err != nil {
		return nil, fmt.Errorf("init display: %w", err)
	}

	for _, b := range []struct {
		pin     string
		name    string
		onPress func()
	}{
		{cfg.ModeButton, "mode", d.onMode},
		{cfg.IncrButton, "incr", d.onIncrement},
		{cfg.DecrButton, "decr", d.onDecrement},
	} {
		p, err := pinByName(b.pin)
		if err != nil {
			return nil, fmt.Errorf("init button %s: %w", b.name, err)
		}
		btn, err := button.New(p, b.name, b.onPress)
		if err != nil {
			return nil, err
		}
		d.buttons = append(d.buttons, btn)
	}

	return d, nil
}

// Watch starts the button watchers in the background.
func (d *Device) Watch(ctx context.Context) {
	for _, b := range d.buttons {
		b.Watch(ctx)
	}
}

// ToggleLEDs flips all three indicator LEDs, the stock outcome of the mode
// button.
func (d *Device) ToggleLEDs() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, led := range d.leds {
		led.level = !led.level
		if err := led.pin.Out(led.level); err != nil {
			log.Printf("toggle LED %d: %v", i, err)
		}
	}
}

func (d *Device) onMode() {
	d.ToggleLEDs()
}

func (d *Device) onIncrement() {
	if err := d.Display.Increment(); err != nil {
		log.Printf("increment: %v", err)
	}
}

func (d *Device) onDecrement() {
	if err := d.Display.Decrement(); err != nil {
		log.Printf("decrement: %v", err)
	}
}

// RunClock shows the 24-hour clock until the context is cancelled.  Call
// after setting the time, either manually or from the network.
func (d *Device) RunClock(ctx context.Context) error {
	return clockface.New(d.Display, d.RTC).Run(ctx)
}

// Count increments the displayed value at the given interval.  The counter
// stops with an error if the display is blank when it fires.
func (d *Device) Count(ctx context.Context, interval time.Duration) error {
	return timers.Periodic(ctx, interval, d.Display.Increment)
}

// Blank clears the display, for exiting cleanly on a signal so a viewer
// can tell the program stopped on purpose.
func (d *Device) Blank() {
	if err := d.Display.Clear(); err != nil {
		log.Printf("blank display: %v", err)
	}
}
