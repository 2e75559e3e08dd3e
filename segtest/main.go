// Command segtest exercises the display hardware through the upstream
// periph.io MAX7219 driver: all segments on, then a digit sweep.  If this
// doesn't light up, the problem is wiring, not our code.
package main

import (
	"flag"
	"log"
	"time"

	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/max7219"
	"periph.io/x/host/v3"
)

var (
	spiDev = flag.String("spi", "", "spi bus that the display is on")
	digits = flag.Int("digits", 6, "number of digits on the display")
)

func main() {
	flag.Parse()
	if _, err := host.Init(); err != nil {
		log.Fatalf("init periph.io: %v", err)
	}

	port, err := spireg.Open(*spiDev)
	if err != nil {
		log.Fatalf("open spi port %q: %v", *spiDev, err)
	}
	defer port.Close()

	dev, err := max7219.NewSPI(port, 1, *digits)
	if err != nil {
		log.Fatalf("init max7219: %v", err)
	}

	log.Printf("all segments on")
	if err := dev.TestDisplay(true); err != nil {
		log.Fatalf("display test: %v", err)
	}
	time.Sleep(2 * time.Second)
	if err := dev.TestDisplay(false); err != nil {
		log.Fatalf("display test off: %v", err)
	}

	log.Printf("digit sweep")
	for i := 0; i < 10; i++ {
		value := 0
		for d := 0; d < *digits; d++ {
			value = value*10 + i
		}
		if err := dev.WriteInt(value); err != nil {
			log.Fatalf("write %d: %v", value, err)
		}
		time.Sleep(500 * time.Millisecond)
	}

	if err := dev.Clear(); err != nil {
		log.Fatalf("clear: %v", err)
	}
	log.Printf("done")
}
