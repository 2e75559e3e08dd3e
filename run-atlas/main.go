package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jrockway/periphflag"
	"github.com/micronote/atlas/atlas"
	"github.com/micronote/atlas/tone"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"periph.io/x/extra/hostextra"
	"periph.io/x/periph/conn/spi/spireg"
)

var (
	bind       = flag.String("bind", ":8080", "address to bind for debug/metrics server")
	chronyAddr = flag.String("chrony", "localhost:323", "address of the local chronyd")
	utcOffset  = flag.Int("utc_offset", 0, "hours to add to the displayed time")
	brightness = flag.Int("brightness", 5, "display brightness, 0-15")
	countEvery = flag.Duration("count", 0, "if nonzero, count up on the display at this interval instead of showing the clock")
	chime      = flag.Bool("chime", false, "play the demo song at startup")
	spi        string
)

func main() {
	if _, err := hostextra.Init(); err != nil {
		log.Fatalf("init periph.io: %v", err)
	}
	periphflag.SPIDevVar(&spi, "spi", "", "spi bus that the display is on")
	flag.Parse()

	spiPort, err := spireg.Open(spi)
	if err != nil {
		log.Fatalf("open spi port %q: %v", spi, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	dev, err := atlas.New(spiPort, atlas.DefaultConfig())
	if err != nil {
		log.Fatalf("init board: %v", err)
	}
	if err := dev.Display.Dev().Intensity(*brightness); err != nil {
		log.Fatalf("set brightness: %v", err)
	}
	dev.RTC.SetUTCOffset(*utcOffset)

	http.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/display", http.StatusFound)
	})
	http.Handle("/display", dev.Display)
	http.Handle("/metrics", promhttp.Handler())

	httpDoneCh := make(chan error)
	httpServer := http.Server{Addr: *bind}
	go func() {
		log.Printf("http server listening on %s", httpServer.Addr)
		err := httpServer.ListenAndServe()
		select {
		case httpDoneCh <- err:
		case <-ctx.Done():
		}
		close(httpDoneCh)
	}()

	go dev.RTC.WatchChrony(*chronyAddr)
	dev.Watch(ctx)

	if *chime {
		if err := dev.Tone.PlaySong(ctx, tone.OdeToJoy); err != nil {
			log.Printf("startup chime: %v", err)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	loopDoneCh := make(chan error)
	go func() {
		var err error
		if *countEvery > 0 {
			if werr := dev.Display.WriteDecimal(0, 0); werr != nil {
				log.Printf("seed counter: %v", werr)
			}
			err = dev.Count(ctx, *countEvery)
		} else {
			err = dev.RunClock(ctx)
		}
		select {
		case loopDoneCh <- err:
		case <-ctx.Done():
		}
		close(loopDoneCh)
	}()

	httpAlive := true
	select {
	case err := <-httpDoneCh:
		log.Printf("http server died: %v", err)
		httpAlive = false
	case err := <-loopDoneCh:
		log.Printf("display loop died: %v", err)
	case <-sigCh:
		log.Printf("interrupt")
	}
	signal.Stop(sigCh)
	cancel()
	dev.Tone.StopNote()
	dev.Blank()
	if httpAlive {
		tctx, c := context.WithTimeout(context.Background(), time.Second)
		httpServer.Shutdown(tctx)
		c()
	}
	os.Exit(1)
}
