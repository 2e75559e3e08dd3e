package timesync

import (
	"fmt"
	"log"
	"net"
	"time"

	"github.com/facebookincubator/ntp/protocol/chrony"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/net/trace"
)

// LeapStatus value chronyd reports when it has no synchronization source.
const leapUnsynchronized = 3

var (
	chronyStratum = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chrony_stratum",
		Help: "stratum of the local chronyd; 0 when unreachable",
	})
	chronyOffset = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chrony_last_offset_seconds",
		Help: "last measured offset between the local clock and chronyd's sources",
	})
	chronySynchronized = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chrony_synchronized",
		Help: "1 when chronyd reports a synchronized clock",
	})
)

// WatchChrony polls the chronyd at addr (normally localhost:323) and keeps
// the RTC's synchronized flag current.  It runs until the process exits,
// reconnecting after errors, like the other background watchers.
func (r *RTC) WatchChrony(addr string) {
	l := trace.NewEventLog("service", "chrony")
	defer l.Finish()
	for {
		if err := r.monitorChrony(addr, l); err != nil {
			log.Printf("monitorChrony exited unexpectedly: %v", err)
			l.Errorf("monitorChrony exited unexpectedly: %v", err)
			r.setSynchronized(false)
			chronyStratum.Set(0)
			chronySynchronized.Set(0)
			time.Sleep(10 * time.Second)
		}
	}
}

func (r *RTC) monitorChrony(addr string, l trace.EventLog) error {
	l.Printf("dial %s", addr)
	conn, err := net.DialTimeout("udp", addr, time.Second)
	if err != nil {
		l.Errorf("dial: %v", err)
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	c := chrony.Client{Sequence: 1, Connection: conn}
	log.Printf("connected to chronyd ok; starting loop")
	var wait bool
	for {
		if wait {
			time.Sleep(30 * time.Second)
		} else {
			wait = true
		}
		deadline := time.Now().Add(time.Minute)
		if err := conn.SetReadDeadline(deadline); err != nil {
			l.Errorf("set read deadline: %v", err)
			return fmt.Errorf("set read deadline: %w", err)
		}

		treq := chrony.NewTrackingPacket()
		tres, err := c.Communicate(treq)
		if err != nil {
			return fmt.Errorf("get tracking info: communicate: %w", err)
		}
		tracking, ok := tres.(*chrony.ReplyTracking)
		if !ok {
			l.Errorf("tracking reply was of unexpected type: %#v", tres)
			continue
		}
		l.Printf("tracking: %#v", tracking)

		synced := tracking.LeapStatus != leapUnsynchronized && tracking.Stratum != 0
		r.setSynchronized(synced)
		chronyStratum.Set(float64(tracking.Stratum))
		chronyOffset.Set(tracking.LastOffset)
		if synced {
			chronySynchronized.Set(1)
		} else {
			chronySynchronized.Set(0)
		}
	}
}
