package tone

import (
	"context"
	"sync"
	"testing"
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/physic"
)

// countingPin records every level written to it.
type countingPin struct {
	mu      sync.Mutex
	level   gpio.Level
	toggles int
}

func (p *countingPin) Out(l gpio.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l != p.level {
		p.toggles++
	}
	p.level = l
	return nil
}

func (p *countingPin) snapshot() (gpio.Level, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level, p.toggles
}

func TestPlayNoteTogglesAndCutsOff(t *testing.T) {
	pin := &countingPin{}
	p, err := NewPlayer(pin)
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	if level, _ := pin.snapshot(); level != idleLevel {
		t.Fatalf("buzzer not idle after init")
	}

	// 1 kHz for 100ms: plenty of toggles even on a slow test machine.
	if err := p.PlayNote(physic.KiloHertz, 100*time.Millisecond); err != nil {
		t.Fatalf("play note: %v", err)
	}
	time.Sleep(250 * time.Millisecond)

	level, toggles := pin.snapshot()
	if toggles < 10 {
		t.Errorf("too few toggles for an audible note: %d", toggles)
	}
	if level != idleLevel {
		t.Error("buzzer not idle after the cutoff fired")
	}

	// The periodic channel must be disarmed, not just silent.
	time.Sleep(50 * time.Millisecond)
	if _, after := pin.snapshot(); after != toggles {
		t.Errorf("buzzer still toggling after cutoff: %d -> %d", toggles, after)
	}
}

func TestStopNoteBeforeCutoff(t *testing.T) {
	pin := &countingPin{}
	p, err := NewPlayer(pin)
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	if err := p.PlayNote(440*physic.Hertz, 500*time.Millisecond); err != nil {
		t.Fatalf("play note: %v", err)
	}
	p.StopNote()
	time.Sleep(50 * time.Millisecond)

	level, toggles := pin.snapshot()
	if level != idleLevel {
		t.Error("buzzer not idle after StopNote")
	}
	time.Sleep(100 * time.Millisecond)
	if _, after := pin.snapshot(); after != toggles {
		t.Errorf("buzzer still toggling after StopNote: %d -> %d", toggles, after)
	}
}

func TestPlayNoteReplacesCurrentNote(t *testing.T) {
	pin := &countingPin{}
	p, err := NewPlayer(pin)
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	if err := p.PlayNote(physic.KiloHertz, time.Minute); err != nil {
		t.Fatalf("play first note: %v", err)
	}
	// Last write wins; the long first note must not keep playing.
	if err := p.PlayNote(2*physic.KiloHertz, 50*time.Millisecond); err != nil {
		t.Fatalf("play second note: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	if level, _ := pin.snapshot(); level != idleLevel {
		t.Error("buzzer not idle; the replaced note is still playing")
	}
}

func TestPlayNoteRejectsNonPositiveFrequency(t *testing.T) {
	p, err := NewPlayer(&countingPin{})
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	if err := p.PlayNote(0, time.Second); err == nil {
		t.Error("zero frequency unexpectedly accepted")
	}
}

func TestPlaySongIsSequential(t *testing.T) {
	pin := &countingPin{}
	p, err := NewPlayer(pin)
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	song := []Note{
		{physic.KiloHertz, 30 * time.Millisecond},
		{2 * physic.KiloHertz, 30 * time.Millisecond},
		{3 * physic.KiloHertz, 30 * time.Millisecond},
	}
	start := time.Now()
	if err := p.PlaySong(context.Background(), song); err != nil {
		t.Fatalf("play song: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("song finished too fast to have been sequential: %s", elapsed)
	}
	if level, _ := pin.snapshot(); level != idleLevel {
		t.Error("buzzer not idle after the song")
	}
}

func TestPlaySongCancel(t *testing.T) {
	pin := &countingPin{}
	p, err := NewPlayer(pin)
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error)
	go func() { errCh <- p.PlaySong(ctx, []Note{{physic.KiloHertz, time.Minute}}) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		if err == nil {
			t.Error("expected an error from the cancelled song")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for PlaySong to return")
	}
	time.Sleep(20 * time.Millisecond)
	if level, _ := pin.snapshot(); level != idleLevel {
		t.Error("buzzer not idle after cancel")
	}
}
