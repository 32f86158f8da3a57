package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeNowAndSet(t *testing.T) {
	c := Fake(epoch)
	if got := c.Now(); !got.Equal(epoch) {
		t.Fatalf("Now = %v, want %v", got, epoch)
	}

	c.Advance(90 * time.Minute)
	if got, want := c.Now(), epoch.Add(90*time.Minute); !got.Equal(want) {
		t.Errorf("Now after Advance = %v, want %v", got, want)
	}

	later := epoch.Add(72 * time.Hour)
	c.Set(later)
	if got := c.Now(); !got.Equal(later) {
		t.Errorf("Now after Set = %v, want %v", got, later)
	}
}

func TestFakeTickerFiresOnAdvance(t *testing.T) {
	c := Fake(epoch)
	ticker := c.NewTicker(time.Hour)
	defer ticker.Stop()

	c.Advance(59 * time.Minute)
	select {
	case <-ticker.C:
		t.Fatal("ticker fired before its interval elapsed")
	default:
	}

	c.Advance(time.Minute)
	select {
	case got := <-ticker.C:
		if want := epoch.Add(time.Hour); !got.Equal(want) {
			t.Errorf("tick = %v, want %v", got, want)
		}
	default:
		t.Fatal("ticker did not fire at its deadline")
	}
}

func TestFakeTickerDropsWhenFull(t *testing.T) {
	c := Fake(epoch)
	ticker := c.NewTicker(time.Hour)
	defer ticker.Stop()

	c.Advance(5 * time.Hour)

	<-ticker.C
	select {
	case <-ticker.C:
		t.Fatal("expected overflowing ticks to be dropped")
	default:
	}
}

func TestFakeTickerStop(t *testing.T) {
	c := Fake(epoch)
	ticker := c.NewTicker(time.Hour)
	ticker.Stop()

	c.Advance(2 * time.Hour)
	select {
	case <-ticker.C:
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestWaitForTickers(t *testing.T) {
	c := Fake(epoch)
	done := make(chan struct{})
	go func() {
		c.WaitForTickers(1)
		close(done)
	}()

	ticker := c.NewTicker(time.Minute)
	defer ticker.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForTickers did not return after ticker registration")
	}
}

func TestNewTickerPanicsOnNonPositive(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for zero interval")
		}
	}()
	Fake(epoch).NewTicker(0)
}
