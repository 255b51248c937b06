package session

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestCountdownRemainingDerivedFromStart(t *testing.T) {
	clock := newFakeClock()
	c := newCountdown(clock.Now(), 90*time.Second, clock.Now, func() {})

	if got := c.Remaining(); got != 90 {
		t.Fatalf("remaining=%d, want 90", got)
	}

	// Remaining is recomputed from the start timestamp, so one large
	// jump (a suspended tab) is indistinguishable from many ticks.
	clock.Advance(37 * time.Second)
	if got := c.Remaining(); got != 53 {
		t.Fatalf("remaining=%d after 37s, want 53", got)
	}

	clock.Advance(10 * time.Minute)
	if got := c.Remaining(); got != 0 {
		t.Fatalf("remaining=%d past deadline, want 0 (never negative)", got)
	}
}

func TestCountdownExpiresExactlyOnce(t *testing.T) {
	var fired atomic.Int32
	done := make(chan struct{})
	c := newCountdown(time.Now(), 10*time.Millisecond, time.Now, func() {
		if fired.Add(1) == 1 {
			close(done)
		}
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("countdown never expired")
	}

	time.Sleep(30 * time.Millisecond)
	if n := fired.Load(); n != 1 {
		t.Fatalf("expiry fired %d times, want 1", n)
	}
	if !c.Expired() {
		t.Fatal("Expired() should report true after firing")
	}
	if c.Stop() {
		t.Fatal("Stop after expiry should report false")
	}
}

func TestCountdownStopPreventsExpiry(t *testing.T) {
	var fired atomic.Int32
	c := newCountdown(time.Now(), 20*time.Millisecond, time.Now, func() {
		fired.Add(1)
	})

	if !c.Stop() {
		t.Fatal("Stop before expiry should report true")
	}

	time.Sleep(60 * time.Millisecond)
	if n := fired.Load(); n != 0 {
		t.Fatalf("expiry fired %d times after Stop, want 0", n)
	}
	if c.Expired() {
		t.Fatal("stopped countdown must not report expired")
	}
}

func TestCountdownPastDeadlineFiresImmediately(t *testing.T) {
	done := make(chan struct{})
	newCountdown(time.Now().Add(-time.Hour), time.Minute, time.Now, func() {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("overdue countdown did not fire")
	}
}
