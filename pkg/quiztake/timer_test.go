package quiztake

import "testing"

func TestTimerCountdown(t *testing.T) {
	limit := 1
	tm := NewTimer(&limit)
	tm.Arm()

	if got := tm.Remaining(); got != 60 {
		t.Fatalf("remaining = %d, want 60", got)
	}

	fired := 0
	for i := 0; i < 100; i++ {
		if tm.Tick() {
			fired++
		}
	}

	if fired != 1 {
		t.Fatalf("expiry fired %d times, want exactly 1", fired)
	}
	if got := tm.Remaining(); got != 0 {
		t.Fatalf("remaining = %d, want 0 (never negative)", got)
	}
}

func TestTimerInertWithoutLimit(t *testing.T) {
	tm := NewTimer(nil)
	tm.Arm()

	if got := tm.Remaining(); got != -1 {
		t.Fatalf("remaining = %d, want -1 for untimed", got)
	}
	for i := 0; i < 10; i++ {
		if tm.Tick() {
			t.Fatal("inert timer fired")
		}
	}
}

func TestTimerStopFreezesCountdown(t *testing.T) {
	limit := 2
	tm := NewTimer(&limit)
	tm.Arm()

	tm.Tick()
	tm.Tick()
	tm.Stop()

	frozen := tm.Remaining()
	if tm.Tick() {
		t.Fatal("stopped timer fired")
	}
	if got := tm.Remaining(); got != frozen {
		t.Fatalf("remaining changed after stop: %d -> %d", frozen, got)
	}

	// Re-arming resumes from where it stopped.
	tm.Arm()
	tm.Tick()
	if got := tm.Remaining(); got != frozen-1 {
		t.Fatalf("remaining after resume = %d, want %d", got, frozen-1)
	}
}

func TestTimerCannotRefireAfterExpiry(t *testing.T) {
	limit := 1
	tm := NewTimer(&limit)
	tm.Arm()

	for i := 0; i < 60; i++ {
		tm.Tick()
	}
	// A fired timer stays dead even if re-armed.
	tm.Arm()
	if tm.Tick() {
		t.Fatal("expired timer fired again")
	}
}
