package progress

import (
	"math"
	"testing"
	"time"
)

// TestAnimatorReachesTarget verifies the displayed value settles on the
// target within the animation window.
func TestAnimatorReachesTarget(t *testing.T) {
	a := NewAnimator(nil)
	a.SetTarget(50, "halfway")

	time.Sleep(animationDuration + 200*time.Millisecond)

	value, message := a.Displayed()
	if math.Abs(value-50) > 0.001 {
		t.Fatalf("displayed = %v, want 50", value)
	}
	if message != "halfway" {
		t.Fatalf("message = %q, want halfway", message)
	}
}

// TestAnimatorRetargetWinsLast verifies that retargeting mid-flight always
// settles on the newest target with no dangling animation from the first.
func TestAnimatorRetargetWinsLast(t *testing.T) {
	a := NewAnimator(nil)
	a.SetTarget(90, "first")
	time.Sleep(100 * time.Millisecond)
	a.SetTarget(20, "second")

	time.Sleep(animationDuration + 200*time.Millisecond)

	value, message := a.Displayed()
	if math.Abs(value-20) > 0.001 {
		t.Fatalf("displayed = %v, want second target 20", value)
	}
	if message != "second" {
		t.Fatalf("message = %q, want second", message)
	}
}

// TestAnimatorRetargetStartsFromCurrent verifies no snap to zero when a new
// target arrives mid-flight.
func TestAnimatorRetargetStartsFromCurrent(t *testing.T) {
	a := NewAnimator(nil)
	a.SetTarget(100, "")
	time.Sleep(500 * time.Millisecond)

	before, _ := a.Displayed()
	if before <= 0 {
		t.Fatalf("displayed before retarget = %v, want > 0", before)
	}

	a.SetTarget(100, "")
	time.Sleep(2 * frameInterval)

	after, _ := a.Displayed()
	if after+1 < before {
		t.Fatalf("displayed snapped from %v to %v on retarget", before, after)
	}
}

// TestAnimatorStopResets verifies Stop clears the displayed value and
// message.
func TestAnimatorStopResets(t *testing.T) {
	a := NewAnimator(nil)
	a.SetTarget(80, "busy")
	time.Sleep(100 * time.Millisecond)

	a.Stop()

	value, message := a.Displayed()
	if value != 0 || message != "" {
		t.Fatalf("after Stop displayed = (%v, %q), want (0, \"\")", value, message)
	}

	// The loop must not revive the value after Stop.
	time.Sleep(3 * frameInterval)
	if value, _ := a.Displayed(); value != 0 {
		t.Fatalf("displayed after stopped loop = %v, want 0", value)
	}
}

// TestAnimatorStopThenRetargetKeepsSingleLoop verifies rapid Stop/SetTarget
// pairs inside one frame never leave two frame loops driving at once.
func TestAnimatorStopThenRetargetKeepsSingleLoop(t *testing.T) {
	a := NewAnimator(nil)
	for i := 0; i < 25; i++ {
		a.SetTarget(50, "working")
		a.Stop()
	}
	a.SetTarget(80, "working")

	// Superseded loops exit on their next tick.
	time.Sleep(5 * frameInterval)

	a.mu.Lock()
	loops := a.activeLoops
	a.mu.Unlock()
	if loops != 1 {
		t.Fatalf("active frame loops = %d, want 1", loops)
	}

	time.Sleep(animationDuration)
	if value, _ := a.Displayed(); math.Abs(value-80) > 0.001 {
		t.Fatalf("displayed = %v, want 80", value)
	}
}

// TestEaseOutCubic verifies boundary values and monotonicity of the curve.
func TestEaseOutCubic(t *testing.T) {
	if got := easeOutCubic(0); got != 0 {
		t.Fatalf("easeOutCubic(0) = %v, want 0", got)
	}
	if got := easeOutCubic(1); math.Abs(got-1) > 1e-9 {
		t.Fatalf("easeOutCubic(1) = %v, want 1", got)
	}

	prev := 0.0
	for i := 1; i <= 10; i++ {
		v := easeOutCubic(float64(i) / 10)
		if v < prev {
			t.Fatalf("curve not monotonic at t=%v", float64(i)/10)
		}
		prev = v
	}
}
