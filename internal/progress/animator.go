package progress

import (
	"math"
	"sync"
	"time"
)

const (
	// animationDuration is the window over which one retarget settles.
	animationDuration = 1000 * time.Millisecond
	// frameInterval approximates a rendering-clock frame.
	frameInterval = 16 * time.Millisecond
)

// FrameFunc receives the displayed value and message once per frame.
type FrameFunc func(percent float64, message string)

// Animator eases a locally displayed percentage toward a target over a
// fixed window, decoupling slow real progress ticks from smooth visual
// motion. It holds no task identity and is reused across one pipeline run.
type Animator struct {
	mu        sync.Mutex
	displayed float64
	message   string
	from      float64
	target    float64
	started   time.Time
	running   bool
	// loopID names the frame loop allowed to drive frames; stale loops
	// exit on their next tick. activeLoops counts live loop goroutines.
	loopID      int
	activeLoops int
	onFrame     FrameFunc
}

// NewAnimator creates an animator. onFrame may be nil when no per-frame
// consumer exists; Displayed can still be polled.
func NewAnimator(onFrame FrameFunc) *Animator {
	return &Animator{onFrame: onFrame}
}

// SetTarget starts easing the displayed value from its current position to
// percent over the animation window. Retargeting mid-flight restarts the
// interpolation from the current displayed value, never from zero, so the
// bar does not snap.
func (a *Animator) SetTarget(percent float64, message string) {
	a.mu.Lock()
	a.from = a.displayed
	a.target = clampPercent(percent)
	a.message = message
	a.started = time.Now()
	spawn := !a.running
	a.running = true
	if spawn {
		a.loopID++
	}
	id := a.loopID
	a.mu.Unlock()

	if spawn {
		go a.loop(id)
	}
}

// Stop halts the frame loop, resets the displayed value to 0, and clears
// the message.
func (a *Animator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running = false
	a.displayed = 0
	a.message = ""
}

// Displayed returns the current displayed value and message.
func (a *Animator) Displayed() (float64, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.displayed, a.message
}

// loop advances the interpolation once per frame until the target is
// reached or a stop/newer loop supersedes this one. Only the loop whose
// id matches loopID may drive frames, so a Stop/SetTarget pair inside one
// frame never leaves two drivers.
func (a *Animator) loop(id int) {
	a.mu.Lock()
	a.activeLoops++
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.activeLoops--
		a.mu.Unlock()
	}()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for range ticker.C {
		a.mu.Lock()
		if !a.running || a.loopID != id {
			a.mu.Unlock()
			return
		}

		t := float64(time.Since(a.started)) / float64(animationDuration)
		if t >= 1 {
			a.displayed = a.target
			a.running = false
			value, msg, cb := a.displayed, a.message, a.onFrame
			a.mu.Unlock()
			if cb != nil {
				cb(value, msg)
			}
			return
		}

		a.displayed = a.from + (a.target-a.from)*easeOutCubic(t)
		value, msg, cb := a.displayed, a.message, a.onFrame
		a.mu.Unlock()
		if cb != nil {
			cb(value, msg)
		}
	}
}

// easeOutCubic is 1 − (1−t)³ for t in [0,1].
func easeOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}
