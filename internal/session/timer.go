package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/jotlit/internal/constants"
)

// Timer is a countdown advanced one second per Tick. It holds no goroutine;
// the owner drives it from its own clock.
type Timer struct {
	mu        sync.Mutex
	minutes   int
	remaining time.Duration
	running   bool
}

func NewTimer(minutes int) *Timer {
	t := &Timer{}
	t.SetMinutes(minutes)
	return t
}

// ClampMinutes bounds a duration setting to the supported range.
func ClampMinutes(minutes int) int {
	if minutes < constants.MinTimerMinutes {
		return constants.MinTimerMinutes
	}
	if minutes > constants.MaxTimerMinutes {
		return constants.MaxTimerMinutes
	}
	return minutes
}

// SetMinutes changes the session length and resets the remaining time.
func (t *Timer) SetMinutes(minutes int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.minutes = ClampMinutes(minutes)
	t.remaining = time.Duration(t.minutes) * time.Minute
}

func (t *Timer) Minutes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.minutes
}

// Start resumes the countdown. It does nothing when already running or
// when no time is left.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running || t.remaining <= 0 {
		return
	}
	t.running = true
}

func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
}

// Reset stops the countdown and restores the full duration.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	t.remaining = time.Duration(t.minutes) * time.Minute
}

// Tick advances a running timer by one second. It returns true exactly once,
// on the tick that reaches zero, and stops the timer.
func (t *Timer) Tick() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return false
	}
	t.remaining -= time.Second
	if t.remaining <= 0 {
		t.remaining = 0
		t.running = false
		return true
	}
	return false
}

func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Display renders the remaining time as MM:SS.
func (t *Timer) Display() string {
	rem := t.Remaining()
	secs := int(rem / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
