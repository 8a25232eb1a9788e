package limiter

import (
	"runtime"
	"time"
)

// Throttle paces a tight loop to keep its CPU usage near a maximum percentage
type Throttle struct {
	maxPercent float64
	lastSleep  time.Time
}

// New creates a throttle with the given CPU budget
func New(maxPercent float64) *Throttle {
	return &Throttle{
		maxPercent: maxPercent,
		lastSleep:  time.Now(),
	}
}

// Pace sleeps to limit CPU usage to maxPercent
// This is a simple implementation that sleeps periodically
// For more accurate control, consider using cgroups or systemd limits
func (t *Throttle) Pace() {
	if t.maxPercent <= 0 || t.maxPercent >= 100 {
		return // No limit or invalid
	}

	// If we want to use maxPercent CPU, we sleep for (100 - maxPercent)
	// of the time, scaled against a 10ms work slice.
	sleepPercent := 100.0 - t.maxPercent

	workTime := 10 * time.Millisecond
	sleepTime := time.Duration(float64(workTime) * (sleepPercent / t.maxPercent))

	// Only sleep if enough time has passed since last sleep
	if time.Since(t.lastSleep) > workTime {
		time.Sleep(sleepTime)
		t.lastSleep = time.Now()
	}

	// Yield to other goroutines
	runtime.Gosched()
}

// SetMaxPercent updates the maximum CPU percentage
func (t *Throttle) SetMaxPercent(maxPercent float64) {
	t.maxPercent = maxPercent
}
