package logic

import "time"

// HazardTracker holds the simultaneous-hold timing.
// HoldStart is valid only while BothHeld is true.
type HazardTracker struct {
	BothHeld  bool
	HoldStart time.Duration
	// Latched is set once the threshold event fired for the current hold.
	Latched bool
}

// HazardDetector reports when both buttons have been held for the threshold.
type HazardDetector struct {
	threshold time.Duration
	tracker   HazardTracker
}

// NewHazardDetector creates a detector with the given hold threshold.
func NewHazardDetector(threshold time.Duration) *HazardDetector {
	return &HazardDetector{threshold: threshold}
}

// Update processes one sample. It returns an event at most once per
// continuous hold. Releasing either button clears the tracker so the next
// hold is timed from zero.
func (d *HazardDetector) Update(s Sample, now time.Duration) *Event {
	if !s.Left || !s.Right {
		d.tracker = HazardTracker{}
		return nil
	}

	if !d.tracker.BothHeld {
		d.tracker = HazardTracker{BothHeld: true, HoldStart: now}
		return nil
	}

	held := now - d.tracker.HoldStart
	if d.tracker.Latched || held < d.threshold {
		return nil
	}

	d.tracker.Latched = true
	return &Event{
		Kind: EventHazardThresholdReached,
		At:   now,
		Held: held,
	}
}

// Tracker returns a copy of the tracker state.
func (d *HazardDetector) Tracker() HazardTracker {
	return d.tracker
}
