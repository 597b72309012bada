package logic

import "time"

// ButtonChannel tracks edges for a single button.
type ButtonChannel struct {
	Current  bool
	Previous bool
	// PressStart is only meaningful between a rising edge and the matching
	// falling edge.
	PressStart time.Duration
}

// ButtonMonitor detects edges and long presses on both buttons.
type ButtonMonitor struct {
	longPress time.Duration
	channels  [2]ButtonChannel
}

// NewButtonMonitor creates a monitor that reports presses held at least longPress.
func NewButtonMonitor(longPress time.Duration) *ButtonMonitor {
	return &ButtonMonitor{longPress: longPress}
}

// Sample records the current levels and returns long-press events in side
// order. ignored is the number of presses released before the threshold.
func (m *ButtonMonitor) Sample(s Sample, now time.Duration) (events []Event, ignored int) {
	for _, side := range Sides {
		ch := &m.channels[side]
		ch.Current = s.Level(side)

		switch {
		case ch.Current && !ch.Previous:
			ch.PressStart = now
		case !ch.Current && ch.Previous:
			held := now - ch.PressStart
			if held >= m.longPress {
				events = append(events, Event{
					Kind: EventLongPressReleased,
					Side: side,
					At:   now,
					Held: held,
				})
			} else {
				ignored++
			}
		}

		ch.Previous = ch.Current
	}
	return events, ignored
}

// Channel returns a copy of the channel state for the given side.
func (m *ButtonMonitor) Channel(side Side) ButtonChannel {
	return m.channels[side]
}

// Levels returns the most recently sampled levels.
func (m *ButtonMonitor) Levels() Sample {
	return Sample{
		Left:  m.channels[SideLeft].Current,
		Right: m.channels[SideRight].Current,
	}
}
