// Package logic contains the pure indicator control logic.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is measured in ticks and converted to elapsed durations by the Controller.
package logic

import (
	"fmt"
	"time"
)

// Mode is the active indicator mode. Its ordinal is reported in status lines.
type Mode int

const (
	ModeOff Mode = iota
	ModeLeft
	ModeRight
	ModeHazard
)

func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "OFF"
	case ModeLeft:
		return "LEFT"
	case ModeRight:
		return "RIGHT"
	case ModeHazard:
		return "HAZARD"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Side identifies a button channel or the lamp on that side.
type Side int

const (
	SideLeft Side = iota
	SideRight
)

// Sides lists both sides in processing order.
var Sides = [...]Side{SideLeft, SideRight}

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "LEFT"
	case SideRight:
		return "RIGHT"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// EventKind is the kind of event fed to the state machine.
type EventKind int

const (
	EventLongPressReleased EventKind = iota
	EventHazardThresholdReached
)

func (k EventKind) String() string {
	switch k {
	case EventLongPressReleased:
		return "LONG_PRESS_RELEASED"
	case EventHazardThresholdReached:
		return "HAZARD_THRESHOLD_REACHED"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is produced by the button monitor or the hazard detector.
type Event struct {
	Kind EventKind
	// Side is only meaningful for EventLongPressReleased.
	Side Side
	// At is the elapsed time since start when the event fired.
	At time.Duration
	// Held is the press or hold duration that triggered the event.
	Held time.Duration
}

// Transition records a state-changing step of the state machine.
type Transition struct {
	From    Mode
	To      Mode
	Event   Event
	Message string
}

// Sample is one reading of both buttons. true = pressed.
type Sample struct {
	Left  bool
	Right bool
}

// Level returns the level of the given side.
func (s Sample) Level(side Side) bool {
	if side == SideRight {
		return s.Right
	}
	return s.Left
}

// LampPattern is the on/off state of both lamps.
type LampPattern struct {
	Left  bool
	Right bool
}

// On reports whether the lamp on the given side is lit.
func (p LampPattern) On(side Side) bool {
	if side == SideRight {
		return p.Right
	}
	return p.Left
}

// EventCounts tracks activity since startup.
type EventCounts struct {
	LeftLongPress  int
	RightLongPress int
	ShortPress     int
	Hazard         int
	Transitions    int
	LampUpdates    int
	Reports        int
}

// Snapshot is a value copy of the controller state taken at the end of a tick.
type Snapshot struct {
	Tick    uint64
	Elapsed time.Duration
	Mode    Mode
	Lamps   LampPattern
	Buttons Sample
	Counts  EventCounts
}
