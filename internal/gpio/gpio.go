// Package gpio provides button inputs and lamp outputs with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/turn-indicator/internal/logic"

// Buttons reads the two indicator buttons.
type Buttons interface {
	// Read returns true while the button on side is pressed.
	Read(side logic.Side) (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Lamps drives the two indicator lamps.
type Lamps interface {
	// SetIntensity sets the lamp on side to percent (0-100).
	// Lines are on/off, so any non-zero percent lights the lamp.
	SetIntensity(side logic.Side, percent uint8) error

	// Close turns both lamps off and releases GPIO resources.
	Close() error
}

// Pins is the BCM line assignment.
type Pins struct {
	LeftButton  int
	RightButton int
	LeftLamp    int
	RightLamp   int
}

// Default pin definitions (BCM numbering)
const (
	DefaultChip        = "gpiochip0"
	DefaultLeftButton  = 17
	DefaultRightButton = 27
	DefaultLeftLamp    = 23
	DefaultRightLamp   = 24
)

// DefaultPins returns the stock wiring.
func DefaultPins() Pins {
	return Pins{
		LeftButton:  DefaultLeftButton,
		RightButton: DefaultRightButton,
		LeftLamp:    DefaultLeftLamp,
		RightLamp:   DefaultRightLamp,
	}
}
