//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/turn-indicator/internal/logic"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealButtons is not available on non-Linux platforms.
type RealButtons struct{}

// NewRealButtons returns an error on non-Linux platforms.
func NewRealButtons(chipName string, pins Pins) (*RealButtons, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (b *RealButtons) Read(side logic.Side) (bool, error) {
	return false, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (b *RealButtons) Close() error {
	return nil
}

// RealLamps is not available on non-Linux platforms.
type RealLamps struct{}

// NewRealLamps returns an error on non-Linux platforms.
func NewRealLamps(chipName string, pins Pins) (*RealLamps, error) {
	return nil, errUnsupported
}

// SetIntensity is not implemented on non-Linux platforms.
func (l *RealLamps) SetIntensity(side logic.Side, percent uint8) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (l *RealLamps) Close() error {
	return nil
}
