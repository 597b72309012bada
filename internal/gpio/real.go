//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/turn-indicator/internal/logic"
)

// RealButtons reads the buttons from hardware using the Linux GPIO character device.
type RealButtons struct {
	chip  *gpiocdev.Chip
	lines [2]*gpiocdev.Line
}

// NewRealButtons requests both button lines as inputs.
// Buttons switch to ground, so lines use pull-up and active-low: pressed reads 1.
func NewRealButtons(chipName string, pins Pins) (*RealButtons, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	b := &RealButtons{chip: chip}
	for _, side := range logic.Sides {
		pin := pins.LeftButton
		if side == logic.SideRight {
			pin = pins.RightButton
		}
		line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.AsActiveLow)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("request %s button pin %d: %w", side, pin, err)
		}
		b.lines[side] = line
	}
	return b, nil
}

// Read returns true while the button on side is pressed.
func (b *RealButtons) Read(side logic.Side) (bool, error) {
	v, err := b.lines[side].Value()
	if err != nil {
		return false, fmt.Errorf("read %s button: %w", side, err)
	}
	return v == 1, nil
}

// Close releases GPIO resources.
func (b *RealButtons) Close() error {
	var errs []error
	for _, side := range logic.Sides {
		if b.lines[side] == nil {
			continue
		}
		if err := b.lines[side].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s button: %w", side, err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealLamps drives the lamps through GPIO output lines.
type RealLamps struct {
	chip  *gpiocdev.Chip
	lines [2]*gpiocdev.Line
}

// NewRealLamps requests both lamp lines as outputs, initially off.
func NewRealLamps(chipName string, pins Pins) (*RealLamps, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	l := &RealLamps{chip: chip}
	for _, side := range logic.Sides {
		pin := pins.LeftLamp
		if side == logic.SideRight {
			pin = pins.RightLamp
		}
		line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
		if err != nil {
			l.Close()
			return nil, fmt.Errorf("request %s lamp pin %d: %w", side, pin, err)
		}
		l.lines[side] = line
	}
	return l, nil
}

// SetIntensity lights the lamp for any non-zero percent.
func (l *RealLamps) SetIntensity(side logic.Side, percent uint8) error {
	v := 0
	if percent > 0 {
		v = 1
	}
	if err := l.lines[side].SetValue(v); err != nil {
		return fmt.Errorf("set %s lamp: %w", side, err)
	}
	return nil
}

// Close turns the lamps off and reconfigures the lines as inputs with
// pull-down (matching Pi boot defaults) before releasing them.
func (l *RealLamps) Close() error {
	var errs []error
	for _, side := range logic.Sides {
		line := l.lines[side]
		if line == nil {
			continue
		}
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("switch off %s lamp: %w", side, err))
		}
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s lamp: %w", side, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s lamp: %w", side, err))
		}
	}
	if l.chip != nil {
		if err := l.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
