package gpio

import (
	"errors"
	"sync"

	"github.com/sweeney/turn-indicator/internal/logic"
)

// FakeButtons is a test double that returns scripted button levels.
// Each side keeps its own cursor, so reading both sides once per tick
// consumes one sample.
type FakeButtons struct {
	mu sync.Mutex

	// Samples contains the scripted levels, one per tick.
	Samples []logic.Sample

	index [2]int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeButtons creates a FakeButtons with the given samples.
func NewFakeButtons(samples []logic.Sample) *FakeButtons {
	return &FakeButtons{Samples: samples}
}

// Read returns the scripted level for side and advances that side's cursor.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeButtons) Read(side logic.Side) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ReadError != nil {
		return false, f.ReadError
	}

	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index[side]]
	if f.index[side] < len(f.Samples)-1 {
		f.index[side]++
	}

	return sample.Level(side), nil
}

// Close marks the buttons as closed.
func (f *FakeButtons) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Reset rewinds both cursors.
func (f *FakeButtons) Reset() {
	f.mu.Lock()
	f.index = [2]int{}
	f.Closed = false
	f.mu.Unlock()
}

// LampWrite is one recorded SetIntensity call.
type LampWrite struct {
	Side    logic.Side
	Percent uint8
}

// FakeLamps records lamp writes for test assertions.
type FakeLamps struct {
	mu sync.Mutex

	// Writes contains every SetIntensity call in order.
	Writes []LampWrite

	// WriteError, if set, will be returned by SetIntensity.
	WriteError error

	Closed bool
}

// NewFakeLamps creates an empty FakeLamps.
func NewFakeLamps() *FakeLamps {
	return &FakeLamps{}
}

// SetIntensity records the write.
func (f *FakeLamps) SetIntensity(side logic.Side, percent uint8) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Writes = append(f.Writes, LampWrite{Side: side, Percent: percent})
	return nil
}

// State returns the last written percent per side.
func (f *FakeLamps) State() (left, right uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.Writes {
		if w.Side == logic.SideLeft {
			left = w.Percent
		} else {
			right = w.Percent
		}
	}
	return left, right
}

// WriteCount returns the number of recorded writes.
func (f *FakeLamps) WriteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Writes)
}

// Close marks the lamps as closed.
func (f *FakeLamps) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}
