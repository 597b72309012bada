// Package status provides a thread-safe status tracker for the indicator daemon.
// The scheduler writes a snapshot every tick; HTTP, WebSocket and heartbeat
// readers take copies.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/turn-indicator/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	TickMs       int64
	LongPressMs  int64
	HazardHoldMs int64
	BlinkTicks   int
	StatusTicks  int
	HeartbeatMs  int64
	Broker       string
	HTTPPort     string
	Serial       string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Indicator     logic.Snapshot
	StartTime     time.Time
	Now           time.Time
	InstanceID    string
	MQTTConnected bool
	DroppedTicks  uint64
	DroppedLines  uint64
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time, instance id and config.
func NewTracker(startTime time.Time, instanceID string, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime:  startTime,
			InstanceID: instanceID,
			Config:     cfg,
		},
		now: time.Now,
	}
}

// Observe stores the controller snapshot taken at the end of a tick.
func (t *Tracker) Observe(snap logic.Snapshot) {
	t.mu.Lock()
	t.snap.Indicator = snap
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetDropped records how many ticks and log lines have been dropped.
func (t *Tracker) SetDropped(ticks, lines uint64) {
	t.mu.Lock()
	t.snap.DroppedTicks = ticks
	t.snap.DroppedLines = lines
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
