package internal

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/turn-indicator/internal/gpio"
	"github.com/sweeney/turn-indicator/internal/logic"
	"github.com/sweeney/turn-indicator/internal/logsink"
	"github.com/sweeney/turn-indicator/internal/mqtt"
	"github.com/sweeney/turn-indicator/internal/scheduler"
	"github.com/sweeney/turn-indicator/internal/status"
)

func repeat(s logic.Sample, n int) []logic.Sample {
	out := make([]logic.Sample, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func concat(parts ...[]logic.Sample) []logic.Sample {
	var out []logic.Sample
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

type rig struct {
	sched   *scheduler.Scheduler
	buttons *gpio.FakeButtons
	lamps   *gpio.FakeLamps
	pub     *mqtt.FakePublisher
	serial  *bytes.Buffer
	sink    *logsink.Async
	tracker *status.Tracker
}

func newRig(samples []logic.Sample, queue int) *rig {
	r := &rig{
		buttons: gpio.NewFakeButtons(samples),
		lamps:   gpio.NewFakeLamps(),
		pub:     mqtt.NewFakePublisher(),
		serial:  &bytes.Buffer{},
	}
	r.sink = logsink.NewAsync(queue, nil, logsink.NewSerial(r.serial), r.pub)
	r.tracker = status.NewTracker(time.Time{}, "", status.Config{})
	r.sched = scheduler.New(logic.NewController(logic.DefaultConfig()), r.buttons, r.lamps, r.sink,
		scheduler.WithObserver(r.tracker))
	return r
}

func (r *rig) ticks(n int) {
	for i := 0; i < n; i++ {
		r.sched.Tick()
	}
}

// TestIntegrationLeftThenRight drives buttons through the scheduler and checks
// the exact serial output and its MQTT mirror.
func TestIntegrationLeftThenRight(t *testing.T) {
	samples := concat(
		repeat(logic.Sample{Left: true}, 10),  // ticks 1-10
		repeat(logic.Sample{}, 10),            // ticks 11-20, Left ON at 11
		repeat(logic.Sample{Right: true}, 10), // ticks 21-30
		[]logic.Sample{{}},                    // tick 31, switch to right
	)
	r := newRig(samples, logsink.DefaultQueueSize)

	r.ticks(len(samples))
	r.sink.Flush()

	want := "[STATUS] State: 0, Left: 0, Right: 0\r\n" +
		"[BUTTON] Left indicator ON\r\n" +
		"[STATUS] State: 1, Left: 1, Right: 0\r\n" +
		"[STATUS] State: 1, Left: 1, Right: 0\r\n" +
		"[BUTTON] Left OFF, Right ON\r\n"
	assert.Equal(t, want, r.serial.String())

	assert.Equal(t, []string{
		"State: 0, Left: 0, Right: 0",
		"Left indicator ON",
		"State: 1, Left: 1, Right: 0",
		"State: 1, Left: 1, Right: 0",
		"Left OFF, Right ON",
	}, r.pub.Messages())

	var payload mqtt.LogPayload
	require.NoError(t, json.Unmarshal(r.pub.Payloads[1], &payload))
	assert.Equal(t, "BUTTON", payload.Log.Tag)

	snap := r.tracker.Snapshot()
	assert.Equal(t, logic.ModeRight, snap.Indicator.Mode)
	assert.Equal(t, 1, snap.Indicator.Counts.LeftLongPress)
	assert.Equal(t, 1, snap.Indicator.Counts.RightLongPress)
	assert.Equal(t, 2, snap.Indicator.Counts.Transitions)
}

func TestIntegrationHazardBlinksBothLamps(t *testing.T) {
	r := newRig([]logic.Sample{{Left: true, Right: true}}, logsink.DefaultQueueSize)

	r.ticks(30)
	r.sink.Flush()

	assert.Contains(t, r.serial.String(), "[BUTTON] Hazard light ON\r\n")
	assert.Contains(t, r.serial.String(), "[STATUS] State: 3, ")

	// Writes arrive in left/right pairs; after tick 11 each pair matches.
	writes := r.lamps.Writes
	require.Len(t, writes, 20)
	for i := 8; i < len(writes); i += 2 {
		assert.Equal(t, logic.SideLeft, writes[i].Side)
		assert.Equal(t, writes[i].Percent, writes[i+1].Percent, "pair %d", i/2)
	}
	assert.Equal(t, uint8(100), writes[6].Percent, "tick 12 lights both")
}

func TestIntegrationShortPressIsIgnored(t *testing.T) {
	samples := concat(repeat(logic.Sample{Left: true}, 5), repeat(logic.Sample{}, 5))
	r := newRig(samples, logsink.DefaultQueueSize)

	r.ticks(len(samples))
	r.sink.Flush()

	assert.Equal(t, "[STATUS] State: 0, Left: 0, Right: 0\r\n", r.serial.String())
	assert.Equal(t, 1, r.tracker.Snapshot().Indicator.Counts.ShortPress)
}

func TestIntegrationLogOverloadDoesNotAffectControl(t *testing.T) {
	samples := concat(repeat(logic.Sample{Left: true}, 10), repeat(logic.Sample{}, 40))
	r := newRig(samples, 1)

	// Nothing drains the sink while ticking.
	r.ticks(len(samples))

	assert.Equal(t, logic.ModeLeft, r.tracker.Snapshot().Indicator.Mode)
	assert.Equal(t, 1, r.sink.Pending())
	assert.Greater(t, r.sink.Dropped(), uint64(0))

	r.sink.Flush()
	assert.Equal(t, "[STATUS] State: 1, Left: 1, Right: 0\r\n", r.serial.String(), "only the newest line survives")
}

func TestIntegrationPublishFailureDoesNotStopSerial(t *testing.T) {
	samples := concat(repeat(logic.Sample{Right: true}, 10), []logic.Sample{{}})
	r := newRig(samples, logsink.DefaultQueueSize)
	r.pub.PublishError = errors.New("broker down")

	r.ticks(len(samples))
	r.sink.Flush()

	assert.Contains(t, r.serial.String(), "[BUTTON] Right indicator ON\r\n")
	assert.Empty(t, r.pub.Lines)
}
