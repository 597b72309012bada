package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/turn-indicator/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string      `json:"event,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	Mode          string      `json:"mode"`
	ModeOrdinal   int         `json:"mode_ordinal"`
	Lamps         SidesJSON   `json:"lamps"`
	Buttons       SidesJSON   `json:"buttons"`
	Tick          uint64      `json:"tick"`
	ElapsedMs     int64       `json:"elapsed_ms"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	StartTime     string      `json:"start_time"`
	Timestamp     string      `json:"timestamp"`
	InstanceID    string      `json:"instance_id,omitempty"`
	MQTT          MQTTStatus  `json:"mqtt"`
	Counts        CountsJSON  `json:"event_counts"`
	Dropped       DroppedJSON `json:"dropped"`
	Config        ConfigJSON  `json:"config"`
}

// SidesJSON is a left/right pair of flags.
type SidesJSON struct {
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	LeftLongPress  int `json:"left_long_press"`
	RightLongPress int `json:"right_long_press"`
	ShortPress     int `json:"short_press"`
	Hazard         int `json:"hazard"`
	Transitions    int `json:"transitions"`
	LampUpdates    int `json:"lamp_updates"`
	Reports        int `json:"reports"`
}

// DroppedJSON counts work lost to overload.
type DroppedJSON struct {
	Ticks    uint64 `json:"ticks"`
	LogLines uint64 `json:"log_lines"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs       int64  `json:"tick_ms"`
	LongPressMs  int64  `json:"long_press_ms"`
	HazardHoldMs int64  `json:"hazard_hold_ms"`
	BlinkTicks   int    `json:"blink_ticks"`
	StatusTicks  int    `json:"status_ticks"`
	HeartbeatMs  int64  `json:"heartbeat_ms"`
	Broker       string `json:"broker"`
	HTTPPort     string `json:"http_port"`
	Serial       string `json:"serial,omitempty"`
}

func sides(left, right bool) SidesJSON {
	return SidesJSON{Left: left, Right: right}
}

func countsJSON(c logic.EventCounts) CountsJSON {
	return CountsJSON{
		LeftLongPress:  c.LeftLongPress,
		RightLongPress: c.RightLongPress,
		ShortPress:     c.ShortPress,
		Hazard:         c.Hazard,
		Transitions:    c.Transitions,
		LampUpdates:    c.LampUpdates,
		Reports:        c.Reports,
	}
}

func buildInner(snap Snapshot) StatusInner {
	ind := snap.Indicator
	return StatusInner{
		Mode:          ind.Mode.String(),
		ModeOrdinal:   int(ind.Mode),
		Lamps:         sides(ind.Lamps.Left, ind.Lamps.Right),
		Buttons:       sides(ind.Buttons.Left, ind.Buttons.Right),
		Tick:          ind.Tick,
		ElapsedMs:     ind.Elapsed.Milliseconds(),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		InstanceID:    snap.InstanceID,
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts:        countsJSON(ind.Counts),
		Dropped:       DroppedJSON{Ticks: snap.DroppedTicks, LogLines: snap.DroppedLines},
		Config: ConfigJSON{
			TickMs:       snap.Config.TickMs,
			LongPressMs:  snap.Config.LongPressMs,
			HazardHoldMs: snap.Config.HazardHoldMs,
			BlinkTicks:   snap.Config.BlinkTicks,
			StatusTicks:  snap.Config.StatusTicks,
			HeartbeatMs:  snap.Config.HeartbeatMs,
			Broker:       snap.Config.Broker,
			HTTPPort:     snap.Config.HTTPPort,
			Serial:       snap.Config.Serial,
		},
	}
}

// Build returns the JSON-ready status for snap.
func Build(snap Snapshot) StatusInner {
	return buildInner(snap)
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
