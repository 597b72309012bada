package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/turn-indicator/internal/config"
	"github.com/sweeney/turn-indicator/internal/gpio"
	"github.com/sweeney/turn-indicator/internal/logic"
	"github.com/sweeney/turn-indicator/internal/logsink"
	"github.com/sweeney/turn-indicator/internal/mqtt"
	"github.com/sweeney/turn-indicator/internal/status"
)

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Not safe for concurrent use (only called from runLoop's goroutine).
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

// repeat returns n copies of sample.
func repeat(sample logic.Sample, n int) []logic.Sample {
	out := make([]logic.Sample, n)
	for i := range out {
		out[i] = sample
	}
	return out
}

type harness struct {
	d       *daemon
	buttons *gpio.FakeButtons
	lamps   *gpio.FakeLamps
	pub     *mqtt.FakePublisher
	sink    *logsink.Async
}

func newHarness(samples []logic.Sample) *harness {
	h := &harness{
		buttons: gpio.NewFakeButtons(samples),
		lamps:   gpio.NewFakeLamps(),
		pub:     mqtt.NewFakePublisher(),
	}
	h.pub.Connected = true
	h.sink = logsink.NewAsync(logsink.DefaultQueueSize, nil)

	cfg := config.Config{Timing: logic.DefaultConfig()}
	h.d = newDaemon(cfg, "test", h.buttons, h.lamps, h.sink, h.pub, zap.NewNop().Sugar())
	h.d.now = fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)
	return h
}

// drive runs runLoop for nTicks ticks and nBeats heartbeats, then sends
// signal and flushes the product log.
func (h *harness) drive(t *testing.T, nTicks, nBeats int, signal os.Signal) error {
	t.Helper()
	tick := make(chan time.Time)
	beat := make(chan time.Time)
	sig := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.d.runLoop(context.Background(), tick, beat, sig)
	}()

	for i := 0; i < nTicks; i++ {
		tick <- time.Time{}
	}
	for i := 0; i < nBeats; i++ {
		beat <- time.Time{}
	}
	sig <- signal

	err := <-errCh
	h.sink.Flush()
	return err
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func TestRunLoopStartupAndShutdown(t *testing.T) {
	h := newHarness([]logic.Sample{{}})

	if err := h.drive(t, 4, 0, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	events := h.pub.Events()
	if len(events) != 2 || events[0] != "STARTUP" || events[1] != "SHUTDOWN" {
		t.Fatalf("unexpected system events: %v", events)
	}
	if !h.pub.SystemEvents[0].Retained || !h.pub.SystemEvents[1].Retained {
		t.Error("expected STARTUP and SHUTDOWN to be retained")
	}
	if h.pub.SystemEvents[1].Reason != "SIGTERM" {
		t.Errorf("reason: got %q, want SIGTERM", h.pub.SystemEvents[1].Reason)
	}

	var parsed status.StatusJSON
	if err := json.Unmarshal(h.pub.SystemPayloads[1], &parsed); err != nil {
		t.Fatalf("invalid shutdown payload: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" || parsed.Status.Tick != 4 {
		t.Errorf("shutdown payload: event=%s tick=%d", parsed.Status.Event, parsed.Status.Tick)
	}
}

func TestRunLoopShutdownSIGINT(t *testing.T) {
	h := newHarness([]logic.Sample{{}})

	if err := h.drive(t, 0, 0, syscall.SIGINT); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if got := h.pub.SystemEvents[len(h.pub.SystemEvents)-1].Reason; got != "SIGINT" {
		t.Errorf("reason: got %q, want SIGINT", got)
	}
}

func TestRunLoopLeftIndicator(t *testing.T) {
	samples := append(repeat(logic.Sample{Left: true}, 10), logic.Sample{})
	h := newHarness(samples)

	if err := h.drive(t, 12, 0, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	msgs := h.pub.Messages()
	if !contains(msgs, "Left indicator ON") {
		t.Errorf("expected Left indicator ON in %v", msgs)
	}
	if !contains(msgs, "State: 0, Left: 0, Right: 0") {
		t.Errorf("expected status line at tick 10 in %v", msgs)
	}

	snap := h.d.tracker.Snapshot()
	if snap.Indicator.Mode != logic.ModeLeft {
		t.Errorf("mode: got %v, want LEFT", snap.Indicator.Mode)
	}
	if !snap.MQTTConnected {
		t.Error("expected tracker to see MQTT connected")
	}
}

func TestRunLoopLampsOffOnShutdown(t *testing.T) {
	h := newHarness([]logic.Sample{{Left: true, Right: true}})

	if err := h.drive(t, 12, 0, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	lit := false
	for _, w := range h.lamps.Writes {
		if w.Percent == 100 {
			lit = true
		}
	}
	if !lit {
		t.Fatal("expected hazard lamps to light before shutdown")
	}

	left, right := h.lamps.State()
	if left != 0 || right != 0 {
		t.Errorf("lamps after shutdown: left=%d right=%d", left, right)
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	h := newHarness([]logic.Sample{{}})

	if err := h.drive(t, 3, 1, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	events := h.pub.Events()
	if len(events) != 3 || events[1] != "HEARTBEAT" {
		t.Fatalf("unexpected system events: %v", events)
	}
	if h.pub.SystemEvents[1].Retained {
		t.Error("heartbeat should not be retained")
	}

	var parsed status.StatusJSON
	if err := json.Unmarshal(h.pub.SystemPayloads[1], &parsed); err != nil {
		t.Fatalf("invalid heartbeat payload: %v", err)
	}
	if parsed.Status.Event != "HEARTBEAT" || parsed.Status.Tick != 3 {
		t.Errorf("heartbeat payload: event=%s tick=%d", parsed.Status.Event, parsed.Status.Tick)
	}
}

func TestRunLoopPublishError(t *testing.T) {
	h := newHarness(append(repeat(logic.Sample{Right: true}, 10), logic.Sample{}))
	h.pub.PublishError = errors.New("broker down")
	h.pub.PublishSystemError = errors.New("broker down")

	if err := h.drive(t, 11, 1, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if h.d.tracker.Snapshot().Indicator.Mode != logic.ModeRight {
		t.Error("publish failures must not affect indicator state")
	}
}

func TestRunLoopButtonReadError(t *testing.T) {
	h := newHarness([]logic.Sample{{}})
	h.buttons.ReadError = errors.New("gpio fault")

	if err := h.drive(t, 10, 0, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if h.d.tracker.Snapshot().Indicator.Tick != 10 {
		t.Error("expected ticks to keep running through read errors")
	}
	if !contains(h.pub.Events(), "SHUTDOWN") {
		t.Error("expected SHUTDOWN after GPIO errors")
	}
}

func TestRunLoopContextCancel(t *testing.T) {
	h := newHarness([]logic.Sample{{}})
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.d.runLoop(ctx, make(chan time.Time), nil, make(chan os.Signal))
	}()
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runLoop did not return after cancel")
	}
	if h.lamps.WriteCount() != 2 {
		t.Errorf("expected lamps driven off, got %d writes", h.lamps.WriteCount())
	}
}

func TestRunLoopWithoutMQTT(t *testing.T) {
	h := newHarness([]logic.Sample{{}})
	h.d.publisher = nil
	h.d.mqttStatus = nil

	if err := h.drive(t, 2, 1, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if len(h.pub.SystemEvents) != 0 {
		t.Errorf("expected no system events, got %v", h.pub.Events())
	}
}

func TestBannerLinesReachSerial(t *testing.T) {
	var serial bytes.Buffer
	sink := logsink.NewAsync(logsink.DefaultQueueSize, nil, logsink.NewSerial(&serial))
	buttons := gpio.NewFakeButtons([]logic.Sample{{}})
	lamps := gpio.NewFakeLamps()

	d := newDaemon(config.Config{Timing: logic.DefaultConfig()}, "test", buttons, lamps, sink, nil, zap.NewNop().Sugar())
	sink.Flush()
	if got := serial.String(); got != "[INIT] GPIO, PWM, UART, Timer initialized\r\n" {
		t.Fatalf("after init: got %q", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.runLoop(ctx, nil, nil, nil); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	sink.Flush()

	want := "[INIT] GPIO, PWM, UART, Timer initialized\r\n[MAIN] System initialized\r\n"
	if got := serial.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNewDaemonAttachesPublisher(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	sink := logsink.NewAsync(logsink.DefaultQueueSize, nil)

	d := newDaemon(config.Config{Timing: logic.DefaultConfig()}, "test", gpio.NewFakeButtons(nil), gpio.NewFakeLamps(), sink, pub, zap.NewNop().Sugar())
	sink.Flush()

	if d.publisher == nil || d.mqttStatus == nil {
		t.Fatal("expected publisher wired into daemon")
	}
	if msgs := pub.Messages(); len(msgs) != 1 || msgs[0] != "GPIO, PWM, UART, Timer initialized" {
		t.Errorf("expected INIT line mirrored to MQTT, got %v", msgs)
	}
}

func TestSignalName(t *testing.T) {
	if signalName(syscall.SIGINT) != "SIGINT" {
		t.Error("SIGINT")
	}
	if signalName(syscall.SIGTERM) != "SIGTERM" {
		t.Error("SIGTERM")
	}
	if signalName(syscall.SIGHUP) != "UNKNOWN" {
		t.Error("SIGHUP")
	}
}

func TestStatusConfig(t *testing.T) {
	cfg := config.Config{
		Timing:    logic.DefaultConfig(),
		Broker:    "tcp://broker:1883",
		Heartbeat: 15 * time.Minute,
		HTTPAddr:  ":8080",
	}
	sc := statusConfig(cfg)

	if sc.TickMs != 100 || sc.LongPressMs != 1000 || sc.HazardHoldMs != 1000 {
		t.Errorf("timing: got %+v", sc)
	}
	if sc.BlinkTicks != 3 || sc.StatusTicks != 10 {
		t.Errorf("cadence: got %+v", sc)
	}
	if sc.HeartbeatMs != 900000 || sc.Broker != "tcp://broker:1883" || sc.HTTPPort != ":8080" {
		t.Errorf("other: got %+v", sc)
	}
}

func TestPrintState(t *testing.T) {
	var buf bytes.Buffer
	buttons := gpio.NewFakeButtons([]logic.Sample{{Left: true}})

	if err := printState(&buf, buttons); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := buf.String(); got != "Left: pressed, Right: released\n" {
		t.Errorf("got %q", got)
	}
}

func TestPrintStateError(t *testing.T) {
	buttons := gpio.NewFakeButtons(nil)

	err := printState(&bytes.Buffer{}, buttons)
	if err == nil || !strings.Contains(err.Error(), "LEFT") {
		t.Errorf("expected wrapped read error, got %v", err)
	}
}
