// Command indicatord drives the turn-indicator and hazard lamps from the two
// indicator buttons and mirrors its log to serial, MQTT and an HTTP status page.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sweeney/turn-indicator/internal/config"
	"github.com/sweeney/turn-indicator/internal/gpio"
	"github.com/sweeney/turn-indicator/internal/logger"
	"github.com/sweeney/turn-indicator/internal/logic"
	"github.com/sweeney/turn-indicator/internal/logsink"
	"github.com/sweeney/turn-indicator/internal/mqtt"
	"github.com/sweeney/turn-indicator/internal/scheduler"
	"github.com/sweeney/turn-indicator/internal/status"
	"github.com/sweeney/turn-indicator/internal/web"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "indicatord: %v\n", err)
		os.Exit(2)
	}

	log := logger.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log.SugaredLogger); err != nil {
		log.Fatalw("fatal", "err", err)
	}
}

func run(cfg config.Config, log *zap.SugaredLogger) error {
	buttons, err := gpio.NewRealButtons(cfg.GPIOChip, cfg.Pins)
	if err != nil {
		return fmt.Errorf("init buttons: %w", err)
	}
	defer buttons.Close()

	if cfg.PrintState {
		return printState(os.Stdout, buttons)
	}

	lamps, err := gpio.NewRealLamps(cfg.GPIOChip, cfg.Pins)
	if err != nil {
		return fmt.Errorf("init lamps: %w", err)
	}
	defer lamps.Close()

	serial, err := logsink.OpenSerial(cfg.Serial)
	if err != nil {
		return err
	}
	defer serial.Close()

	sink := logsink.NewAsync(logsink.DefaultQueueSize, log.Named("logsink"),
		logsink.NewSerial(serial),
		logsink.NewZap(log.Named("product")),
	)

	instanceID := uuid.NewString()

	var pub connPublisher
	if cfg.Broker != "" {
		publisher := mqtt.NewRealPublisher(cfg.Broker, "turn-indicator-"+instanceID[:8], log.Named("mqtt"))
		defer publisher.Close()
		pub = publisher
	}

	d := newDaemon(cfg, instanceID, buttons, lamps, sink, pub, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return sink.Run(gctx) })

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, d.tracker, log.Named("web"))
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorw("http server error", "err", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
		log.Infow("http status server listening", "addr", cfg.HTTPAddr)
	}

	ticker := time.NewTicker(cfg.Timing.TickPeriod)
	defer ticker.Stop()

	var heartbeat <-chan time.Time
	if cfg.Heartbeat > 0 {
		hb := time.NewTicker(cfg.Heartbeat)
		defer hb.Stop()
		heartbeat = hb.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Infow("started",
		"tick", cfg.Timing.TickPeriod,
		"long_press", cfg.Timing.LongPress,
		"hazard_hold", cfg.Timing.HazardHold,
		"broker", cfg.Broker,
		"heartbeat", cfg.Heartbeat,
		"instance", instanceID,
	)

	g.Go(func() error {
		defer cancel()
		return d.runLoop(gctx, ticker.C, heartbeat, sigCh)
	})
	return g.Wait()
}

// productLog is the fire-and-forget product log the loop writes through.
type productLog interface {
	scheduler.Logger
	Dropped() uint64
}

// connPublisher is an MQTT publisher that also reports its connection state.
type connPublisher interface {
	mqtt.Publisher
	mqtt.ConnectionStatus
}

// newDaemon attaches pub (nil when MQTT is disabled) to the product log,
// logs the INIT banner and builds the scheduler around buttons and lamps.
func newDaemon(cfg config.Config, instanceID string, buttons scheduler.ButtonInput, lamps scheduler.LampOutput,
	sink *logsink.Async, pub connPublisher, log *zap.SugaredLogger) *daemon {
	d := &daemon{
		sink: sink,
		now:  time.Now,
		log:  log,
	}
	if pub != nil {
		sink.AddTarget(pub)
		d.publisher = pub
		d.mqttStatus = pub
	}

	sink.Log(logic.TagInit, "GPIO, PWM, UART, Timer initialized")

	d.tracker = status.NewTracker(d.now(), instanceID, statusConfig(cfg))
	d.sched = scheduler.New(logic.NewController(cfg.Timing), buttons, lamps, sink,
		scheduler.WithObserver(d.tracker),
		scheduler.WithDiagnostics(log.Named("scheduler")),
	)
	return d
}

// daemon holds everything runLoop needs. publisher and mqttStatus are nil
// when MQTT is disabled.
type daemon struct {
	sched      *scheduler.Scheduler
	sink       productLog
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	now        func() time.Time
	log        *zap.SugaredLogger
}

// runLoop logs the MAIN banner, then ticks the scheduler until a signal
// arrives or ctx is cancelled. Lamps are driven off before it returns.
func (d *daemon) runLoop(ctx context.Context, tick, heartbeat <-chan time.Time, sig <-chan os.Signal) error {
	d.sink.Log(logic.TagMain, "System initialized")
	d.publishStatus("STARTUP", "", true)

	for {
		select {
		case s := <-sig:
			reason := signalName(s)
			d.log.Infow("shutting down", "signal", reason)
			d.sched.LampsOff()
			d.publishStatus("SHUTDOWN", reason, true)
			return nil

		case <-ctx.Done():
			d.sched.LampsOff()
			return nil

		case <-tick:
			d.sched.Tick()
			d.refresh()

		case <-heartbeat:
			snap := d.tracker.Snapshot()
			d.log.Infow("heartbeat",
				"uptime", snap.Uptime().Truncate(time.Second),
				"mode", snap.Indicator.Mode,
				"transitions", snap.Indicator.Counts.Transitions,
				"dropped_ticks", snap.DroppedTicks,
			)
			d.publishStatus("HEARTBEAT", "", false)
		}
	}
}

// refresh copies connection and overload counters into the tracker.
func (d *daemon) refresh() {
	if d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
	d.tracker.SetDropped(d.sched.Dropped(), d.sink.Dropped())
}

func (d *daemon) publishStatus(event, reason string, retained bool) {
	if d.publisher == nil {
		return
	}
	d.refresh()
	snap := d.tracker.Snapshot()
	err := d.publisher.PublishSystem(mqtt.SystemEvent{
		Timestamp:  d.now(),
		Event:      event,
		Reason:     reason,
		Retained:   retained,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	})
	if err != nil {
		d.log.Warnw("failed to publish system event", "event", event, "err", err)
		return
	}
	d.log.Debugw("published system event", "event", event)
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}

func statusConfig(cfg config.Config) status.Config {
	return status.Config{
		TickMs:       cfg.Timing.TickPeriod.Milliseconds(),
		LongPressMs:  cfg.Timing.LongPress.Milliseconds(),
		HazardHoldMs: cfg.Timing.HazardHold.Milliseconds(),
		BlinkTicks:   cfg.Timing.BlinkTicks,
		StatusTicks:  cfg.Timing.StatusTicks,
		HeartbeatMs:  cfg.Heartbeat.Milliseconds(),
		Broker:       cfg.Broker,
		HTTPPort:     cfg.HTTPAddr,
		Serial:       cfg.Serial,
	}
}

// printState reads both buttons once and prints their levels.
func printState(w io.Writer, buttons scheduler.ButtonInput) error {
	var levels [2]string
	for i, side := range logic.Sides {
		on, err := buttons.Read(side)
		if err != nil {
			return fmt.Errorf("read %s button: %w", side, err)
		}
		levels[i] = pressedString(on)
	}
	fmt.Fprintf(w, "Left: %s, Right: %s\n", levels[0], levels[1])
	return nil
}

func pressedString(on bool) string {
	if on {
		return "pressed"
	}
	return "released"
}
