package logic

import "time"

// Default timing.
const (
	DefaultTickPeriod  = 100 * time.Millisecond
	DefaultLongPress   = 1000 * time.Millisecond
	DefaultHazardHold  = 1000 * time.Millisecond
	DefaultBlinkTicks  = 3
	DefaultStatusTicks = 10
)

// Config holds controller timing.
type Config struct {
	TickPeriod  time.Duration
	LongPress   time.Duration
	HazardHold  time.Duration
	BlinkTicks  int
	StatusTicks int
}

// DefaultConfig returns the stock 100 ms / 1 s / 300 ms / 1 s timing.
func DefaultConfig() Config {
	return Config{
		TickPeriod:  DefaultTickPeriod,
		LongPress:   DefaultLongPress,
		HazardHold:  DefaultHazardHold,
		BlinkTicks:  DefaultBlinkTicks,
		StatusTicks: DefaultStatusTicks,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TickPeriod <= 0 {
		c.TickPeriod = d.TickPeriod
	}
	if c.LongPress <= 0 {
		c.LongPress = d.LongPress
	}
	if c.HazardHold <= 0 {
		c.HazardHold = d.HazardHold
	}
	if c.BlinkTicks <= 0 {
		c.BlinkTicks = d.BlinkTicks
	}
	if c.StatusTicks <= 0 {
		c.StatusTicks = d.StatusTicks
	}
	return c
}

// Result describes everything one tick produced.
type Result struct {
	Tick    uint64
	Elapsed time.Duration
	Events  []Event
	// Transitions are the state-changing steps, in the order they happened.
	Transitions []Transition
	// LampsUpdated is set on blink ticks; Lamps is then the pattern to apply.
	LampsUpdated bool
	Lamps        LampPattern
	// Report is the status line on status ticks, empty otherwise.
	Report   string
	Snapshot Snapshot
}

// Controller is the complete indicator state. It is not safe for concurrent
// use; the scheduler owns it and calls Step once per tick.
type Controller struct {
	cfg Config

	ticks         uint64
	blinkCounter  int
	statusCounter int

	buttons *ButtonMonitor
	hazard  *HazardDetector
	fsm     *StateMachine
	blink   BlinkGenerator
	counts  EventCounts
}

// NewController creates a controller in ModeOff with both lamps off.
func NewController(cfg Config) *Controller {
	cfg = cfg.withDefaults()
	return &Controller{
		cfg:     cfg,
		buttons: NewButtonMonitor(cfg.LongPress),
		hazard:  NewHazardDetector(cfg.HazardHold),
		fsm:     NewStateMachine(),
	}
}

// Config returns the effective configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// Step advances the controller by one tick using the given button sample.
// Order: buttons, state machine, hazard, blink (every BlinkTicks), status
// (every StatusTicks).
func (c *Controller) Step(s Sample) Result {
	c.ticks++
	now := c.Elapsed()
	res := Result{Tick: c.ticks, Elapsed: now}

	events, ignored := c.buttons.Sample(s, now)
	c.counts.ShortPress += ignored
	if ev := c.hazard.Update(s, now); ev != nil {
		events = append(events, *ev)
	}

	for _, ev := range events {
		switch ev.Kind {
		case EventLongPressReleased:
			if ev.Side == SideLeft {
				c.counts.LeftLongPress++
			} else {
				c.counts.RightLongPress++
			}
		case EventHazardThresholdReached:
			c.counts.Hazard++
		}
		if t := c.fsm.Handle(ev); t != nil {
			c.counts.Transitions++
			res.Transitions = append(res.Transitions, *t)
		}
	}
	res.Events = events

	c.blinkCounter++
	if c.blinkCounter >= c.cfg.BlinkTicks {
		c.blinkCounter = 0
		res.LampsUpdated = true
		res.Lamps = c.blink.Update(c.fsm.Mode())
		c.counts.LampUpdates++
	}

	c.statusCounter++
	if c.statusCounter >= c.cfg.StatusTicks {
		c.statusCounter = 0
		res.Report = FormatStatus(c.fsm.Mode(), c.blink.Pattern())
		c.counts.Reports++
	}

	res.Snapshot = c.Snapshot()
	return res
}

// Elapsed returns the time since start derived from the tick count.
func (c *Controller) Elapsed() time.Duration {
	return time.Duration(c.ticks) * c.cfg.TickPeriod
}

// Mode returns the current indicator mode.
func (c *Controller) Mode() Mode {
	return c.fsm.Mode()
}

// Snapshot returns a value copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Tick:    c.ticks,
		Elapsed: c.Elapsed(),
		Mode:    c.fsm.Mode(),
		Lamps:   c.blink.Pattern(),
		Buttons: c.buttons.Levels(),
		Counts:  c.counts,
	}
}
