// Package scheduler runs the indicator controller once per tick and applies
// its results to the buttons, lamps and log collaborators.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/turn-indicator/internal/logic"
)

// ButtonInput reads a button level. true = pressed. Must not block.
type ButtonInput interface {
	Read(side logic.Side) (bool, error)
}

// LampOutput drives a lamp. The scheduler only ever sends 0 or 100.
type LampOutput interface {
	SetIntensity(side logic.Side, percent uint8) error
}

// Logger receives product log lines. Log must return immediately.
type Logger interface {
	Log(tag, message string)
}

// Observer receives a snapshot at the end of every tick.
type Observer interface {
	Observe(snap logic.Snapshot)
}

// Scheduler is the tick handler. Only one Tick runs at a time; ticks that
// arrive while one is running are dropped.
type Scheduler struct {
	ctrl     *logic.Controller
	buttons  ButtonInput
	lamps    LampOutput
	logger   Logger
	observer Observer
	log      *zap.SugaredLogger

	busy    atomic.Bool
	dropped atomic.Uint64
	last    logic.Sample
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithObserver sets the snapshot observer.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) { s.observer = o }
}

// WithDiagnostics sets the logger used for collaborator errors.
func WithDiagnostics(log *zap.SugaredLogger) Option {
	return func(s *Scheduler) { s.log = log }
}

// New creates a scheduler around ctrl.
func New(ctrl *logic.Controller, buttons ButtonInput, lamps LampOutput, logger Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		ctrl:    ctrl,
		buttons: buttons,
		lamps:   lamps,
		logger:  logger,
		log:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tick runs one scheduler cycle. It returns false if the tick was dropped
// because another tick was still running.
func (s *Scheduler) Tick() bool {
	if !s.busy.CompareAndSwap(false, true) {
		s.dropped.Add(1)
		return false
	}
	defer s.busy.Store(false)

	res := s.ctrl.Step(s.sample())

	for _, t := range res.Transitions {
		s.logger.Log(logic.TagButton, t.Message)
	}

	if res.LampsUpdated {
		s.applyLamps(res.Lamps)
	}

	if res.Report != "" {
		s.logger.Log(logic.TagStatus, res.Report)
	}

	if s.observer != nil {
		s.observer.Observe(res.Snapshot)
	}
	return true
}

// sample reads both buttons. A failed read keeps that channel's previous
// level so no edge is produced.
func (s *Scheduler) sample() logic.Sample {
	levels := s.last
	for _, side := range logic.Sides {
		on, err := s.buttons.Read(side)
		if err != nil {
			s.log.Warnw("button read failed", "side", side, "err", err)
			continue
		}
		if side == logic.SideLeft {
			levels.Left = on
		} else {
			levels.Right = on
		}
	}
	s.last = levels
	return levels
}

func (s *Scheduler) applyLamps(p logic.LampPattern) {
	for _, side := range logic.Sides {
		if err := s.lamps.SetIntensity(side, intensity(p.On(side))); err != nil {
			s.log.Warnw("lamp write failed", "side", side, "err", err)
		}
	}
}

// LampsOff drives both lamps off. Used on shutdown.
func (s *Scheduler) LampsOff() {
	s.applyLamps(logic.LampPattern{})
}

func intensity(on bool) uint8 {
	if on {
		return 100
	}
	return 0
}

// Run calls Tick for every value received on tick until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, tick <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			s.Tick()
		}
	}
}

// Dropped returns the number of ticks rejected because a tick was running.
func (s *Scheduler) Dropped() uint64 {
	return s.dropped.Load()
}

// Snapshot returns the controller snapshot. Only call from the tick goroutine
// or after Run has returned.
func (s *Scheduler) Snapshot() logic.Snapshot {
	return s.ctrl.Snapshot()
}
