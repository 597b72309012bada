package logsink

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/turn-indicator/internal/ringbuf"
)

// DefaultQueueSize is the number of lines held while targets are slow.
const DefaultQueueSize = 256

// Async is a fire-and-forget Logger. Log only appends to a bounded queue;
// Run delivers queued lines to every target. When the queue is full the
// oldest line is dropped.
type Async struct {
	mu      sync.Mutex
	queue   *ringbuf.Buffer[Line]
	notify  chan struct{}
	targets []Target
	now     func() time.Time
	log     *zap.SugaredLogger
}

// NewAsync creates an Async logger delivering to targets.
func NewAsync(queueSize int, log *zap.SugaredLogger, targets ...Target) *Async {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Async{
		queue:   ringbuf.New[Line](queueSize),
		notify:  make(chan struct{}, 1),
		targets: targets,
		now:     time.Now,
		log:     log,
	}
}

// AddTarget registers another target. Call before Run.
func (a *Async) AddTarget(t Target) {
	a.mu.Lock()
	a.targets = append(a.targets, t)
	a.mu.Unlock()
}

// Log queues a line and returns immediately.
func (a *Async) Log(tag, message string) {
	line := Line{Time: a.now(), Tag: tag, Message: message}

	a.mu.Lock()
	a.queue.Push(line)
	a.mu.Unlock()

	select {
	case a.notify <- struct{}{}:
	default:
	}
}

// Run delivers queued lines until ctx is cancelled, then flushes what is left.
func (a *Async) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			a.Flush()
			return nil
		case <-a.notify:
			a.Flush()
		}
	}
}

// Flush synchronously delivers every queued line.
func (a *Async) Flush() {
	a.mu.Lock()
	lines := a.queue.DrainAll()
	targets := a.targets
	a.mu.Unlock()

	for _, line := range lines {
		for _, t := range targets {
			if err := t.WriteLine(line); err != nil {
				a.log.Warnw("log delivery failed", "tag", line.Tag, "err", err)
			}
		}
	}
}

// Pending returns the number of queued lines.
func (a *Async) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.queue.Len()
}

// Dropped returns the number of lines lost to a full queue.
func (a *Async) Dropped() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.queue.Dropped()
}
