package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"dualsub/internal/logging"
)

const (
	// DefaultCapacity is the catalog's anonymous search quota per window.
	DefaultCapacity = 40
	// DefaultWindow is the quota reset interval.
	DefaultWindow = time.Minute
)

// ErrClosed is returned for operations submitted to, or still queued in, a closed scheduler.
var ErrClosed = errors.New("ratelimit: scheduler closed")

// Options configures a Scheduler.
type Options struct {
	Capacity int
	Window   time.Duration
	// Tick replaces the wall-clock window ticker. Tests send on it to end a window.
	Tick   <-chan time.Time
	Logger *slog.Logger
}

// Stats is a point-in-time view of the current window.
type Stats struct {
	Used     int
	Capacity int
	Queued   int
}

// Scheduler admits at most Capacity operations per fixed window. Operations
// over quota wait in a FIFO queue that is drained, in arrival order, each
// time the window resets. A failed operation still consumes its slot and is
// never retried.
type Scheduler struct {
	capacity int
	window   time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	used   int
	queue  []*job
	closed bool

	tick      <-chan time.Time
	ticker    *time.Ticker
	running   bool
	done      chan struct{}
	closeOnce sync.Once
}

type job struct {
	ctx     context.Context
	op      func(context.Context) error
	started chan struct{}
	result  chan error
}

// New constructs a Scheduler. The window ticker starts on first use.
func New(opts Options) *Scheduler {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	window := opts.Window
	if window <= 0 {
		window = DefaultWindow
	}
	return &Scheduler{
		capacity: capacity,
		window:   window,
		logger:   logging.NewComponentLogger(opts.Logger, "ratelimit"),
		tick:     opts.Tick,
		done:     make(chan struct{}),
	}
}

// Do runs op under the window quota and returns its error. When the quota is
// spent Do blocks until a later window admits op or ctx ends; a job abandoned
// while queued never runs and never consumes a slot. Once admitted, op runs to
// completion and Do returns its result.
func (s *Scheduler) Do(ctx context.Context, op func(context.Context) error) error {
	if op == nil {
		return errors.New("ratelimit: nil operation")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if !s.running {
		s.startLocked()
	}
	if s.used < s.capacity && len(s.queue) == 0 {
		s.used++
		s.mu.Unlock()
		return op(ctx)
	}
	j := &job{
		ctx:     ctx,
		op:      op,
		started: make(chan struct{}),
		result:  make(chan error, 1),
	}
	s.queue = append(s.queue, j)
	queued := len(s.queue)
	s.mu.Unlock()

	s.logger.Debug("request queued for next window",
		logging.String(logging.FieldEventType, "ratelimit_queued"),
		logging.Int("queue_depth", queued),
		logging.Int("capacity", s.capacity),
		logging.Duration("window", s.window),
	)

	select {
	case err := <-j.result:
		return err
	case <-ctx.Done():
		if s.remove(j) {
			return ctx.Err()
		}
		// Already dispatched; the operation owns the slot and sees ctx itself.
		return <-j.result
	}
}

// Stats reports the current window usage.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Used: s.used, Capacity: s.capacity, Queued: len(s.queue)}
}

// Close stops the window ticker and fails every queued operation with ErrClosed.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		pending := s.queue
		s.queue = nil
		ticker := s.ticker
		s.mu.Unlock()
		for _, j := range pending {
			j.result <- ErrClosed
		}
		close(s.done)
		if ticker != nil {
			ticker.Stop()
		}
	})
}

// startLocked launches the window loop. Callers hold mu and have checked
// that the scheduler is open.
func (s *Scheduler) startLocked() {
	s.running = true
	if s.tick == nil {
		s.ticker = time.NewTicker(s.window)
		s.tick = s.ticker.C
	}
	go s.loop(s.tick)
}

func (s *Scheduler) loop(tick <-chan time.Time) {
	for {
		select {
		case <-s.done:
			return
		case <-tick:
			s.reset()
		}
	}
}

// reset opens a new window and dispatches queued jobs in arrival order until
// the queue empties or the new window is full.
func (s *Scheduler) reset() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.used = 0
	var ready []*job
	for len(s.queue) > 0 && s.used < s.capacity {
		ready = append(ready, s.queue[0])
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.used++
	}
	remaining := len(s.queue)
	s.mu.Unlock()

	if len(ready) > 0 {
		s.logger.Debug("window reset, draining queue",
			logging.String(logging.FieldEventType, "ratelimit_drain"),
			logging.Int("dispatched", len(ready)),
			logging.Int("remaining", remaining),
		)
	}
	for _, j := range ready {
		go j.run()
		<-j.started
	}
}

func (s *Scheduler) remove(target *job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, j := range s.queue {
		if j == target {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return true
		}
	}
	return false
}

func (j *job) run() {
	close(j.started)
	j.result <- j.op(j.ctx)
}
