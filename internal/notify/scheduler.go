package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gtm9/remi-ai-v1/internal/model"
	"github.com/robfig/cron/v3"
)

// pastTriggerDelay is how far ahead a trigger that is already due gets moved.
const pastTriggerDelay = time.Minute

// Notifier delivers a due notification to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// DeliveredFunc runs after a notification was delivered.
type DeliveredFunc func(ctx context.Context, n Notification)

// Options configure a Scheduler.
type Options struct {
	Location        *time.Location
	Enabled         bool
	DispatchTimeout time.Duration
	Notifier        Notifier
	Logger          *slog.Logger
}

// Scheduler runs one-shot notifications on a cron loop.
type Scheduler struct {
	cron     *cron.Cron
	loc      *time.Location
	enabled  bool
	timeout  time.Duration
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time

	mu          sync.Mutex
	jobs        map[string]job
	gen         uint64
	onDelivered DeliveredFunc
}

type job struct {
	entry  cron.EntryID
	gen    uint64
	fireAt time.Time
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(opts Options) *Scheduler {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	timeout := opts.DispatchTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		loc:      loc,
		enabled:  opts.Enabled,
		timeout:  timeout,
		notifier: opts.Notifier,
		log:      opts.Logger.With("component", "notify"),
		now:      time.Now,
		jobs:     make(map[string]job),
	}
}

// OnDelivered registers the callback run after each delivery.
func (s *Scheduler) OnDelivered(fn DeliveredFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDelivered = fn
}

// Start starts the scheduler loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for running deliveries to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Schedule arms n. A trigger that is not in the future is moved one minute
// ahead. Scheduling a key that is already armed replaces the earlier job.
func (s *Scheduler) Schedule(ctx context.Context, n Notification) (Handle, error) {
	if !s.enabled {
		return Handle{}, fmt.Errorf("schedule notification: %w", model.ErrPermissionDenied)
	}
	key := n.Key()
	if key == "" {
		return Handle{}, model.NewValidationError(DataReminderID, "is required")
	}

	now := s.now()
	fireAt := n.Trigger.Time(s.loc)
	if !fireAt.After(now) {
		s.log.WarnContext(ctx, "notification trigger in the past, moving ahead",
			slog.String("key", key), slog.Time("trigger", fireAt))
		fireAt = now.Add(pastTriggerDelay).Truncate(time.Second)
		n.Trigger = TriggerAt(fireAt, s.loc)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.jobs[key]; ok {
		s.cron.Remove(prev.entry)
	}
	s.gen++
	gen := s.gen
	entry := s.cron.Schedule(once(fireAt), cron.FuncJob(func() { s.fire(key, gen, n) }))
	s.jobs[key] = job{entry: entry, gen: gen, fireAt: fireAt}

	s.log.InfoContext(ctx, "notification scheduled", slog.String("key", key), slog.Time("fire_at", fireAt))
	return Handle{Key: key, FireAt: fireAt}, nil
}

// Cancel removes the notification for key and reports whether one was armed.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[key]
	if !ok {
		return false
	}
	s.cron.Remove(j.entry)
	delete(s.jobs, key)
	s.log.Info("notification cancelled", slog.String("key", key))
	return true
}

// Pending returns the armed notifications ordered by fire time.
func (s *Scheduler) Pending() []Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Handle, 0, len(s.jobs))
	for key, j := range s.jobs {
		out = append(out, Handle{Key: key, FireAt: j.fireAt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FireAt.Equal(out[j].FireAt) {
			return out[i].Key < out[j].Key
		}
		return out[i].FireAt.Before(out[j].FireAt)
	})
	return out
}

// fire delivers n unless the job was replaced or cancelled meanwhile.
func (s *Scheduler) fire(key string, gen uint64, n Notification) {
	s.mu.Lock()
	j, ok := s.jobs[key]
	if !ok || j.gen != gen {
		s.mu.Unlock()
		return
	}
	s.cron.Remove(j.entry)
	delete(s.jobs, key)
	onDelivered := s.onDelivered
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.log.ErrorContext(ctx, "notification delivery failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
	if onDelivered != nil {
		onDelivered(ctx, n)
	}
}

// onceSchedule yields a single activation time and then never again.
type onceSchedule time.Time

func once(t time.Time) onceSchedule { return onceSchedule(t) }

func (o onceSchedule) Next(now time.Time) time.Time {
	at := time.Time(o)
	if now.Before(at) {
		return at
	}
	return time.Time{}
}
