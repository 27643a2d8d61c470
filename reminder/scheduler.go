package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"boardsync/domain"
)

// DefaultInterval is how often the scheduler rescans the task collection.
const DefaultInterval = 30 * time.Minute

// Clock abstracts time so ticks are deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// Config wires a Scheduler. Tasks supplies the current board snapshot;
// the scheduler never mutates it.
type Config struct {
	Owner    string
	Tasks    func() []domain.Task
	Ledger   Ledger
	Notifier Notifier
	Clock    Clock
	Interval time.Duration
	Logger   *log.Logger
}

// Scheduler periodically scans the task collection for due and overdue
// items. Each (task, due date) pair notifies at most once across ticks and
// restarts, enforced through the durable ledger.
type Scheduler struct {
	cfg        Config
	permission Permission

	mu      sync.Mutex
	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool
}

// NewScheduler validates the config and applies defaults.
func NewScheduler(cfg Config) *Scheduler {
	if cfg.Tasks == nil {
		panic("reminder.NewScheduler: task source is required")
	}
	if cfg.Ledger == nil {
		panic("reminder.NewScheduler: ledger is required")
	}
	if cfg.Notifier == nil {
		panic("reminder.NewScheduler: notifier is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = log.StandardLogger()
	}
	return &Scheduler{cfg: cfg}
}

// Start requests notification permission once, scans immediately and then
// on every interval tick until Stop or context cancellation. A denied
// permission makes every scan a no-op that touches neither the ledger nor
// the notifier, and the scheduler never re-prompts within the same
// activation.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.stopCh = make(chan struct{})
	stop := s.stopCh
	s.mu.Unlock()

	perm, err := s.cfg.Notifier.RequestPermission(ctx)
	if err != nil {
		s.cfg.Logger.WithError(err).Warn("notification permission request failed")
		perm = PermissionDenied
	}
	s.permission = perm

	s.scan(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.scan(ctx)
			}
		}
	}()
}

// Stop cancels the interval. No tick runs after Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.stopCh)
	s.mu.Unlock()
	s.wg.Wait()
}

// scan is one reminder evaluation over the current snapshot.
func (s *Scheduler) scan(ctx context.Context) {
	if s.permission != PermissionGranted {
		return
	}
	now := s.cfg.Clock.Now()
	horizon := endOfTomorrow(now)
	for _, task := range s.cfg.Tasks() {
		if task.Status == domain.StatusCompleted || task.DueDate == "" {
			continue
		}
		due, ok := task.DueTime()
		if !ok {
			s.cfg.Logger.WithFields(log.Fields{"task": task.ID, "due": task.DueDate}).
				Warn("unparseable due date, skipping reminder")
			continue
		}
		overdue := due.Before(now)
		dueSoon := !overdue && !due.After(horizon)
		if !overdue && !dueSoon {
			continue
		}
		key := Key{TaskID: task.ID, DueDate: task.DueDate}
		newly, err := s.cfg.Ledger.Mark(ctx, s.cfg.Owner, key)
		if err != nil {
			s.cfg.Logger.WithField("task", task.ID).WithError(err).Error("ledger mark failed")
			continue
		}
		if !newly {
			continue
		}
		n := Notification{
			Owner: s.cfg.Owner,
			Title: "Task Reminder",
			Body:  renderBody(task, due, overdue),
			Tag:   task.ID,
		}
		if err := s.cfg.Notifier.Show(ctx, n); err != nil {
			// Release the marker so a later tick can retry delivery.
			if ferr := s.cfg.Ledger.Forget(ctx, s.cfg.Owner, key); ferr != nil {
				s.cfg.Logger.WithField("task", task.ID).WithError(ferr).
					Error("ledger rollback failed")
			}
			s.cfg.Logger.WithField("task", task.ID).WithError(err).Warn("reminder delivery failed")
		}
	}
}

func renderBody(task domain.Task, due time.Time, overdue bool) string {
	if overdue {
		return fmt.Sprintf("Overdue: %s", task.Title)
	}
	return fmt.Sprintf("Due Soon: %s (%s)", task.Title, due.Format("2006-01-02"))
}

// endOfTomorrow is the last instant of the day after now, the far edge of
// the due-soon window.
func endOfTomorrow(now time.Time) time.Time {
	d := now.AddDate(0, 0, 1)
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, int(999*time.Millisecond), now.Location())
}
