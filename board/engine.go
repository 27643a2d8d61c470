// Package board owns the authoritative in-memory task collection for one
// owner and reconciles it against the task store. All other components read
// snapshots; only the engine mutates the collection.
package board

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"boardsync/domain"
)

// Store abstracts the task store client consumed by the engine.
type Store interface {
	ListTasks(ctx context.Context, owner string) ([]domain.Task, error)
	CreateTask(ctx context.Context, owner string, n domain.NewTask) (domain.Task, error)
	UpdateTask(ctx context.Context, owner, id string, upd domain.TaskUpdate) error
	DeleteTask(ctx context.Context, owner, id string) error
}

// Engine reconciles the in-memory task collection with the store. Every
// mutation is a single store call followed by a reload; overlapping reloads
// are resolved through a monotonically increasing load sequence so a stale
// response never overwrites a newer one.
type Engine struct {
	store  Store
	owner  string
	logger *log.Logger

	issued atomic.Uint64

	mu      sync.Mutex
	tasks   []domain.Task
	applied uint64
}

// NewEngine creates an engine bound to one owner's task collection.
func NewEngine(store Store, owner string, logger *log.Logger) *Engine {
	if store == nil {
		panic("board.NewEngine: store is nil")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Engine{store: store, owner: owner, logger: logger}
}

// Owner returns the owner whose collection this engine manages.
func (e *Engine) Owner() string { return e.owner }

// Load fetches the owner's full task collection, newest created first. On
// failure the previous snapshot stays in place. A response that has been
// superseded by a later issued Load is discarded.
func (e *Engine) Load(ctx context.Context) error {
	seq := e.issued.Add(1)
	tasks, err := e.store.ListTasks(ctx, e.owner)
	if err != nil {
		return &domain.StoreError{Op: "list", Err: err}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != e.issued.Load() {
		e.logger.WithFields(log.Fields{"owner": e.owner, "seq": seq, "latest": e.issued.Load()}).
			Debug("discarding superseded load response")
		return nil
	}
	e.tasks = tasks
	e.applied = seq
	return nil
}

// Snapshot returns a copy of the current task collection.
func (e *Engine) Snapshot() []domain.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.Task, len(e.tasks))
	copy(out, e.tasks)
	return out
}

// Find returns the snapshot's copy of a task by id.
func (e *Engine) Find(id string) (domain.Task, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := e.indexLocked(id); i >= 0 {
		return e.tasks[i], true
	}
	return domain.Task{}, false
}

func (e *Engine) indexLocked(id string) int {
	for i := range e.tasks {
		if e.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// ApplyStatusChange moves a task to a new status column. The snapshot is
// updated optimistically so the board reflects the move during the drag; a
// store failure rolls the task back to its previous status.
func (e *Engine) ApplyStatusChange(ctx context.Context, taskID string, newStatus domain.Status) error {
	if _, err := domain.ParseStatus(string(newStatus)); err != nil {
		return &domain.ValidationError{Field: "status", Reason: err.Error()}
	}

	e.mu.Lock()
	i := e.indexLocked(taskID)
	if i < 0 {
		e.mu.Unlock()
		return domain.ErrTaskNotFound
	}
	prev := e.tasks[i].Status
	if prev == newStatus {
		e.mu.Unlock()
		return nil
	}
	e.tasks[i].Status = newStatus
	e.mu.Unlock()

	upd := domain.TaskUpdate{Status: &newStatus}
	if err := e.store.UpdateTask(ctx, e.owner, taskID, upd); err != nil {
		e.mu.Lock()
		if i := e.indexLocked(taskID); i >= 0 && e.tasks[i].Status == newStatus {
			e.tasks[i].Status = prev
		}
		e.mu.Unlock()
		e.logger.WithFields(log.Fields{"owner": e.owner, "task": taskID, "status": newStatus}).
			WithError(err).Warn("status change rolled back")
		return &domain.StoreError{Op: "update status", Err: err}
	}
	return e.Load(ctx)
}

// CreateTask validates the fields, persists the task and reloads the
// collection. Missing status, priority and tags take the board defaults.
func (e *Engine) CreateTask(ctx context.Context, n domain.NewTask) error {
	if e.owner == "" {
		return domain.ErrAuthRequired
	}
	if strings.TrimSpace(n.Title) == "" {
		return &domain.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if n.Status == "" {
		n.Status = domain.StatusPending
	} else if _, err := domain.ParseStatus(string(n.Status)); err != nil {
		return &domain.ValidationError{Field: "status", Reason: err.Error()}
	}
	if n.Priority == "" {
		n.Priority = domain.PriorityMedium
	} else if _, err := domain.ParsePriority(string(n.Priority)); err != nil {
		return &domain.ValidationError{Field: "priority", Reason: err.Error()}
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	if _, err := e.store.CreateTask(ctx, e.owner, n); err != nil {
		return &domain.StoreError{Op: "create", Err: err}
	}
	return e.Load(ctx)
}

// UpdateTask applies a partial update to any subset of mutable fields.
func (e *Engine) UpdateTask(ctx context.Context, taskID string, upd domain.TaskUpdate) error {
	if upd.Empty() {
		return &domain.ValidationError{Field: "update", Reason: "no fields to update"}
	}
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return &domain.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if upd.Status != nil {
		if _, err := domain.ParseStatus(string(*upd.Status)); err != nil {
			return &domain.ValidationError{Field: "status", Reason: err.Error()}
		}
	}
	if upd.Priority != nil {
		if _, err := domain.ParsePriority(string(*upd.Priority)); err != nil {
			return &domain.ValidationError{Field: "priority", Reason: err.Error()}
		}
	}
	if err := e.store.UpdateTask(ctx, e.owner, taskID, upd); err != nil {
		if err == domain.ErrTaskNotFound {
			return err
		}
		return &domain.StoreError{Op: "update", Err: err}
	}
	return e.Load(ctx)
}

// DeleteTask removes the task from the store and reloads the collection.
func (e *Engine) DeleteTask(ctx context.Context, taskID string) error {
	if err := e.store.DeleteTask(ctx, e.owner, taskID); err != nil {
		if err == domain.ErrTaskNotFound {
			return err
		}
		return &domain.StoreError{Op: "delete", Err: err}
	}
	return e.Load(ctx)
}

// Grouped partitions the current snapshot into the three status buckets.
func (e *Engine) Grouped() Buckets {
	return GroupByStatus(e.Snapshot())
}
