// Package drag owns the pointer-drag lifecycle for the kanban board. It
// resolves drop targets with a nearest-corner collision heuristic and emits
// status-change intents into the board engine while the drag is live.
package drag

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"boardsync/domain"
)

// DefaultActivationDistance is how far the pointer must travel from the
// press origin before a drag starts. Presses released inside the threshold
// stay clicks so a simple tap still opens the edit dialog.
const DefaultActivationDistance = 8.0

// TargetKind discriminates drop-target candidates.
type TargetKind int

const (
	// TargetColumn is a status column's droppable region.
	TargetColumn TargetKind = iota
	// TargetCard is another task card inside a column.
	TargetCard
)

// Target is one drop candidate under the pointer.
type Target struct {
	Kind   TargetKind
	Status domain.Status
	TaskID string // set for TargetCard
	Rect   Rect
}

// IntentSink receives status-change intents, normally the board engine.
type IntentSink interface {
	ApplyStatusChange(ctx context.Context, taskID string, newStatus domain.Status) error
}

// TaskLookup resolves the dragged task's current state from the board
// snapshot.
type TaskLookup func(id string) (domain.Task, bool)

// Controller is the drag state machine: Idle, or Dragging one task. A press
// arms the controller; the drag activates once the pointer moves past the
// activation distance.
type Controller struct {
	sink       IntentSink
	lookup     TaskLookup
	logger     *log.Logger
	activation float64

	mu       sync.Mutex
	pressed  bool
	dragging bool
	activeID string
	origin   Point
}

// NewController creates a controller emitting intents into the given sink.
func NewController(sink IntentSink, lookup TaskLookup, logger *log.Logger) *Controller {
	if sink == nil {
		panic("drag.NewController: sink is nil")
	}
	if lookup == nil {
		panic("drag.NewController: lookup is nil")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Controller{
		sink:       sink,
		lookup:     lookup,
		logger:     logger,
		activation: DefaultActivationDistance,
	}
}

// ActiveTaskID returns the id of the task being dragged, or "" when idle.
func (c *Controller) ActiveTaskID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dragging {
		return ""
	}
	return c.activeID
}

// PointerDown arms a potential drag on a task card.
func (c *Controller) PointerDown(taskID string, at Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pressed = true
	c.dragging = false
	c.activeID = taskID
	c.origin = at
}

// PointerMove processes one pointer movement. Once the activation distance
// is exceeded the drag starts; every subsequent move recomputes the nearest
// drop target among the candidates and emits a status-change intent when the
// target's status differs from the dragged task's current status. Intent
// failures are non-fatal; the drag continues and the engine rolls back.
func (c *Controller) PointerMove(ctx context.Context, at Point, candidates []Target) {
	c.mu.Lock()
	if !c.pressed {
		c.mu.Unlock()
		return
	}
	if !c.dragging {
		if distance(at, c.origin) < c.activation {
			c.mu.Unlock()
			return
		}
		c.dragging = true
	}
	id := c.activeID
	c.mu.Unlock()

	task, ok := c.lookup(id)
	if !ok {
		return
	}
	target, ok := resolveTarget(at, id, candidates)
	if !ok || target.Status == task.Status {
		return
	}
	if err := c.sink.ApplyStatusChange(ctx, id, target.Status); err != nil {
		c.logger.WithFields(log.Fields{"task": id, "status": target.Status}).
			WithError(err).Warn("status-change intent failed")
	}
}

// PointerUp ends the gesture. It reports a click when the drag never
// activated, so the caller can open the edit dialog instead.
func (c *Controller) PointerUp() (clicked bool, taskID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.pressed {
		return false, ""
	}
	clicked = !c.dragging
	taskID = c.activeID
	c.reset()
	if !clicked {
		taskID = ""
	}
	return clicked, taskID
}

// Cancel aborts the gesture without emitting anything further.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

func (c *Controller) reset() {
	c.pressed = false
	c.dragging = false
	c.activeID = ""
	c.origin = Point{}
}

// resolveTarget picks the candidate whose nearest corner is closest to the
// pointer. The dragged task's own card is never a target. Distance ties
// prefer the task card over the column; among equal kinds the earlier
// candidate wins, keeping resolution deterministic.
func resolveTarget(p Point, activeID string, candidates []Target) (Target, bool) {
	var best Target
	bestDist := -1.0
	found := false
	for _, cand := range candidates {
		if cand.Kind == TargetCard && cand.TaskID == activeID {
			continue
		}
		d := cornerDistance(p, cand.Rect)
		switch {
		case !found || d < bestDist:
			best, bestDist, found = cand, d, true
		case d == bestDist && cand.Kind == TargetCard && best.Kind == TargetColumn:
			best = cand
		}
	}
	return best, found
}
