package drag

import (
	"context"
	"errors"
	"sync"
	"testing"

	log "github.com/sirupsen/logrus"

	"boardsync/domain"
)

type recordingSink struct {
	mu      sync.Mutex
	intents []intent
	err     error
	// tracks the simulated board state so repeated over-events see the
	// task's new status, as they would against the real engine.
	statuses map[string]domain.Status
}

type intent struct {
	taskID string
	status domain.Status
}

func newRecordingSink(statuses map[string]domain.Status) *recordingSink {
	return &recordingSink{statuses: statuses}
}

func (r *recordingSink) ApplyStatusChange(ctx context.Context, taskID string, s domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = append(r.intents, intent{taskID: taskID, status: s})
	if r.err != nil {
		return r.err
	}
	r.statuses[taskID] = s
	return nil
}

func (r *recordingSink) lookup(id string) (domain.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.statuses[id]
	if !ok {
		return domain.Task{}, false
	}
	return domain.Task{ID: id, Status: s}, true
}

func (r *recordingSink) recorded() []intent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]intent, len(r.intents))
	copy(out, r.intents)
	return out
}

func quietLogger() *log.Logger {
	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	return logger
}

func boardTargets() []Target {
	return []Target{
		{Kind: TargetColumn, Status: domain.StatusPending, Rect: Rect{X: 0, Y: 0, Width: 100, Height: 300}},
		{Kind: TargetColumn, Status: domain.StatusInProgress, Rect: Rect{X: 110, Y: 0, Width: 100, Height: 300}},
		{Kind: TargetColumn, Status: domain.StatusCompleted, Rect: Rect{X: 220, Y: 0, Width: 100, Height: 300}},
	}
}

func TestClickWithoutActivationStaysIdle(t *testing.T) {
	sink := newRecordingSink(map[string]domain.Status{"t1": domain.StatusPending})
	c := NewController(sink, sink.lookup, quietLogger())

	c.PointerDown("t1", Point{X: 10, Y: 10})
	c.PointerMove(context.Background(), Point{X: 13, Y: 10}, boardTargets())
	if got := c.ActiveTaskID(); got != "" {
		t.Fatalf("expected no active drag inside activation distance, got %q", got)
	}

	clicked, taskID := c.PointerUp()
	if !clicked || taskID != "t1" {
		t.Fatalf("expected a click on t1, got clicked=%v task=%q", clicked, taskID)
	}
	if len(sink.recorded()) != 0 {
		t.Fatalf("expected no intents from a click, got %v", sink.recorded())
	}
}

func TestDragToColumnEmitsSingleIntent(t *testing.T) {
	sink := newRecordingSink(map[string]domain.Status{"t1": domain.StatusPending})
	c := NewController(sink, sink.lookup, quietLogger())

	c.PointerDown("t1", Point{X: 10, Y: 10})
	// Past the activation distance, into the in-progress column.
	c.PointerMove(context.Background(), Point{X: 150, Y: 50}, boardTargets())
	if got := c.ActiveTaskID(); got != "t1" {
		t.Fatalf("expected t1 to be dragging, got %q", got)
	}

	// Further movement inside the same column must not re-emit.
	c.PointerMove(context.Background(), Point{X: 160, Y: 80}, boardTargets())

	clicked, _ := c.PointerUp()
	if clicked {
		t.Fatal("expected a drag, not a click")
	}
	if got := c.ActiveTaskID(); got != "" {
		t.Fatalf("expected idle after drop, got %q", got)
	}

	intents := sink.recorded()
	if len(intents) != 1 {
		t.Fatalf("expected exactly one intent, got %v", intents)
	}
	if intents[0].taskID != "t1" || intents[0].status != domain.StatusInProgress {
		t.Fatalf("unexpected intent %v", intents[0])
	}
}

func TestDragOverOwnColumnEmitsNothing(t *testing.T) {
	sink := newRecordingSink(map[string]domain.Status{"t1": domain.StatusPending})
	c := NewController(sink, sink.lookup, quietLogger())

	c.PointerDown("t1", Point{X: 10, Y: 10})
	c.PointerMove(context.Background(), Point{X: 50, Y: 120}, boardTargets())
	c.PointerUp()

	if len(sink.recorded()) != 0 {
		t.Fatalf("expected no intent over the task's own column, got %v", sink.recorded())
	}
}

func TestDragOverSiblingCardUsesItsColumn(t *testing.T) {
	sink := newRecordingSink(map[string]domain.Status{
		"t1": domain.StatusPending,
		"t2": domain.StatusCompleted,
	})
	c := NewController(sink, sink.lookup, quietLogger())

	targets := append(boardTargets(), Target{
		Kind:   TargetCard,
		Status: domain.StatusCompleted,
		TaskID: "t2",
		Rect:   Rect{X: 230, Y: 20, Width: 80, Height: 40},
	})

	c.PointerDown("t1", Point{X: 10, Y: 10})
	c.PointerMove(context.Background(), Point{X: 235, Y: 25}, targets)
	c.PointerUp()

	intents := sink.recorded()
	if len(intents) != 1 || intents[0].status != domain.StatusCompleted {
		t.Fatalf("expected one intent to completed, got %v", intents)
	}
}

func TestCancelDiscardsGesture(t *testing.T) {
	sink := newRecordingSink(map[string]domain.Status{"t1": domain.StatusPending})
	c := NewController(sink, sink.lookup, quietLogger())

	c.PointerDown("t1", Point{X: 10, Y: 10})
	c.PointerMove(context.Background(), Point{X: 50, Y: 120}, boardTargets())
	c.Cancel()

	if got := c.ActiveTaskID(); got != "" {
		t.Fatalf("expected idle after cancel, got %q", got)
	}
	// Movement after cancel is ignored.
	c.PointerMove(context.Background(), Point{X: 150, Y: 50}, boardTargets())
	if len(sink.recorded()) != 0 {
		t.Fatalf("expected no intents after cancel, got %v", sink.recorded())
	}
	if clicked, _ := c.PointerUp(); clicked {
		t.Fatal("expected no click after cancel")
	}
}

func TestIntentFailureDoesNotHaltDrag(t *testing.T) {
	sink := newRecordingSink(map[string]domain.Status{"t1": domain.StatusPending})
	sink.err = errors.New("store down")
	c := NewController(sink, sink.lookup, quietLogger())

	c.PointerDown("t1", Point{X: 10, Y: 10})
	c.PointerMove(context.Background(), Point{X: 150, Y: 50}, boardTargets())
	if got := c.ActiveTaskID(); got != "t1" {
		t.Fatalf("expected drag to continue after intent failure, got %q", got)
	}
	// The engine rolled back, so the next over-event re-emits.
	c.PointerMove(context.Background(), Point{X: 155, Y: 55}, boardTargets())

	if len(sink.recorded()) != 2 {
		t.Fatalf("expected failed intent to be retried on the next move, got %v", sink.recorded())
	}
}
