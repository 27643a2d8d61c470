package storage

import (
	"testing"

	"boardsync/domain"
)

func TestTaskEntityRoundTrip(t *testing.T) {
	task := domain.Task{
		ID:          "t1",
		Owner:       "owner",
		Title:       "write report",
		Description: "quarterly numbers",
		Status:      domain.StatusInProgress,
		Priority:    domain.PriorityHigh,
		DueDate:     "2026-09-01",
		Tags:        []string{"work", "q3"},
		CreatedAt:   10,
		UpdatedAt:   20,
	}
	data, err := encodeTaskEntity(task)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := decodeTaskEntity(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != task.ID || got.Owner != task.Owner || got.Title != task.Title {
		t.Fatalf("identity fields mismatch: %#v", got)
	}
	if got.Status != task.Status || got.Priority != task.Priority || got.DueDate != task.DueDate {
		t.Fatalf("workflow fields mismatch: %#v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "work" || got.Tags[1] != "q3" {
		t.Fatalf("tags mismatch: %#v", got.Tags)
	}
	if got.CreatedAt != 10 || got.UpdatedAt != 20 {
		t.Fatalf("timestamps mismatch: %#v", got)
	}
}

func TestDecodeRejectsUnknownStatus(t *testing.T) {
	data := []byte(`{"PartitionKey":"owner","RowKey":"t1","Title":"x","Status":"archived","Priority":"low"}`)
	if _, err := decodeTaskEntity(data); err == nil {
		t.Fatal("expected unknown status to be rejected at the read boundary")
	}

	data = []byte(`{"PartitionKey":"owner","RowKey":"t1","Title":"x","Status":"pending","Priority":"urgent"}`)
	if _, err := decodeTaskEntity(data); err == nil {
		t.Fatal("expected unknown priority to be rejected at the read boundary")
	}
}

func TestSortNewestFirst(t *testing.T) {
	tasks := []domain.Task{
		{ID: "old", CreatedAt: 1},
		{ID: "newest", CreatedAt: 3},
		{ID: "mid", CreatedAt: 2},
	}
	sortNewestFirst(tasks)
	want := []string{"newest", "mid", "old"}
	for i, id := range want {
		if tasks[i].ID != id {
			t.Fatalf("expected order %v, got %#v", want, tasks)
		}
	}
}

func TestNextTimestampMonotonic(t *testing.T) {
	prev := nextTimestamp()
	for i := 0; i < 1000; i++ {
		ts := nextTimestamp()
		if ts <= prev {
			t.Fatalf("expected strictly increasing timestamps, got %d after %d", ts, prev)
		}
		prev = ts
	}
}

func TestApplyUpdatePartialFields(t *testing.T) {
	task := domain.Task{
		Title:    "before",
		Status:   domain.StatusPending,
		Priority: domain.PriorityLow,
		DueDate:  "2026-09-01",
		Tags:     []string{"a"},
	}
	status := domain.StatusCompleted
	due := ""
	applyUpdate(&task, domain.TaskUpdate{Status: &status, DueDate: &due})
	if task.Status != domain.StatusCompleted {
		t.Fatalf("expected status updated, got %q", task.Status)
	}
	if task.DueDate != "" {
		t.Fatalf("expected due date cleared, got %q", task.DueDate)
	}
	if task.Title != "before" || task.Priority != domain.PriorityLow || len(task.Tags) != 1 {
		t.Fatalf("expected untouched fields preserved, got %#v", task)
	}
}
