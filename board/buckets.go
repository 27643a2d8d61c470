package board

import "boardsync/domain"

// Buckets holds the three board columns in display order.
type Buckets struct {
	Pending    []domain.Task `json:"pending"`
	InProgress []domain.Task `json:"in-progress"`
	Completed  []domain.Task `json:"completed"`
}

// Column returns the bucket for a status. Statuses are validated at the
// store-read boundary, so every task lands in exactly one bucket.
func (b *Buckets) Column(s domain.Status) []domain.Task {
	switch s {
	case domain.StatusPending:
		return b.Pending
	case domain.StatusInProgress:
		return b.InProgress
	case domain.StatusCompleted:
		return b.Completed
	}
	return nil
}

// GroupByStatus partitions tasks into the three status buckets, preserving
// the input order within each bucket.
func GroupByStatus(tasks []domain.Task) Buckets {
	b := Buckets{
		Pending:    []domain.Task{},
		InProgress: []domain.Task{},
		Completed:  []domain.Task{},
	}
	for _, t := range tasks {
		switch t.Status {
		case domain.StatusPending:
			b.Pending = append(b.Pending, t)
		case domain.StatusInProgress:
			b.InProgress = append(b.InProgress, t)
		case domain.StatusCompleted:
			b.Completed = append(b.Completed, t)
		}
	}
	return b
}
