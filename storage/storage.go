package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/google/uuid"

	"boardsync/domain"
)

// Storage is the task store client backed by Azure Table Storage. Tasks are
// partitioned per owner and keyed by an opaque row key.
type Storage struct {
	taskTable *aztables.Client
}

// New creates a Storage instance from the given connection string.
func New(connStr, tasksTable string) (*Storage, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &Storage{taskTable: svc.NewClient(tasksTable)}, nil
}

type taskEntity struct {
	aztables.Entity
	Title       string `json:"Title"`
	Description string `json:"Description"`
	Status      string `json:"Status"`
	Priority    string `json:"Priority"`
	DueDate     string `json:"DueDate"`
	Tags        string `json:"Tags"`
	CreatedAt   int64  `json:"CreatedAt"`
	UpdatedAt   int64  `json:"UpdatedAt"`
}

func decodeTaskEntity(data []byte) (domain.Task, error) {
	var ent taskEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Task{}, err
	}
	status, err := domain.ParseStatus(ent.Status)
	if err != nil {
		return domain.Task{}, fmt.Errorf("task %s: %w", ent.RowKey, err)
	}
	priority, err := domain.ParsePriority(ent.Priority)
	if err != nil {
		return domain.Task{}, fmt.Errorf("task %s: %w", ent.RowKey, err)
	}
	var tags []string
	if ent.Tags != "" {
		if err := json.Unmarshal([]byte(ent.Tags), &tags); err != nil {
			return domain.Task{}, fmt.Errorf("task %s: bad tags: %w", ent.RowKey, err)
		}
	}
	return domain.Task{
		ID:          ent.RowKey,
		Owner:       ent.PartitionKey,
		Title:       ent.Title,
		Description: ent.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     ent.DueDate,
		Tags:        tags,
		CreatedAt:   ent.CreatedAt,
		UpdatedAt:   ent.UpdatedAt,
	}, nil
}

func encodeTaskEntity(t domain.Task) ([]byte, error) {
	tags := ""
	if len(t.Tags) > 0 {
		data, err := json.Marshal(t.Tags)
		if err != nil {
			return nil, err
		}
		tags = string(data)
	}
	return json.Marshal(taskEntity{
		Entity:      aztables.Entity{PartitionKey: t.Owner, RowKey: t.ID},
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		Tags:        tags,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	})
}

// ListTasks retrieves all tasks for the provided owner, newest created
// first. Rows holding an unrecognized status or priority fail the whole read
// so bad data surfaces instead of silently dropping out of the board.
func (s *Storage) ListTasks(ctx context.Context, owner string) ([]domain.Task, error) {
	filter := "PartitionKey eq '" + owner + "'"
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			task, err := decodeTaskEntity(e)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, task)
		}
	}
	sortNewestFirst(tasks)
	return tasks, nil
}

func sortNewestFirst(tasks []domain.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt > tasks[j].CreatedAt
	})
}

// CreateTask persists a new task and returns it with its assigned identity
// and timestamps.
func (s *Storage) CreateTask(ctx context.Context, owner string, n domain.NewTask) (domain.Task, error) {
	now := nextTimestamp()
	task := domain.Task{
		ID:          uuid.NewString(),
		Owner:       owner,
		Title:       n.Title,
		Description: n.Description,
		Status:      n.Status,
		Priority:    n.Priority,
		DueDate:     n.DueDate,
		Tags:        n.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	data, err := encodeTaskEntity(task)
	if err != nil {
		return domain.Task{}, err
	}
	if _, err := s.taskTable.AddEntity(ctx, data, nil); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// UpdateTask applies a partial update to a stored task.
func (s *Storage) UpdateTask(ctx context.Context, owner, id string, upd domain.TaskUpdate) error {
	resp, err := s.taskTable.GetEntity(ctx, owner, id, nil)
	if err != nil {
		return mapNotFound(err)
	}
	task, err := decodeTaskEntity(resp.Value)
	if err != nil {
		return err
	}
	applyUpdate(&task, upd)
	task.UpdatedAt = nextTimestamp()
	data, err := encodeTaskEntity(task)
	if err != nil {
		return err
	}
	mode := aztables.UpdateModeReplace
	if _, err := s.taskTable.UpdateEntity(ctx, data, &aztables.UpdateEntityOptions{UpdateMode: mode}); err != nil {
		return mapNotFound(err)
	}
	return nil
}

func applyUpdate(task *domain.Task, upd domain.TaskUpdate) {
	if upd.Title != nil {
		task.Title = *upd.Title
	}
	if upd.Description != nil {
		task.Description = *upd.Description
	}
	if upd.Status != nil {
		task.Status = *upd.Status
	}
	if upd.Priority != nil {
		task.Priority = *upd.Priority
	}
	if upd.DueDate != nil {
		task.DueDate = *upd.DueDate
	}
	if upd.Tags != nil {
		task.Tags = *upd.Tags
	}
}

// DeleteTask removes a task from the store.
func (s *Storage) DeleteTask(ctx context.Context, owner, id string) error {
	if _, err := s.taskTable.DeleteEntity(ctx, owner, id, nil); err != nil {
		return mapNotFound(err)
	}
	return nil
}

func mapNotFound(err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == 404 {
		return domain.ErrTaskNotFound
	}
	return err
}

var lastTimestamp int64

// nextTimestamp returns a strictly increasing unix-nano timestamp so that
// created-at ordering is total even within one clock tick.
func nextTimestamp() int64 {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastTimestamp)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastTimestamp, last, now) {
			return now
		}
	}
}
