package reminder

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
)

// Permission is the platform notification permission state.
type Permission int

const (
	PermissionDefault Permission = iota
	PermissionGranted
	PermissionDenied
)

// Notification is one rendered reminder.
type Notification struct {
	Owner string `json:"owner"`
	Title string `json:"title"`
	Body  string `json:"body"`
	// Tag collapses repeat deliveries for the same task on the
	// presentation side.
	Tag string `json:"tag"`
}

// Notifier is the delivery surface for reminders. RequestPermission is
// asked once per scheduler activation; when it answers PermissionDenied the
// scheduler sits out its ticks and delivers nothing.
type Notifier interface {
	RequestPermission(ctx context.Context) (Permission, error)
	Show(ctx context.Context, n Notification) error
}

// QueueNotifier delivers reminders to an Azure Storage queue drained by the
// presentation layer. Queue delivery needs no user consent, so permission is
// always granted.
type QueueNotifier struct {
	queue *azqueue.QueueClient
}

// NewQueueNotifier creates a notifier for the given queue.
func NewQueueNotifier(connStr, queueName string) (*QueueNotifier, error) {
	client, err := azqueue.NewQueueClientFromConnectionString(connStr, queueName, nil)
	if err != nil {
		return nil, err
	}
	return &QueueNotifier{queue: client}, nil
}

func (q *QueueNotifier) RequestPermission(ctx context.Context) (Permission, error) {
	return PermissionGranted, nil
}

func (q *QueueNotifier) Show(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	_, err = q.queue.EnqueueMessage(ctx, string(data), nil)
	return err
}
