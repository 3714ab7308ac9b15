package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vesting-console/internal/logging"
	"github.com/vesting-console/internal/types"
)

// Notifier surfaces transient, user-visible messages for store operations
type Notifier interface {
	Success(message string)
	Failure(message string)
}

// LogNotifier writes notifications to the structured log
type LogNotifier struct {
	logger *logging.Logger
}

// NewLogNotifier creates a notifier backed by logger
func NewLogNotifier(logger *logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.WithComponent("notifications")}
}

// Success logs a success notification
func (n *LogNotifier) Success(message string) {
	n.logger.WithField("level", types.NotificationSuccess).Info(message)
}

// Failure logs a failure notification
func (n *LogNotifier) Failure(message string) {
	n.logger.WithField("level", types.NotificationError).Warn(message)
}

// NotificationQueue keeps the most recent notifications until the UI drains them.
// When full the oldest entry is dropped.
type NotificationQueue struct {
	mu       sync.Mutex
	capacity int
	items    []types.Notification
	now      func() time.Time
}

// NewNotificationQueue creates a queue holding at most capacity entries
func NewNotificationQueue(capacity int) *NotificationQueue {
	if capacity <= 0 {
		capacity = 50
	}
	return &NotificationQueue{capacity: capacity, now: time.Now}
}

// Success queues a success notification
func (q *NotificationQueue) Success(message string) {
	q.push(types.NotificationSuccess, message)
}

// Failure queues a failure notification
func (q *NotificationQueue) Failure(message string) {
	q.push(types.NotificationError, message)
}

func (q *NotificationQueue) push(level types.NotificationLevel, message string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == q.capacity {
		q.items = q.items[1:]
	}
	q.items = append(q.items, types.Notification{
		ID:        uuid.New().String(),
		Level:     level,
		Message:   message,
		CreatedAt: q.now().UTC(),
	})
}

// Drain returns queued notifications oldest first and empties the queue
func (q *NotificationQueue) Drain() []types.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.items
	q.items = nil
	if out == nil {
		out = []types.Notification{}
	}
	return out
}

// Len returns how many notifications are waiting
func (q *NotificationQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// MultiNotifier fans notifications out to several notifiers
type MultiNotifier []Notifier

// Success forwards to every notifier
func (m MultiNotifier) Success(message string) {
	for _, n := range m {
		n.Success(message)
	}
}

// Failure forwards to every notifier
func (m MultiNotifier) Failure(message string) {
	for _, n := range m {
		n.Failure(message)
	}
}
