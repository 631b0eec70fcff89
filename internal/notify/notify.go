// Package notify carries user-visible toast notifications from the stores to
// whatever front end is rendering them.
package notify

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Level of a toast
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Toast is one user-visible notification
type Toast struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier receives toasts from store operations
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Queue buffers toasts until the presentation layer drains them
type Queue struct {
	mu     sync.Mutex
	toasts []Toast
	limit  int
	logger logrus.FieldLogger
}

// NewQueue creates a toast queue holding at most limit toasts (oldest dropped)
func NewQueue(limit int, logger logrus.FieldLogger) *Queue {
	if limit <= 0 {
		limit = 20
	}
	return &Queue{limit: limit, logger: logger}
}

// Success enqueues a success toast
func (q *Queue) Success(message string) {
	q.push(LevelSuccess, message)
}

// Error enqueues an error toast
func (q *Queue) Error(message string) {
	q.push(LevelError, message)
}

// Drain returns and removes all queued toasts
func (q *Queue) Drain() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()

	toasts := q.toasts
	q.toasts = nil
	if toasts == nil {
		return []Toast{}
	}
	return toasts
}

// Len returns the number of queued toasts
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.toasts)
}

func (q *Queue) push(level Level, message string) {
	if q.logger != nil {
		q.logger.WithFields(logrus.Fields{"level": level, "toast": message}).Debug("toast")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.toasts = append(q.toasts, Toast{Level: level, Message: message, At: time.Now().UTC()})
	if len(q.toasts) > q.limit {
		q.toasts = q.toasts[len(q.toasts)-q.limit:]
	}
}
