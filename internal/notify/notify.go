// Package notify carries user-visible notices (the toasts of the front-end)
// from the core to whatever presents them.
package notify

import (
	"sync"
	"time"
)

// Level of a notice.
type Level string

// Notice levels.
const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is one user-visible message.
type Notice struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier receives notices.
type Notifier interface {
	Notify(level Level, message string)
}

// Discard drops every notice.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(Level, string) {}

// Func adapts a function to Notifier.
type Func func(level Level, message string)

// Notify calls f.
func (f Func) Notify(level Level, message string) {
	f(level, message)
}

// Queue buffers notices until they are drained. The oldest notices are
// dropped once the queue holds limit entries.
type Queue struct {
	mu      sync.Mutex
	notices []Notice
	limit   int
	now     func() time.Time
}

// NewQueue creates a queue holding at most limit notices.
func NewQueue(limit int) *Queue {
	if limit <= 0 {
		limit = 100
	}
	return &Queue{limit: limit, now: time.Now}
}

// Notify appends a notice.
func (q *Queue) Notify(level Level, message string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.notices = append(q.notices, Notice{Level: level, Message: message, At: q.now()})
	if over := len(q.notices) - q.limit; over > 0 {
		q.notices = append(q.notices[:0], q.notices[over:]...)
	}
}

// Drain returns and clears all queued notices.
func (q *Queue) Drain() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.notices
	q.notices = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}

// Len returns the number of queued notices.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.notices)
}
