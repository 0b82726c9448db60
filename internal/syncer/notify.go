package syncer

import (
	"sync"
	"time"
)

// NotificationSink receives user-facing outcome messages. Calls are
// fire-and-forget.
type NotificationSink interface {
	Success(message string)
	Failure(message string)
}

type Level string

const (
	LevelSuccess Level = "success"
	LevelFailure Level = "failure"
)

type Notification struct {
	Level   Level
	Message string
	At      time.Time
}

// Feed is a bounded notification queue the UI drains. When full, the oldest
// entry is dropped.
type Feed struct {
	mu    sync.Mutex
	items []Notification
	limit int
	now   func() time.Time
}

const defaultFeedLimit = 50

func NewFeed(limit int) *Feed {
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	return &Feed{limit: limit, now: time.Now}
}

func (f *Feed) Success(message string) { f.push(LevelSuccess, message) }
func (f *Feed) Failure(message string) { f.push(LevelFailure, message) }

func (f *Feed) push(level Level, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.items) == f.limit {
		f.items = f.items[1:]
	}
	f.items = append(f.items, Notification{Level: level, Message: message, At: f.now().UTC()})
}

// List returns a copy of the queued notifications, oldest first, without
// removing them.
func (f *Feed) List() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Notification{}, f.items...)
}

// Drain returns the queued notifications, oldest first, and empties the queue.
func (f *Feed) Drain() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := f.items
	f.items = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// fanout forwards to several sinks.
type fanout []NotificationSink

func (fs fanout) Success(message string) {
	for _, s := range fs {
		s.Success(message)
	}
}

func (fs fanout) Failure(message string) {
	for _, s := range fs {
		s.Failure(message)
	}
}
