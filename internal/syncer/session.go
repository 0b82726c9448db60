package syncer

import (
	"context"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nekogravitycat/booking-sync/internal/booking"
	"github.com/nekogravitycat/booking-sync/internal/event"
	"github.com/nekogravitycat/booking-sync/internal/metrics"
	"github.com/nekogravitycat/booking-sync/internal/store"
)

// Options configure new sessions.
type Options struct {
	Logger             *log.Logger
	NotificationBuffer int
	// Sink, if set, receives every notification in addition to the session feed.
	Sink NotificationSink
}

func (o Options) logger() *log.Logger {
	if o.Logger == nil {
		return log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return o.Logger
}

// Session is the synchronization state of one signed-in owner. It is created
// empty, populated by Start, and cleared by Close; nothing from one session is
// ever visible to another.
type Session struct {
	ID        string
	OwnerID   string
	StartedAt time.Time

	Events        *store.Store[*event.Event]
	Bookings      *store.Store[*booking.Booking]
	Notifications *Feed
	Controller    *Controller
	Scheduler     *Scheduler

	ctx       context.Context
	cancel    context.CancelFunc
	lastSeen  atomic.Int64
	closeOnce sync.Once
}

func NewSession(id, ownerID string, remote Backend, opts Options) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	logger := opts.logger()

	s := &Session{
		ID:            id,
		OwnerID:       ownerID,
		StartedAt:     time.Now().UTC(),
		Events:        store.New[*event.Event](),
		Bookings:      store.New[*booking.Booking](),
		Notifications: NewFeed(opts.NotificationBuffer),
		ctx:           ctx,
		cancel:        cancel,
	}

	var sink NotificationSink = s.Notifications
	if opts.Sink != nil {
		sink = fanout{s.Notifications, opts.Sink}
	}

	s.Controller = NewController(ctx, ownerID, remote, s.Events, s.Bookings, sink, logger)
	s.Scheduler = NewScheduler(ctx, s.Controller, s.Events, log.New(logger.Writer(), "[scheduler] ", logger.Flags()))
	s.Touch()
	return s
}

// Start runs the initial events -> bookings load.
func (s *Session) Start() error { return s.Scheduler.Start() }

// Refetch re-runs the full load unconditionally.
func (s *Session) Refetch() error { return s.Scheduler.Refetch() }

// Close cancels in-flight work and clears both stores. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.Scheduler.Stop()
		s.cancel()
		s.Controller.close()
	})
}

func (s *Session) Closed() bool { return s.ctx.Err() != nil }

func (s *Session) Touch() { s.lastSeen.Store(time.Now().UnixNano()) }

func (s *Session) LastSeen() time.Time { return time.Unix(0, s.lastSeen.Load()) }

// Snapshot is a consistent read of the session for the UI.
type Snapshot struct {
	Events   []*event.Event
	Bookings []*booking.Booking
	Loading  bool
	State    State
	Metrics  metrics.Metrics
}

func (s *Session) Snapshot() Snapshot {
	events, bookings := s.Controller.snapshot()
	return Snapshot{
		Events:   events,
		Bookings: bookings,
		Loading:  s.Scheduler.Loading(),
		State:    s.Scheduler.State(),
		Metrics:  metrics.Compute(events, bookings),
	}
}
