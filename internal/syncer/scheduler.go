package syncer

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/nekogravitycat/booking-sync/internal/event"
	"github.com/nekogravitycat/booking-sync/internal/store"
)

type State int

const (
	StateIdle State = iota
	StateEventsLoading
	StateEventsLoaded
	StateBookingsLoading
	StateBookingsLoaded
)

func (s State) String() string {
	switch s {
	case StateEventsLoading:
		return "events_loading"
	case StateEventsLoaded:
		return "events_loaded"
	case StateBookingsLoading:
		return "bookings_loading"
	case StateBookingsLoaded:
		return "bookings_loaded"
	default:
		return "idle"
	}
}

// A stale fetch is re-issued at most this many times.
const maxStaleRetries = 3

var errAlreadyStarted = errors.New("scheduler already started")

type bookingFetch struct {
	key    string
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler sequences the two-stage fetch: bookings are only requested once
// the events fetch has resolved, only for a non-empty event id set, and again
// whenever that set changes.
type Scheduler struct {
	ctrl   *Controller
	events *store.Store[*event.Event]
	logger *log.Logger
	ctx    context.Context

	// runMu serializes full runs; a second refetch waits for the first to settle.
	runMu sync.Mutex

	mu        sync.Mutex
	state     State
	stopped   bool
	inflight  *bookingFetch
	loadedKey string // id set of the last applied bookings fetch
}

// NewScheduler creates a scheduler and subscribes it to the controller's
// event-set changes.
func NewScheduler(ctx context.Context, ctrl *Controller, events *store.Store[*event.Event], logger *log.Logger) *Scheduler {
	s := &Scheduler{
		ctrl:   ctrl,
		events: events,
		logger: logger,
		ctx:    ctx,
	}
	ctrl.OnEventsChanged(s.EventsChanged)
	return s
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Loading reports whether a fetch stage is in progress.
func (s *Scheduler) Loading() bool {
	st := s.State()
	return st == StateEventsLoading || st == StateBookingsLoading
}

// Start runs the initial events -> bookings sequence and waits for it.
// The returned error is the events fetch outcome.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state != StateIdle {
		s.mu.Unlock()
		return errAlreadyStarted
	}
	s.mu.Unlock()
	return s.run(false)
}

// Refetch re-runs the full sequence, issuing the bookings fetch even if the
// event id set did not change.
func (s *Scheduler) Refetch() error {
	return s.run(true)
}

func (s *Scheduler) run(force bool) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.state = StateEventsLoading
	s.mu.Unlock()

	var err error
	for attempt := 0; attempt <= maxStaleRetries; attempt++ {
		_, err = s.ctrl.FetchEvents(s.ctx)
		if !errors.Is(err, ErrStaleFetch) {
			break
		}
	}
	if errors.Is(err, ErrStaleFetch) {
		s.logger.Printf("events fetch still stale after %d retries, keeping the current view", maxStaleRetries)
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.state = StateEventsLoaded
	done := s.scheduleLocked(force)
	s.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-s.ctx.Done():
			return ErrSessionClosed
		}
	}
	return err
}

// EventsChanged re-evaluates the event id set. While the events fetch is
// unresolved the evaluation is deferred to its completion.
func (s *Scheduler) EventsChanged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduleLocked(false)
}

// Stop cancels any in-flight bookings fetch and disables further scheduling.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.cancelInflightLocked()
	s.state = StateIdle
}

func (s *Scheduler) scheduleLocked(force bool) <-chan struct{} {
	if s.stopped || s.state == StateIdle || s.state == StateEventsLoading {
		return nil
	}

	ids := s.events.IDs()
	if len(ids) == 0 {
		// The controller clears the bookings store in the same commit that
		// emptied the events store.
		s.cancelInflightLocked()
		s.loadedKey = ""
		s.state = StateEventsLoaded
		return nil
	}

	key := idSetKey(ids)
	if f := s.inflight; f != nil {
		if f.key == key && !force {
			return f.done
		}
		s.cancelInflightLocked()
	} else if key == s.loadedKey && !force {
		s.state = StateBookingsLoaded
		return nil
	}
	return s.launchLocked(ids, key)
}

func (s *Scheduler) launchLocked(ids []string, key string) <-chan struct{} {
	ctx, cancel := context.WithCancel(s.ctx)
	f := &bookingFetch{key: key, cancel: cancel, done: make(chan struct{})}
	s.inflight = f
	s.state = StateBookingsLoading
	go s.fetchBookings(ctx, f, ids)
	return f.done
}

func (s *Scheduler) fetchBookings(ctx context.Context, f *bookingFetch, ids []string) {
	defer close(f.done)

	var err error
	for attempt := 0; attempt <= maxStaleRetries; attempt++ {
		_, err = s.ctrl.FetchBookings(ctx, ids)
		if !errors.Is(err, ErrStaleFetch) || ctx.Err() != nil {
			break
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight != f {
		return
	}
	f.cancel()
	s.inflight = nil
	if err == nil {
		s.loadedKey = f.key
	} else if !errors.Is(err, ErrSessionClosed) {
		s.logger.Printf("bookings fetch for %d events finished with error: %v", len(ids), err)
	}
	if s.state == StateBookingsLoading {
		s.state = StateBookingsLoaded
	}
}

func (s *Scheduler) cancelInflightLocked() {
	if s.inflight != nil {
		s.inflight.cancel()
		s.inflight = nil
	}
}

func idSetKey(ids []string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
