package syncer

import (
	"bytes"
	"context"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/nekogravitycat/booking-sync/internal/booking"
	"github.com/nekogravitycat/booking-sync/internal/event"
	"github.com/nekogravitycat/booking-sync/internal/remote/memory"
)

func discardLogger() *log.Logger { return log.New(io.Discard, "", 0) }

// logBuffer collects log output written from several goroutines.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// fakeEvents wraps a real remote and lets a test block or fail single calls.
type fakeEvents struct {
	EventRemote

	mu         sync.Mutex
	listGate   chan struct{}
	insertGate chan struct{}
	listErr    error
	onList     func() // runs after the gate, before the remote read
	listCalls  int
	insertHits int
}

func (f *fakeEvents) List(ctx context.Context, ownerID string) ([]*event.Event, error) {
	f.mu.Lock()
	f.listCalls++
	gate, err, hook := f.listGate, f.listErr, f.onList
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return f.EventRemote.List(ctx, ownerID)
}

// Insert ignores ctx while gated, like a remote that commits a write even
// though the caller went away.
func (f *fakeEvents) Insert(ctx context.Context, ownerID string, in event.CreateInput) (*event.Event, error) {
	f.mu.Lock()
	f.insertHits++
	gate := f.insertGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return f.EventRemote.Insert(context.Background(), ownerID, in)
}

func (f *fakeEvents) setListGate(g chan struct{}) {
	f.mu.Lock()
	f.listGate = g
	f.mu.Unlock()
}

func (f *fakeEvents) setOnList(fn func()) {
	f.mu.Lock()
	f.onList = fn
	f.mu.Unlock()
}

func (f *fakeEvents) setListErr(err error) {
	f.mu.Lock()
	f.listErr = err
	f.mu.Unlock()
}

func (f *fakeEvents) setInsertGate(g chan struct{}) {
	f.mu.Lock()
	f.insertGate = g
	f.mu.Unlock()
}

func (f *fakeEvents) lists() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func (f *fakeEvents) inserts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insertHits
}

type fakeBookings struct {
	BookingRemote

	mu        sync.Mutex
	listGate  chan struct{}
	calls     [][]string
	cancelled int
}

func (f *fakeBookings) ListFiltered(ctx context.Context, ownerID string, eventIDs []string) ([]*booking.Booking, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), eventIDs...))
	gate := f.listGate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			f.mu.Lock()
			f.cancelled++
			f.mu.Unlock()
			return nil, ctx.Err()
		}
	}
	return f.BookingRemote.ListFiltered(ctx, ownerID, eventIDs)
}

func (f *fakeBookings) setGate(g chan struct{}) {
	f.mu.Lock()
	f.listGate = g
	f.mu.Unlock()
}

func (f *fakeBookings) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeBookings) cancelCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

func (f *fakeBookings) lastCall() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

type recordingSink struct {
	mu        sync.Mutex
	successes []string
	failures  []string
}

func (r *recordingSink) Success(m string) {
	r.mu.Lock()
	r.successes = append(r.successes, m)
	r.mu.Unlock()
}

func (r *recordingSink) Failure(m string) {
	r.mu.Lock()
	r.failures = append(r.failures, m)
	r.mu.Unlock()
}

func (r *recordingSink) lastFailure() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.failures) == 0 {
		return ""
	}
	return r.failures[len(r.failures)-1]
}

func (r *recordingSink) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.successes), len(r.failures)
}

type harness struct {
	backend  *memory.Backend
	events   *fakeEvents
	bookings *fakeBookings
	sink     *recordingSink
	logs     *logBuffer
	session  *Session
}

func newHarness(t *testing.T, ownerID string) *harness {
	t.Helper()

	backend := memory.New()
	h := &harness{
		backend:  backend,
		events:   &fakeEvents{EventRemote: backend.Events()},
		bookings: &fakeBookings{BookingRemote: backend.Bookings()},
		sink:     &recordingSink{},
		logs:     &logBuffer{},
	}
	h.session = NewSession("session-"+ownerID, ownerID, Backend{Events: h.events, Bookings: h.bookings}, Options{
		Logger: log.New(h.logs, "", 0),
		Sink:   h.sink,
	})
	t.Cleanup(h.session.Close)
	return h
}

func eventIDs(events []*event.Event) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}
