package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/booking-sync/internal/booking"
	"github.com/nekogravitycat/booking-sync/internal/event"
	"github.com/nekogravitycat/booking-sync/internal/remote/memory"
)

func TestSessionCloseDiscardsInflight(t *testing.T) {
	t.Run("Fetch in flight", func(t *testing.T) {
		h := newHarness(t, "owner-1")
		s := h.session
		require.NoError(t, s.Start())

		gate := make(chan struct{})
		defer close(gate)
		h.events.setListGate(gate)

		done := make(chan error, 1)
		go func() {
			_, err := s.Controller.FetchEvents(context.Background())
			done <- err
		}()
		require.Eventually(t, func() bool { return h.events.lists() == 2 }, time.Second, 5*time.Millisecond)

		s.Close()
		assert.True(t, errors.Is(<-done, ErrSessionClosed))
		assert.Empty(t, s.Events.List())
	})

	t.Run("Mutation completing after close", func(t *testing.T) {
		h := newHarness(t, "owner-1")
		s := h.session
		require.NoError(t, s.Start())

		gate := make(chan struct{})
		h.events.setInsertGate(gate)

		done := make(chan error, 1)
		go func() {
			_, err := s.Controller.CreateEvent(context.Background(), event.CreateInput{Title: "Late", Duration: 5})
			done <- err
		}()
		require.Eventually(t, func() bool { return h.events.inserts() == 1 }, time.Second, 5*time.Millisecond)

		s.Close()
		close(gate)

		assert.True(t, errors.Is(<-done, ErrSessionClosed))
		assert.Equal(t, 0, s.Events.Len(), "result must not reach a closed session")
		successes, _ := h.sink.counts()
		assert.Equal(t, 0, successes)
	})

	t.Run("Operations after close", func(t *testing.T) {
		h := newHarness(t, "owner-1")
		s := h.session
		require.NoError(t, s.Start())
		s.Close()
		s.Close()

		assert.True(t, s.Closed())
		assert.True(t, errors.Is(s.Refetch(), ErrSessionClosed))
		_, err := s.Controller.CreateEvent(context.Background(), event.CreateInput{Title: "X", Duration: 5})
		assert.True(t, errors.Is(err, ErrSessionClosed))
		assert.Equal(t, StateIdle, s.Scheduler.State())
	})
}

func TestSessionClearsStoresOnClose(t *testing.T) {
	h := newHarness(t, "owner-1")
	s := h.session
	ctx := context.Background()

	e, err := h.backend.Events().Insert(ctx, "owner-1", event.CreateInput{Title: "Consult", Duration: 30})
	require.NoError(t, err)
	h.backend.AddBooking(booking.Booking{EventID: e.ID, ClientEmail: "a@example.com", ScheduledAt: time.Now()})

	require.NoError(t, s.Start())
	require.Equal(t, 1, s.Events.Len())
	require.Equal(t, 1, s.Bookings.Len())

	s.Close()
	assert.Equal(t, 0, s.Events.Len())
	assert.Equal(t, 0, s.Bookings.Len())
}

func TestSnapshotOrphanedBooking(t *testing.T) {
	h := newHarness(t, "owner-1")
	s := h.session
	ctx := context.Background()

	keep, err := h.backend.Events().Insert(ctx, "owner-1", event.CreateInput{Title: "Keep", Duration: 30})
	require.NoError(t, err)
	gone, err := h.backend.Events().Insert(ctx, "owner-1", event.CreateInput{Title: "Gone", Duration: 30})
	require.NoError(t, err)
	h.backend.AddBooking(booking.Booking{EventID: keep.ID, ClientEmail: "a@example.com", ScheduledAt: time.Now()})
	h.backend.AddBooking(booking.Booking{EventID: gone.ID, ClientEmail: "b@example.com", ScheduledAt: time.Now()})
	require.NoError(t, s.Start())
	require.Equal(t, 2, s.Bookings.Len())

	// Stop the follow-up fetch so the orphan stays in the local cache.
	gate := make(chan struct{})
	defer close(gate)
	h.bookings.setGate(gate)

	require.NoError(t, s.Controller.DeleteEvent(ctx, gone.ID))
	snap := s.Snapshot()
	assert.Len(t, snap.Events, 1)
	assert.Len(t, snap.Bookings, 2, "orphaned booking must not be dropped")
	assert.Equal(t, 1, snap.Metrics.OrphanedBookings)
	assert.True(t, snap.Loading)
}

func TestManager(t *testing.T) {
	backend := memory.New()
	m := NewManager(Backend{Events: backend.Events(), Bookings: backend.Bookings()}, Options{Logger: discardLogger()})
	ctx := context.Background()

	_, err := backend.Events().Insert(ctx, "owner-a", event.CreateInput{Title: "A", Duration: 30})
	require.NoError(t, err)

	t.Run("Open requires owner", func(t *testing.T) {
		_, err := m.Open("")
		assert.ErrorIs(t, err, ErrOwnerRequired)
	})

	a1, err := m.Open("owner-a")
	require.NoError(t, err)
	a2, err := m.Open("owner-a")
	require.NoError(t, err)
	b1, err := m.Open("owner-b")
	require.NoError(t, err)

	t.Run("Sessions are isolated", func(t *testing.T) {
		assert.NotEqual(t, a1.ID, a2.ID)
		assert.Equal(t, 1, a1.Events.Len())
		assert.Equal(t, 0, b1.Events.Len())
		assert.NotSame(t, a1.Events, a2.Events)
	})

	t.Run("Get and Close", func(t *testing.T) {
		got, err := m.Get(b1.ID)
		require.NoError(t, err)
		assert.Same(t, b1, got)

		require.NoError(t, m.Close(b1.ID))
		_, err = m.Get(b1.ID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
		assert.ErrorIs(t, m.Close(b1.ID), ErrSessionNotFound)
		assert.True(t, b1.Closed())
	})

	t.Run("CloseOwner", func(t *testing.T) {
		assert.Equal(t, 2, m.CloseOwner("owner-a"))
		assert.Empty(t, m.Sessions())
		assert.Equal(t, 0, a1.Events.Len())
	})

	t.Run("CloseIdle", func(t *testing.T) {
		s, err := m.Open("owner-a")
		require.NoError(t, err)

		assert.Equal(t, 0, m.CloseIdle(time.Hour))
		s.lastSeen.Store(time.Now().Add(-2 * time.Hour).UnixNano())
		assert.Equal(t, 1, m.CloseIdle(time.Hour))
		assert.True(t, s.Closed())
	})

	t.Run("CloseAll", func(t *testing.T) {
		_, _ = m.Open("owner-a")
		_, _ = m.Open("owner-b")
		assert.Equal(t, 2, m.CloseAll())
	})
}

func TestFeed(t *testing.T) {
	f := NewFeed(2)
	f.Success("one")
	f.Failure("two")
	f.Success("three")

	listed := f.List()
	require.Len(t, listed, 2)
	assert.Equal(t, 2, f.Len(), "listing must not consume")

	got := f.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, "two", got[0].Message)
	assert.Equal(t, LevelFailure, got[0].Level)
	assert.Equal(t, "three", got[1].Message)
	assert.Empty(t, f.Drain())
	assert.Equal(t, 0, f.Len())
}
