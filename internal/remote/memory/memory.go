// Package memory is an in-process implementation of the remote event and
// booking tables. It behaves like the Postgres repositories (owner scoping,
// ordering, not-found reporting) and is used for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nekogravitycat/booking-sync/internal/booking"
	"github.com/nekogravitycat/booking-sync/internal/event"
	"github.com/nekogravitycat/booking-sync/internal/owner"
	"github.com/nekogravitycat/booking-sync/internal/remote"
)

type Backend struct {
	mu       sync.Mutex
	events   []*event.Event // insertion order
	bookings []*booking.Booking
	owners   []*owner.Owner
	now      func() time.Time
}

func New() *Backend {
	return &Backend{now: func() time.Time { return time.Now().UTC() }}
}

// Events returns the event table view of the backend.
func (b *Backend) Events() *EventTable { return &EventTable{b: b} }

// Bookings returns the booking table view of the backend.
func (b *Backend) Bookings() *BookingTable { return &BookingTable{b: b} }

// Owners returns the owner account table view of the backend.
func (b *Backend) Owners() *OwnerTable { return &OwnerTable{b: b} }

// AddBooking stores a booking as if a client had made it. Missing id,
// status and timestamps are filled in.
func (b *Backend) AddBooking(bk booking.Booking) *booking.Booking {
	b.mu.Lock()
	defer b.mu.Unlock()

	if bk.ID == "" {
		bk.ID = uuid.NewString()
	}
	if bk.Status == "" {
		bk.Status = booking.StatusPending
	}
	now := b.now()
	if bk.CreatedAt.IsZero() {
		bk.CreatedAt = now
	}
	bk.UpdatedAt = now
	b.bookings = append(b.bookings, &bk)
	c := bk
	return &c
}

func (b *Backend) findEvent(id string) (int, *event.Event) {
	for i, e := range b.events {
		if e.ID == id {
			return i, e
		}
	}
	return -1, nil
}

func (b *Backend) ownsEvent(ownerID, eventID string) bool {
	_, e := b.findEvent(eventID)
	return e != nil && e.OwnerID == ownerID
}

type EventTable struct {
	b *Backend
}

func (t *EventTable) List(ctx context.Context, ownerID string) ([]*event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.b.mu.Lock()
	defer t.b.mu.Unlock()

	out := make([]*event.Event, 0)
	for i := len(t.b.events) - 1; i >= 0; i-- {
		if e := t.b.events[i]; e.OwnerID == ownerID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

func (t *EventTable) Insert(ctx context.Context, ownerID string, in event.CreateInput) (*event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" || in.Duration <= 0 {
		return nil, fmt.Errorf("insert event: %w", remote.ErrConflict)
	}
	t.b.mu.Lock()
	defer t.b.mu.Unlock()

	now := t.b.now()
	e := &event.Event{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Duration:    in.Duration,
		IsActive:    in.Active(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	t.b.events = append(t.b.events, e)
	c := *e
	return &c, nil
}

func (t *EventTable) Patch(ctx context.Context, ownerID, id string, p event.Patch) (*event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.b.mu.Lock()
	defer t.b.mu.Unlock()

	i, e := t.b.findEvent(id)
	if e == nil || e.OwnerID != ownerID {
		return nil, fmt.Errorf("patch event %s: %w", id, remote.ErrNotFound)
	}
	updated := p.Apply(*e)
	updated.UpdatedAt = t.b.now()
	t.b.events[i] = &updated
	c := updated
	return &c, nil
}

func (t *EventTable) Delete(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.b.mu.Lock()
	defer t.b.mu.Unlock()

	i, e := t.b.findEvent(id)
	if e == nil || e.OwnerID != ownerID {
		return fmt.Errorf("delete event %s: %w", id, remote.ErrNotFound)
	}
	t.b.events = append(t.b.events[:i], t.b.events[i+1:]...)

	// Bookings follow their event, like an ON DELETE CASCADE key.
	kept := t.b.bookings[:0]
	for _, bk := range t.b.bookings {
		if bk.EventID != id {
			kept = append(kept, bk)
		}
	}
	t.b.bookings = kept
	return nil
}

type BookingTable struct {
	b *Backend
}

func (t *BookingTable) ListFiltered(ctx context.Context, ownerID string, eventIDs []string) ([]*booking.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.b.mu.Lock()
	defer t.b.mu.Unlock()

	wanted := make(map[string]bool, len(eventIDs))
	for _, id := range eventIDs {
		wanted[id] = true
	}

	out := make([]*booking.Booking, 0)
	for _, bk := range t.b.bookings {
		if wanted[bk.EventID] && t.b.ownsEvent(ownerID, bk.EventID) {
			c := *bk
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledAt.After(out[j].ScheduledAt)
	})
	return out, nil
}

func (t *BookingTable) Patch(ctx context.Context, ownerID, id string, p booking.Patch) (*booking.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Status == nil || !p.Status.Valid() {
		return nil, booking.ErrInvalidStatus
	}
	t.b.mu.Lock()
	defer t.b.mu.Unlock()

	for i, bk := range t.b.bookings {
		if bk.ID != id {
			continue
		}
		if !t.b.ownsEvent(ownerID, bk.EventID) {
			break
		}
		updated := *bk
		updated.Status = *p.Status
		updated.UpdatedAt = t.b.now()
		t.b.bookings[i] = &updated
		c := updated
		return &c, nil
	}
	return nil, fmt.Errorf("patch booking %s: %w", id, remote.ErrNotFound)
}
