// Package syncer keeps an owner session's local view of events and bookings
// consistent with the remote table service.
//
// A Session owns two stores, a Controller that performs every remote
// round-trip and commits the results, and a Scheduler that sequences the
// events -> bookings fetch. Sessions are created and torn down by a Manager.
package syncer

import (
	"context"

	"github.com/nekogravitycat/booking-sync/internal/booking"
	"github.com/nekogravitycat/booking-sync/internal/event"
)

// EventRemote is the remote event table. Implemented by event.Repository and
// the in-memory backend.
type EventRemote interface {
	List(ctx context.Context, ownerID string) ([]*event.Event, error)
	Insert(ctx context.Context, ownerID string, in event.CreateInput) (*event.Event, error)
	Patch(ctx context.Context, ownerID, id string, p event.Patch) (*event.Event, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// BookingRemote is the remote booking table.
type BookingRemote interface {
	ListFiltered(ctx context.Context, ownerID string, eventIDs []string) ([]*booking.Booking, error)
	Patch(ctx context.Context, ownerID, id string, p booking.Patch) (*booking.Booking, error)
}

// Backend bundles the two remote tables a session talks to.
type Backend struct {
	Events   EventRemote
	Bookings BookingRemote
}
