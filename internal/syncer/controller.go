package syncer

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/nekogravitycat/booking-sync/internal/booking"
	"github.com/nekogravitycat/booking-sync/internal/event"
	"github.com/nekogravitycat/booking-sync/internal/store"
)

// Controller is a session's single point of contact with the remote store.
// It turns remote outcomes into store mutations and notifications; no error
// escapes as a panic.
//
// All commits of one session run under the controller's commit lock, which
// session close also takes, so nothing is applied after close.
type Controller struct {
	ownerID  string
	remote   Backend
	events   *store.Store[*event.Event]
	bookings *store.Store[*booking.Booking]
	sink     NotificationSink
	logger   *log.Logger

	sessionCtx context.Context

	mu     sync.Mutex
	closed bool

	hookMu          sync.RWMutex
	onEventsChanged func()
}

func NewController(
	sessionCtx context.Context,
	ownerID string,
	remote Backend,
	events *store.Store[*event.Event],
	bookings *store.Store[*booking.Booking],
	sink NotificationSink,
	logger *log.Logger,
) *Controller {
	return &Controller{
		ownerID:    ownerID,
		remote:     remote,
		events:     events,
		bookings:   bookings,
		sink:       sink,
		logger:     logger,
		sessionCtx: sessionCtx,
	}
}

// OnEventsChanged registers fn to run after any commit that may have changed
// the set of event ids. fn runs outside the commit lock.
func (c *Controller) OnEventsChanged(fn func()) {
	c.hookMu.Lock()
	c.onEventsChanged = fn
	c.hookMu.Unlock()
}

func (c *Controller) eventsChanged() {
	c.hookMu.RLock()
	fn := c.onEventsChanged
	c.hookMu.RUnlock()
	if fn != nil {
		fn()
	}
}

// bind derives a context that is also cancelled when the session ends.
func (c *Controller) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.sessionCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// ended reports whether the session is closed or closing.
func (c *Controller) ended() bool {
	if c.sessionCtx.Err() != nil {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) commit(apply func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrSessionClosed
	}
	return apply()
}

// clearBookingsIfNoEventsLocked keeps bookings from outliving the last event.
// The clear always bumps the bookings version, which also fences out a
// bookings fetch still in flight for the old event set. Must run inside commit.
func (c *Controller) clearBookingsIfNoEventsLocked() {
	if c.events.Len() == 0 {
		c.bookings.Clear()
	}
}

func (c *Controller) remoteFailure(op, message string, err error) error {
	if c.ended() {
		return ErrSessionClosed
	}
	rerr := newRemoteError(op, err)
	c.logger.Printf("%s failed for owner %s: %v", op, c.ownerID, err)
	c.sink.Failure(message + ": " + rerr.Kind.String())
	return rerr
}

func (c *Controller) commitFailure(op, message string, err error) error {
	if errors.Is(err, ErrSessionClosed) {
		return err
	}
	var keyErr *store.KeyError
	if errors.As(err, &keyErr) {
		c.logger.Printf("%s: remote succeeded but local cache rejected it: %v", op, err)
		c.sink.Failure(message + ": local view out of date, refresh to resync")
		return &ConsistencyError{Op: op, Err: err}
	}
	return err
}

func (c *Controller) validationFailure(op, message string, err error) error {
	c.sink.Failure(message + ": " + err.Error())
	return &ValidationError{Op: op, Err: err}
}

// FetchEvents replaces the events store with the owner's remote events.
// It returns ErrStaleFetch, without applying anything, if the store changed
// while the request was in flight.
func (c *Controller) FetchEvents(ctx context.Context) ([]*event.Event, error) {
	const op = "fetch events"
	ctx, cancel := c.bind(ctx)
	defer cancel()

	version := c.events.Version()
	items, err := c.remote.Events.List(ctx, c.ownerID)
	if err != nil {
		return nil, c.remoteFailure(op, "Failed to load events", err)
	}

	err = c.commit(func() error {
		if !c.events.LoadIfVersion(version, items) {
			return ErrStaleFetch
		}
		c.clearBookingsIfNoEventsLocked()
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStaleFetch) {
			c.logger.Printf("%s for owner %s: dropped stale result", op, c.ownerID)
		}
		return nil, err
	}

	c.eventsChanged()
	return items, nil
}

// FetchBookings replaces the bookings store with the remote bookings of the
// given events. An empty id set is a no-op.
func (c *Controller) FetchBookings(ctx context.Context, eventIDs []string) ([]*booking.Booking, error) {
	const op = "fetch bookings"
	if len(eventIDs) == 0 {
		return []*booking.Booking{}, nil
	}
	ctx, cancel := c.bind(ctx)
	defer cancel()

	version := c.bookings.Version()
	items, err := c.remote.Bookings.ListFiltered(ctx, c.ownerID, eventIDs)
	if err != nil {
		if ctx.Err() != nil && !c.ended() {
			return nil, ErrStaleFetch
		}
		return nil, c.remoteFailure(op, "Failed to load bookings", err)
	}

	err = c.commit(func() error {
		// Superseded by a fetch for a newer event set.
		if ctx.Err() != nil {
			return ErrStaleFetch
		}
		if !c.bookings.LoadIfVersion(version, items) {
			return ErrStaleFetch
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStaleFetch) {
			c.logger.Printf("%s for owner %s: dropped stale result", op, c.ownerID)
		}
		return nil, err
	}
	return items, nil
}

func (c *Controller) CreateEvent(ctx context.Context, in event.CreateInput) (*event.Event, error) {
	const op, msg = "create event", "Failed to create event"
	if err := in.Validate(); err != nil {
		return nil, c.validationFailure(op, msg, err)
	}
	ctx, cancel := c.bind(ctx)
	defer cancel()

	e, err := c.remote.Events.Insert(ctx, c.ownerID, in)
	if err != nil {
		return nil, c.remoteFailure(op, msg, err)
	}
	if err := c.commit(func() error { return c.events.InsertFront(e) }); err != nil {
		return nil, c.commitFailure(op, msg, err)
	}

	c.sink.Success("Event created")
	c.eventsChanged()
	return e, nil
}

func (c *Controller) UpdateEvent(ctx context.Context, id string, p event.Patch) (*event.Event, error) {
	const op, msg = "update event", "Failed to update event"
	if err := p.Validate(); err != nil {
		return nil, c.validationFailure(op, msg, err)
	}
	ctx, cancel := c.bind(ctx)
	defer cancel()

	e, err := c.remote.Events.Patch(ctx, c.ownerID, id, p)
	if err != nil {
		return nil, c.remoteFailure(op, msg, err)
	}
	if err := c.commit(func() error { return c.events.ReplaceByID(id, e) }); err != nil {
		return nil, c.commitFailure(op, msg, err)
	}

	c.sink.Success("Event updated")
	return e, nil
}

// DeleteEvent removes the event remotely and locally. Deleting the last event
// clears the bookings store in the same commit. Bookings of other deleted
// events stay in place as orphans.
func (c *Controller) DeleteEvent(ctx context.Context, id string) error {
	const op, msg = "delete event", "Failed to delete event"
	ctx, cancel := c.bind(ctx)
	defer cancel()

	if err := c.remote.Events.Delete(ctx, c.ownerID, id); err != nil {
		return c.remoteFailure(op, msg, err)
	}
	err := c.commit(func() error {
		// A concurrent fetch may already have dropped it.
		if c.events.Has(id) {
			if err := c.events.RemoveByID(id); err != nil {
				return err
			}
		}
		c.clearBookingsIfNoEventsLocked()
		return nil
	})
	if err != nil {
		return c.commitFailure(op, msg, err)
	}

	c.sink.Success("Event deleted")
	c.eventsChanged()
	return nil
}

func (c *Controller) UpdateBookingStatus(ctx context.Context, id string, status booking.Status) (*booking.Booking, error) {
	const op, msg = "update booking status", "Failed to update booking status"
	if !status.Valid() {
		return nil, c.validationFailure(op, msg, booking.ErrInvalidStatus)
	}
	ctx, cancel := c.bind(ctx)
	defer cancel()

	b, err := c.remote.Bookings.Patch(ctx, c.ownerID, id, booking.Patch{Status: &status})
	if err != nil {
		return nil, c.remoteFailure(op, msg, err)
	}
	if err := c.commit(func() error { return c.bookings.ReplaceByID(id, b) }); err != nil {
		return nil, c.commitFailure(op, msg, err)
	}

	c.sink.Success("Booking status updated")
	return b, nil
}

// snapshot reads both stores under the commit lock so the pair is consistent.
func (c *Controller) snapshot() ([]*event.Event, []*booking.Booking) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events.List(), c.bookings.List()
}

// close marks the controller closed and clears both stores.
func (c *Controller) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.events.Clear()
	c.bookings.Clear()
}
