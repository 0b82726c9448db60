package booking

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/booking-sync/internal/pkg/apperror"
)

var ErrInvalidStatus = apperror.New(http.StatusBadRequest, "invalid booking status")

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Booking is an appointment a client made against an event type.
// Bookings are created outside this service and only ever arrive by fetch.
type Booking struct {
	ID          string
	EventID     string
	ClientName  string
	ClientEmail string
	ScheduledAt time.Time
	Status      Status
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (b *Booking) Key() string { return b.ID }

// Patch lists the booking fields that may be changed from here.
type Patch struct {
	Status *Status
}
