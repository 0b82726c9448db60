package metrics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nekogravitycat/booking-sync/internal/booking"
	"github.com/nekogravitycat/booking-sync/internal/event"
)

func bk(id, eventID, email string, st booking.Status) *booking.Booking {
	return &booking.Booking{ID: id, EventID: eventID, ClientEmail: email, Status: st}
}

func TestCompute(t *testing.T) {
	e1 := &event.Event{ID: "e1", IsActive: true}
	e2 := &event.Event{ID: "e2", IsActive: false}

	tests := []struct {
		name     string
		events   []*event.Event
		bookings []*booking.Booking
		want     Metrics
	}{
		{
			name: "Empty snapshot",
			want: Metrics{},
		},
		{
			name:     "Single pending booking",
			events:   []*event.Event{e1},
			bookings: []*booking.Booking{bk("b1", "e1", "a@x.com", booking.StatusPending)},
			want: Metrics{
				TotalEvents: 1, ActiveEvents: 1, TotalBookings: 1, UniqueClients: 1,
			},
		},
		{
			name:     "Single confirmed booking",
			events:   []*event.Event{e1},
			bookings: []*booking.Booking{bk("b1", "e1", "a@x.com", booking.StatusConfirmed)},
			want: Metrics{
				TotalEvents: 1, ActiveEvents: 1, TotalBookings: 1, ConfirmedBookings: 1,
				ConversionRate: 100, UniqueClients: 1,
			},
		},
		{
			name:   "Rounding and case-sensitive emails",
			events: []*event.Event{e1, e2},
			bookings: []*booking.Booking{
				bk("b1", "e1", "a@x.com", booking.StatusConfirmed),
				bk("b2", "e1", "A@x.com", booking.StatusPending),
				bk("b3", "e2", "a@x.com", booking.StatusCancelled),
			},
			want: Metrics{
				TotalEvents: 2, ActiveEvents: 1, TotalBookings: 3, ConfirmedBookings: 1,
				ConversionRate: 33, UniqueClients: 2,
			},
		},
		{
			name:   "Two of three confirmed rounds up",
			events: []*event.Event{e1},
			bookings: []*booking.Booking{
				bk("b1", "e1", "a@x.com", booking.StatusConfirmed),
				bk("b2", "e1", "b@x.com", booking.StatusConfirmed),
				bk("b3", "e1", "c@x.com", booking.StatusCompleted),
			},
			want: Metrics{
				TotalEvents: 1, ActiveEvents: 1, TotalBookings: 3, ConfirmedBookings: 2,
				ConversionRate: 67, UniqueClients: 3,
			},
		},
		{
			name:     "Orphaned booking is counted, not dropped",
			events:   []*event.Event{e1},
			bookings: []*booking.Booking{bk("b1", "gone", "a@x.com", booking.StatusPending)},
			want: Metrics{
				TotalEvents: 1, ActiveEvents: 1, TotalBookings: 1, UniqueClients: 1, OrphanedBookings: 1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.events, tt.bookings)

			assert.Equal(t, tt.want.TotalEvents, got.TotalEvents)
			assert.Equal(t, tt.want.ActiveEvents, got.ActiveEvents)
			assert.Equal(t, tt.want.TotalBookings, got.TotalBookings)
			assert.Equal(t, tt.want.ConfirmedBookings, got.ConfirmedBookings)
			assert.Equal(t, tt.want.ConversionRate, got.ConversionRate)
			assert.Equal(t, tt.want.UniqueClients, got.UniqueClients)
			assert.Equal(t, tt.want.OrphanedBookings, got.OrphanedBookings)
			assert.Len(t, got.ByStatus, 4)
		})
	}
}

func TestComputeBounds(t *testing.T) {
	statuses := booking.Statuses
	for n := 0; n < 40; n++ {
		var bookings []*booking.Booking
		for i := 0; i < n; i++ {
			bookings = append(bookings, bk(
				fmt.Sprintf("b%d", i), "e1", fmt.Sprintf("c%d@x.com", i%5), statuses[(i*7+n)%len(statuses)],
			))
		}

		m := Compute(nil, bookings)
		assert.GreaterOrEqual(t, m.ConversionRate, 0)
		assert.LessOrEqual(t, m.ConversionRate, 100)
		assert.LessOrEqual(t, m.UniqueClients, m.TotalBookings)
		if m.TotalBookings == 0 {
			assert.Equal(t, 0, m.ConversionRate)
		}

		sum := 0
		for _, c := range m.ByStatus {
			sum += c
		}
		assert.Equal(t, m.TotalBookings, sum)
	}
}
