// Package metrics computes dashboard statistics from a snapshot of an owner's
// events and bookings. Nothing is cached; callers recompute on every read.
package metrics

import (
	"math"

	"github.com/nekogravitycat/booking-sync/internal/booking"
	"github.com/nekogravitycat/booking-sync/internal/event"
)

type Metrics struct {
	TotalEvents       int
	ActiveEvents      int
	TotalBookings     int
	ConfirmedBookings int
	// ConversionRate is the rounded percentage of confirmed bookings, 0 when there are none.
	ConversionRate   int
	UniqueClients    int
	OrphanedBookings int
	ByStatus         map[booking.Status]int
}

// Compute derives Metrics from the given snapshots. Client emails are
// compared exactly, without case folding.
func Compute(events []*event.Event, bookings []*booking.Booking) Metrics {
	m := Metrics{
		TotalEvents:   len(events),
		TotalBookings: len(bookings),
		ByStatus:      make(map[booking.Status]int, len(booking.Statuses)),
	}
	for _, st := range booking.Statuses {
		m.ByStatus[st] = 0
	}

	known := make(map[string]bool, len(events))
	for _, e := range events {
		known[e.ID] = true
		if e.IsActive {
			m.ActiveEvents++
		}
	}

	clients := make(map[string]struct{}, len(bookings))
	for _, b := range bookings {
		if b.Status == booking.StatusConfirmed {
			m.ConfirmedBookings++
		}
		if b.Status.Valid() {
			m.ByStatus[b.Status]++
		}
		if !known[b.EventID] {
			m.OrphanedBookings++
		}
		clients[b.ClientEmail] = struct{}{}
	}
	m.UniqueClients = len(clients)

	if m.TotalBookings > 0 {
		m.ConversionRate = int(math.Round(float64(m.ConfirmedBookings) / float64(m.TotalBookings) * 100))
	}
	return m
}
