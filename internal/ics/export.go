// Package ics renders a session's bookings as an iCalendar feed.
package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/nekogravitycat/booking-sync/internal/booking"
	"github.com/nekogravitycat/booking-sync/internal/event"
)

const productID = "-//booking-sync//bookings//EN"

// Export builds one VEVENT per booking. The event type supplies the summary
// and the duration; a booking whose event type is gone is exported with an
// untitled summary and no end time.
func Export(events []*event.Event, bookings []*booking.Booking, now time.Time) string {
	byID := make(map[string]*event.Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, b := range bookings {
		ve := cal.AddEvent(b.ID + "@booking-sync")
		ve.SetDtStampTime(now.UTC())
		ve.SetStartAt(b.ScheduledAt.UTC())
		ve.SetStatus(status(b.Status))

		summary := "Untitled event"
		if e, ok := byID[b.EventID]; ok {
			summary = e.Title
			ve.SetEndAt(b.ScheduledAt.Add(time.Duration(e.Duration) * time.Minute).UTC())
		}
		if b.ClientName != "" {
			summary += " with " + b.ClientName
		}
		ve.SetSummary(summary)

		if b.Notes != "" {
			ve.SetDescription(b.Notes)
		}
		if b.ClientEmail != "" {
			ve.AddAttendee("mailto:"+b.ClientEmail, ical.WithCN(b.ClientName))
		}
	}
	return cal.Serialize()
}

func status(s booking.Status) ical.ObjectStatus {
	switch s {
	case booking.StatusConfirmed, booking.StatusCompleted:
		return ical.ObjectStatusConfirmed
	case booking.StatusCancelled:
		return ical.ObjectStatusCancelled
	default:
		return ical.ObjectStatusTentative
	}
}
