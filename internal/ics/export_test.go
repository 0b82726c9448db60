package ics

import (
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/booking-sync/internal/booking"
	"github.com/nekogravitycat/booking-sync/internal/event"
)

func TestExport(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	events := []*event.Event{{ID: "e1", Title: "Consult", Duration: 45}}
	bookings := []*booking.Booking{
		{ID: "b1", EventID: "e1", ClientName: "Ada", ClientEmail: "ada@example.com", ScheduledAt: at, Status: booking.StatusConfirmed},
		{ID: "b2", EventID: "gone", ClientEmail: "bob@example.com", ScheduledAt: at, Status: booking.StatusCancelled, Notes: "called off"},
	}

	body := Export(events, bookings, at)
	cal, err := ical.ParseCalendar(strings.NewReader(body))
	require.NoError(t, err)

	got := cal.Events()
	require.Len(t, got, 2)

	t.Run("Known event type", func(t *testing.T) {
		ve := got[0]
		assert.Equal(t, "b1@booking-sync", ve.Id())
		assert.Equal(t, "Consult with Ada", ve.GetProperty(ical.ComponentPropertySummary).Value)
		assert.Equal(t, "CONFIRMED", ve.GetProperty(ical.ComponentPropertyStatus).Value)

		end, err := ve.GetEndAt()
		require.NoError(t, err)
		assert.True(t, end.Equal(at.Add(45*time.Minute)))
		assert.Contains(t, ve.GetProperty(ical.ComponentPropertyAttendee).Value, "ada@example.com")
	})

	t.Run("Orphaned booking", func(t *testing.T) {
		ve := got[1]
		assert.Equal(t, "Untitled event", ve.GetProperty(ical.ComponentPropertySummary).Value)
		assert.Equal(t, "CANCELLED", ve.GetProperty(ical.ComponentPropertyStatus).Value)
		assert.Nil(t, ve.GetProperty(ical.ComponentPropertyDtEnd))
		assert.Equal(t, "called off", ve.GetProperty(ical.ComponentPropertyDescription).Value)
	})
}

func TestExportEmpty(t *testing.T) {
	body := Export(nil, nil, time.Now())
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.NotContains(t, body, "BEGIN:VEVENT")
}
