package http

import (
	"time"

	"github.com/nekogravitycat/booking-sync/internal/booking"
	"github.com/nekogravitycat/booking-sync/internal/event"
	"github.com/nekogravitycat/booking-sync/internal/metrics"
	"github.com/nekogravitycat/booking-sync/internal/syncer"
)

// CreateEventRequest carries no binding rules: title and duration are
// checked by the controller so the failure also reaches the notification feed.
type CreateEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	IsActive    *bool  `json:"is_active"`
}

func (r CreateEventRequest) Input() event.CreateInput {
	return event.CreateInput{
		Title:       r.Title,
		Description: r.Description,
		Duration:    r.Duration,
		IsActive:    r.IsActive,
	}
}

// UpdateEventRequest uses pointers to distinguish "not sent" from zero values.
type UpdateEventRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Duration    *int    `json:"duration"`
	IsActive    *bool   `json:"is_active"`
}

func (r UpdateEventRequest) Patch() event.Patch {
	return event.Patch{
		Title:       r.Title,
		Description: r.Description,
		Duration:    r.Duration,
		IsActive:    r.IsActive,
	}
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type EventResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    int       `json:"duration"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewEventResponse(e *event.Event) EventResponse {
	return EventResponse{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Duration:    e.Duration,
		IsActive:    e.IsActive,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func NewEventResponses(events []*event.Event) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, NewEventResponse(e))
	}
	return out
}

// BookingResponse is a booking joined with the title of its event type.
// Orphaned is set when the event is no longer in the session's events.
type BookingResponse struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	EventTitle  *string   `json:"event_title"`
	Orphaned    bool      `json:"orphaned"`
	ClientName  string    `json:"client_name"`
	ClientEmail string    `json:"client_email"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking, titles map[string]string) BookingResponse {
	resp := BookingResponse{
		ID:          b.ID,
		EventID:     b.EventID,
		ClientName:  b.ClientName,
		ClientEmail: b.ClientEmail,
		ScheduledAt: b.ScheduledAt,
		Status:      string(b.Status),
		Notes:       b.Notes,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	if title, ok := titles[b.EventID]; ok {
		resp.EventTitle = &title
	} else {
		resp.Orphaned = true
	}
	return resp
}

func NewBookingResponses(bookings []*booking.Booking, events []*event.Event) []BookingResponse {
	titles := make(map[string]string, len(events))
	for _, e := range events {
		titles[e.ID] = e.Title
	}
	out := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, NewBookingResponse(b, titles))
	}
	return out
}

type MetricsResponse struct {
	TotalEvents       int            `json:"total_events"`
	ActiveEvents      int            `json:"active_events"`
	TotalBookings     int            `json:"total_bookings"`
	ConfirmedBookings int            `json:"confirmed_bookings"`
	ConversionRate    int            `json:"conversion_rate"`
	UniqueClients     int            `json:"unique_clients"`
	OrphanedBookings  int            `json:"orphaned_bookings"`
	ByStatus          map[string]int `json:"by_status"`
}

func NewMetricsResponse(m metrics.Metrics) MetricsResponse {
	byStatus := make(map[string]int, len(m.ByStatus))
	for st, n := range m.ByStatus {
		byStatus[string(st)] = n
	}
	return MetricsResponse{
		TotalEvents:       m.TotalEvents,
		ActiveEvents:      m.ActiveEvents,
		TotalBookings:     m.TotalBookings,
		ConfirmedBookings: m.ConfirmedBookings,
		ConversionRate:    m.ConversionRate,
		UniqueClients:     m.UniqueClients,
		OrphanedBookings:  m.OrphanedBookings,
		ByStatus:          byStatus,
	}
}

type DashboardResponse struct {
	Events   []EventResponse   `json:"events"`
	Bookings []BookingResponse `json:"bookings"`
	Loading  bool              `json:"loading"`
	State    string            `json:"state"`
	Metrics  MetricsResponse   `json:"metrics"`
}

func NewDashboardResponse(snap syncer.Snapshot) DashboardResponse {
	return DashboardResponse{
		Events:   NewEventResponses(snap.Events),
		Bookings: NewBookingResponses(snap.Bookings, snap.Events),
		Loading:  snap.Loading,
		State:    snap.State.String(),
		Metrics:  NewMetricsResponse(snap.Metrics),
	}
}

type NotificationResponse struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

func NewNotificationResponses(ns []syncer.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(ns))
	for _, n := range ns {
		out = append(out, NotificationResponse{Level: string(n.Level), Message: n.Message, At: n.At})
	}
	return out
}
