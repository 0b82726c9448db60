package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/booking-sync/internal/auth"
	"github.com/nekogravitycat/booking-sync/internal/booking"
	"github.com/nekogravitycat/booking-sync/internal/ics"
	"github.com/nekogravitycat/booking-sync/internal/pkg/request"
	"github.com/nekogravitycat/booking-sync/internal/pkg/response"
	"github.com/nekogravitycat/booking-sync/internal/syncer"
)

const sessionKey = "syncSession"

type Handler struct {
	sessions *syncer.Manager
}

func NewHandler(sessions *syncer.Manager) *Handler {
	return &Handler{sessions: sessions}
}

// RequireSession resolves the session named by the token. It MUST be used
// after auth.AuthRequired or auth.FeedAuthRequired.
func (h *Handler) RequireSession(c *gin.Context) {
	s, err := h.sessions.Get(auth.GetSessionID(c))
	if err != nil || s.OwnerID != auth.GetOwnerID(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session is closed or unknown, sign in again"})
		return
	}
	c.Set(sessionKey, s)
	c.Next()
}

func currentSession(c *gin.Context) *syncer.Session {
	return c.MustGet(sessionKey).(*syncer.Session)
}

// writeError renders controller failures. Remote kinds map to their own
// statuses; a desynchronized cache is a server-side fault.
func writeError(c *gin.Context, err error) {
	var verr *syncer.ValidationError
	var rerr *syncer.RemoteError
	var cerr *syncer.ConsistencyError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Err.Error()})
	case errors.As(err, &cerr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "local view out of date, refetch to resync"})
	case errors.As(err, &rerr):
		status := http.StatusBadGateway
		switch rerr.Kind {
		case syncer.RemoteNotFound:
			status = http.StatusNotFound
		case syncer.RemoteUnauthorized:
			status = http.StatusForbidden
		case syncer.RemoteConflict:
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": rerr.Kind.String()})
	default:
		response.Error(c, err)
	}
}

// Dashboard returns a consistent snapshot of the session with its metrics.
func (h *Handler) Dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, NewDashboardResponse(currentSession(c).Snapshot()))
}

func (h *Handler) ListEvents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": NewEventResponses(currentSession(c).Events.List())})
}

func (h *Handler) CreateEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body", "details": err.Error()})
		return
	}

	e, err := currentSession(c).Controller.CreateEvent(c.Request.Context(), req.Input())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewEventResponse(e))
}

func (h *Handler) UpdateEvent(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body", "details": err.Error()})
		return
	}

	e, err := currentSession(c).Controller.UpdateEvent(c.Request.Context(), uri.ID, req.Patch())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewEventResponse(e))
}

func (h *Handler) DeleteEvent(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	if err := currentSession(c).Controller.DeleteEvent(c.Request.Context(), uri.ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListBookings(c *gin.Context) {
	s := currentSession(c)
	snap := s.Snapshot()
	c.JSON(http.StatusOK, gin.H{"items": NewBookingResponses(snap.Bookings, snap.Events)})
}

func (h *Handler) UpdateBookingStatus(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var req UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body", "details": err.Error()})
		return
	}

	s := currentSession(c)
	b, err := s.Controller.UpdateBookingStatus(c.Request.Context(), uri.ID, booking.Status(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}

	titles := make(map[string]string)
	for _, e := range s.Events.List() {
		titles[e.ID] = e.Title
	}
	c.JSON(http.StatusOK, NewBookingResponse(b, titles))
}

func (h *Handler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, NewMetricsResponse(currentSession(c).Snapshot().Metrics))
}

// Refetch re-runs both fetch stages and returns the resulting dashboard. A
// fetch that stayed stale through its retries lost to newer local changes,
// which the dashboard already shows.
func (h *Handler) Refetch(c *gin.Context) {
	s := currentSession(c)
	if err := s.Refetch(); err != nil && !errors.Is(err, syncer.ErrStaleFetch) {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewDashboardResponse(s.Snapshot()))
}

// Notifications lists the queued notifications and leaves them queued.
func (h *Handler) Notifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": NewNotificationResponses(currentSession(c).Notifications.List())})
}

// DrainNotifications returns the queued notifications and empties the feed.
func (h *Handler) DrainNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": NewNotificationResponses(currentSession(c).Notifications.Drain())})
}

func (h *Handler) Calendar(c *gin.Context) {
	snap := currentSession(c).Snapshot()
	body := ics.Export(snap.Events, snap.Bookings, time.Now())
	c.Header("Content-Disposition", `attachment; filename="bookings.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}
