package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the dashboard routes. Every route needs a live session.
// Only the calendar feed accepts feedAuthMiddleware, which reads the token from
// the query string.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, feedAuthMiddleware gin.HandlerFunc) {
	g.GET("/calendar.ics", feedAuthMiddleware, h.RequireSession, h.Calendar)

	s := g.Group("")
	s.Use(authMiddleware, h.RequireSession)
	{
		s.GET("/dashboard", h.Dashboard)
		s.GET("/metrics", h.Metrics)
		s.POST("/refetch", h.Refetch)
		s.GET("/notifications", h.Notifications)
		s.POST("/notifications/drain", h.DrainNotifications)

		s.GET("/events", h.ListEvents)
		s.POST("/events", h.CreateEvent)
		s.PATCH("/events/:id", h.UpdateEvent)
		s.DELETE("/events/:id", h.DeleteEvent)

		s.GET("/bookings", h.ListBookings)
		s.PATCH("/bookings/:id/status", h.UpdateBookingStatus)
	}
}
