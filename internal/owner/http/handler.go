package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/booking-sync/internal/auth"
	"github.com/nekogravitycat/booking-sync/internal/owner"
	"github.com/nekogravitycat/booking-sync/internal/syncer"
)

type OwnerHandler struct {
	ownerService owner.Service
	sessions     *syncer.Manager
	jwtManager   *auth.JWTManager
}

func NewHandler(ownerService owner.Service, sessions *syncer.Manager, jwtManager *auth.JWTManager) *OwnerHandler {
	return &OwnerHandler{
		ownerService: ownerService,
		sessions:     sessions,
		jwtManager:   jwtManager,
	}
}

// Register creates an owner account. It does not sign the owner in.
func (h *OwnerHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	o, err := h.ownerService.Register(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		switch {
		case errors.Is(err, owner.ErrEmailAlreadyUsed):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, owner.ErrEmailRequired), errors.Is(err, owner.ErrPasswordTooShort):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"owner": NewOwnerResponse(o)})
}

// Login authenticates the owner and opens a sync session whose initial
// events -> bookings load has run by the time the response is written.
func (h *OwnerHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	o, err := h.ownerService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, owner.ErrInvalidCredentials),
			errors.Is(err, owner.ErrNotFound),
			errors.Is(err, owner.ErrInactiveOwner):
			// Do not reveal which condition failed
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		}
		return
	}

	s, err := h.sessions.Open(o.ID)
	if err != nil {
		log.Printf("open session for owner %s failed: %v", o.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	token, err := h.jwtManager.GenerateAccessToken(o.ID, s.ID)
	if err != nil {
		_ = h.sessions.Close(s.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		SessionID:   s.ID,
		Owner:       NewOwnerResponse(o),
	})
}

// Logout closes the caller's session. Its cached data is discarded and any
// in-flight result for it is dropped.
func (h *OwnerHandler) Logout(c *gin.Context) {
	s, err := h.sessions.Get(auth.GetSessionID(c))
	if err != nil || s.OwnerID != auth.GetOwnerID(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session is closed or unknown"})
		return
	}
	_ = h.sessions.Close(s.ID)
	c.Status(http.StatusNoContent)
}

// Me returns the signed-in owner.
func (h *OwnerHandler) Me(c *gin.Context) {
	ownerID := auth.GetOwnerID(c)
	o, err := h.ownerService.GetByID(c.Request.Context(), ownerID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "owner not found"})
		return
	}

	c.JSON(http.StatusOK, MeResponse{
		Owner:     NewOwnerResponse(o),
		SessionID: auth.GetSessionID(c),
	})
}
