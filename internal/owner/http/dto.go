package http

import (
	"time"

	"github.com/nekogravitycat/booking-sync/internal/owner"
)

// OwnerResponse is the shape of owner data returned in API responses.
type OwnerResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	DisplayName *string    `json:"display_name"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

func NewOwnerResponse(o *owner.Owner) OwnerResponse {
	var lastLoginAt *time.Time
	if o.LastLoginAt != nil {
		ll := *o.LastLoginAt
		lastLoginAt = &ll
	}

	return OwnerResponse{
		ID:          o.ID,
		Email:       o.Email,
		DisplayName: o.DisplayName,
		CreatedAt:   o.CreatedAt,
		LastLoginAt: lastLoginAt,
	}
}

// RegisterRequest defines the payload for owner registration.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name"`
}

// LoginRequest defines the payload for owner login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse returns the token, the sync session it is bound to, and the owner.
type LoginResponse struct {
	AccessToken string        `json:"access_token"`
	SessionID   string        `json:"session_id"`
	Owner       OwnerResponse `json:"owner"`
}

type MeResponse struct {
	Owner     OwnerResponse `json:"owner"`
	SessionID string        `json:"session_id"`
}
