package event

import (
	"net/http"
	"strings"
	"time"

	"github.com/nekogravitycat/booking-sync/internal/pkg/apperror"
)

var (
	ErrTitleRequired   = apperror.New(http.StatusBadRequest, "title is required")
	ErrInvalidDuration = apperror.New(http.StatusBadRequest, "duration must be a positive number of minutes")
	ErrEmptyPatch      = apperror.New(http.StatusBadRequest, "no fields to update")
)

// Event is a bookable event type owned by one owner.
type Event struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Duration    int // minutes
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (e *Event) Key() string { return e.ID }

type CreateInput struct {
	Title       string
	Description string
	Duration    int
	IsActive    *bool // defaults to true
}

// Validate checks the fields required before the event is sent to the remote store.
func (in CreateInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrTitleRequired
	}
	if in.Duration <= 0 {
		return ErrInvalidDuration
	}
	return nil
}

// Active reports the effective active flag of the input.
func (in CreateInput) Active() bool {
	return in.IsActive == nil || *in.IsActive
}

// Patch lists the fields to change; nil fields are left as they are.
type Patch struct {
	Title       *string
	Description *string
	Duration    *int
	IsActive    *bool
}

func (p Patch) Validate() error {
	if p.Title == nil && p.Description == nil && p.Duration == nil && p.IsActive == nil {
		return ErrEmptyPatch
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrTitleRequired
	}
	if p.Duration != nil && *p.Duration <= 0 {
		return ErrInvalidDuration
	}
	return nil
}

// Apply returns a copy of e with the patch applied.
func (p Patch) Apply(e Event) Event {
	if p.Title != nil {
		e.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Duration != nil {
		e.Duration = *p.Duration
	}
	if p.IsActive != nil {
		e.IsActive = *p.IsActive
	}
	return e
}
