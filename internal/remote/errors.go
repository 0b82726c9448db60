// Package remote holds the error vocabulary shared by every backend of the
// remote table service. Backends return these sentinels (possibly wrapped) so
// the sync layer can classify a failed round-trip without knowing which
// backend produced it.
package remote

import (
	"net/http"

	"github.com/nekogravitycat/booking-sync/internal/pkg/apperror"
)

var (
	ErrNotFound     = apperror.New(http.StatusNotFound, "record not found")
	ErrUnauthorized = apperror.New(http.StatusForbidden, "not allowed for this owner")
	ErrConflict     = apperror.New(http.StatusConflict, "record conflicts with existing data")
	ErrUnavailable  = apperror.New(http.StatusBadGateway, "remote store unavailable")
)
