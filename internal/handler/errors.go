package handler

import (
	"errors"
	"net/http"

	"github.com/Sherrmann013/OktaDeploy1-sub002/internal/registry"
	"github.com/Sherrmann013/OktaDeploy1-sub002/internal/tenantdb"
)

// statusForError maps routing subsystem errors onto HTTP statuses. Anything
// unrecognized is a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, tenantdb.ErrTenantNotFound), errors.Is(err, registry.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, tenantdb.ErrTenantUnreachable):
		return http.StatusServiceUnavailable
	case errors.Is(err, registry.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, tenantdb.ErrProvisioning):
		return http.StatusInternalServerError
	case errors.Is(err, registry.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
