package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/forum/internal/forum/service"
	"github.com/aussiebroadwan/forum/pkg/forumsdk"
	"github.com/aussiebroadwan/forum/pkg/slogx"
)

// writeError maps a service failure to its HTTP response. Anything that is
// not a classified *service.Error is logged and hidden behind a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var se *service.Error
	if !errors.As(err, &se) {
		slogx.FromContext(r.Context()).Error("request failed", slog.Any("error", err))
		forumsdk.NewAPIError(http.StatusInternalServerError, "Internal server error").WriteError(w)
		return
	}

	var code int
	switch {
	case errors.Is(se.Kind, service.ErrConflict):
		code = http.StatusConflict
	case errors.Is(se.Kind, service.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(se.Kind, service.ErrUnauthorized):
		code = http.StatusUnauthorized
	case errors.Is(se.Kind, service.ErrForbidden):
		code = http.StatusForbidden
	default:
		code = http.StatusInternalServerError
	}

	apiErr := forumsdk.NewAPIError(code, se.Message)
	if se.Field != "" {
		apiErr.Errors = map[string]string{se.Field: se.Message}
	}
	apiErr.WriteError(w)
}

func writeBadRequest(w http.ResponseWriter, err error) {
	forumsdk.NewAPIError(http.StatusBadRequest, err.Error()).WriteError(w)
}
