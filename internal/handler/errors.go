package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/ticketflow/internal/model"
)

// NewHTTPErrorHandler maps domain errors to status codes and renders the
// {success:false,error} envelope. Unexpected errors are logged and
// answered with a generic 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = fail(c, code, msg)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest, inputMessage(err)
	case errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, model.ErrTokenInvalid):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, model.ErrLockedAccount):
		return http.StatusLocked, "account locked after too many failed attempts"
	case errors.Is(err, model.ErrInactiveAccount):
		return http.StatusForbidden, "account is not active"
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, model.ErrSelfModificationDenied):
		return http.StatusForbidden, "you cannot modify your own account"
	case errors.Is(err, model.ErrDuplicateEmail):
		return http.StatusConflict, "email already registered"
	case errors.Is(err, model.ErrQuotaExceeded):
		return http.StatusConflict, "not enough tickets left"
	case errors.Is(err, model.ErrPerUserCapExceeded):
		return http.StatusConflict, "per-customer ticket limit reached"
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict, inputMessage(err)
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not found"
	}

	// includes model.ErrCorruptCredential: a damaged digest is a data
	// problem, not a client error
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")
	return http.StatusInternalServerError, "internal server error"
}

// inputMessage strips the sentinel prefix from a wrapped validation or
// conflict error so the client sees only the detail.
func inputMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{model.ErrInvalidInput, model.ErrConflict} {
		if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
			return rest
		}
	}
	return msg
}

var errArtistID = errors.New("artist_id must be a positive integer")

// invalid marks a validator error as bad input.
func invalid(err error) error {
	return fmt.Errorf("%w: %s", model.ErrInvalidInput, err.Error())
}
