package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/ticketflow/internal/model"
	"github.com/iliyamo/ticketflow/internal/service"
)

// EventOwners looks up the artists linked to an event.
type EventOwners interface {
	ArtistIDs(ctx context.Context, eventID uint64) ([]uint64, error)
}

// RequireEventOwner guards routes addressing one event through the path
// parameter param. Admins pass; artists pass only when their token's
// artist id is linked to the event. A missing event is a 404 for
// everyone.
func RequireEventOwner(store EventOwners, param string, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := Principal(c)
			if !ok {
				return unauthenticated(c)
			}
			id, err := strconv.ParseUint(c.Param(param), 10, 64)
			if err != nil || id == 0 {
				return c.JSON(http.StatusNotFound, errorBody{Error: "event not found"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			artists, err := store.ArtistIDs(ctx, id)
			if errors.Is(err, model.ErrNotFound) {
				return c.JSON(http.StatusNotFound, errorBody{Error: "event not found"})
			}
			if err != nil {
				return err
			}

			if !service.ActorFromClaims(claims).CanManageEvent(artists) {
				log.Warn().Uint64("user_id", claims.UserID()).Uint64("event_id", id).
					Str("role", string(claims.Role)).Msg("event ownership denied")
				return forbidden(c, claims.Role, "ownership")
			}
			return next(c)
		}
	}
}
