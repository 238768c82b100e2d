// Package handler contains the Echo HTTP handlers. Handlers return
// domain errors; NewHTTPErrorHandler maps each error type to its
// status code in one place.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"vehicle-reserve-backend/internal/domain"
)

// NewHTTPErrorHandler builds the central error handler. Domain errors
// map to their status codes; the first-login case gets its special
// payload; anything unrecognized becomes a 500 whose detail is only
// exposed in development.
func NewHTTPErrorHandler(log zerolog.Logger, dev bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := echo.Map{"error": "internal server error"}

		var (
			ve  *domain.ValidationError
			ae  *domain.AuthenticationError
			ze  *domain.AuthorizationError
			ne  *domain.NotFoundError
			ce  *domain.ConflictError
			nue *domain.NewUserError
			he  *echo.HTTPError
		)
		switch {
		case errors.As(err, &nue):
			status = http.StatusBadRequest
			body = echo.Map{
				"error":       nue.Error(),
				"isNewUser":   true,
				"lineProfile": nue.Profile,
			}
		case errors.As(err, &ve):
			status = http.StatusBadRequest
			body = echo.Map{"error": ve.Message}
		case errors.As(err, &ae):
			status = http.StatusUnauthorized
			body = echo.Map{"error": ae.Message}
		case errors.As(err, &ze):
			status = http.StatusForbidden
			body = echo.Map{"error": ze.Message}
		case errors.As(err, &ne):
			status = http.StatusNotFound
			body = echo.Map{"error": ne.Message}
		case errors.As(err, &ce):
			status = http.StatusConflict
			body = echo.Map{"error": ce.Message}
		case errors.As(err, &he):
			status = he.Code
			if msg, ok := he.Message.(string); ok {
				body = echo.Map{"error": msg}
			} else {
				body = echo.Map{"error": http.StatusText(status)}
			}
		default:
			log.Error().Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("unhandled error")
			if dev {
				body = echo.Map{"error": err.Error()}
			}
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			log.Error().Err(werr).Msg("error handler write failed")
		}
	}
}
