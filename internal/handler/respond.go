package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"cims/internal/auth"
	"cims/internal/errors"
)

// ContextKeyClaims is where the JWT middleware stores *auth.Claims.
const ContextKeyClaims = "user"

// respondError converts a service error into an echo HTTP error carrying an ErrorResponse.
func respondError(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func badRequest(message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: message,
		Code:  string(errors.KindBadRequest),
	})
}

// bindAndValidate decodes the JSON body into req and runs struct validation.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return badRequest(err.Error())
	}
	return nil
}

// actorFrom returns the authenticated caller set by the JWT middleware.
func actorFrom(c echo.Context) (auth.Actor, error) {
	claims, ok := c.Get(ContextKeyClaims).(*auth.Claims)
	if !ok || claims == nil {
		return auth.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "invalid or missing token",
			Code:  string(errors.KindUnauthorized),
		})
	}
	return claims.Actor(), nil
}

func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 0)
	if err != nil || id == 0 {
		return 0, badRequest("invalid " + name)
	}
	return uint(id), nil
}

// RequireAdmin rejects non-admin callers before the route parses its input.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, err := actorFrom(c)
			if err != nil {
				return err
			}
			if !actor.IsAdmin() {
				return respondError(errors.ErrAdminRequired)
			}
			return next(c)
		}
	}
}

// queryID reads an optional numeric filter; an absent parameter yields 0.
func queryID(c echo.Context, name string) (uint, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || id == 0 {
		return 0, badRequest("invalid " + name + " filter")
	}
	return uint(id), nil
}
