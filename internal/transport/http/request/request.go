// Package request holds helpers shared by the HTTP handlers for reading
// path parameters, bodies and the caller's identity.
package request

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/bistro/internal/auth"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

// ID parses a positive integer path parameter.
func ID(c echo.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errorbank.BadRequest("validation failed",
			errorbank.WithFields(map[string]string{name: fmt.Sprintf("%s must be a positive integer", name)}),
		)
	}
	return id, nil
}

// Bind decodes the request body into dst.
func Bind(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		return errorbank.BadRequest("invalid request body", errorbank.WithCause(err))
	}
	return nil
}

// Identity returns the caller attached by the auth middleware.
func Identity(c echo.Context) (auth.Identity, error) {
	id, ok := auth.FromContext(c.Request().Context())
	if !ok {
		return auth.Identity{}, errorbank.Unauthorized("authentication required")
	}
	return id, nil
}

// OptionalIdentity returns the caller when one is attached, or the zero identity.
func OptionalIdentity(c echo.Context) auth.Identity {
	id, _ := auth.FromContext(c.Request().Context())
	return id
}

// BaseURL is the scheme and host the request was addressed to.
func BaseURL(c echo.Context) string {
	return c.Scheme() + "://" + c.Request().Host
}
