package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/Additional-Code/bistro/internal/auth"
	"github.com/Additional-Code/bistro/internal/config"
	"github.com/Additional-Code/bistro/internal/presentation/http/response"
	authsvc "github.com/Additional-Code/bistro/internal/service/auth"
)

// Module provides the auth middleware to the HTTP handlers.
var Module = fx.Provide(NewAuth)

// Authenticator resolves a session token into the caller's identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Identity, error)
}

// Auth guards routes behind a session token.
type Auth struct {
	authenticator Authenticator
	cookieName    string
}

// NewAuth builds the middleware around the auth service.
func NewAuth(svc *authsvc.Service, cfg config.Config) *Auth {
	return newAuth(svc, cfg.Auth.CookieName)
}

func newAuth(a Authenticator, cookieName string) *Auth {
	if cookieName == "" {
		cookieName = "jwt"
	}
	return &Auth{authenticator: a, cookieName: cookieName}
}

// Require rejects requests without a valid token and attaches the identity
// to the request context otherwise.
func (a *Auth) Require(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		id, err := a.authenticator.Authenticate(req.Context(), a.token(c))
		if err != nil {
			return response.New(c).WithError(err).Build()
		}
		c.SetRequest(req.WithContext(auth.WithIdentity(req.Context(), id)))
		return next(c)
	}
}

// token prefers the Authorization header and falls back to the session cookie.
func (a *Auth) token(c echo.Context) string {
	header := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	if cookie, err := c.Cookie(a.cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// CookieName is the cookie the session token is stored in.
func (a *Auth) CookieName() string {
	return a.cookieName
}
