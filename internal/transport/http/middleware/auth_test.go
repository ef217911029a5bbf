package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/bistro/internal/auth"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

type stubAuthenticator map[string]auth.Identity

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (auth.Identity, error) {
	id, ok := s[token]
	if !ok {
		return auth.Identity{}, errorbank.Unauthorized("invalid token")
	}
	return id, nil
}

func serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, *auth.Identity) {
	t.Helper()
	mw := newAuth(stubAuthenticator{"good": {UserID: 9, Email: "a@b.c"}}, "jwt")

	var seen *auth.Identity
	e := echo.New()
	e.GET("/profile", func(c echo.Context) error {
		id, ok := auth.FromContext(c.Request().Context())
		require.True(t, ok)
		seen = &id
		return c.NoContent(http.StatusNoContent)
	}, mw.Require)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, seen
}

func TestRequireAcceptsBearerHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")

	rec, seen := serve(t, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, int64(9), seen.UserID)
}

func TestRequireAcceptsCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: "good"})

	rec, seen := serve(t, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
}

func TestRequireRejectsMissingOrBadTokens(t *testing.T) {
	rec, seen := serve(t, httptest.NewRequest(http.MethodGet, "/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, seen)
	assert.Contains(t, rec.Body.String(), `"statusCode":401`)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer forged")
	rec, seen = serve(t, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, seen)
}
