package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/config"
	"github.com/Additional-Code/bistro/internal/presentation/http/response"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		HTTP:   config.HTTP{AllowOrigins: []string{"*"}},
		Upload: config.Upload{Dir: t.TempDir(), PublicPrefix: "/public/uploads"},
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestHealthReportsDatabaseState(t *testing.T) {
	healthy := newEcho(testConfig(t), pingerFunc(func(context.Context) error { return nil }), nil, zap.NewNop())
	rec := httptest.NewRecorder()
	healthy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec).Message)

	down := newEcho(testConfig(t), pingerFunc(func(context.Context) error { return errors.New("refused") }), nil, zap.NewNop())
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, http.StatusInternalServerError, env.StatusCode)
	assert.Equal(t, "internal error", env.Message)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	e := newEcho(testConfig(t), nil, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, http.StatusNotFound, env.StatusCode)
	assert.Nil(t, env.Data)
}

func TestUploadsAreServedStatically(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Upload.Dir, "cash.png"), []byte("png"), 0o644))
	e := newEcho(cfg, nil, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/public/uploads/cash.png", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png", rec.Body.String())
}
