package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/bistro/pkg/errorbank"
)

type envelope struct {
	StatusCode int               `json:"statusCode"`
	Message    string            `json:"message"`
	Data       json.RawMessage   `json:"data"`
	Errors     map[string]string `json:"errors"`
}

func render(t *testing.T, fn func(c echo.Context) error) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, fn(c))

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestBuildSuccess(t *testing.T) {
	rec, body := render(t, func(c echo.Context) error {
		return New(c).WithStatus(http.StatusCreated).WithMessage("order created").WithData(map[string]int{"id": 7}).Build()
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, http.StatusCreated, body.StatusCode)
	assert.Equal(t, "order created", body.Message)
	assert.JSONEq(t, `{"id":7}`, string(body.Data))
	assert.Nil(t, body.Errors)
}

func TestBuildSuccessDefaultsMessage(t *testing.T) {
	_, body := render(t, func(c echo.Context) error {
		return New(c).Build()
	})

	assert.Equal(t, "OK", body.Message)
	assert.Equal(t, "null", string(body.Data))
}

func TestBuildValidationError(t *testing.T) {
	rec, body := render(t, func(c echo.Context) error {
		err := errorbank.BadRequest("validation failed", errorbank.WithFields(map[string]string{"table_id": "table_id must be greater than 0"}))
		return New(c).WithError(err).Build()
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation failed", body.Message)
	assert.Equal(t, map[string]string{"table_id": "table_id must be greater than 0"}, body.Errors)
}

func TestBuildHidesInternalCauses(t *testing.T) {
	var stored any
	rec, body := render(t, func(c echo.Context) error {
		err := New(c).WithError(errors.New("pq: connection refused")).Build()
		stored = c.Get(ErrorKey)
		return err
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", body.Message)
	require.IsType(t, &errorbank.AppError{}, stored)
	assert.Contains(t, stored.(*errorbank.AppError).Error(), "connection refused")
}

func TestErrorHandlerRendersRoutingErrors(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	e.GET("/tables", func(c echo.Context) error { return New(c).Build() })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, body.StatusCode)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/tables", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.StatusMethodNotAllowed, body.StatusCode)
}
