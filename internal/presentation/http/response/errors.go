package response

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/bistro/pkg/errorbank"
)

var httpKinds = map[int]errorbank.Kind{
	http.StatusBadRequest:            errorbank.KindBadRequest,
	http.StatusRequestEntityTooLarge: errorbank.KindBadRequest,
	http.StatusUnsupportedMediaType:  errorbank.KindBadRequest,
	http.StatusUnauthorized:          errorbank.KindUnauthorized,
	http.StatusForbidden:             errorbank.KindUnauthorized,
	http.StatusNotFound:              errorbank.KindNotFound,
	http.StatusConflict:              errorbank.KindConflict,
	http.StatusUnprocessableEntity:   errorbank.KindUnprocessableEntity,
}

// ErrorHandler renders errors escaping handlers and middleware, including
// echo's routing errors, through the same envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) {
		_ = New(c).WithError(err).Build()
		return
	}

	message := http.StatusText(httpErr.Code)
	if m, ok := httpErr.Message.(string); ok && m != "" {
		message = m
	}

	kind, known := httpKinds[httpErr.Code]
	if !known {
		kind = errorbank.KindInternal
	}
	appErr := errorbank.New(kind, message, errorbank.WithCause(httpErr))

	// Statuses without a kind of their own (405 and friends) keep echo's code.
	status := appErr.StatusCode()
	if !known && httpErr.Code >= 400 && httpErr.Code < 500 {
		status = httpErr.Code
		appErr = errorbank.BadRequest(message, errorbank.WithCause(httpErr))
	}
	_ = New(c).WithStatus(status).WithError(appErr).Build()
}
