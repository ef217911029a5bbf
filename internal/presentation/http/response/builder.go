package response

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/bistro/pkg/errorbank"
)

// ErrorKey is the echo context key the rendered AppError is stored under so
// request logging can report the cause.
const ErrorKey = "bistro.error"

// Envelope is the body of every response.
type Envelope struct {
	StatusCode int               `json:"statusCode"`
	Message    string            `json:"message"`
	Data       any               `json:"data"`
	Errors     map[string]string `json:"errors,omitempty"`
}

// Builder helps construct consistent HTTP responses.
type Builder struct {
	ctx     echo.Context
	status  int
	message string
	data    any
	err     error
}

// New instantiates a Builder for the provided request context.
func New(ctx echo.Context) *Builder {
	return &Builder{ctx: ctx, status: http.StatusOK}
}

// WithStatus overrides the response status code.
func (b *Builder) WithStatus(status int) *Builder {
	if status > 0 {
		b.status = status
	}
	return b
}

// WithMessage sets the human readable message of a success response.
func (b *Builder) WithMessage(message string) *Builder {
	b.message = message
	return b
}

// WithData attaches a success payload.
func (b *Builder) WithData(data any) *Builder {
	b.data = data
	return b
}

// WithError records an error to be rendered.
func (b *Builder) WithError(err error) *Builder {
	b.err = err
	return b
}

// Build finalises and emits the HTTP response.
func (b *Builder) Build() error {
	if b.err != nil {
		return b.buildError()
	}
	return b.buildSuccess()
}

func (b *Builder) buildSuccess() error {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	message := b.message
	if message == "" {
		message = http.StatusText(b.status)
	}
	return b.ctx.JSON(b.status, Envelope{
		StatusCode: b.status,
		Message:    message,
		Data:       b.data,
	})
}

func (b *Builder) buildError() error {
	appErr := errorbank.From(b.err)
	b.ctx.Set(ErrorKey, appErr)

	status := b.status
	if status < 400 {
		status = appErr.StatusCode()
	}
	message := appErr.Message()
	if appErr.Kind() == errorbank.KindInternal {
		message = "internal error"
	}

	return b.ctx.JSON(status, Envelope{
		StatusCode: status,
		Message:    message,
		Data:       nil,
		Errors:     appErr.Fields(),
	})
}
