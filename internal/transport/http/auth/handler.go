package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/Additional-Code/bistro/internal/dto"
	"github.com/Additional-Code/bistro/internal/presentation/http/response"
	service "github.com/Additional-Code/bistro/internal/service/auth"
	"github.com/Additional-Code/bistro/internal/transport/http/middleware"
	"github.com/Additional-Code/bistro/internal/transport/http/request"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/bistro/transport/http/auth")

// Handler exposes registration, login and profile endpoints.
type Handler struct {
	svc    *service.Service
	cookie string
}

// NewHandler constructs an auth Handler.
func NewHandler(svc *service.Service, mw *middleware.Auth) *Handler {
	return &Handler{svc: svc, cookie: mw.CookieName()}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler, mw *middleware.Auth) {
	e.POST("/register", h.register)
	e.POST("/login", h.login)
	e.GET("/profile", h.profile, mw.Require)
}

func (h *Handler) register(c echo.Context) error {
	b := response.New(c)

	var payload dto.RegisterRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "auth.register")
	defer span.End()

	user, err := h.svc.Register(ctx, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithMessage("user registered").WithData(user).Build()
}

func (h *Handler) login(c echo.Context) error {
	b := response.New(c)

	var payload dto.LoginRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "auth.login")
	defer span.End()

	session, err := h.svc.Login(ctx, payload)
	if err != nil {
		return b.WithError(err).Build()
	}

	c.SetCookie(&http.Cookie{
		Name:     h.cookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   c.IsTLS(),
		SameSite: http.SameSiteLaxMode,
	})
	return b.WithMessage("login successful").WithData(session).Build()
}

func (h *Handler) profile(c echo.Context) error {
	b := response.New(c)

	id, err := request.Identity(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "auth.profile")
	defer span.End()

	user, err := h.svc.Profile(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(user).Build()
}
