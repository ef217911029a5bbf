package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/config"
	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/observability"
	"github.com/Additional-Code/bistro/internal/presentation/http/response"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

// Module exposes the HTTP server lifecycle to Fx.
var Module = fx.Module("http_server",
	fx.Provide(NewEcho),
	fx.Invoke(Run),
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Params bundles what the router needs.
type Params struct {
	fx.In

	Config        config.Config
	Connections   *database.Connections
	Observability *observability.Manager `optional:"true"`
	Logger        *zap.Logger
}

// NewEcho configures the Echo router with the shared middleware chain.
func NewEcho(p Params) *echo.Echo {
	return newEcho(p.Config, p.Connections, p.Observability, p.Logger)
}

func newEcho(cfg config.Config, db Pinger, obs *observability.Manager, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = response.ErrorHandler

	e.Use(echomw.Recover())
	if obs != nil && obs.TracingEnabled() {
		e.Use(otelecho.Middleware(cfg.Observability.ServiceName))
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.HTTP.AllowOrigins,
		AllowCredentials: true,
	}))
	e.Use(requestLogger(logger))

	e.Static(cfg.Upload.PublicPrefix, cfg.Upload.Dir)

	e.GET("/health", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		b := response.New(c)
		if db != nil {
			if err := db.Ping(ctx); err != nil {
				return b.WithError(errorbank.Internal("database unreachable", errorbank.WithCause(err))).Build()
			}
		}
		return b.WithMessage("ok").WithData(map[string]string{"status": "ok"}).Build()
	})

	if obs != nil && obs.MetricsEnabled() && obs.MetricsHandler() != nil {
		e.GET(cfg.Observability.PrometheusPath, echo.WrapHandler(obs.MetricsHandler()))
	}

	return e
}

// requestLogger emits one line per request and attaches the failure cause
// recorded by the response builder.
func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}

			var appErr *errorbank.AppError
			if stored, ok := c.Get(response.ErrorKey).(*errorbank.AppError); ok {
				appErr = stored
			} else if v.Error != nil {
				errors.As(v.Error, &appErr)
			}

			switch {
			case v.Status >= http.StatusInternalServerError:
				if appErr != nil {
					fields = append(fields, zap.Error(appErr.Unwrap()), zap.String("message", appErr.Message()))
				}
				logger.Error("http request failed", fields...)
			case v.Status >= http.StatusBadRequest:
				if appErr != nil {
					fields = append(fields, zap.String("message", appErr.Message()))
				}
				logger.Warn("http request rejected", fields...)
			default:
				logger.Info("http request", fields...)
			}
			return nil
		},
	})
}

// Run starts the HTTP server and ties it to the Fx lifecycle.
func Run(lc fx.Lifecycle, cfg config.Config, e *echo.Echo, logger *zap.Logger) {
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting HTTP server", zap.String("addr", addr))
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping HTTP server")
			return server.Shutdown(ctx)
		},
	})
}
