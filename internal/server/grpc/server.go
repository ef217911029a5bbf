package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/Additional-Code/bistro/internal/config"
	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

// ServiceName is the health check name reported for the whole backend.
const ServiceName = "bistro"

// Module exposes the gRPC server and lifecycle hooks to Fx.
var Module = fx.Module("grpc_server",
	fx.Provide(NewServer, NewHealth),
	fx.Invoke(Run),
)

// NewHealth builds the standard health service, starting in NOT_SERVING.
func NewHealth() *health.Server {
	h := health.NewServer()
	h.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	h.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// NewServer builds a gRPC server with logging and error mapping interceptors.
func NewServer(logger *zap.Logger, h *health.Server) *grpc.Server {
	unary := func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		duration := time.Since(start)
		if err != nil {
			logger.Warn("grpc unary call finished", zap.String("method", info.FullMethod), zap.Duration("duration", duration), zap.Error(err))
		} else {
			logger.Debug("grpc unary call finished", zap.String("method", info.FullMethod), zap.Duration("duration", duration))
		}
		return resp, err
	}

	stream := func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		duration := time.Since(start)
		if err != nil {
			logger.Warn("grpc stream call finished", zap.String("method", info.FullMethod), zap.Duration("duration", duration), zap.Error(err))
		}
		return toStatus(err)
	}

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(unary, StatusInterceptor),
		grpc.ChainStreamInterceptor(stream),
	)
	healthpb.RegisterHealthServer(server, h)
	return server
}

// StatusInterceptor converts AppErrors returned by handlers into gRPC statuses.
func StatusInterceptor(ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	resp, err := handler(ctx, req)
	return resp, toStatus(err)
}

func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var appErr *errorbank.AppError
	if errors.As(err, &appErr) {
		message := appErr.Message()
		if appErr.Kind() == errorbank.KindInternal {
			message = "internal error"
		}
		return status.Error(appErr.GRPCCode(), message)
	}
	return status.Error(codes.Internal, "internal error")
}

// Run binds the gRPC server to the configured host/port and manages lifecycle.
// The server only starts when enabled; health flips to SERVING once the
// database answers a ping.
func Run(lc fx.Lifecycle, cfg config.Config, server *grpc.Server, h *health.Server, db *database.Connections, logger *zap.Logger) {
	if !cfg.GRPC.Enabled {
		return
	}

	addr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
	var listener net.Listener

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen grpc: %w", err)
			}
			listener = ln

			serving := healthpb.HealthCheckResponse_SERVING
			if err := db.Ping(ctx); err != nil {
				logger.Warn("database ping failed, grpc health not serving", zap.Error(err))
				serving = healthpb.HealthCheckResponse_NOT_SERVING
			}
			h.SetServingStatus("", serving)
			h.SetServingStatus(ServiceName, serving)

			logger.Info("starting gRPC server", zap.String("addr", addr))
			go func() {
				if err := server.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
					logger.Fatal("grpc server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping gRPC server")
			h.Shutdown()
			stopped := make(chan struct{})
			go func() {
				server.GracefulStop()
				close(stopped)
			}()

			select {
			case <-ctx.Done():
				server.Stop()
				return ctx.Err()
			case <-stopped:
				if listener != nil {
					_ = listener.Close()
				}
				return nil
			}
		},
	})
}
