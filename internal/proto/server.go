package proto

import (
	"context"
	"net"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/track-connections/connect-back/internal/config"
)

// NewGRPCServer exposes the standard health service so the load balancer can
// probe readiness over gRPC next to the HTTP surface.
func NewGRPCServer(lc fx.Lifecycle, cfg *config.Config, logger *zap.SugaredLogger) *grpc.Server {
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
			if err != nil {
				return errors.Wrap(err, "grpc listen")
			}

			healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

			go func() {
				if err := grpcServer.Serve(lis); err != nil {
					logger.Errorw("grpc serve", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping GRPC server.")
			grpcServer.GracefulStop()
			return nil
		},
	})

	return grpcServer
}
