package main

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/track-connections/connect-back/internal/blob"
	"github.com/track-connections/connect-back/internal/config"
	"github.com/track-connections/connect-back/internal/db"
	"github.com/track-connections/connect-back/internal/proto"
	"github.com/track-connections/connect-back/internal/service"
	"github.com/track-connections/connect-back/internal/transport"
)

func main() {
	app := fx.New(
		fx.Provide(
			config.NewConfig,
			newLogger,
			db.NewGormClient,
			newBlobStore,
			service.NewGeneral,
			transport.NewHTTPServer,
		),
		proto.Module,
		fx.Invoke(
			func(server *transport.HTTPServer) {},
			func(server *grpc.Server) {},
		),
	)

	app.Run()
}

func newLogger() (*zap.SugaredLogger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	return l.Sugar(), nil
}

func newBlobStore(cfg *config.Config, logger *zap.SugaredLogger) blob.Store {
	return blob.NewGatewayStore(cfg, logger)
}
