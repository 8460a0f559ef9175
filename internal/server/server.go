package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/docingest/internal/common"
)

const shutdownGrace = 10 * time.Second

// Serve runs the HTTP and gRPC listeners until ctx is cancelled or one of them
// fails. An empty address disables that listener.
func Serve(ctx context.Context, cfg common.ServerConfig, svc *DocumentService, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HTTPAddr == "" && cfg.GRPCAddr == "" {
		return errors.New("no listen address configured")
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			logger.Error("failed to listen on address", "addr", cfg.GRPCAddr, "error", err)
			return err
		}
		grpcServer, healthServer := NewGRPCServer(svc, logger)
		g.Go(func() error {
			logger.Info("grpc listening", "addr", lis.Addr().String())
			return grpcServer.Serve(lis)
		})
		g.Go(func() error {
			<-ctx.Done()
			healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
			grpcServer.GracefulStop()
			return nil
		})
	}

	if cfg.HTTPAddr != "" {
		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           NewHTTPHandler(svc, logger),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("http listening", "addr", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	err := g.Wait()
	logger.Info("servers stopped")
	return err
}
