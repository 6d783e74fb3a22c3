package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/Leganyst/clinic-booking/internal/worker"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC health endpoint and the slot regenerator",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			return runServer(ctx, a)
		},
	}
}

func runServer(ctx context.Context, a *app) error {
	err := a.migrate()
	if err != nil {
		return err
	}

	var regen *worker.Regenerator
	if a.cfg.RegenSchedule != "" {
		regen, err = worker.NewRegenerator(a.cfg.RegenSchedule, a.generator, a.logger)
		if err != nil {
			return err
		}
	}

	lis, err := net.Listen("tcp", a.cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.GRPCAddr, err)
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	reflection.Register(grpcServer)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Str("addr", a.cfg.GRPCAddr).Msg("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		sqlDB, err := a.db.DB()
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(gctx, 5*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(pingCtx); err != nil {
			return fmt.Errorf("db ping: %w", err)
		}
		healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		a.logger.Info().Msg("database reachable, serving")
		return nil
	})

	if regen != nil {
		g.Go(func() error {
			// Первый проход сразу: дозавершить генерацию, прерванную прошлым запуском.
			regen.RunOnce(gctx)
			return regen.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("shutting down gRPC server...")
		healthSrv.Shutdown()
		grpcServer.GracefulStop()
		return nil
	})

	return g.Wait()
}
