package main

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Leganyst/booking-calendar/internal/calsync"
	"github.com/Leganyst/booking-calendar/internal/model"
	"github.com/Leganyst/booking-calendar/internal/service"
	"github.com/Leganyst/booking-calendar/internal/transport/grpcapi"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run gRPC server and calendar sync worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openDeps(opts)
			if err != nil {
				return err
			}
			defer rt.close()

			if autoMigrate {
				if err := model.AutoMigrate(rt.db); err != nil {
					return fmt.Errorf("auto migrate: %w", err)
				}
			}
			return serve(cmd.Context(), rt)
		},
	}
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", true, "Run schema migration before start")
	return cmd
}

func serve(parent context.Context, rt *deps) error {
	loc, err := rt.cfg.Location()
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	external := calsync.LogCalendar{Logger: rt.logger}
	worker := calsync.NewWorker(rt.db, external, rt.cfg.Sync, loc, rt.logger)
	svcOpts, err := service.OptionsFromConfig(rt.cfg, worker, external)
	if err != nil {
		return err
	}
	srv := grpcapi.NewServer(
		service.NewCalendarService(rt.db, svcOpts),
		service.NewBookingService(rt.db, svcOpts),
	)
	gs := grpcapi.NewGRPCServer(srv, rt.logger)

	lis, err := net.Listen("tcp", rt.cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", rt.cfg.GRPCAddr, err)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rt.logger.Info("booking gRPC server listening", "addr", lis.Addr().String(), "timezone", loc.String())
		if err := gs.Serve(lis); err != nil {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		rt.logger.Info("shutting down gRPC server")
		gs.GracefulStop()
		return nil
	})
	return g.Wait()
}
