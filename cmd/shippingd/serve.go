package main

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/storefront/logistics/internal/api"
	"github.com/storefront/logistics/internal/core/service"
	"github.com/storefront/logistics/internal/infrastructure/queue"
	"github.com/storefront/logistics/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API, scan workers and the waybill replenisher",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if err := a.ensureIndexes(ctx); err != nil {
		return err
	}

	events := service.NewScanEventService(a.shipments, a.repos.events, a.dedup, logger.Component("events"))
	dispatcher := queue.NewDispatcher(a.cfg.Events.Workers, events, logger.Component("dispatcher"))
	replenisher := queue.NewReplenisher(a.waybills, a.cfg.Waybill.MinStock, a.cfg.Waybill.ReplenishInterval, logger.Component("replenisher"))

	e := api.NewRouter(api.Dependencies{
		Shipments:     a.shipments,
		CarrierOrders: a.shipments,
		Waybills:      a.waybills,
		Warehouses:    a.warehouses,
		Auth:          a.auth,
		Events:        dispatcher,
		Carrier:       a.carrier,
		Mongo:         a.db,
		Redis:         a.rdb,
		JWTSecret:     a.cfg.JWTSecret,
		MinStock:      a.cfg.Waybill.MinStock,
		Log:           logger.Component("http"),
	})

	g, gctx := errgroup.WithContext(ctx)

	dispatcher.Start(gctx)
	g.Go(func() error {
		<-gctx.Done()
		dispatcher.Wait()
		return nil
	})

	g.Go(func() error {
		replenisher.Run(gctx)
		return nil
	})

	g.Go(func() error {
		addr := net.JoinHostPort("", a.cfg.Port)
		a.log.Info().Str("addr", addr).Str("version", version).Str("env", a.cfg.Env).Msg("http server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.log.Info().Msg("shutting down")
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
