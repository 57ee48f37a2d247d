package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/smarttv-bridge/bridge/internal/config"
	"github.com/smarttv-bridge/bridge/internal/device"
	"github.com/smarttv-bridge/bridge/internal/device/chromecast"
	"github.com/smarttv-bridge/bridge/internal/device/upnp"
	"github.com/smarttv-bridge/bridge/internal/device/vlc"
	"github.com/smarttv-bridge/bridge/internal/device/web"
	"github.com/smarttv-bridge/bridge/internal/device/xbmc"
	"github.com/smarttv-bridge/bridge/internal/gateway"
	"github.com/smarttv-bridge/bridge/internal/logging"
	"github.com/smarttv-bridge/bridge/internal/reader"
	"github.com/smarttv-bridge/bridge/internal/session"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bridge (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("smarttv-bridge: %w", err)
	}

	log := logging.New(logging.Options{Verbosity: logging.Verbosity(verbosity)})
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rd, err := reader.New(cfg, log)
	if err != nil {
		return fmt.Errorf("smarttv-bridge: build reader: %w", err)
	}
	if err := rd.Start(ctx); err != nil {
		return fmt.Errorf("smarttv-bridge: start reader: %w", err)
	}
	defer rd.Close()

	devices := device.NewCollection(
		upnp.NewFinder(log),
		chromecast.NewFinder(log),
		xbmc.NewFinder(),
		vlc.NewFinder(),
		web.NewFinder(),
	)

	sessions := session.NewRegistry(cfg.RequestGoneTimeout, nil)

	gw := gateway.New(cfg, rd, sessions, devices, log)
	router := gw.Router()

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.ListenHost, cfg.ListenPort),
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infow("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-serveErr:
		return err
	}
}
