package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/safa0/radiantctl/api"
	"github.com/safa0/radiantctl/bridge"
	"github.com/safa0/radiantctl/config"
	"github.com/safa0/radiantctl/display"
	"github.com/safa0/radiantctl/logging"
	"github.com/safa0/radiantctl/mqtt"
	"github.com/safa0/radiantctl/preset"
	"github.com/safa0/radiantctl/reconcile"
	"github.com/safa0/radiantctl/service"
	"github.com/safa0/radiantctl/storage"
	"github.com/safa0/radiantctl/telemetry"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				logging.Default().Error("loading config", "error", err)
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.New(cfg.Logging, Version)
	logger.Info("starting radiantctl", "build_time", BuildTime, "storage", cfg.Storage.Backend)

	kv, err := storage.Open(cfg.Storage)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer kv.Close()

	store, err := preset.NewStore(ctx, kv, logger.With("component", "preset"))
	if err != nil {
		return err
	}

	collab, closeCollab, err := openCollaborator(cfg.MQTT, logger)
	if err != nil {
		return err
	}
	defer closeCollab()

	recorder := openRecorder(cfg.InfluxDB, logger)
	defer recorder.Close()

	registry := display.NewRegistry()
	cache := display.NewCache()
	dispatcher := display.NewDispatcher(collab, cfg.Dispatch.QueueSize, logger.With("component", "dispatch"))
	rec := reconcile.New(store, cache, dispatcher, logger.With("component", "reconcile"))
	hub := api.NewHub(logger.With("component", "ws"))

	svc := service.New(service.Options{
		Collaborator:  collab,
		Registry:      registry,
		Cache:         cache,
		Reconciler:    rec,
		Recorder:      recorder,
		Broadcaster:   hub,
		StartupPreset: cfg.Presets.Startup,
		Logger:        logger.With("component", "service"),
	})

	go dispatcher.Run(ctx)
	go hub.Run(ctx)
	go svc.Run(ctx)
	if err := svc.Start(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: api.RegisterRoutes(api.Deps{
			Registry:   registry,
			Cache:      cache,
			Store:      store,
			Reconciler: rec,
			Hub:        hub,
			Logger:     logger.With("component", "api"),
		}),
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openCollaborator connects the MQTT bridge. With MQTT disabled the daemon
// still serves the preset API, backed by a local bridge that never reports
// a display.
func openCollaborator(cfg config.MQTTConfig, logger *logging.Logger) (display.Collaborator, func(), error) {
	if !cfg.Enabled {
		logger.Warn("mqtt disabled, no displays will be discovered")
		return display.NewFakeBridge(), func() {}, nil
	}

	client, err := mqtt.Connect(cfg, logger.With("component", "mqtt"))
	if err != nil {
		return nil, nil, err
	}
	b := bridge.New(client, client.Topics(), client.QoS(), logger.With("component", "bridge"))
	return b, func() { client.Close() }, nil
}

func openRecorder(cfg config.InfluxDBConfig, logger *logging.Logger) telemetry.Recorder {
	if !cfg.Enabled {
		return telemetry.Nop{}
	}
	rec, err := telemetry.Connect(cfg, logger.With("component", "telemetry"))
	if err != nil {
		logger.Warn("telemetry unavailable, continuing without it", "error", err)
		return telemetry.Nop{}
	}
	return rec
}
