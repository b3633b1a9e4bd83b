package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanchriswhite/taskwatch/internal/api"
	"github.com/bryanchriswhite/taskwatch/internal/desktop"
	"github.com/bryanchriswhite/taskwatch/internal/logger"
	"github.com/bryanchriswhite/taskwatch/internal/window"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Taskwatch API server",
	Long: `Start the window sensor and serve the tracked window list over HTTP.

Endpoints:
  GET  /api/windows                 tracked windows with is_active
  GET  /api/windows/{id}            one window
  GET  /api/windows/{id}/icon       themed icon file or embedded icon as PNG
  POST /api/windows/{id}/{action}   activate, above or skip-taskbar
  GET  /api/apps                    launchable applications
  GET  /api/events                  websocket stream of window events
  GET  /api/health                  server and sensor status

If the X connection is lost the server keeps running with the last known
window list and /api/health reports the sensor as stopped.`,
	Example: `  # Start server on default port (8787)
  taskwatch serve

  # Start server on custom port
  taskwatch serve --port 9090

  # Start with debug logging
  taskwatch serve --log-level debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("cli")

	configMgr, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := configMgr.Get()
	log.Info().
		Str("path", configMgr.GetConfigPath()).
		Bool("from_file", configMgr.FromFile()).
		Msg("Configuration loaded")

	resolver, err := newResolver(cfg)
	if err != nil {
		return err
	}

	sensor, err := window.Start(window.Options{
		Dial:     sensorDialer(cfg.Display),
		Icons:    resolver,
		Filter:   cfg.Filter,
		Buffer:   cfg.EventBuffer,
		FullScan: cfg.InitialFullScan,
	})
	if err != nil {
		return fmt.Errorf("failed to start window sensor: %w", err)
	}

	tracker := api.NewTracker()
	go tracker.Run(sensor.Events())

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	appDirs := cfg.IconOptions(home).ApplicationDirs
	apps := func() []desktop.AppEntry {
		return desktop.ListApps(appDirs, resolver)
	}

	server := api.NewServer(tracker, newController(cfg), apps, cfg.Icons.Size)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.ServerPort)
	}()

	log.Info().
		Int("port", cfg.ServerPort).
		Msg("Taskwatch is running, press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-sigChan:
	}

	log.Info().Msg("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
