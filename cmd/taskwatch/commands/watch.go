package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bryanchriswhite/taskwatch/internal/window"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream window events as JSON lines",
	Long: `Connect to the X server and print one JSON object per window event:
window_open, window_close and focus_change (or a single full_scan for the
initial windows when --full-scan is set).

The command exits with an error when the X connection is lost.`,
	Example: `  # Stream events
  taskwatch watch

  # Report the initial windows as one event
  taskwatch watch --full-scan`,
	RunE: runWatch,
}

var watchFullScan bool

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchFullScan, "full-scan", false, "report the initial windows as a single full_scan event")
}

func runWatch(cmd *cobra.Command, args []string) error {
	configMgr, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := configMgr.Get()

	resolver, err := newResolver(cfg)
	if err != nil {
		return err
	}

	sensor, err := window.Start(window.Options{
		Dial:     sensorDialer(cfg.Display),
		Icons:    resolver,
		Filter:   cfg.Filter,
		Buffer:   cfg.EventBuffer,
		FullScan: cfg.InitialFullScan || watchFullScan,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	encoder := json.NewEncoder(os.Stdout)
	for {
		select {
		case ev, ok := <-sensor.Events():
			if !ok {
				return fmt.Errorf("window sensor stopped: %w", sensor.Err())
			}
			if err := encoder.Encode(ev); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}
