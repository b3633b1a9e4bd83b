package commands

import (
	"fmt"
	"os"

	"github.com/bryanchriswhite/taskwatch/internal/actions"
	"github.com/bryanchriswhite/taskwatch/internal/config"
	"github.com/bryanchriswhite/taskwatch/internal/icon"
	"github.com/bryanchriswhite/taskwatch/internal/logger"
	"github.com/bryanchriswhite/taskwatch/internal/window"
	"github.com/bryanchriswhite/taskwatch/internal/x11"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "taskwatch",
		Short: "Taskwatch - live X11 window list with resolved icons",
		Long: `Taskwatch keeps a live view of the windows managed by an X11 window
manager and resolves a display icon for each one, so a dock or taskbar can
render the running applications without polling.

Features:
  • Stream window open, close and focus events as JSON
  • Resolve icons through desktop entries, icon themes or _NET_WM_ICON
  • List installed applications from desktop entries
  • Activate windows, keep them above, hide them from the taskbar
  • HTTP and websocket API for dock frontends`,
		SilenceUsage: true,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/taskwatch/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("display", "", "X display to connect to (default is $DISPLAY)")
	rootCmd.PersistentFlags().Int("port", 0, "server port (default is 8787)")

	// Bind flags to viper
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("display", rootCmd.PersistentFlags().Lookup("display"))
	viper.BindPFlag("server_port", rootCmd.PersistentFlags().Lookup("port"))
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// loadConfig reads the configuration and initializes logging from it.
func loadConfig() (*config.Manager, error) {
	configMgr, err := config.NewManager(GetConfigFile(), viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := configMgr.Get()
	logger.Init(cfg.LogLevel, cfg.LogPretty)
	return configMgr, nil
}

func newResolver(cfg *config.Config) (*icon.Resolver, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return icon.NewResolver(cfg.IconOptions(home)), nil
}

func sensorDialer(display string) func() (window.Conn, error) {
	return func() (window.Conn, error) {
		conn, err := x11.Dial(display)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

func newController(cfg *config.Config) *actions.Controller {
	return actions.New(cfg.Display)
}
