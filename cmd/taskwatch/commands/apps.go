package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/bryanchriswhite/taskwatch/internal/desktop"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List launchable applications",
	Long: `List the applications described by desktop entries in the configured
application directories, with their sanitized launch commands and resolved
icon files. Hidden, non-application and broken entries are skipped.`,
	Example: `  # Show applications as a table (default)
  taskwatch apps

  # Show applications as YAML
  taskwatch apps --format yaml`,
	RunE: runApps,
}

var appsFormat string

func init() {
	rootCmd.AddCommand(appsCmd)

	appsCmd.Flags().StringVarP(&appsFormat, "format", "f", "table", "output format (table, json or yaml)")
}

func runApps(cmd *cobra.Command, args []string) error {
	configMgr, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := configMgr.Get()

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	opts := cfg.IconOptions(home)
	resolver, err := newResolver(cfg)
	if err != nil {
		return err
	}

	apps := desktop.ListApps(opts.ApplicationDirs, resolver)

	switch appsFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(apps)
	case "yaml":
		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		return encoder.Encode(apps)
	case "table":
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		defer w.Flush()
		fmt.Fprintln(w, "NAME\tEXEC\tICON")
		fmt.Fprintln(w, "----\t----\t----")
		for _, app := range apps {
			iconRef := app.IconPath
			if iconRef == "" {
				iconRef = app.IconName
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", app.Name, app.Exec, iconRef)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (use 'table', 'json' or 'yaml')", appsFormat)
	}
}
