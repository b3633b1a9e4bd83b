package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/bryanchriswhite/taskwatch/internal/icon"
	"github.com/bryanchriswhite/taskwatch/internal/logger"
	"github.com/bryanchriswhite/taskwatch/internal/window"
	"github.com/bryanchriswhite/taskwatch/internal/x11"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List managed windows",
	Long: `List the windows currently managed by the window manager, after
filtering, with their resolved icons.

This command connects to the X11 server, reads the client list once and
exits.`,
	Example: `  # List windows in table format (default)
  taskwatch list

  # List windows in JSON format
  taskwatch list --format json

  # List the currently focused window
  taskwatch list --current`,
	RunE: runList,
}

var (
	listFormat  string
	listCurrent bool
	listAll     bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table or json)")
	listCmd.Flags().BoolVarP(&listCurrent, "current", "c", false, "show only the focused window")
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "include windows the filter would hide")
}

func runList(cmd *cobra.Command, args []string) error {
	configMgr, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := configMgr.Get()

	resolver, err := newResolver(cfg)
	if err != nil {
		return err
	}

	conn, err := x11.Dial(cfg.Display)
	if err != nil {
		return fmt.Errorf("failed to connect to X11: %w", err)
	}
	defer conn.Close()

	filter := cfg.Filter
	if listAll {
		filter = window.Filter{}
	}
	records, err := window.Snapshot(conn, resolver, filter)
	if err != nil {
		return fmt.Errorf("failed to read client list: %w", err)
	}

	var active uint32
	if ids, err := window.ActiveWindow(conn); err == nil && len(ids) > 0 {
		active = ids[0]
	}
	for i := range records {
		records[i].IsActive = records[i].ID == active
	}

	if listCurrent {
		current := records[:0]
		for _, r := range records {
			if r.IsActive {
				current = append(current, r)
			}
		}
		records = current
	}

	switch listFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	case "table":
		return printWindowsTable(records)
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", listFormat)
	}
}

func printWindowsTable(records []window.Record) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tACTIVE\tPID\tPROCESS\tCLASS\tTITLE\tICON")
	fmt.Fprintln(w, "--\t------\t---\t-------\t-----\t-----\t----")

	for _, r := range records {
		active := ""
		if r.IsActive {
			active = "*"
		}
		fmt.Fprintf(w, "0x%08x\t%s\t%d\t%s\t%s\t%s\t%s\n",
			r.ID, active, r.PID, processName(r.PID), r.Class, r.Title, iconSummary(r))
	}

	return nil
}

// processName looks up the executable name behind a _NET_WM_PID value.
func processName(pid uint32) string {
	if pid == 0 {
		return "-"
	}
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		logger.WithComponent("cli").Debug().Err(err).Uint32("pid", pid).Msg("Process lookup failed")
		return "-"
	}
	name, err := p.Name()
	if err != nil || name == "" {
		return "-"
	}
	return name
}

func iconSummary(r window.Record) string {
	if path, ok := r.IconPath(); ok {
		return path
	}
	if raw, ok := r.IconData(); ok {
		return embeddedSummary(raw)
	}
	return "-"
}

func embeddedSummary(raw icon.RawIcon) string {
	return fmt.Sprintf("embedded %dx%d", raw.Width, raw.Height)
}
