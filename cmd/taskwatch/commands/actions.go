package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/bryanchriswhite/taskwatch/internal/actions"
	"github.com/spf13/cobra"
)

// windowAction describes one outbound window manager request command.
type windowAction struct {
	use, short, long string
	pick             func(*actions.Controller) actions.Action
}

var windowActions = []windowAction{
	{
		use:   "activate",
		short: "Focus and raise a window",
		long:  `Ask the window manager to activate a window through _NET_ACTIVE_WINDOW.`,
		pick:  func(c *actions.Controller) actions.Action { return c.Activate },
	},
	{
		use:   "above",
		short: "Keep a window above others",
		long:  `Ask the window manager to add _NET_WM_STATE_ABOVE to a window.`,
		pick:  func(c *actions.Controller) actions.Action { return c.SetAlwaysOnTop },
	},
	{
		use:   "skip-taskbar",
		short: "Hide a window from taskbars and pagers",
		long: `Ask the window manager to add _NET_WM_STATE_SKIP_TASKBAR and
_NET_WM_STATE_SKIP_PAGER to a window.`,
		pick: func(c *actions.Controller) actions.Action { return c.SetSkipTaskbar },
	},
}

func init() {
	for _, a := range windowActions {
		rootCmd.AddCommand(newActionCmd(a))
	}
}

func newActionCmd(a windowAction) *cobra.Command {
	var id, title string

	cmd := &cobra.Command{
		Use:   a.use,
		Short: a.short,
		Long: a.long + `

The target is given by id, or by exact title. A title is looked up in the
client list first, then among the root window's children and grandchildren.`,
		Example: fmt.Sprintf(`  # By window id
  taskwatch %[1]s --id 0x3a00007

  # By exact title
  taskwatch %[1]s --title "Taskwatch Dock"`, a.use),
		RunE: func(cmd *cobra.Command, args []string) error {
			configMgr, err := loadConfig()
			if err != nil {
				return err
			}
			ctl := newController(configMgr.Get())
			act := a.pick(ctl)

			if title != "" {
				target, err := ctl.FindAndActOnWindowByTitle(title, act)
				if err != nil {
					if errors.Is(err, actions.ErrNotFound) {
						return fmt.Errorf("no window titled %q", title)
					}
					return err
				}
				fmt.Printf("%s: 0x%08x\n", a.use, target)
				return nil
			}

			target, err := parseWindowID(id)
			if err != nil {
				return err
			}
			if err := act(target); err != nil {
				return err
			}
			fmt.Printf("%s: 0x%08x\n", a.use, target)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "window id (decimal or 0x hex)")
	cmd.Flags().StringVar(&title, "title", "", "exact window title")
	cmd.MarkFlagsMutuallyExclusive("id", "title")
	cmd.MarkFlagsOneRequired("id", "title")
	return cmd
}

// parseWindowID accepts decimal or 0x-prefixed hexadecimal ids.
func parseWindowID(raw string) (uint32, error) {
	id, err := strconv.ParseUint(raw, 0, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid window id %q", raw)
	}
	return uint32(id), nil
}
