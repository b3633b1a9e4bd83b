package actions

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/taskwatch/internal/logger"
	"github.com/bryanchriswhite/taskwatch/internal/window"
	"github.com/bryanchriswhite/taskwatch/internal/x11"
)

// ErrNotFound reports that no window carries the requested title.
var ErrNotFound = errors.New("window not found")

// _NET_WM_STATE and _NET_ACTIVE_WINDOW message fields.
const (
	stateAdd          = 1
	sourceApplication = 1
	currentTime       = 0
)

// Conn is the part of an X connection the actions need.
type Conn interface {
	window.Display
	Children(win xproto.Window) ([]xproto.Window, error)
	SendClientMessage(win xproto.Window, typ xproto.Atom, data [5]uint32) error
	Close()
}

// Action is applied to a window found by title.
type Action func(id uint32) error

// Controller sends window manager requests. Every request opens its own
// connection and closes it when done, so a Controller is safe to share.
type Controller struct {
	dial func() (Conn, error)
}

// New returns a Controller for display (empty means $DISPLAY).
func New(display string) *Controller {
	return NewWithDialer(func() (Conn, error) {
		c, err := x11.Dial(display)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

// NewWithDialer returns a Controller opening connections with dial.
func NewWithDialer(dial func() (Conn, error)) *Controller {
	return &Controller{dial: dial}
}

// Activate asks the window manager to focus and raise id.
func (c *Controller) Activate(id uint32) error {
	return c.send(id, "activate", func(a *x11.Atoms) []message {
		return []message{{a.ActiveWindow, [5]uint32{sourceApplication, currentTime, 0, 0, 0}}}
	})
}

// SetAlwaysOnTop adds _NET_WM_STATE_ABOVE to id.
func (c *Controller) SetAlwaysOnTop(id uint32) error {
	return c.send(id, "always-on-top", func(a *x11.Atoms) []message {
		return []message{addState(a, a.StateAbove)}
	})
}

// SetSkipTaskbar hides id from taskbars and pagers.
func (c *Controller) SetSkipTaskbar(id uint32) error {
	return c.send(id, "skip-taskbar", func(a *x11.Atoms) []message {
		return []message{
			addState(a, a.StateSkipTaskbar),
			addState(a, a.StateSkipPager),
		}
	})
}

type message struct {
	typ  xproto.Atom
	data [5]uint32
}

func addState(a *x11.Atoms, state xproto.Atom) message {
	return message{a.NetWMState, [5]uint32{stateAdd, uint32(state), 0, sourceApplication, 0}}
}

func (c *Controller) send(id uint32, name string, build func(*x11.Atoms) []message) error {
	conn, err := c.dial()
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	defer conn.Close()

	for _, m := range build(conn.Atoms()) {
		if err := conn.SendClientMessage(xproto.Window(id), m.typ, m.data); err != nil {
			return fmt.Errorf("%s %#x: %w", name, id, err)
		}
	}

	logger.WithComponent("actions").Debug().
		Str("action", name).
		Uint32("window", id).
		Msg("Sent window manager request")
	return nil
}

// FindByTitle returns the window whose title is exactly title. The
// managed client list is searched first. After that the root's children
// are searched, then their children; a match at that second level
// yields its parent, since window manager frames wrap the real client.
func (c *Controller) FindByTitle(title string) (uint32, error) {
	conn, err := c.dial()
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	return findByTitle(conn, title)
}

// FindAndActOnWindowByTitle applies act to the window FindByTitle
// locates and returns its id.
func (c *Controller) FindAndActOnWindowByTitle(title string, act Action) (uint32, error) {
	id, err := c.FindByTitle(title)
	if err != nil {
		return 0, err
	}
	return id, act(id)
}

func findByTitle(conn Conn, title string) (uint32, error) {
	log := logger.WithComponent("actions")

	clients, err := window.ClientList(conn)
	if err != nil {
		log.Debug().Err(err).Msg("Client list unavailable, walking window tree")
	}
	for _, id := range clients {
		if hasTitle(conn, id, title) {
			return id, nil
		}
	}

	children, err := conn.Children(conn.Root())
	if err != nil {
		return 0, err
	}
	for _, child := range children {
		if hasTitle(conn, uint32(child), title) {
			return uint32(child), nil
		}
		grandchildren, err := conn.Children(child)
		if err != nil {
			continue
		}
		for _, gc := range grandchildren {
			if hasTitle(conn, uint32(gc), title) {
				return uint32(child), nil
			}
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrNotFound, title)
}

// hasTitle reports whether id carries exactly title. Windows whose title
// could not be read never match.
func hasTitle(conn Conn, id uint32, title string) bool {
	got, ok := window.ReadTitle(conn, id)
	return ok && got == title
}
