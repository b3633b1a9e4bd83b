package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/taskwatch/internal/logger"
)

var (
	// ErrConnection reports that the X connection could not be opened or was lost.
	ErrConnection = errors.New("x11 connection error")
	// ErrFormat reports a property reply with an unexpected unit size.
	ErrFormat = errors.New("unexpected property format")
)

// Conn is a single X connection with its default root window and atom table.
type Conn struct {
	conn  *xgb.Conn
	root  xproto.Window
	atoms *Atoms
}

// Dial connects to display (empty means $DISPLAY) and interns the atom table.
func Dial(display string) (*Conn, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to X server: %v", ErrConnection, err)
	}

	setup := xproto.Setup(conn)
	root := setup.DefaultScreen(conn).Root

	atoms, err := InternAtoms(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	logger.WithComponent("x11").Debug().
		Uint32("root", uint32(root)).
		Str("display", display).
		Msg("Connected to X server")

	return &Conn{
		conn:  conn,
		root:  root,
		atoms: atoms,
	}, nil
}

// Close closes the X connection. A goroutine blocked in NextEvent
// returns ErrConnection afterwards.
func (c *Conn) Close() {
	c.conn.Close()
}

// Root returns the default screen's root window.
func (c *Conn) Root() xproto.Window {
	return c.root
}

// Atoms returns the connection's atom table.
func (c *Conn) Atoms() *Atoms {
	return c.atoms
}

// WatchRoot subscribes to property-change notifications on the root window.
func (c *Conn) WatchRoot() error {
	if err := xproto.ChangeWindowAttributesChecked(
		c.conn,
		c.root,
		xproto.CwEventMask,
		[]uint32{xproto.EventMaskPropertyChange},
	).Check(); err != nil {
		return fmt.Errorf("%w: failed to set event mask: %v", ErrConnection, err)
	}
	return nil
}

// NextEvent blocks until the server delivers an event. X protocol errors
// (for example BadWindow from a window that vanished mid-read) are
// logged and skipped; only a closed connection ends the wait.
func (c *Conn) NextEvent() (xgb.Event, error) {
	log := logger.WithComponent("x11")
	for {
		ev, xerr := c.conn.WaitForEvent()
		if ev == nil && xerr == nil {
			return nil, fmt.Errorf("%w: connection closed", ErrConnection)
		}
		if xerr != nil {
			log.Debug().Str("error", xerr.Error()).Msg("Ignoring X protocol error")
			continue
		}
		return ev, nil
	}
}

// Children lists the direct children of win.
func (c *Conn) Children(win xproto.Window) ([]xproto.Window, error) {
	tree, err := xproto.QueryTree(c.conn, win).Reply()
	if err != nil {
		return nil, fmt.Errorf("query tree %#x: %w", win, err)
	}
	return tree.Children, nil
}

// SendClientMessage sends a 32-bit client message about win to the root
// window, where the window manager picks it up, and waits for the server
// to accept it.
func (c *Conn) SendClientMessage(win xproto.Window, typ xproto.Atom, data [5]uint32) error {
	ev := ClientMessage(win, typ, data)
	if err := xproto.SendEventChecked(
		c.conn,
		false,
		c.root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check(); err != nil {
		return fmt.Errorf("%w: send client message: %v", ErrConnection, err)
	}
	return nil
}

// ClientMessage builds the event SendClientMessage puts on the wire.
func ClientMessage(win xproto.Window, typ xproto.Atom, data [5]uint32) xproto.ClientMessageEvent {
	return xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   typ,
		Data:   xproto.ClientMessageDataUnionData32New(data[:]),
	}
}
