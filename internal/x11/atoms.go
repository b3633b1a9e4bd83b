package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// Atoms is the fixed set of atoms used by the sensor and the outbound
// actions. It is resolved once per connection and never modified.
type Atoms struct {
	ClientList   xproto.Atom // _NET_CLIENT_LIST
	ActiveWindow xproto.Atom // _NET_ACTIVE_WINDOW
	WMName       xproto.Atom
	NetWMName    xproto.Atom
	WMClass      xproto.Atom
	UTF8String   xproto.Atom
	String       xproto.Atom
	NetWMIcon    xproto.Atom
	NetWMPID     xproto.Atom

	NetWMState       xproto.Atom
	StateAbove       xproto.Atom
	StateSkipTaskbar xproto.Atom
	StateSkipPager   xproto.Atom
}

// slots pairs every atom name with the field it is stored in.
func (a *Atoms) slots() []struct {
	name string
	dst  *xproto.Atom
} {
	return []struct {
		name string
		dst  *xproto.Atom
	}{
		{"_NET_CLIENT_LIST", &a.ClientList},
		{"_NET_ACTIVE_WINDOW", &a.ActiveWindow},
		{"WM_NAME", &a.WMName},
		{"_NET_WM_NAME", &a.NetWMName},
		{"WM_CLASS", &a.WMClass},
		{"UTF8_STRING", &a.UTF8String},
		{"STRING", &a.String},
		{"_NET_WM_ICON", &a.NetWMIcon},
		{"_NET_WM_PID", &a.NetWMPID},
		{"_NET_WM_STATE", &a.NetWMState},
		{"_NET_WM_STATE_ABOVE", &a.StateAbove},
		{"_NET_WM_STATE_SKIP_TASKBAR", &a.StateSkipTaskbar},
		{"_NET_WM_STATE_SKIP_PAGER", &a.StateSkipPager},
	}
}

// InternAtoms resolves the whole table. All requests are sent before any
// reply is awaited, so the table costs a single round trip.
func InternAtoms(conn *xgb.Conn) (*Atoms, error) {
	atoms := &Atoms{}
	slots := atoms.slots()

	cookies := make([]xproto.InternAtomCookie, len(slots))
	for i, s := range slots {
		cookies[i] = xproto.InternAtom(conn, false, uint16(len(s.name)), s.name)
	}

	for i, s := range slots {
		reply, err := cookies[i].Reply()
		if err != nil {
			return nil, fmt.Errorf("%w: intern %s: %v", ErrConnection, s.name, err)
		}
		if reply == nil {
			return nil, fmt.Errorf("%w: intern %s: empty reply", ErrConnection, s.name)
		}
		*s.dst = reply.Atom
	}

	return atoms, nil
}
