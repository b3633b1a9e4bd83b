package window

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/taskwatch/internal/x11"
)

const fakeRoot xproto.Window = 0x100

var fakeAtoms = &x11.Atoms{
	ClientList:   301,
	ActiveWindow: 302,
	WMName:       xproto.AtomWmName,
	NetWMName:    303,
	WMClass:      xproto.AtomWmClass,
	UTF8String:   304,
	String:       xproto.AtomString,
	NetWMIcon:    305,
	NetWMPID:     306,
}

// fakeConn is an in-memory X server holding just the properties the
// sensor reads. Tests mutate it between events through its methods.
type fakeConn struct {
	mu       sync.Mutex
	clients  []uint32
	active   []uint32
	netNames map[uint32]string
	names    map[uint32]string
	classes  map[uint32]string
	pids     map[uint32]uint32
	icons    map[uint32][]uint32

	events   chan xgb.Event
	watchErr error
	closed   bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		netNames: make(map[uint32]string),
		names:    make(map[uint32]string),
		classes:  make(map[uint32]string),
		pids:     make(map[uint32]uint32),
		icons:    make(map[uint32][]uint32),
		events:   make(chan xgb.Event, 16),
	}
}

// addWindow registers a window with a UTF-8 title and raw WM_CLASS value.
func (f *fakeConn) addWindow(id uint32, title, class string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.netNames[id] = title
	f.classes[id] = class
}

func (f *fakeConn) setClients(ids ...uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients = append([]uint32(nil), ids...)
}

func (f *fakeConn) setActive(ids ...uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = append([]uint32(nil), ids...)
}

func (f *fakeConn) notify(atom xproto.Atom) {
	f.events <- xproto.PropertyNotifyEvent{Window: fakeRoot, Atom: atom}
}

func (f *fakeConn) Atoms() *x11.Atoms   { return fakeAtoms }
func (f *fakeConn) Root() xproto.Window { return fakeRoot }

func (f *fakeConn) ReadText(win xproto.Window, prop, encoding xproto.Atom) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := uint32(win)
	var (
		v  string
		ok bool
	)
	switch {
	case prop == fakeAtoms.NetWMName && encoding == fakeAtoms.UTF8String:
		v, ok = f.netNames[id]
	case prop == fakeAtoms.WMName && encoding == fakeAtoms.String:
		v, ok = f.names[id]
	case prop == fakeAtoms.WMClass && encoding == fakeAtoms.String:
		v, ok = f.classes[id]
	}
	if !ok {
		return "", fmt.Errorf("%w: expected 8-bit units, got 0", x11.ErrFormat)
	}
	return v, nil
}

func (f *fakeConn) ReadIDList(win xproto.Window, prop, typ xproto.Atom) ([]uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case win == fakeRoot && prop == fakeAtoms.ClientList:
		return append([]uint32{}, f.clients...), nil
	case win == fakeRoot && prop == fakeAtoms.ActiveWindow:
		return append([]uint32{}, f.active...), nil
	case prop == fakeAtoms.NetWMPID:
		if pid, ok := f.pids[uint32(win)]; ok {
			return []uint32{pid}, nil
		}
	}
	return []uint32{}, nil
}

func (f *fakeConn) ReadCardinals(win xproto.Window, prop xproto.Atom) ([]uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.icons[uint32(win)]; ok && prop == fakeAtoms.NetWMIcon {
		return v, nil
	}
	return nil, fmt.Errorf("%w: expected 32-bit units, got 0", x11.ErrFormat)
}

func (f *fakeConn) WatchRoot() error { return f.watchErr }

func (f *fakeConn) NextEvent() (xgb.Event, error) {
	ev, ok := <-f.events
	if !ok {
		return nil, fmt.Errorf("%w: connection closed", x11.ErrConnection)
	}
	return ev, nil
}

// disconnect makes the next NextEvent fail.
func (f *fakeConn) disconnect() {
	close(f.events)
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type mapResolver map[string]string

func (m mapResolver) ResolveByClass(class string) (string, bool) {
	p, ok := m[class]
	return p, ok
}
