package window

import (
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/taskwatch/internal/icon"
	"github.com/bryanchriswhite/taskwatch/internal/logger"
	"github.com/bryanchriswhite/taskwatch/internal/x11"
)

// unknownTitle is used when no title property could be read at all.
const unknownTitle = "Unknown"

// Display is the read side of an X connection.
type Display interface {
	x11.PropertyReader
	Atoms() *x11.Atoms
	Root() xproto.Window
}

// IconResolver finds a themed icon file for a window class.
type IconResolver interface {
	ResolveByClass(class string) (string, bool)
}

// Builder turns window handles into Records. It never fails: unreadable
// properties degrade to defaults.
type Builder struct {
	display Display
	icons   IconResolver
}

// NewBuilder returns a Builder reading from display. icons may be nil, in
// which case only embedded icons are used.
func NewBuilder(display Display, icons IconResolver) *Builder {
	return &Builder{display: display, icons: icons}
}

// Build reads title, class, PID and icon for id.
func (b *Builder) Build(id uint32) Record {
	win := xproto.Window(id)
	atoms := b.display.Atoms()

	rec := Record{
		ID:    id,
		Title: Title(b.display, id),
	}

	if raw, err := b.display.ReadText(win, atoms.WMClass, atoms.String); err == nil {
		rec.Class = ParseClass(raw)
	} else {
		logger.WithComponent("sensor").Debug().Err(err).Uint32("window", id).Msg("No WM_CLASS")
	}

	if pids, err := b.display.ReadIDList(win, atoms.NetWMPID, xproto.AtomCardinal); err == nil && len(pids) > 0 {
		rec.PID = pids[0]
	}

	if b.icons != nil {
		if path, ok := b.icons.ResolveByClass(rec.Class); ok {
			rec.Icon = ThemedIcon{Path: path}
			return rec
		}
	}
	if raw, ok := icon.ReadEmbedded(b.display, win, atoms.NetWMIcon); ok {
		rec.Icon = EmbeddedIcon{RawIcon: raw}
	}
	return rec
}

// Title returns the window's title as ReadTitle finds it, or "Unknown"
// when no title property could be read.
func Title(d Display, id uint32) string {
	if title, ok := ReadTitle(d, id); ok {
		return title
	}
	return unknownTitle
}

// ReadTitle tries the UTF-8 title, then WM_NAME as UTF-8, then WM_NAME in
// the legacy encoding. The first non-empty value wins. A read that
// succeeds with an empty value (the server answers a type mismatch that
// way) does not stop the search. ok is false when every read failed.
func ReadTitle(d Display, id uint32) (title string, ok bool) {
	win := xproto.Window(id)
	atoms := d.Atoms()
	sources := [][2]xproto.Atom{
		{atoms.NetWMName, atoms.UTF8String},
		{atoms.WMName, atoms.UTF8String},
		{atoms.WMName, atoms.String},
	}

	for _, src := range sources {
		text, err := d.ReadText(win, src[0], src[1])
		if err != nil {
			continue
		}
		if text != "" {
			return text, true
		}
		ok = true
	}
	return "", ok
}

// ParseClass extracts the class from a raw WM_CLASS value, which holds
// two NUL-terminated strings: instance, then class. The class is used
// when present, the instance otherwise.
func ParseClass(raw string) string {
	parts := strings.Split(raw, "\x00")
	if len(parts) >= 2 && parts[1] != "" {
		return parts[1]
	}
	return parts[0]
}

// ClientList reads the window manager's list of managed windows.
func ClientList(d Display) ([]uint32, error) {
	return d.ReadIDList(d.Root(), d.Atoms().ClientList, xproto.AtomWindow)
}

// ActiveWindow reads _NET_ACTIVE_WINDOW; the result may be empty.
func ActiveWindow(d Display) ([]uint32, error) {
	return d.ReadIDList(d.Root(), d.Atoms().ActiveWindow, xproto.AtomWindow)
}

// Snapshot builds a Record for every managed window that passes filter,
// in client list order.
func Snapshot(d Display, icons IconResolver, filter Filter) ([]Record, error) {
	ids, err := ClientList(d)
	if err != nil {
		return nil, err
	}

	b := NewBuilder(d, icons)
	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		rec := b.Build(id)
		if filter.ShouldSkip(rec) {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
