package window

import (
	"encoding/json"

	"github.com/bryanchriswhite/taskwatch/internal/icon"
)

// Icon is the display icon resolved for a window: either a ThemedIcon or
// an EmbeddedIcon. A nil Icon means neither could be found.
type Icon interface {
	isIcon()
}

// ThemedIcon is an icon file found through the desktop index or an icon theme.
type ThemedIcon struct {
	Path string
}

// EmbeddedIcon is a bitmap taken from the window's own _NET_WM_ICON.
type EmbeddedIcon struct {
	icon.RawIcon
}

func (ThemedIcon) isIcon()   {}
func (EmbeddedIcon) isIcon() {}

// Record describes one managed window.
type Record struct {
	ID    uint32
	Title string
	Class string
	PID   uint32
	// IsActive is never set by the sensor; consumers derive it from
	// FocusChange events.
	IsActive bool
	Icon     Icon
}

// IconPath returns the themed icon file, if that is what was resolved.
func (r Record) IconPath() (string, bool) {
	if t, ok := r.Icon.(ThemedIcon); ok {
		return t.Path, true
	}
	return "", false
}

// IconData returns the embedded bitmap, if that is what was resolved.
func (r Record) IconData() (icon.RawIcon, bool) {
	if e, ok := r.Icon.(EmbeddedIcon); ok {
		return e.RawIcon, true
	}
	return icon.RawIcon{}, false
}

type recordJSON struct {
	ID       uint32        `json:"id"`
	Title    string        `json:"title"`
	Class    string        `json:"class"`
	PID      uint32        `json:"pid,omitempty"`
	IsActive bool          `json:"is_active"`
	IconPath string        `json:"icon_path,omitempty"`
	IconData *icon.RawIcon `json:"icon_data,omitempty"`
}

// MarshalJSON flattens the icon variant into icon_path or icon_data.
func (r Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		ID:       r.ID,
		Title:    r.Title,
		Class:    r.Class,
		PID:      r.PID,
		IsActive: r.IsActive,
	}
	if p, ok := r.IconPath(); ok {
		out.IconPath = p
	}
	if d, ok := r.IconData(); ok {
		out.IconData = &d
	}
	return json.Marshal(out)
}
