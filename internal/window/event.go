package window

import "encoding/json"

// EventKind names an Event variant on the wire.
type EventKind string

const (
	KindFullScan    EventKind = "full_scan"
	KindWindowOpen  EventKind = "window_open"
	KindWindowClose EventKind = "window_close"
	KindFocusChange EventKind = "focus_change"
)

// Event is one sensor emission: FullScan, WindowOpen, WindowClose or
// FocusChange.
type Event interface {
	Kind() EventKind
}

// FullScan reports every reportable window at once.
type FullScan struct {
	Windows []Record
}

// WindowOpen reports a window that joined the client list.
type WindowOpen struct {
	Window Record
}

// WindowClose reports a window that left the client list.
type WindowClose struct {
	ID uint32
}

// FocusChange reports a new value of _NET_ACTIVE_WINDOW.
type FocusChange struct {
	ID uint32
}

func (FullScan) Kind() EventKind    { return KindFullScan }
func (WindowOpen) Kind() EventKind  { return KindWindowOpen }
func (WindowClose) Kind() EventKind { return KindWindowClose }
func (FocusChange) Kind() EventKind { return KindFocusChange }

func (e FullScan) MarshalJSON() ([]byte, error) {
	windows := e.Windows
	if windows == nil {
		windows = []Record{}
	}
	return json.Marshal(struct {
		Type    EventKind `json:"type"`
		Windows []Record  `json:"windows"`
	}{e.Kind(), windows})
}

func (e WindowOpen) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   EventKind `json:"type"`
		Window Record    `json:"window"`
	}{e.Kind(), e.Window})
}

func (e WindowClose) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type EventKind `json:"type"`
		ID   uint32    `json:"id"`
	}{e.Kind(), e.ID})
}

func (e FocusChange) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type EventKind `json:"type"`
		ID   uint32    `json:"id"`
	}{e.Kind(), e.ID})
}
