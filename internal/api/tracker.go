package api

import (
	"sync"

	"github.com/bryanchriswhite/taskwatch/internal/logger"
	"github.com/bryanchriswhite/taskwatch/internal/window"
)

// listenerBuffer is how many events a slow subscriber may fall behind
// before events are dropped for it.
const listenerBuffer = 16

// Tracker is a consumer of the sensor: it keeps the ordered list of
// reported windows and the active window id, and fans events out to
// subscribers. IsActive on returned records is derived from the last
// FocusChange.
type Tracker struct {
	mu        sync.RWMutex
	windows   []window.Record
	active    uint32
	stopped   bool
	listeners []chan window.Event
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Run applies events until the channel is closed, then closes every
// subscriber channel.
func (t *Tracker) Run(events <-chan window.Event) {
	for ev := range events {
		t.Apply(ev)
	}

	t.mu.Lock()
	t.stopped = true
	listeners := t.listeners
	t.listeners = nil
	t.mu.Unlock()

	for _, ch := range listeners {
		close(ch)
	}
	logger.WithComponent("api").Warn().Msg("Window event stream ended")
}

// Apply folds one event into the tracked state and notifies subscribers.
func (t *Tracker) Apply(ev window.Event) {
	t.mu.Lock()
	switch e := ev.(type) {
	case window.FullScan:
		t.windows = append([]window.Record(nil), e.Windows...)
	case window.WindowOpen:
		if i := t.indexLocked(e.Window.ID); i >= 0 {
			t.windows[i] = e.Window
		} else {
			t.windows = append(t.windows, e.Window)
		}
	case window.WindowClose:
		if i := t.indexLocked(e.ID); i >= 0 {
			t.windows = append(t.windows[:i], t.windows[i+1:]...)
		}
	case window.FocusChange:
		t.active = e.ID
	}
	t.mu.Unlock()

	t.notifyListeners(ev)
}

func (t *Tracker) indexLocked(id uint32) int {
	for i, w := range t.windows {
		if w.ID == id {
			return i
		}
	}
	return -1
}

// Windows returns the tracked windows in the order they were reported.
func (t *Tracker) Windows() []window.Record {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]window.Record, len(t.windows))
	for i, w := range t.windows {
		w.IsActive = w.ID == t.active
		out[i] = w
	}
	return out
}

// Window returns one tracked window.
func (t *Tracker) Window(id uint32) (window.Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	i := t.indexLocked(id)
	if i < 0 {
		return window.Record{}, false
	}
	w := t.windows[i]
	w.IsActive = w.ID == t.active
	return w, true
}

// Active returns the last reported active window id.
func (t *Tracker) Active() uint32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

// Stopped reports whether the event stream has ended.
func (t *Tracker) Stopped() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stopped
}

// Subscribe adds a listener for events. The channel is closed when the
// event stream ends or on Unsubscribe.
func (t *Tracker) Subscribe() chan window.Event {
	ch := make(chan window.Event, listenerBuffer)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		close(ch)
		return ch
	}
	t.listeners = append(t.listeners, ch)
	return ch
}

// Unsubscribe removes a listener
func (t *Tracker) Unsubscribe(ch chan window.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, listener := range t.listeners {
		if listener == ch {
			t.listeners = append(t.listeners[:i], t.listeners[i+1:]...)
			close(ch)
			break
		}
	}
}

// notifyListeners never blocks; a full listener misses the event.
func (t *Tracker) notifyListeners(ev window.Event) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, listener := range t.listeners {
		select {
		case listener <- ev:
		default:
			logger.WithComponent("api").Debug().
				Str("event", string(ev.Kind())).
				Msg("Listener full, dropping event")
		}
	}
}
