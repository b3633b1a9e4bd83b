package window

import (
	"fmt"
	"slices"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/taskwatch/internal/logger"
)

// DefaultBuffer is the capacity of the sensor's event channel.
const DefaultBuffer = 32

// Conn is an X connection the sensor can own.
type Conn interface {
	Display
	WatchRoot() error
	NextEvent() (xgb.Event, error)
	Close()
}

// Options configures a Sensor.
type Options struct {
	// Dial opens the connection the sensor will own.
	Dial func() (Conn, error)
	// Icons resolves themed icons; nil leaves only embedded icons.
	Icons IconResolver
	// Filter selects which windows are reported.
	Filter Filter
	// Buffer is the event channel capacity, DefaultBuffer when zero.
	Buffer int
	// FullScan reports the initial windows as one FullScan event instead
	// of a WindowOpen per window.
	FullScan bool
}

// Sensor tracks the window manager's client list and active window and
// reports changes as Events. It owns its connection and its set of known
// windows; both are touched only by the sensor goroutine.
//
// A sensor runs until its connection fails. It is never restarted: when
// it stops, the Events channel is closed and Done is closed.
type Sensor struct {
	conn     Conn
	builder  *Builder
	filter   Filter
	fullScan bool

	events chan Event
	done   chan struct{}
	err    error

	known map[uint32]struct{}
}

// Start connects, subscribes to root window property changes and starts
// the sensor goroutine. Any failure before that point is returned and
// nothing is retried.
func Start(opts Options) (*Sensor, error) {
	if opts.Dial == nil {
		return nil, fmt.Errorf("window sensor: no dialer")
	}
	conn, err := opts.Dial()
	if err != nil {
		return nil, fmt.Errorf("window sensor: %w", err)
	}
	if err := conn.WatchRoot(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("window sensor: %w", err)
	}

	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	s := &Sensor{
		conn:     conn,
		builder:  NewBuilder(conn, opts.Icons),
		filter:   opts.Filter,
		fullScan: opts.FullScan,
		events:   make(chan Event, buffer),
		done:     make(chan struct{}),
		known:    make(map[uint32]struct{}),
	}
	go s.run()
	return s, nil
}

// Events yields the sensor's events in emission order. It is closed when
// the sensor stops.
func (s *Sensor) Events() <-chan Event {
	return s.events
}

// Done is closed when the sensor has stopped.
func (s *Sensor) Done() <-chan struct{} {
	return s.done
}

// Err returns why the sensor stopped. It is only meaningful after Done
// is closed.
func (s *Sensor) Err() error {
	<-s.done
	return s.err
}

func (s *Sensor) run() {
	log := logger.WithComponent("sensor")
	defer close(s.done)
	defer close(s.events)
	defer s.conn.Close()

	if err := s.initialScan(); err != nil {
		s.err = err
		log.Error().Err(err).Msg("Window sensor terminated during initial scan")
		return
	}

	atoms := s.conn.Atoms()
	for {
		ev, err := s.conn.NextEvent()
		if err != nil {
			s.err = err
			log.Error().Err(err).Msg("Window sensor terminated")
			return
		}

		notify, ok := ev.(xproto.PropertyNotifyEvent)
		if !ok {
			continue
		}
		switch notify.Atom {
		case atoms.ClientList:
			s.syncClientList()
		case atoms.ActiveWindow:
			s.focusChanged()
		}
	}
}

func (s *Sensor) initialScan() error {
	ids, err := ClientList(s.conn)
	if err != nil {
		return fmt.Errorf("read client list: %w", err)
	}

	var scan []Record
	for _, id := range ids {
		if _, seen := s.known[id]; seen {
			continue
		}
		rec := s.builder.Build(id)
		s.known[id] = struct{}{}
		if s.filter.ShouldSkip(rec) {
			continue
		}
		if s.fullScan {
			scan = append(scan, rec)
			continue
		}
		s.emit(WindowOpen{Window: rec})
	}

	if s.fullScan {
		s.emit(FullScan{Windows: scan})
	}

	logger.WithComponent("sensor").Info().
		Int("windows", len(s.known)).
		Msg("Initial window scan complete")
	return nil
}

// syncClientList diffs the current client list against the known set.
// Opens are reported only for windows passing the filter; closes are
// reported for every known window that disappeared.
func (s *Sensor) syncClientList() {
	log := logger.WithComponent("sensor")

	ids, err := ClientList(s.conn)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read client list, skipping notification")
		return
	}

	current := make(map[uint32]struct{}, len(ids))
	for _, id := range ids {
		current[id] = struct{}{}
	}

	for _, id := range ids {
		if _, known := s.known[id]; known {
			continue
		}
		rec := s.builder.Build(id)
		s.known[id] = struct{}{}
		if s.filter.ShouldSkip(rec) {
			log.Debug().Uint32("window", id).Str("class", rec.Class).Msg("Tracking filtered window")
			continue
		}
		s.emit(WindowOpen{Window: rec})
	}

	var removed []uint32
	for id := range s.known {
		if _, ok := current[id]; !ok {
			removed = append(removed, id)
		}
	}
	slices.Sort(removed)
	for _, id := range removed {
		delete(s.known, id)
		s.emit(WindowClose{ID: id})
	}
}

func (s *Sensor) focusChanged() {
	ids, err := ActiveWindow(s.conn)
	if err != nil {
		logger.WithComponent("sensor").Debug().Err(err).Msg("Failed to read active window")
		return
	}
	if len(ids) > 0 {
		s.emit(FocusChange{ID: ids[0]})
	}
}

// emit blocks until the consumer takes ev. No X events are read
// meanwhile.
func (s *Sensor) emit(ev Event) {
	s.events <- ev
}
