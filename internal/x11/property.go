package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

const (
	// textWindowBytes bounds how much of a text property is requested.
	textWindowBytes = 4096
	// idListLength bounds window-handle lists, in 32-bit units.
	idListLength = 4096
	// unbounded asks the server for the whole property.
	unbounded = (1 << 32) - 1
)

// PropertyReader is the read side of the property codec.
type PropertyReader interface {
	ReadText(win xproto.Window, prop, encoding xproto.Atom) (string, error)
	ReadIDList(win xproto.Window, prop, typ xproto.Atom) ([]uint32, error)
	ReadCardinals(win xproto.Window, prop xproto.Atom) ([]uint32, error)
}

// DecodeText validates an 8-bit property reply and decodes it as UTF-8.
// Invalid byte sequences are replaced rather than rejected.
func DecodeText(reply *xproto.GetPropertyReply) (string, error) {
	if reply == nil {
		return "", fmt.Errorf("%w: no reply", ErrFormat)
	}
	if reply.Format != 8 {
		return "", fmt.Errorf("%w: expected 8-bit units, got %d", ErrFormat, reply.Format)
	}
	return strings.ToValidUTF8(string(reply.Value), "\uFFFD"), nil
}

// DecodeIDList validates a 32-bit property reply and returns its values.
// An empty reply is a normal outcome whatever its declared unit size.
func DecodeIDList(reply *xproto.GetPropertyReply) ([]uint32, error) {
	if reply == nil {
		return nil, fmt.Errorf("%w: no reply", ErrFormat)
	}
	if reply.Format != 32 {
		if reply.ValueLen == 0 {
			return []uint32{}, nil
		}
		return nil, fmt.Errorf("%w: expected 32-bit units, got %d", ErrFormat, reply.Format)
	}

	n := len(reply.Value) / 4
	if int(reply.ValueLen) < n {
		n = int(reply.ValueLen)
	}
	ids := make([]uint32, n)
	for i := range ids {
		// xgb negotiates the connection byte order, Get32 follows it.
		ids[i] = xgb.Get32(reply.Value[i*4:])
	}
	return ids, nil
}

// ReadText reads up to textWindowBytes of a text property.
func (c *Conn) ReadText(win xproto.Window, prop, encoding xproto.Atom) (string, error) {
	reply, err := xproto.GetProperty(c.conn, false, win, prop, encoding, 0, textWindowBytes/4).Reply()
	if err != nil {
		return "", fmt.Errorf("get property %d on %#x: %w", prop, win, err)
	}
	return DecodeText(reply)
}

// ReadIDList reads a bounded list of 32-bit values such as window handles.
func (c *Conn) ReadIDList(win xproto.Window, prop, typ xproto.Atom) ([]uint32, error) {
	reply, err := xproto.GetProperty(c.conn, false, win, prop, typ, 0, idListLength).Reply()
	if err != nil {
		return nil, fmt.Errorf("get property %d on %#x: %w", prop, win, err)
	}
	return DecodeIDList(reply)
}

// ReadCardinals reads a CARDINAL property of any length.
func (c *Conn) ReadCardinals(win xproto.Window, prop xproto.Atom) ([]uint32, error) {
	reply, err := xproto.GetProperty(c.conn, false, win, prop, xproto.AtomCardinal, 0, unbounded).Reply()
	if err != nil {
		return nil, fmt.Errorf("get property %d on %#x: %w", prop, win, err)
	}
	if reply != nil && reply.Format != 32 {
		// Unlike ReadIDList, an absent property is an error here.
		return nil, fmt.Errorf("%w: expected 32-bit units, got %d", ErrFormat, reply.Format)
	}
	return DecodeIDList(reply)
}
