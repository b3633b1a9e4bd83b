package x11

import (
	"errors"
	"testing"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

func words(vals ...uint32) []byte {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		xgb.Put32(buf[i*4:], v)
	}
	return buf
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name    string
		reply   *xproto.GetPropertyReply
		want    string
		wantErr bool
	}{
		{
			name:  "utf8 title",
			reply: &xproto.GetPropertyReply{Format: 8, ValueLen: 6, Value: []byte("héllo")},
			want:  "héllo",
		},
		{
			name:  "class with nul separators",
			reply: &xproto.GetPropertyReply{Format: 8, ValueLen: 16, Value: []byte("firefox\x00Firefox\x00")},
			want:  "firefox\x00Firefox\x00",
		},
		{
			name:  "invalid bytes are replaced",
			reply: &xproto.GetPropertyReply{Format: 8, ValueLen: 3, Value: []byte{'a', 0xff, 'b'}},
			want:  "a�b",
		},
		{
			name:  "empty 8-bit value",
			reply: &xproto.GetPropertyReply{Format: 8},
			want:  "",
		},
		{
			name:    "missing property",
			reply:   &xproto.GetPropertyReply{Format: 0},
			wantErr: true,
		},
		{
			name:    "32-bit value",
			reply:   &xproto.GetPropertyReply{Format: 32, ValueLen: 1, Value: words(7)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeText(tt.reply)
			if tt.wantErr {
				if !errors.Is(err, ErrFormat) {
					t.Fatalf("DecodeText() error = %v, want ErrFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeText() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeIDList(t *testing.T) {
	t.Run("values follow wire order", func(t *testing.T) {
		reply := &xproto.GetPropertyReply{Format: 32, ValueLen: 3, Value: words(0x1a00003, 0x2c00001, 7)}
		got, err := DecodeIDList(reply)
		if err != nil {
			t.Fatalf("DecodeIDList() unexpected error: %v", err)
		}
		want := []uint32{0x1a00003, 0x2c00001, 7}
		if len(got) != len(want) {
			t.Fatalf("DecodeIDList() = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("DecodeIDList()[%d] = %#x, want %#x", i, got[i], want[i])
			}
		}
	})

	t.Run("empty reply with wrong unit size is empty", func(t *testing.T) {
		got, err := DecodeIDList(&xproto.GetPropertyReply{Format: 0, ValueLen: 0})
		if err != nil {
			t.Fatalf("DecodeIDList() unexpected error: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("DecodeIDList() = %#v, want empty slice", got)
		}
	})

	t.Run("non-empty reply with wrong unit size fails", func(t *testing.T) {
		_, err := DecodeIDList(&xproto.GetPropertyReply{Format: 8, ValueLen: 4, Value: []byte("abcd")})
		if !errors.Is(err, ErrFormat) {
			t.Errorf("DecodeIDList() error = %v, want ErrFormat", err)
		}
	})

	t.Run("trailing partial word is dropped", func(t *testing.T) {
		value := append(words(5), 0x01, 0x02)
		got, err := DecodeIDList(&xproto.GetPropertyReply{Format: 32, ValueLen: 2, Value: value})
		if err != nil {
			t.Fatalf("DecodeIDList() unexpected error: %v", err)
		}
		if len(got) != 1 || got[0] != 5 {
			t.Errorf("DecodeIDList() = %v, want [5]", got)
		}
	})
}

func TestClientMessage(t *testing.T) {
	ev := ClientMessage(0x3a00007, 301, [5]uint32{1, 0, 0, 0, 0})
	buf := ev.Bytes()

	if len(buf) != 32 {
		t.Fatalf("len(Bytes()) = %d, want 32", len(buf))
	}
	if buf[0] != xproto.ClientMessage {
		t.Errorf("event code = %d, want %d", buf[0], xproto.ClientMessage)
	}
	if buf[1] != 32 {
		t.Errorf("format = %d, want 32", buf[1])
	}
	if got := xgb.Get32(buf[4:]); got != 0x3a00007 {
		t.Errorf("window = %#x, want 0x3a00007", got)
	}
	if got := xgb.Get32(buf[8:]); got != 301 {
		t.Errorf("type = %d, want 301", got)
	}
	if got := xgb.Get32(buf[12:]); got != 1 {
		t.Errorf("data[0] = %d, want 1", got)
	}
}

func TestAtomSlots(t *testing.T) {
	var a Atoms
	slots := a.slots()
	seen := make(map[string]bool, len(slots))
	fields := make(map[*xproto.Atom]bool, len(slots))
	for _, s := range slots {
		if seen[s.name] {
			t.Errorf("atom %s listed twice", s.name)
		}
		seen[s.name] = true
		if fields[s.dst] {
			t.Errorf("atom %s shares a field with another atom", s.name)
		}
		fields[s.dst] = true
	}

	for _, want := range []string{
		"_NET_CLIENT_LIST",
		"_NET_ACTIVE_WINDOW",
		"WM_CLASS",
		"_NET_WM_ICON",
		"_NET_WM_STATE_SKIP_TASKBAR",
		"_NET_WM_STATE_SKIP_PAGER",
		"_NET_WM_STATE_ABOVE",
	} {
		if !seen[want] {
			t.Errorf("atom table missing %s", want)
		}
	}
}
