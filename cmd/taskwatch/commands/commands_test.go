package commands

import (
	"testing"

	"github.com/bryanchriswhite/taskwatch/internal/window"
)

func TestParseWindowID(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"60817415", 60817415, false},
		{"0x3a00007", 0x3a00007, false},
		{"0X3A00007", 0x3a00007, false},
		{"", 0, true},
		{"0", 0, true},
		{"window", 0, true},
		{"0x1ffffffff", 0, true},
	}
	for _, tt := range tests {
		got, err := parseWindowID(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseWindowID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseWindowID(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

func TestActionCommandsRegistered(t *testing.T) {
	for _, name := range []string{"watch", "list", "apps", "icon", "activate", "above", "skip-taskbar", "serve", "config"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}

	for _, a := range windowActions {
		cmd := newActionCmd(a)
		if cmd.Flags().Lookup("id") == nil || cmd.Flags().Lookup("title") == nil {
			t.Errorf("%s lacks --id or --title", a.use)
		}
	}
}

func TestIconSummary(t *testing.T) {
	if got := iconSummary(window.Record{Icon: window.ThemedIcon{Path: "/i/x.png"}}); got != "/i/x.png" {
		t.Errorf("themed summary = %q", got)
	}
	if got := iconSummary(window.Record{}); got != "-" {
		t.Errorf("empty summary = %q", got)
	}
	if got := processName(0); got != "-" {
		t.Errorf("processName(0) = %q", got)
	}
}
