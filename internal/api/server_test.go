package api

import (
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bryanchriswhite/taskwatch/internal/actions"
	"github.com/bryanchriswhite/taskwatch/internal/desktop"
	"github.com/bryanchriswhite/taskwatch/internal/icon"
	"github.com/bryanchriswhite/taskwatch/internal/window"
	"github.com/gorilla/websocket"
)

type recordingController struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (c *recordingController) record(name string, id uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, fmt.Sprintf("%s:%d", name, id))
	return c.err
}

func (c *recordingController) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func (c *recordingController) recorded() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *recordingController) Activate(id uint32) error       { return c.record("activate", id) }
func (c *recordingController) SetAlwaysOnTop(id uint32) error { return c.record("above", id) }
func (c *recordingController) SetSkipTaskbar(id uint32) error { return c.record("skip", id) }

func testServer(t *testing.T, tr *Tracker, ctl Controller) *httptest.Server {
	t.Helper()
	apps := func() []desktop.AppEntry {
		return []desktop.AppEntry{{Name: "Files", Exec: "nautilus", IconName: "org.gnome.Nautilus"}}
	}
	srv := httptest.NewServer(NewServer(tr, ctl, apps, 16).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if v != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestGetWindows(t *testing.T) {
	tr := NewTracker()
	tr.Apply(window.WindowOpen{Window: window.Record{ID: 1, Title: "Files", Class: "Nautilus"}})
	tr.Apply(window.WindowOpen{Window: window.Record{ID: 2, Title: "Term", Class: "Term"}})
	tr.Apply(window.FocusChange{ID: 2})
	srv := testServer(t, tr, &recordingController{})

	var windows []struct {
		ID       uint32 `json:"id"`
		Title    string `json:"title"`
		IsActive bool   `json:"is_active"`
	}
	if code := getJSON(t, srv.URL+"/api/windows", &windows); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(windows) != 2 || windows[0].ID != 1 || windows[1].ID != 2 {
		t.Fatalf("windows = %+v", windows)
	}
	if windows[0].IsActive || !windows[1].IsActive {
		t.Errorf("active flags = %v %v, want false true", windows[0].IsActive, windows[1].IsActive)
	}

	tests := []struct {
		path string
		code int
	}{
		{"/api/windows/1", http.StatusOK},
		{"/api/windows/0x2", http.StatusOK},
		{"/api/windows/3", http.StatusNotFound},
		{"/api/windows/abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if code := getJSON(t, srv.URL+tt.path, nil); code != tt.code {
			t.Errorf("GET %s = %d, want %d", tt.path, code, tt.code)
		}
	}
}

func TestWindowIcon(t *testing.T) {
	dir := t.TempDir()
	themed := filepath.Join(dir, "files.svg")
	if err := os.WriteFile(themed, []byte("<svg/>"), 0644); err != nil {
		t.Fatal(err)
	}

	tr := NewTracker()
	tr.Apply(window.WindowOpen{Window: window.Record{ID: 1, Icon: window.ThemedIcon{Path: themed}}})
	tr.Apply(window.WindowOpen{Window: window.Record{ID: 2, Icon: window.EmbeddedIcon{RawIcon: icon.RawIcon{
		Width: 2, Height: 2, Pixels: make([]byte, 16),
	}}}})
	tr.Apply(window.WindowOpen{Window: window.Record{ID: 3}})
	srv := testServer(t, tr, &recordingController{})

	t.Run("themed", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/windows/1/icon")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/svg") {
			t.Errorf("Content-Type = %q", ct)
		}
	})

	t.Run("embedded", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/windows/2/icon?size=8")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		img, err := png.Decode(resp.Body)
		if err != nil {
			t.Fatalf("decode png: %v", err)
		}
		if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 8 {
			t.Errorf("icon size = %v, want 8x8", b)
		}
	})

	t.Run("missing", func(t *testing.T) {
		if code := getJSON(t, srv.URL+"/api/windows/3/icon", nil); code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", code)
		}
	})

	t.Run("bad size", func(t *testing.T) {
		if code := getJSON(t, srv.URL+"/api/windows/2/icon?size=-1", nil); code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", code)
		}
	})
}

func TestWindowActions(t *testing.T) {
	ctl := &recordingController{}
	srv := testServer(t, NewTracker(), ctl)

	for _, action := range []string{"activate", "above", "skip-taskbar"} {
		resp, err := http.Post(srv.URL+"/api/windows/7/"+action, "application/json", nil)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("POST %s = %d", action, resp.StatusCode)
		}
	}
	want := []string{"activate:7", "above:7", "skip:7"}
	if got := ctl.recorded(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", got, want)
	}

	resp, err := http.Post(srv.URL+"/api/windows/7/minimize", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown action status = %d, want 404", resp.StatusCode)
	}

	ctl.setErr(actions.ErrNotFound)
	resp, err = http.Post(srv.URL+"/api/windows/7/activate", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("not found status = %d, want 404", resp.StatusCode)
	}
}

func TestAppsAndHealth(t *testing.T) {
	tr := NewTracker()
	tr.Apply(window.FocusChange{ID: 9})
	srv := testServer(t, tr, &recordingController{})

	var apps []desktop.AppEntry
	if code := getJSON(t, srv.URL+"/api/apps", &apps); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(apps) != 1 || apps[0].Name != "Files" {
		t.Errorf("apps = %+v", apps)
	}

	var health map[string]any
	getJSON(t, srv.URL+"/api/health", &health)
	if health["status"] != "healthy" || health["active_window"] != float64(9) {
		t.Errorf("health = %v", health)
	}

	events := make(chan window.Event)
	close(events)
	tr.Run(events)
	getJSON(t, srv.URL+"/api/health", &health)
	if health["status"] != "sensor stopped" {
		t.Errorf("health after stop = %v", health)
	}
}

func TestEventStream(t *testing.T) {
	tr := NewTracker()
	tr.Apply(window.WindowOpen{Window: window.Record{ID: 1, Title: "Files"}})
	srv := testServer(t, tr, &recordingController{})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first struct {
		Type    string `json:"type"`
		Windows []struct {
			ID uint32 `json:"id"`
		} `json:"windows"`
	}
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if first.Type != "full_scan" || len(first.Windows) != 1 || first.Windows[0].ID != 1 {
		t.Errorf("snapshot = %+v", first)
	}

	// The subscription is registered before the snapshot is written.
	tr.Apply(window.WindowClose{ID: 1})

	var next struct {
		Type string `json:"type"`
		ID   uint32 `json:"id"`
	}
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if next.Type != "window_close" || next.ID != 1 {
		t.Errorf("event = %+v", next)
	}
}
