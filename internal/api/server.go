package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bryanchriswhite/taskwatch/internal/actions"
	"github.com/bryanchriswhite/taskwatch/internal/desktop"
	"github.com/bryanchriswhite/taskwatch/internal/logger"
	"github.com/bryanchriswhite/taskwatch/internal/window"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Controller performs the outbound window manager actions.
type Controller interface {
	Activate(id uint32) error
	SetAlwaysOnTop(id uint32) error
	SetSkipTaskbar(id uint32) error
}

// Server represents the HTTP API server
type Server struct {
	router   *mux.Router
	tracker  *Tracker
	actions  Controller
	apps     func() []desktop.AppEntry
	iconSize int
	upgrader websocket.Upgrader
	http     *http.Server
}

// NewServer creates a new API server. apps lists launchable applications
// and may be nil; iconSize is the edge length embedded icons are served at.
func NewServer(tracker *Tracker, ctl Controller, apps func() []desktop.AppEntry, iconSize int) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		tracker:  tracker,
		actions:  ctl,
		apps:     apps,
		iconSize: iconSize,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // the dock is served from file:// or another port
			},
		},
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Window state
	api.HandleFunc("/windows", s.handleGetWindows).Methods("GET")
	api.HandleFunc("/windows/{id}", s.handleGetWindow).Methods("GET")
	api.HandleFunc("/windows/{id}/icon", s.handleGetIcon).Methods("GET")
	api.HandleFunc("/events", s.handleEventStream)

	// Window manager requests
	api.HandleFunc("/windows/{id}/{action}", s.handleAction).Methods("POST")

	// Launcher
	api.HandleFunc("/apps", s.handleGetApps).Methods("GET")

	// Health check
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the routes wrapped with CORS headers.
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.router)
}

// Start serves on port until Shutdown is called.
func (s *Server) Start(port int) error {
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.WithComponent("api").Info().
		Str("addr", s.http.Addr).
		Msg("Starting HTTP server")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops a server started with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// enableCORS adds CORS headers
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithComponent("api").Debug().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// windowID parses the {id} route variable, decimal or 0x-prefixed hex.
func windowID(r *http.Request) (uint32, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid window id %q", raw)
	}
	return uint32(id), nil
}

// HTTP Handlers

func (s *Server) handleGetWindows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Windows())
}

func (s *Server) handleGetWindow(w http.ResponseWriter, r *http.Request) {
	id, err := windowID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, ok := s.tracker.Window(id)
	if !ok {
		writeError(w, http.StatusNotFound, "window not tracked")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGetIcon(w http.ResponseWriter, r *http.Request) {
	id, err := windowID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, ok := s.tracker.Window(id)
	if !ok {
		writeError(w, http.StatusNotFound, "window not tracked")
		return
	}

	if path, ok := rec.IconPath(); ok {
		http.ServeFile(w, r, path)
		return
	}

	raw, ok := rec.IconData()
	if !ok {
		writeError(w, http.StatusNotFound, "window has no icon")
		return
	}

	size := s.iconSize
	if q := r.URL.Query().Get("size"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 || n > 1024 {
			writeError(w, http.StatusBadRequest, "invalid size")
			return
		}
		size = n
	}

	var buf bytes.Buffer
	if err := raw.WritePNG(&buf, size); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	id, err := windowID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var act actions.Action
	switch name := mux.Vars(r)["action"]; name {
	case "activate":
		act = s.actions.Activate
	case "above":
		act = s.actions.SetAlwaysOnTop
	case "skip-taskbar":
		act = s.actions.SetSkipTaskbar
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown action %q", name))
		return
	}

	if err := act(id); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, actions.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleGetApps(w http.ResponseWriter, r *http.Request) {
	apps := []desktop.AppEntry{}
	if s.apps != nil {
		apps = s.apps()
	}
	writeJSON(w, http.StatusOK, apps)
}

// handleEventStream sends the current window list as a full_scan event,
// then every event the tracker sees.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("api")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	updates := s.tracker.Subscribe()
	defer s.tracker.Unsubscribe(updates)

	if err := conn.WriteJSON(window.FullScan{Windows: s.tracker.Windows()}); err != nil {
		log.Debug().Err(err).Msg("WebSocket write failed")
		return
	}

	// Drain client frames so close messages are processed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-updates:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "event stream ended"))
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				log.Debug().Err(err).Msg("WebSocket write failed")
				return
			}
		case <-closed:
			return
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if s.tracker.Stopped() {
		status = "sensor stopped"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        status,
		"windows":       len(s.tracker.Windows()),
		"active_window": s.tracker.Active(),
	})
}
