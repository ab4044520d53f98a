// Package api exposes the tracker over a local HTTP server: live status,
// the track log, annotation actions and export triggers. It stands in for
// the WebView buttons of the handheld build.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/detect-field/trackpoint/internal/export"
	"github.com/detect-field/trackpoint/internal/services"
	"github.com/detect-field/trackpoint/internal/session"
	"github.com/detect-field/trackpoint/internal/store"
	"github.com/detect-field/trackpoint/pkg/prefs"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Server represents the local status API server.
type Server struct {
	session  *session.Session
	exporter *services.ExportService
	archive  *store.Store
	prefs    prefs.PreferencesInterface
	router   *mux.Router
	logger   zerolog.Logger
}

// NewServer creates a new API server. The archive may be nil when the agent
// runs without a session database.
func NewServer(sess *session.Session, exporter *services.ExportService, archive *store.Store,
	preferences prefs.PreferencesInterface, logger zerolog.Logger) *Server {
	s := &Server{
		session:  sess,
		exporter: exporter,
		archive:  archive,
		prefs:    preferences,
		logger:   logger,
	}
	s.router = mux.NewRouter()
	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router.HandleFunc("/api/v1/status", s.handleStatus).Methods("GET")
	s.router.HandleFunc("/api/v1/points", s.handlePoints).Methods("GET")

	s.router.HandleFunc("/api/v1/tracking/start", s.handleStartTracking).Methods("POST")
	s.router.HandleFunc("/api/v1/tracking/stop", s.handleStopTracking).Methods("POST")
	s.router.HandleFunc("/api/v1/note", s.handleDropNote).Methods("POST")
	s.router.HandleFunc("/api/v1/takeoff", s.handleMarkTakeOff).Methods("POST")
	s.router.HandleFunc("/api/v1/reset", s.handleReset).Methods("POST")

	s.router.HandleFunc("/api/v1/transport", s.handleSetTransport).Methods("PUT")
	s.router.HandleFunc("/api/v1/user", s.handleSetUser).Methods("PUT")

	s.router.HandleFunc("/api/v1/export", s.handleExport).Methods("POST")
	s.router.HandleFunc("/api/v1/sessions", s.handleListSessions).Methods("GET")
	s.router.HandleFunc("/api/v1/sessions/{id}/export", s.handleExportArchived).Methods("POST")

	s.router.Use(s.loggingMiddleware)
	s.router.Use(jsonMiddleware)
}

// Router returns the configured router.
func (s *Server) Router() *mux.Router {
	return s.router
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("API request")
	})
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp apiResponse) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func writeData(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, apiResponse{Success: false, Error: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeData(w, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.session.Status())
}

func (s *Server) handlePoints(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.session.Snapshot())
}

func (s *Server) handleStartTracking(w http.ResponseWriter, r *http.Request) {
	s.session.StartTracking()
	writeData(w, s.session.Status())
}

func (s *Server) handleStopTracking(w http.ResponseWriter, r *http.Request) {
	s.session.StopTracking()
	writeData(w, s.session.Status())
}

func (s *Server) handleDropNote(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.session.SetNoteOnLatest(body.Text); err != nil {
		// Both failure modes are transient; the session stays valid.
		writeError(w, http.StatusConflict, err)
		return
	}
	writeData(w, s.session.Status())
}

func (s *Server) handleMarkTakeOff(w http.ResponseWriter, r *http.Request) {
	if err := s.session.MarkTakeOffOnLatest(); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeData(w, s.session.Status())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.session.Reset()
	writeData(w, s.session.Status())
}

func (s *Server) handleSetTransport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.session.SetManualMode(body.Mode); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.prefs.SaveTransportMode(body.Mode); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist transport mode")
	}
	writeData(w, s.session.Status())
}

func (s *Server) handleSetUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		User string `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.session.SetUser(body.User)
	if err := s.prefs.SaveActiveUser(body.User); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist active user")
	}
	writeData(w, s.session.Status())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	files, err := s.exporter.ExportCurrent()
	if err != nil {
		if errors.Is(err, export.ErrExportEmpty) {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeData(w, map[string]string{"csv": files.CSVName, "kml": files.KMLName})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotFound, errors.New("session archive not configured"))
		return
	}
	records, err := s.archive.ListSessions()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeData(w, records)
}

func (s *Server) handleExportArchived(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	files, err := s.exporter.ExportArchived(id)
	if err != nil {
		if errors.Is(err, export.ErrExportEmpty) {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeData(w, map[string]string{"csv": files.CSVName, "kml": files.KMLName})
}
