// ABOUTME: In-memory implementation of the widget REST surface
// ABOUTME: Sessions, transcripts and guest ids live in maps behind one mutex

package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type storedMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// server holds all backend state. Everything resets on restart, which is
// the point: each run is a clean slate for widget development.
type server struct {
	mu       sync.Mutex
	sessions map[string][]storedMessage // session id -> transcript
	guests   map[string]bool            // guest session ids we issued
	views    int

	reply  string // fixed reply; empty means echo
	logger *slog.Logger
}

func newServer(reply string, logger *slog.Logger) *server {
	if logger == nil {
		logger = slog.Default()
	}
	return &server{
		sessions: make(map[string][]storedMessage),
		guests:   make(map[string]bool),
		reply:    reply,
		logger:   logger.With("component", "fake-backend"),
	}
}

// RegisterRoutes mounts the widget REST surface on the given router.
func (s *server) RegisterRoutes(r chi.Router) {
	r.Post("/api/chat/session/init", s.handleInitSession)
	r.Get("/api/chat/history", s.handleHistory)
	r.Post("/api/chat/message", s.handleMessage)
	r.Post("/api/guest/register", s.handleRegisterGuest)
	r.Post("/api/guest/validate", s.handleValidateGuest)
	r.Post("/api/widget/analytics/view", s.handleAnalyticsView)
}

func (s *server) handleInitSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WidgetID       string `json:"widget_id"`
		VisitorID      string `json:"visitor_id"`
		GuestSessionID string `json:"guest_session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.WidgetID == "" {
		respondError(w, http.StatusBadRequest, "widget_id is required")
		return
	}

	sessionID := uuid.New().String()

	s.mu.Lock()
	s.sessions[sessionID] = nil
	s.mu.Unlock()

	s.logger.Info("session initialized",
		"session_id", sessionID,
		"widget_id", req.WidgetID,
		"guest_session_id", req.GuestSessionID)

	respondJSON(w, http.StatusOK, map[string]string{"session_id": sessionID})
}

func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	s.mu.Lock()
	transcript, ok := s.sessions[sessionID]
	msgs := make([]storedMessage, len(transcript))
	copy(msgs, transcript)
	s.mu.Unlock()

	if !ok {
		respondError(w, http.StatusNotFound, "unknown session")
		return
	}
	respondJSON(w, http.StatusOK, msgs)
}

func (s *server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Message   string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[req.SessionID]; !ok {
		respondError(w, http.StatusNotFound, "unknown session")
		return
	}

	reply := s.reply
	if reply == "" {
		reply = fmt.Sprintf("You said: %s", req.Message)
	}

	s.sessions[req.SessionID] = append(s.sessions[req.SessionID],
		storedMessage{Role: "user", Content: req.Message},
		storedMessage{Role: "assistant", Content: reply},
	)

	respondJSON(w, http.StatusOK, map[string]string{"message": reply})
}

func (s *server) handleRegisterGuest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName string `json:"fullname"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		WidgetID string `json:"widget_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.FullName == "" || req.Phone == "" {
		respondJSON(w, http.StatusOK, map[string]any{"success": false})
		return
	}

	guestID := uuid.New().String()

	s.mu.Lock()
	s.guests[guestID] = true
	s.mu.Unlock()

	s.logger.Info("guest registered", "guest_session_id", guestID, "fullname", req.FullName)

	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"session_id": guestID,
	})
}

func (s *server) handleValidateGuest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.mu.Lock()
	valid := s.guests[req.SessionID]
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

func (s *server) handleAnalyticsView(w http.ResponseWriter, r *http.Request) {
	var event struct {
		WidgetID  string `json:"widget_id"`
		VisitorID string `json:"visitor_id"`
		URL       string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.mu.Lock()
	s.views++
	total := s.views
	s.mu.Unlock()

	s.logger.Info("view recorded", "widget_id", event.WidgetID, "url", event.URL, "total", total)
	w.WriteHeader(http.StatusNoContent)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
