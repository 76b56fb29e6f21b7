package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/astra-labs/astra/internal/auth"
	"github.com/astra-labs/astra/internal/session"
)

type messageRequest struct {
	Content string `json:"content"`
}

type themeRequest struct {
	Theme string `json:"theme"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "astra",
		"status":  "ok",
	})
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no identity")
		return
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mgr := s.sessionFor(r, id.UserID)
	if err := mgr.Submit(r.Context(), req.Content); err != nil {
		if errors.Is(err, session.ErrBusy) {
			writeError(w, http.StatusConflict, "a request is already in progress")
			return
		}
		s.logger.Error("submit failed", "user_id", id.UserID, "error", err)
	}
	// The failure, if any, is part of the observable state.
	writeJSON(w, http.StatusOK, mgr.State())
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no identity")
		return
	}
	writeJSON(w, http.StatusOK, s.sessionFor(r, id.UserID).State())
}

func (s *Server) clearChat(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no identity")
		return
	}

	mgr := s.sessionFor(r, id.UserID)
	if err := mgr.Clear(r.Context()); err != nil {
		s.logger.Error("clear failed", "user_id", id.UserID, "error", err)
	}
	writeJSON(w, http.StatusOK, mgr.State())
}

func (s *Server) exportChat(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no identity")
		return
	}

	data, err := s.sessionFor(r, id.UserID).Export()
	if err != nil {
		s.logger.Error("export failed", "user_id", id.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="chat-export.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) getTheme(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no identity")
		return
	}

	theme, err := s.prefs.Theme(r.Context(), id.UserID)
	if err != nil {
		s.logger.Error("read theme failed", "user_id", id.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read preferences")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"theme": theme})
}

func (s *Server) putTheme(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no identity")
		return
	}

	var req themeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.prefs.SetTheme(r.Context(), id.UserID, req.Theme); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"theme": req.Theme})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
