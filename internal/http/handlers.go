package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"neuroflow/internal/core"
	"neuroflow/internal/db"
	"neuroflow/internal/llm"
	"neuroflow/pkg"
)

// Server bundles the dependencies required by the HTTP API.  It implements
// http.Handler so it can be passed straight to http.ListenAndServe.  Repo
// and Notifier are optional: without a database the API still serves the
// conversational flow, it just keeps no local record.
type Server struct {
	Gateway  llm.Gateway
	Intake   *core.Intake
	Repo     *db.Repository
	Notifier *db.Notifier
	Log      *zap.Logger
}

// NewServer constructs a Server.
func NewServer(gw llm.Gateway, intake *core.Intake, repo *db.Repository, notifier *db.Notifier, log *zap.Logger) *Server {
	return &Server{Gateway: gw, Intake: intake, Repo: repo, Notifier: notifier, Log: log}
}

// ServeHTTP dispatches requests based on the URL path.  Minimal routing is
// implemented here to keep dependencies light.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/healthz" && r.Method == http.MethodGet:
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case path == "/api/sessions" && r.Method == http.MethodPost:
		s.handleCreateSession(w, r)
	case strings.HasPrefix(path, "/api/sessions/") && strings.HasSuffix(path, "/messages") && r.Method == http.MethodPost:
		if id := pathSegment(path, 3); id != "" {
			s.handlePostMessage(w, r, id)
			return
		}
		http.NotFound(w, r)
	case strings.HasPrefix(path, "/api/sessions/") && strings.HasSuffix(path, "/terminate") && r.Method == http.MethodPost:
		if id := pathSegment(path, 3); id != "" {
			s.handleTerminate(w, r, id)
			return
		}
		http.NotFound(w, r)
	case strings.HasPrefix(path, "/api/sessions/") && strings.HasSuffix(path, "/note") && r.Method == http.MethodGet:
		if id := pathSegment(path, 3); id != "" {
			s.handleGetNote(w, r, id)
			return
		}
		http.NotFound(w, r)
	case strings.HasPrefix(path, "/api/sessions/") && r.Method == http.MethodGet:
		if id := pathSegment(path, 3); id != "" && pathSegment(path, 4) == "" {
			s.handleGetSession(w, r, id)
			return
		}
		http.NotFound(w, r)
	default:
		http.NotFound(w, r)
	}
}

// pathSegment returns the nth slash-separated segment of path, or "".
func pathSegment(path string, n int) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if n-1 < len(parts) {
		return parts[n-1]
	}
	return ""
}

// handleCreateSession bootstraps a new conversation: a fresh remote thread,
// an optional local session row, and the fixed greeting for the front end to
// show.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	threadID, err := s.Gateway.CreateSession(ctx)
	if err != nil {
		s.Log.Error("session bootstrap failed", zap.Error(err))
		s.writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": "could not start a session, please try again shortly",
		})
		return
	}
	if s.Repo != nil {
		if _, err := s.Repo.CreateSession(ctx, threadID); err != nil {
			s.Log.Warn("session record not persisted", zap.String("session_id", threadID), zap.Error(err))
		}
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{
		"session_id": threadID,
		"greeting":   core.FirstMessage,
	})
}

// handlePostMessage runs one intake turn for the session.
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request, sessionID string) {
	ctx := r.Context()
	var req pkg.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty message"})
		return
	}

	if s.Repo != nil {
		if _, err := s.Repo.CreateMessage(ctx, sessionID, pkg.RolePatient, req.Content); err != nil {
			s.Log.Warn("patient message not persisted", zap.String("session_id", sessionID), zap.Error(err))
		}
	}

	result, err := s.Intake.HandlePatientMessage(ctx, sessionID, req.Content)
	if err != nil {
		s.Log.Error("turn failed", zap.String("session_id", sessionID), zap.Error(err))
		s.writeJSON(w, http.StatusOK, &pkg.TurnResult{Response: core.ApologyMessage})
		return
	}

	if s.Repo != nil {
		if _, err := s.Repo.CreateMessage(ctx, sessionID, pkg.RoleAssistant, result.Response); err != nil {
			s.Log.Warn("assistant message not persisted", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	s.recordTermination(ctx, sessionID, result)
	s.writeJSON(w, http.StatusOK, result)
}

// handleTerminate ends the session on explicit request, independent of the
// model's own judgment.
func (s *Server) handleTerminate(w http.ResponseWriter, r *http.Request, sessionID string) {
	ctx := r.Context()
	result, err := s.Intake.Terminate(ctx, sessionID)
	if err != nil {
		s.Log.Error("manual termination failed", zap.String("session_id", sessionID), zap.Error(err))
		s.writeJSON(w, http.StatusOK, &pkg.TurnResult{Response: core.ApologyMessage})
		return
	}
	s.recordTermination(ctx, sessionID, result)
	s.writeJSON(w, http.StatusOK, result)
}

// recordTermination persists the session close and note, and announces the
// note over LISTEN/NOTIFY.  All best-effort: persistence problems are logged,
// never surfaced to the patient.
func (s *Server) recordTermination(ctx context.Context, sessionID string, result *pkg.TurnResult) {
	if !result.Terminate || s.Repo == nil {
		return
	}
	if err := s.Repo.CloseSession(ctx, sessionID); err != nil {
		s.Log.Warn("session close not persisted", zap.String("session_id", sessionID), zap.Error(err))
	}
	if result.Note == nil {
		return
	}
	if err := s.Repo.SaveNote(ctx, sessionID, result.Note, result.NotePath); err != nil {
		s.Log.Warn("note not persisted", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	if s.Notifier != nil {
		if err := s.Notifier.NotifyNoteReady(ctx, sessionID); err != nil {
			s.Log.Warn("note notification failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
}

// handleGetSession returns the session record and local transcript.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if s.Repo == nil {
		s.writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "transcript persistence is not configured"})
		return
	}
	ctx := r.Context()
	sess, err := s.Repo.GetSession(ctx, sessionID)
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown session"})
		return
	}
	transcript, err := s.Repo.GetTranscript(ctx, sessionID)
	if err != nil {
		s.Log.Error("transcript load failed", zap.String("session_id", sessionID), zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "transcript unavailable"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":    sess,
		"transcript": transcript,
	})
}

// handleGetNote returns the stored structured note for a terminated session.
func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request, sessionID string) {
	if s.Repo == nil {
		s.writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "note persistence is not configured"})
		return
	}
	note, docPath, err := s.Repo.GetNote(r.Context(), sessionID)
	if err != nil {
		s.Log.Error("note load failed", zap.String("session_id", sessionID), zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "note unavailable"})
		return
	}
	if note == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no note for this session"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"note":     note,
		"doc_path": docPath,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Log.Warn("response encode failed", zap.Error(err))
	}
}
