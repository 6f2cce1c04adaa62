package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"spawn/internal/agent"
	"spawn/internal/llm"
	"spawn/internal/store"
	"spawn/internal/tools"
)

// chat runs one agent turn for the project and relays its events to the
// client as a server-sent event stream. Each event is one
// "data: {json}\n\n" record flushed before the next upstream event is
// processed, so token and tool events arrive in generation order.
//
// Only one chat turn may be in flight per project; a concurrent request is
// rejected with 409 rather than queued.
func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	if _, busy := s.chatLocks.LoadOrStore(projectID, struct{}{}); busy {
		writeErr(w, http.StatusConflict, "chat_busy", "a chat turn is already running for this project")
		return
	}
	defer s.chatLocks.Delete(projectID)

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if body.Message == "" {
		writeErr(w, http.StatusBadRequest, "missing_message", "message is required")
		return
	}

	ctx := r.Context()

	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "project_not_found", "project not found")
			return
		}
		writeErr(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}

	paths, err := s.store.ListPaths(ctx, projectID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	prior, err := s.store.ListMessages(ctx, projectID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}

	// The user's message is persisted up front, independent of how the
	// turn ends. A failed turn still shows what the user asked.
	if err := s.store.AppendMessages(ctx, projectID, []store.Message{
		{Role: store.RoleUser, Content: body.Message},
	}); err != nil {
		writeErr(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "streaming_unsupported", "response writer does not support streaming")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	emit := func(e agent.Event) {
		payload, err := json.Marshal(e)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}

	history := make([]llm.Message, 0, len(prior)+1)
	for _, m := range prior {
		role := llm.RoleUser
		if m.Role == store.RoleAssistant {
			role = llm.RoleAssistant
		}
		history = append(history, llm.Message{Role: role, Content: m.Content})
	}
	history = append(history, llm.Message{Role: llm.RoleUser, Content: body.Message})

	registry := tools.ForProject(s.store, s.sandboxes, s.searcher, projectID, s.maxSearchResults, s.logger)
	loop := agent.New(s.model, registry, s.maxIterations, s.logger)

	transcript, err := loop.Run(ctx, systemPrompt(paths), history, emit)
	if err != nil {
		s.logger.Error("chat turn failed",
			zap.String("project_id", projectID),
			zap.Error(err))
		emit(agent.Event{Type: agent.EventError, Error: err.Error()})
		return
	}

	if err := s.store.AppendMessages(ctx, projectID, []store.Message{
		{Role: store.RoleAssistant, Content: transcript},
	}); err != nil {
		s.logger.Error("transcript persistence failed",
			zap.String("project_id", projectID),
			zap.Error(err))
		emit(agent.Event{Type: agent.EventError, Error: "failed to persist transcript"})
		return
	}

	s.logger.Info("chat turn complete",
		zap.String("project_id", projectID),
		zap.Int("transcript_len", len(transcript)))
}
