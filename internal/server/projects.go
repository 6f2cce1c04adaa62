package server

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"spawn/internal/store"
	"spawn/internal/template"
)

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Prompt string `json:"prompt"`
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if body.Prompt == "" {
		writeErr(w, http.StatusBadRequest, "missing_prompt", "prompt is required")
		return
	}

	project, err := s.store.CreateProject(r.Context(), body.Prompt, body.UserID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	if err := template.Clone(r.Context(), s.store, project.ID); err != nil {
		writeErr(w, http.StatusInternalServerError, "template_error", err.Error())
		return
	}

	s.logger.Info("project created",
		zap.String("project_id", project.ID),
		zap.String("user_id", body.UserID))
	writeJSON(w, http.StatusOK, map[string]string{"projectId": project.ID})
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.store.GetProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "project_not_found", "project not found")
			return
		}
		writeErr(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) startSandbox(w http.ResponseWriter, r *http.Request) {
	address, err := s.sandboxes.Ensure(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "project_not_found", "project not found")
			return
		}
		writeErr(w, http.StatusInternalServerError, "sandbox_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, address)
}

func (s *Server) heartbeat(w http.ResponseWriter, r *http.Request) {
	address, err := s.sandboxes.Heartbeat(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "project_not_found", "project not found")
			return
		}
		writeErr(w, http.StatusInternalServerError, "sandbox_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, address)
}

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ListFiles(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	type fileView struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	out := make([]fileView, 0, len(rows))
	for _, f := range rows {
		out = append(out, fileView{Path: f.Path, Content: f.Content})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.store.ListMessages(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "store_error", err.Error())
		return
	}
	if msgs == nil {
		msgs = []store.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ListFiles(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="project.zip"`)

	zw := zip.NewWriter(w)
	for _, f := range rows {
		entry, err := zw.Create(f.Path)
		if err != nil {
			s.logger.Error("zip entry failed", zap.String("path", f.Path), zap.Error(err))
			return
		}
		if _, err := entry.Write([]byte(f.Content)); err != nil {
			s.logger.Error("zip write failed", zap.String("path", f.Path), zap.Error(err))
			return
		}
	}
	if err := zw.Close(); err != nil {
		s.logger.Error("zip close failed", zap.Error(err))
	}
}
