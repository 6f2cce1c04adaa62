package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// File is a (project, path) pair with text content. Path is unique within a
// project; writes to an existing path update content in place.
type File struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Path      string    `json:"path"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UpsertFile inserts or updates a file row keyed on (project, path).
// Last writer wins; the statement is atomic per call.
func (s *Store) UpsertFile(ctx context.Context, projectID, path, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO files (id, project_id, path, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(project_id, path) DO UPDATE SET
		   content = excluded.content,
		   updated_at = excluded.updated_at`,
		uuid.NewString(), projectID, path, content, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert file %s: %w", path, err)
	}
	return nil
}

// ReadContent returns the content of one file. Returns ErrNotFound when no
// row matches.
func (s *Store) ReadContent(ctx context.Context, projectID, path string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var content string
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM files WHERE project_id = ? AND path = ?`,
		projectID, path,
	).Scan(&content)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("file %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return content, nil
}

// ListPaths returns every file path for a project.
func (s *Store) ListPaths(ctx context.Context, projectID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT path FROM files WHERE project_id = ? ORDER BY path`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// ListFiles returns every file row for a project with content.
func (s *Store) ListFiles(ctx context.Context, projectID string) ([]File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, path, content, created_at, updated_at
		 FROM files WHERE project_id = ? ORDER BY path`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.Path, &f.Content, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}
