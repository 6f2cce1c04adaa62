package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Project is a unit of generated work.
type Project struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	SandboxID   string    `json:"sandboxId,omitempty"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateProject inserts a new project row and returns it.
func (s *Store) CreateProject(ctx context.Context, description, userID string) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &Project{
		ID:          uuid.NewString(),
		Description: description,
		UserID:      userID,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, description, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Description, p.UserID, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return p, nil
}

// GetProject loads a project by id. Returns ErrNotFound if absent.
func (s *Store) GetProject(ctx context.Context, id string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p Project
	var sandboxID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, description, sandbox_id, user_id, created_at, updated_at
		 FROM projects WHERE id = ?`, id,
	).Scan(&p.ID, &p.Description, &sandboxID, &p.UserID, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	p.SandboxID = sandboxID.String
	return &p, nil
}

// SetSandboxID records the sandbox handle bound to a project. Called exactly
// once per (re)provisioning event by the sandbox manager.
func (s *Store) SetSandboxID(ctx context.Context, projectID, sandboxID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET sandbox_id = ?, updated_at = ? WHERE id = ?`,
		sandboxID, time.Now().UTC(), projectID,
	)
	if err != nil {
		return fmt.Errorf("failed to set sandbox id: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	return nil
}
