package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a project conversation. Rows are append-only.
type Message struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Role      string    `json:"role"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// AppendMessages inserts the given messages in order within one transaction.
func (s *Store) AppendMessages(ctx context.Context, projectID string, msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	base := time.Now().UTC()
	for i, m := range msgs {
		if m.Type == "" {
			m.Type = "text"
		}
		// Offset timestamps so ordering survives a created_at sort even
		// when rows land within the same clock tick.
		createdAt := base.Add(time.Duration(i) * time.Millisecond)
		_, err := tx.ExecContext(ctx,
			`INSERT INTO messages (id, project_id, role, type, content, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), projectID, m.Role, m.Type, m.Content, createdAt,
		)
		if err != nil {
			return fmt.Errorf("failed to append message: %w", err)
		}
	}

	return tx.Commit()
}

// ListMessages returns a project's messages ordered by creation time
// ascending.
func (s *Store) ListMessages(ctx context.Context, projectID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, role, type, content, created_at
		 FROM messages WHERE project_id = ?
		 ORDER BY created_at ASC, rowid ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Role, &m.Type, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
