package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/redresshq/redress/internal/domain"
)

type MessageStore struct {
	db *pgxpool.Pool
}

func NewMessageStore(db *pgxpool.Pool) *MessageStore {
	return &MessageStore{db: db}
}

func (s *MessageStore) Append(ctx context.Context, m *domain.TurnMessage) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO messages (session_id, role, text)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		m.SessionID, m.Role, m.Text,
	).Scan(&m.ID, &m.CreatedAt)
}

func (s *MessageStore) ListBySession(ctx context.Context, sessionID string) ([]domain.TurnMessage, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, session_id, role, text, created_at
		 FROM messages WHERE session_id = $1
		 ORDER BY created_at ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.TurnMessage
	for rows.Next() {
		var m domain.TurnMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Text, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
