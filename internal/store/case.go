package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/redresshq/redress/internal/domain"
)

type CaseStore struct {
	db *pgxpool.Pool
}

func NewCaseStore(db *pgxpool.Pool) *CaseStore {
	return &CaseStore{db: db}
}

func (s *CaseStore) Create(ctx context.Context, c *domain.Case) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO cases (session_id, category, outcome, reason_code, discount_pct, discount_amount, turns_taken)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		c.SessionID, c.Category, c.Outcome, c.ReasonCode, c.DiscountPct, c.DiscountAmount, c.TurnsTaken,
	).Scan(&c.ID, &c.CreatedAt)
}

func (s *CaseStore) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	c := &domain.Case{}
	err := s.db.QueryRow(ctx,
		`SELECT id, session_id, category, outcome, reason_code, discount_pct, discount_amount, turns_taken, created_at
		 FROM cases WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.SessionID, &c.Category, &c.Outcome, &c.ReasonCode, &c.DiscountPct, &c.DiscountAmount, &c.TurnsTaken, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *CaseStore) ListBySession(ctx context.Context, sessionID string) ([]domain.Case, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, session_id, category, outcome, reason_code, discount_pct, discount_amount, turns_taken, created_at
		 FROM cases WHERE session_id = $1
		 ORDER BY created_at DESC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []domain.Case
	for rows.Next() {
		var c domain.Case
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Category, &c.Outcome, &c.ReasonCode, &c.DiscountPct, &c.DiscountAmount, &c.TurnsTaken, &c.CreatedAt); err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}
