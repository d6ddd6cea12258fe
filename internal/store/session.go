package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/redresshq/redress/internal/domain"
)

type SessionStore struct {
	db *pgxpool.Pool
}

func NewSessionStore(db *pgxpool.Pool) *SessionStore {
	return &SessionStore{db: db}
}

// Save upserts the whole session. The claim, ask counts and outcome are
// stored as JSON: the session is replaced wholesale on every turn, never
// patched field by field.
func (s *SessionStore) Save(ctx context.Context, sess *domain.Session) error {
	claim, err := json.Marshal(sess.Claim)
	if err != nil {
		return fmt.Errorf("marshal claim: %w", err)
	}
	asked, err := json.Marshal(sess.Asked)
	if err != nil {
		return fmt.Errorf("marshal asked counts: %w", err)
	}
	var outcome []byte
	if sess.Outcome != nil {
		outcome, err = json.Marshal(sess.Outcome)
		if err != nil {
			return fmt.Errorf("marshal outcome: %w", err)
		}
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO sessions (id, state, claim, asked, last_asked, turns_taken, outcome, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		   state = EXCLUDED.state,
		   claim = EXCLUDED.claim,
		   asked = EXCLUDED.asked,
		   last_asked = EXCLUDED.last_asked,
		   turns_taken = EXCLUDED.turns_taken,
		   outcome = EXCLUDED.outcome,
		   updated_at = EXCLUDED.updated_at`,
		sess.ID, sess.State, claim, asked, sess.LastAsked, sess.TurnsTaken, outcome, sess.CreatedAt, sess.UpdatedAt,
	)
	return err
}

func (s *SessionStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	sess := &domain.Session{}
	var claim, asked, outcome []byte
	err := s.db.QueryRow(ctx,
		`SELECT id, state, claim, asked, last_asked, turns_taken, outcome, created_at, updated_at
		 FROM sessions WHERE id = $1`,
		id,
	).Scan(&sess.ID, &sess.State, &claim, &asked, &sess.LastAsked, &sess.TurnsTaken, &outcome, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(claim, &sess.Claim); err != nil {
		return nil, fmt.Errorf("unmarshal claim: %w", err)
	}
	if err := json.Unmarshal(asked, &sess.Asked); err != nil {
		return nil, fmt.Errorf("unmarshal asked counts: %w", err)
	}
	if len(outcome) > 0 {
		sess.Outcome = &domain.DecisionOutcome{}
		if err := json.Unmarshal(outcome, sess.Outcome); err != nil {
			return nil, fmt.Errorf("unmarshal outcome: %w", err)
		}
	}
	if sess.Asked == nil {
		sess.Asked = make(map[domain.SlotName]int)
	}
	if sess.Claim.Facts == nil {
		sess.Claim.Facts = make(map[domain.SlotName]domain.SlotValue)
	}
	return sess, nil
}
