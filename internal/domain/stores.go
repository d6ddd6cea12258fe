package domain

import "context"

// SessionStore persists conversation state. Save is an idempotent upsert;
// callers never assume a save succeeded before responding to the customer.
type SessionStore interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context, id string) (*Session, error)
}

// CaseStore records terminal outcomes for audit.
type CaseStore interface {
	Create(ctx context.Context, c *Case) error
	GetByID(ctx context.Context, id string) (*Case, error)
	ListBySession(ctx context.Context, sessionID string) ([]Case, error)
}

// MessageStore records the per-turn transcript.
type MessageStore interface {
	Append(ctx context.Context, m *TurnMessage) error
	ListBySession(ctx context.Context, sessionID string) ([]TurnMessage, error)
}

// Extractor is the natural-language fact-extraction collaborator. The
// decision core never interprets free text itself; it consumes the typed
// delta this returns. An extractor failure is surfaced to the caller as
// "no new facts this turn".
type Extractor interface {
	ExtractFacts(ctx context.Context, message string) (*FactDelta, error)
}

// PriceProvider is the third-party price lookup collaborator.
type PriceProvider interface {
	// Price returns the current price for an ASIN, or ErrPriceUnavailable.
	Price(ctx context.Context, asin string) (float64, error)
}
