package domain

import (
	"time"

	"github.com/google/uuid"
)

// Case is the immutable audit record written when a session reaches a
// terminal outcome.
type Case struct {
	ID             uuid.UUID   `json:"id"`
	SessionID      string      `json:"session_id"`
	Category       Category    `json:"category"`
	Outcome        OutcomeKind `json:"outcome"`
	ReasonCode     string      `json:"reason_code"`
	DiscountPct    float64     `json:"discount_pct,omitempty"`
	DiscountAmount int64       `json:"discount_amount,omitempty"`
	TurnsTaken     int         `json:"turns_taken"`
	CreatedAt      time.Time   `json:"created_at"`
}

// TurnMessage is one side of a turn, kept for audit alongside cases.
type TurnMessage struct {
	ID        uuid.UUID `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"` // "customer" or "agent"
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	RoleCustomer = "customer"
	RoleAgent    = "agent"
)
