package domain

import "time"

// MaxTurns bounds every conversation. A ninth inbound turn on a session
// still collecting facts is forced to a terminal escalation.
const MaxTurns = 8

// SessionState is the orchestrator state machine position.
type SessionState string

const (
	StateCollecting SessionState = "collecting"
	StateTerminal   SessionState = "terminal"
)

// Session is the conversation context for one claim. It exclusively owns
// its Claim and asked-slot counts; sessions never reference each other.
type Session struct {
	ID         string           `json:"id"`
	State      SessionState     `json:"state"`
	Claim      Claim            `json:"claim"`
	Asked      map[SlotName]int `json:"asked"` // times each slot has been asked
	LastAsked  SlotName         `json:"last_asked,omitempty"`
	TurnsTaken int              `json:"turns_taken"`
	Outcome    *DecisionOutcome `json:"outcome,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func NewSession(id string) *Session {
	return &Session{
		ID:    id,
		State: StateCollecting,
		Claim: NewClaim(),
		Asked: make(map[SlotName]int),
	}
}

func (s *Session) Terminal() bool { return s.State == StateTerminal }

// Clone returns a deep copy. Turns are processed as pure transform plus
// atomic commit: the stored session is replaced only after the whole turn
// succeeds, so an aborted turn leaves no partial mutation observable.
func (s *Session) Clone() *Session {
	asked := make(map[SlotName]int, len(s.Asked))
	for k, v := range s.Asked {
		asked[k] = v
	}
	clone := *s
	clone.Claim = s.Claim.Clone()
	clone.Asked = asked
	if s.Outcome != nil {
		o := *s.Outcome
		clone.Outcome = &o
	}
	return &clone
}

// TurnResponse is the single outbound message for one inbound turn:
// either the next clarifying question or the final decision.
type TurnResponse struct {
	Type     string           `json:"type"` // "question" or "decision"
	Slot     SlotName         `json:"slot,omitempty"`
	Text     string           `json:"text,omitempty"`
	Outcome  *DecisionOutcome `json:"outcome,omitempty"`
	Turn     int              `json:"turn"`
	Terminal bool             `json:"terminal"`
}

const (
	TurnTypeQuestion = "question"
	TurnTypeDecision = "decision"
)
