package dialog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redresshq/redress/internal/domain"
	"github.com/redresshq/redress/internal/policy"
	"github.com/redresshq/redress/internal/pricing"
	"github.com/redresshq/redress/internal/store"
	"go.uber.org/zap"
)

var (
	// ErrSessionTerminated rejects turns on a closed session; the caller
	// must start a new claim.
	ErrSessionTerminated = errors.New("session already terminal")
)

// Orchestrator owns session lifecycle: it sequences merge, question
// selection and the decision engine, bounds every conversation to
// MaxTurns, and commits each turn atomically (read old session, compute
// new session, replace).
type Orchestrator struct {
	sessions domain.SessionStore
	cases    domain.CaseStore
	messages domain.MessageStore
	engine   *policy.Engine
	prices   domain.PriceProvider
	logger   *zap.Logger

	// One mutex per live session: turns for the same session serialize,
	// turns for different sessions run fully in parallel.
	locks sync.Map
}

func NewOrchestrator(
	sessions domain.SessionStore,
	cases domain.CaseStore,
	messages domain.MessageStore,
	engine *policy.Engine,
	prices domain.PriceProvider,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		sessions: sessions,
		cases:    cases,
		messages: messages,
		engine:   engine,
		prices:   prices,
		logger:   logger,
	}
}

func (o *Orchestrator) sessionLock(id string) *sync.Mutex {
	mu, _ := o.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Step processes one inbound turn: merge the extracted facts, then either
// ask the next question, decide, or force an escalation when a budget is
// exhausted. message is the raw customer text, kept for the transcript
// only; the core never interprets it.
func (o *Orchestrator) Step(ctx context.Context, sessionID, message string, delta *domain.FactDelta) (*domain.TurnResponse, error) {
	mu := o.sessionLock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	current, err := o.sessions.Load(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("load session: %w", err)
		}
		current = domain.NewSession(sessionID)
		current.CreatedAt = time.Now().UTC()
	}

	if current.Terminal() {
		return nil, ErrSessionTerminated
	}

	next := current.Clone()
	next.TurnsTaken++

	if next.TurnsTaken > domain.MaxTurns {
		// The rejected turn is not counted: stored state keeps the
		// invariant turns_taken <= MaxTurns.
		next.TurnsTaken = domain.MaxTurns
		resp := o.terminate(next, domain.Escalate(domain.ReasonTurnBudgetExceeded))
		return o.commit(ctx, next, message, resp)
	}

	if delta.Empty() {
		// Collaborator had nothing for us (or was unavailable): re-issue
		// the last question instead of spending any ask budget.
		if q := RepeatQuestion(next); q != nil {
			resp := questionResponse(next, q)
			return o.commit(ctx, next, message, resp)
		}
	}

	o.mergeTurn(next, delta)
	o.resolvePrice(ctx, next)

	if next.Claim.Category == "" && next.LastAsked == domain.SlotClaimCategory {
		// The reply carried facts but still no category: repeat the
		// category question instead of burning the session. The turn
		// budget bounds this loop.
		resp := questionResponse(next, RepeatQuestion(next))
		return o.commit(ctx, next, message, resp)
	}

	if len(MissingSlots(next.Claim)) == 0 {
		outcome := o.engine.Decide(next.Claim)
		resp := o.terminate(next, outcome)
		return o.commit(ctx, next, message, resp)
	}

	if q := NextQuestion(next); q != nil {
		resp := questionResponse(next, q)
		return o.commit(ctx, next, message, resp)
	}

	// Every missing slot's ask budget is spent.
	resp := o.terminate(next, domain.Escalate(domain.ReasonReaskExhausted))
	return o.commit(ctx, next, message, resp)
}

// GetSession returns the stored session for inspection.
func (o *Orchestrator) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	return o.sessions.Load(ctx, sessionID)
}

func (o *Orchestrator) mergeTurn(s *domain.Session, delta *domain.FactDelta) {
	if delta != nil && delta.Category != nil && s.Claim.Category != "" && *delta.Category != s.Claim.Category {
		// Category is immutable once established; a change of intent is a
		// new claim, not a mutation of this one.
		o.logger.Warn("ignoring category change mid-session",
			zap.String("session_id", s.ID),
			zap.String("established", string(s.Claim.Category)),
			zap.String("requested", string(*delta.Category)))
	}
	s.Claim = Merge(s.Claim, delta)
}

// resolvePrice turns an answered asin_or_price slot into a purchase price:
// a price literal is used directly, an ASIN goes through the price lookup
// collaborator. Failures mark the slot ambiguous so it earns exactly one
// re-ask before the session escalates.
func (o *Orchestrator) resolvePrice(ctx context.Context, s *domain.Session) {
	if s.Claim.Category != domain.CategoryDiscountRequest {
		return
	}
	if s.Claim.Fact(domain.SlotPurchasePrice).Known() {
		return
	}
	raw := s.Claim.Fact(domain.SlotAsinOrPrice)
	if !raw.Known() {
		return
	}

	if amount, ok := pricing.ParseAmount(raw.StringVal); ok {
		s.Claim.Facts[domain.SlotPurchasePrice] = domain.CurrencyValue(amount)
		return
	}

	asin, ok := pricing.ExtractASIN(raw.StringVal)
	if !ok {
		s.Claim.Facts[domain.SlotAsinOrPrice] = domain.AmbiguousValue(domain.KindString)
		return
	}

	price, err := o.prices.Price(ctx, asin)
	if err != nil {
		o.logger.Warn("price lookup failed",
			zap.String("session_id", s.ID),
			zap.String("asin", asin),
			zap.Error(err))
		s.Claim.Facts[domain.SlotAsinOrPrice] = domain.AmbiguousValue(domain.KindString)
		return
	}
	s.Claim.Facts[domain.SlotPurchasePrice] = domain.CurrencyValue(price)
}

func (o *Orchestrator) terminate(s *domain.Session, outcome *domain.DecisionOutcome) *domain.TurnResponse {
	s.State = domain.StateTerminal
	s.Outcome = outcome
	return &domain.TurnResponse{
		Type:     domain.TurnTypeDecision,
		Text:     DecisionText(outcome),
		Outcome:  outcome,
		Turn:     s.TurnsTaken,
		Terminal: true,
	}
}

func questionResponse(s *domain.Session, q *Question) *domain.TurnResponse {
	return &domain.TurnResponse{
		Type: domain.TurnTypeQuestion,
		Slot: q.Slot,
		Text: q.Text,
		Turn: s.TurnsTaken,
	}
}

// commit atomically replaces the stored session, then records the audit
// trail. The customer always gets a response: persistence problems are
// logged, never propagated after the turn has been computed.
func (o *Orchestrator) commit(ctx context.Context, s *domain.Session, message string, resp *domain.TurnResponse) (*domain.TurnResponse, error) {
	if err := ctx.Err(); err != nil {
		// Aborted before commit: the old session stays observable.
		return nil, err
	}

	s.UpdatedAt = time.Now().UTC()
	if err := o.sessions.Save(ctx, s); err != nil {
		o.logger.Error("session save failed", zap.String("session_id", s.ID), zap.Error(err))
	}

	o.recordTranscript(ctx, s.ID, message, resp.Text)

	if resp.Terminal {
		o.recordCase(ctx, s)
	}

	return resp, nil
}

func (o *Orchestrator) recordTranscript(ctx context.Context, sessionID, inbound, outbound string) {
	if o.messages == nil {
		return
	}
	if inbound != "" {
		msg := &domain.TurnMessage{SessionID: sessionID, Role: domain.RoleCustomer, Text: inbound}
		if err := o.messages.Append(ctx, msg); err != nil {
			o.logger.Warn("transcript append failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	if outbound != "" {
		msg := &domain.TurnMessage{SessionID: sessionID, Role: domain.RoleAgent, Text: outbound}
		if err := o.messages.Append(ctx, msg); err != nil {
			o.logger.Warn("transcript append failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
}

func (o *Orchestrator) recordCase(ctx context.Context, s *domain.Session) {
	if o.cases == nil || s.Outcome == nil {
		return
	}
	c := &domain.Case{
		SessionID:      s.ID,
		Category:       s.Claim.Category,
		Outcome:        s.Outcome.Kind,
		ReasonCode:     s.Outcome.ReasonCode,
		DiscountPct:    s.Outcome.DiscountPct,
		DiscountAmount: s.Outcome.DiscountAmount,
		TurnsTaken:     s.TurnsTaken,
	}
	if err := o.cases.Create(ctx, c); err != nil {
		o.logger.Warn("case record failed", zap.String("session_id", s.ID), zap.Error(err))
	}
}

// DecisionText renders a terminal outcome as customer-facing text. The
// wording is fixed per outcome kind so transcripts stay reproducible.
func DecisionText(outcome *domain.DecisionOutcome) string {
	switch outcome.Kind {
	case domain.OutcomeApproveReturn:
		return "Your return is approved. You'll receive pickup instructions shortly."
	case domain.OutcomeApproveDiscount:
		if outcome.DiscountAmount > 0 {
			return fmt.Sprintf("We can offer a %.0f%% discount (%d off your purchase).", outcome.DiscountPct, outcome.DiscountAmount)
		}
		return fmt.Sprintf("We can offer a %.0f%% discount.", outcome.DiscountPct)
	case domain.OutcomeDeny:
		return "We're unable to approve this request under our returns policy."
	default:
		return "I'm passing your request to a colleague for review. You'll hear back from us soon."
	}
}
