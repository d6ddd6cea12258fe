package policy

import (
	"math"

	"github.com/redresshq/redress/internal/domain"
)

// Engine walks an immutable policy table. Decide is total and pure: same
// claim in, same outcome out. No I/O, no clock, no randomness.
type Engine struct {
	table *domain.PolicyTable
}

func NewEngine(table *domain.PolicyTable) *Engine {
	return &Engine{table: table}
}

func (e *Engine) Table() *domain.PolicyTable { return e.table }

// Decide evaluates the claim against the rules in order and returns the
// first match. A claim no rule covers escalates with no_rule_matched:
// policy gaps fail closed, never open to an approval.
func (e *Engine) Decide(claim domain.Claim) *domain.DecisionOutcome {
	for _, rule := range e.table.Rules {
		if !e.matches(rule.When, claim) {
			continue
		}

		outcome := &domain.DecisionOutcome{
			Kind:       rule.Outcome,
			ReasonCode: rule.ReasonCode,
			RuleName:   rule.Name,
		}
		if rule.Outcome == domain.OutcomeApproveDiscount {
			e.applyDiscount(outcome, claim)
		}
		return outcome
	}

	return domain.Escalate(domain.ReasonNoRuleMatched)
}

func (e *Engine) matches(cond domain.RuleCondition, claim domain.Claim) bool {
	if cond.Category != claim.Category {
		return false
	}

	if cond.EvidenceIs != nil && claim.EvidencePresent != *cond.EvidenceIs {
		return false
	}

	if cond.WithinReturnWindow != nil {
		days := claim.Fact(domain.SlotDaysSincePurchase)
		if !days.Known() {
			return false
		}
		window := e.table.Categories[claim.Category].ReturnWindowDays
		within := days.IntVal <= window
		if within != *cond.WithinReturnWindow {
			return false
		}
	}

	return true
}

// applyDiscount computes the policy-capped discount: the effective
// percentage is min(requested, tier for purchase age, category cap), and
// the amount is floored to the nearest currency unit. An upstream request
// above the cap approves at the cap with Capped set, never above it.
func (e *Engine) applyDiscount(outcome *domain.DecisionOutcome, claim domain.Claim) {
	cp := e.table.Categories[claim.Category]

	pct := cp.DiscountCapPct
	days := claim.Fact(domain.SlotDaysSincePurchase)
	if days.Known() {
		if tier := tierPct(cp, days.IntVal); tier > 0 && tier < pct {
			pct = tier
		}
	}

	requested := claim.Fact(domain.SlotDiscountPctRequested)
	if requested.Known() {
		if requested.FloatVal < pct {
			pct = requested.FloatVal
		} else if requested.FloatVal > pct {
			outcome.Capped = true
		}
	}

	outcome.DiscountPct = pct

	price := claim.Fact(domain.SlotPurchasePrice)
	if price.Known() {
		outcome.DiscountAmount = int64(math.Floor(pct / 100 * price.FloatVal))
	}
}

func tierPct(cp domain.CategoryPolicy, days int) float64 {
	for _, tier := range cp.Tiers {
		if days <= tier.MaxDays {
			return tier.Pct
		}
	}
	return 0
}
