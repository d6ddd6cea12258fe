package domain

// OutcomeKind is the terminal disposition of a claim.
type OutcomeKind string

const (
	OutcomeApproveReturn   OutcomeKind = "approve_return"
	OutcomeDeny            OutcomeKind = "deny"
	OutcomeApproveDiscount OutcomeKind = "approve_discount"
	OutcomeEscalateHuman   OutcomeKind = "escalate_human"
)

// Reason codes identify which rule (or forced path) produced an outcome,
// for audit. Rule-driven codes live in the policy table; the codes below
// are produced by the orchestrator and engine themselves.
const (
	ReasonNoRuleMatched        = "no_rule_matched"
	ReasonTurnBudgetExceeded   = "turn_budget_exceeded"
	ReasonReaskExhausted       = "reask_budget_exhausted"
	ReasonCategoryUnclassified = "category_unclassified"
)

// DecisionOutcome is the result of applying policy to a complete fact set.
// DiscountAmount is whole currency units, already floored and capped;
// Capped reports that the customer asked for more than policy allows.
type DecisionOutcome struct {
	Kind           OutcomeKind `json:"kind"`
	ReasonCode     string      `json:"reason_code"`
	RuleName       string      `json:"rule_name,omitempty"`
	DiscountPct    float64     `json:"discount_pct,omitempty"`
	DiscountAmount int64       `json:"discount_amount,omitempty"`
	Capped         bool        `json:"capped,omitempty"`
}

// Escalate builds the fail-closed outcome used whenever no automated
// decision is possible.
func Escalate(reason string) *DecisionOutcome {
	return &DecisionOutcome{Kind: OutcomeEscalateHuman, ReasonCode: reason}
}
