package domain

// RuleCondition is the precondition half of a policy rule. Nil pointer
// fields do not constrain; set fields must all match. Conditions only
// read the claim; evaluation is side-effect-free.
type RuleCondition struct {
	Category           Category  `json:"category"`
	EvidenceIs         *TriState `json:"evidence_is,omitempty"`
	WithinReturnWindow *bool     `json:"within_return_window,omitempty"`
}

// PolicyRule maps a precondition to an outcome. Rules are ordered most
// specific first; the engine returns the first match.
type PolicyRule struct {
	Name       string        `json:"name"`
	When       RuleCondition `json:"when"`
	Outcome    OutcomeKind   `json:"outcome"`
	ReasonCode string        `json:"reason_code"`
}

// DiscountTier grants a percentage for purchases at most MaxDays old.
type DiscountTier struct {
	MaxDays int     `json:"max_days"`
	Pct     float64 `json:"pct"`
}

// CategoryPolicy holds the per-category numbers the rules reference.
type CategoryPolicy struct {
	ReturnWindowDays int            `json:"return_window_days"`
	DiscountCapPct   float64        `json:"discount_cap_pct"`
	Tiers            []DiscountTier `json:"tiers,omitempty"`
}

// PolicyTable is the complete rule set, loaded once at startup and
// immutable for the process lifetime.
type PolicyTable struct {
	Rules      []PolicyRule                `json:"rules"`
	Categories map[Category]CategoryPolicy `json:"categories"`
}
