package policy

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/redresshq/redress/internal/domain"
)

func boolPtr(b bool) *bool { return &b }

func triPtr(t domain.TriState) *domain.TriState { return &t }

// DefaultTable returns the compiled-in rule set. Rules are ordered most
// specific first; the engine takes the first match. Keeping the table as
// data means it can be audited and unit-tested without touching the engine.
func DefaultTable() *domain.PolicyTable {
	return &domain.PolicyTable{
		Categories: map[domain.Category]domain.CategoryPolicy{
			domain.CategoryDamagedOnArrival: {ReturnWindowDays: 30},
			domain.CategoryNotAssembled:     {ReturnWindowDays: 30},
			domain.CategoryWrongItem:        {ReturnWindowDays: 30},
			domain.CategoryDiscountRequest: {
				ReturnWindowDays: 30,
				DiscountCapPct:   15,
				Tiers: []domain.DiscountTier{
					{MaxDays: 7, Pct: 15},
					{MaxDays: 30, Pct: 10},
				},
			},
		},
		Rules: []domain.PolicyRule{
			{
				Name:       "damage_no_evidence",
				When:       domain.RuleCondition{Category: domain.CategoryDamagedOnArrival, EvidenceIs: triPtr(domain.TriNo)},
				Outcome:    domain.OutcomeDeny,
				ReasonCode: "no_evidence_for_damage_claim",
			},
			{
				Name:       "damage_window_exceeded",
				When:       domain.RuleCondition{Category: domain.CategoryDamagedOnArrival, WithinReturnWindow: boolPtr(false)},
				Outcome:    domain.OutcomeDeny,
				ReasonCode: "return_window_exceeded",
			},
			{
				Name:       "damage_evidenced",
				When:       domain.RuleCondition{Category: domain.CategoryDamagedOnArrival, EvidenceIs: triPtr(domain.TriYes), WithinReturnWindow: boolPtr(true)},
				Outcome:    domain.OutcomeApproveReturn,
				ReasonCode: "damage_evidenced_within_window",
			},
			{
				Name:       "assembly_no_evidence",
				When:       domain.RuleCondition{Category: domain.CategoryNotAssembled, EvidenceIs: triPtr(domain.TriNo)},
				Outcome:    domain.OutcomeDeny,
				ReasonCode: "no_evidence_for_assembly_claim",
			},
			{
				Name:       "assembly_window_exceeded",
				When:       domain.RuleCondition{Category: domain.CategoryNotAssembled, WithinReturnWindow: boolPtr(false)},
				Outcome:    domain.OutcomeDeny,
				ReasonCode: "return_window_exceeded",
			},
			{
				Name:       "assembly_evidenced",
				When:       domain.RuleCondition{Category: domain.CategoryNotAssembled, EvidenceIs: triPtr(domain.TriYes), WithinReturnWindow: boolPtr(true)},
				Outcome:    domain.OutcomeApproveReturn,
				ReasonCode: "assembly_claim_evidenced",
			},
			{
				Name:       "wrong_item_window_exceeded",
				When:       domain.RuleCondition{Category: domain.CategoryWrongItem, WithinReturnWindow: boolPtr(false)},
				Outcome:    domain.OutcomeDeny,
				ReasonCode: "return_window_exceeded",
			},
			{
				Name:       "wrong_item_within_window",
				When:       domain.RuleCondition{Category: domain.CategoryWrongItem, WithinReturnWindow: boolPtr(true)},
				Outcome:    domain.OutcomeApproveReturn,
				ReasonCode: "wrong_item_within_window",
			},
			{
				Name:       "discount_window_exceeded",
				When:       domain.RuleCondition{Category: domain.CategoryDiscountRequest, WithinReturnWindow: boolPtr(false)},
				Outcome:    domain.OutcomeDeny,
				ReasonCode: "discount_window_exceeded",
			},
			{
				Name:       "discount_within_policy",
				When:       domain.RuleCondition{Category: domain.CategoryDiscountRequest, WithinReturnWindow: boolPtr(true)},
				Outcome:    domain.OutcomeApproveDiscount,
				ReasonCode: "discount_within_policy",
			},
			{
				Name:       "unclassified",
				When:       domain.RuleCondition{Category: domain.CategoryOther},
				Outcome:    domain.OutcomeEscalateHuman,
				ReasonCode: domain.ReasonCategoryUnclassified,
			},
		},
	}
}

// Load reads a policy table from a JSON file, or returns the compiled-in
// defaults when path is empty. Called once at process start; the returned
// table is treated as immutable for the process lifetime.
func Load(path string) (*domain.PolicyTable, error) {
	if path == "" {
		return DefaultTable(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy table: %w", err)
	}

	var table domain.PolicyTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse policy table: %w", err)
	}

	if err := Validate(&table); err != nil {
		return nil, fmt.Errorf("invalid policy table %s: %w", path, err)
	}

	return &table, nil
}

// Validate rejects tables the engine cannot evaluate deterministically.
func Validate(t *domain.PolicyTable) error {
	if len(t.Rules) == 0 {
		return fmt.Errorf("no rules defined")
	}

	seen := make(map[string]bool, len(t.Rules))
	for i, r := range t.Rules {
		if r.Name == "" {
			return fmt.Errorf("rule %d has no name", i)
		}
		if seen[r.Name] {
			return fmt.Errorf("duplicate rule name %q", r.Name)
		}
		seen[r.Name] = true

		if r.When.Category == "" {
			return fmt.Errorf("rule %q has no category", r.Name)
		}
		if !domain.ValidCategory(string(r.When.Category)) {
			return fmt.Errorf("rule %q references unknown category %q", r.Name, r.When.Category)
		}
		if r.ReasonCode == "" {
			return fmt.Errorf("rule %q has no reason code", r.Name)
		}
		switch r.Outcome {
		case domain.OutcomeApproveReturn, domain.OutcomeDeny, domain.OutcomeApproveDiscount, domain.OutcomeEscalateHuman:
		default:
			return fmt.Errorf("rule %q has unknown outcome %q", r.Name, r.Outcome)
		}
		if r.Outcome == domain.OutcomeApproveDiscount {
			cp, ok := t.Categories[r.When.Category]
			if !ok || cp.DiscountCapPct <= 0 {
				return fmt.Errorf("rule %q approves discounts but category %q has no discount cap", r.Name, r.When.Category)
			}
		}
		if r.When.WithinReturnWindow != nil {
			if _, ok := t.Categories[r.When.Category]; !ok {
				return fmt.Errorf("rule %q checks the return window but category %q has no policy entry", r.Name, r.When.Category)
			}
		}
	}

	for cat, cp := range t.Categories {
		if cp.ReturnWindowDays < 0 {
			return fmt.Errorf("category %q has negative return window", cat)
		}
		for _, tier := range cp.Tiers {
			if tier.Pct > cp.DiscountCapPct {
				return fmt.Errorf("category %q tier %d exceeds its discount cap", cat, tier.MaxDays)
			}
		}
	}

	return nil
}
