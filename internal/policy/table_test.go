package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/redresshq/redress/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableIsValid(t *testing.T) {
	require.NoError(t, Validate(DefaultTable()))
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	table, err := Load("")
	require.NoError(t, err)
	assert.NotEmpty(t, table.Rules)
	assert.Contains(t, table.Categories, domain.CategoryDiscountRequest)
}

func TestLoad_FromFile(t *testing.T) {
	payload := `{
		"categories": {
			"wrong_item": {"return_window_days": 14}
		},
		"rules": [
			{
				"name": "wrong_item_late",
				"when": {"category": "wrong_item", "within_return_window": false},
				"outcome": "deny",
				"reason_code": "return_window_exceeded"
			},
			{
				"name": "wrong_item_ok",
				"when": {"category": "wrong_item", "within_return_window": true},
				"outcome": "approve_return",
				"reason_code": "wrong_item_within_window"
			}
		]
	}`
	path := filepath.Join(t.TempDir(), "policy.json")
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	table, err := Load(path)
	require.NoError(t, err)
	require.Len(t, table.Rules, 2)
	assert.Equal(t, 14, table.Categories[domain.CategoryWrongItem].ReturnWindowDays)

	engine := NewEngine(table)
	claim := domain.NewClaim()
	claim.Category = domain.CategoryWrongItem
	claim.Facts[domain.SlotDaysSincePurchase] = domain.IntValue(20)
	outcome := engine.Decide(claim)
	assert.Equal(t, domain.OutcomeDeny, outcome.Kind)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		table domain.PolicyTable
	}{
		{
			name:  "no rules",
			table: domain.PolicyTable{},
		},
		{
			name: "duplicate rule name",
			table: domain.PolicyTable{
				Rules: []domain.PolicyRule{
					{Name: "r", When: domain.RuleCondition{Category: domain.CategoryOther}, Outcome: domain.OutcomeDeny, ReasonCode: "x"},
					{Name: "r", When: domain.RuleCondition{Category: domain.CategoryOther}, Outcome: domain.OutcomeDeny, ReasonCode: "x"},
				},
			},
		},
		{
			name: "unknown category",
			table: domain.PolicyTable{
				Rules: []domain.PolicyRule{
					{Name: "r", When: domain.RuleCondition{Category: "gadgets"}, Outcome: domain.OutcomeDeny, ReasonCode: "x"},
				},
			},
		},
		{
			name: "unknown outcome",
			table: domain.PolicyTable{
				Rules: []domain.PolicyRule{
					{Name: "r", When: domain.RuleCondition{Category: domain.CategoryOther}, Outcome: "maybe", ReasonCode: "x"},
				},
			},
		},
		{
			name: "discount rule without cap",
			table: domain.PolicyTable{
				Rules: []domain.PolicyRule{
					{Name: "r", When: domain.RuleCondition{Category: domain.CategoryDiscountRequest}, Outcome: domain.OutcomeApproveDiscount, ReasonCode: "x"},
				},
			},
		},
		{
			name: "tier above cap",
			table: domain.PolicyTable{
				Categories: map[domain.Category]domain.CategoryPolicy{
					domain.CategoryDiscountRequest: {
						ReturnWindowDays: 30,
						DiscountCapPct:   10,
						Tiers:            []domain.DiscountTier{{MaxDays: 7, Pct: 50}},
					},
				},
				Rules: []domain.PolicyRule{
					{Name: "r", When: domain.RuleCondition{Category: domain.CategoryDiscountRequest}, Outcome: domain.OutcomeApproveDiscount, ReasonCode: "x"},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Validate(&tt.table))
		})
	}
}
