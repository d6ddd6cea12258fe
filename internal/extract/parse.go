package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redresshq/redress/internal/domain"
)

// wireDelta is the JSON shape the extraction prompt asks for. Pointer
// fields distinguish "absent" from zero values.
type wireDelta struct {
	Category             *string  `json:"category"`
	DaysSincePurchase    *int     `json:"days_since_purchase"`
	HasEvidence          *bool    `json:"has_evidence"`
	EvidenceConfidence   *float64 `json:"evidence_confidence"`
	AsinOrPrice          *string  `json:"asin_or_price"`
	DiscountPctRequested *float64 `json:"discount_pct_requested"`
	Summary              string   `json:"summary"`
}

// parseDelta turns a raw model completion into a FactDelta. Fields the
// model invents outside the schema are dropped; an invalid category is
// dropped rather than failing the whole delta.
func parseDelta(raw string) (*domain.FactDelta, error) {
	// Strip markdown fences if present
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var wire wireDelta
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("parse extraction result: %w (raw: %s)", err, raw)
	}

	delta := &domain.FactDelta{
		Slots:   make(map[domain.SlotName]domain.SlotValue),
		Summary: wire.Summary,
	}

	if wire.Category != nil && domain.ValidCategory(*wire.Category) {
		cat := domain.Category(*wire.Category)
		delta.Category = &cat
	}
	if wire.DaysSincePurchase != nil {
		delta.Slots[domain.SlotDaysSincePurchase] = domain.IntValue(*wire.DaysSincePurchase)
	}
	if wire.HasEvidence != nil {
		delta.Slots[domain.SlotHasEvidence] = domain.BoolValue(*wire.HasEvidence)
		delta.EvidenceConfidence = wire.EvidenceConfidence
	}
	if wire.AsinOrPrice != nil && *wire.AsinOrPrice != "" {
		delta.Slots[domain.SlotAsinOrPrice] = domain.StringValue(*wire.AsinOrPrice)
	}
	if wire.DiscountPctRequested != nil {
		delta.Slots[domain.SlotDiscountPctRequested] = domain.PercentValue(*wire.DiscountPctRequested)
	}

	return delta, nil
}
