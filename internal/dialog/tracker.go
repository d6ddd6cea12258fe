package dialog

import (
	"github.com/redresshq/redress/internal/domain"
)

// EvidenceConfidenceThreshold gates the classification collaborator's
// evidence signal. Below-threshold evidence is treated as unknown, never
// as "no"; the threshold itself passes (inclusive).
const EvidenceConfidenceThreshold = 0.70

// slotSpec describes one fact requirement: its payload type and validator.
type slotSpec struct {
	kind     domain.ValueKind
	validate func(domain.SlotValue) bool
}

var slotSpecs = map[domain.SlotName]slotSpec{
	domain.SlotHasEvidence: {
		kind:     domain.KindBool,
		validate: func(v domain.SlotValue) bool { return v.Kind == domain.KindBool },
	},
	domain.SlotDaysSincePurchase: {
		kind: domain.KindInt,
		validate: func(v domain.SlotValue) bool {
			return v.Kind == domain.KindInt && v.IntVal >= 0 && v.IntVal <= 3650
		},
	},
	domain.SlotAsinOrPrice: {
		kind:     domain.KindString,
		validate: func(v domain.SlotValue) bool { return v.Kind == domain.KindString && v.StringVal != "" },
	},
	domain.SlotPurchasePrice: {
		kind: domain.KindCurrency,
		validate: func(v domain.SlotValue) bool {
			return v.Kind == domain.KindCurrency && v.FloatVal > 0
		},
	},
	domain.SlotDiscountPctRequested: {
		kind: domain.KindPercent,
		validate: func(v domain.SlotValue) bool {
			return v.Kind == domain.KindPercent && v.FloatVal > 0 && v.FloatVal <= 100
		},
	},
}

// requiredSlots fixes, per category, which slots policy needs and in what
// order they are asked: evidence before timing before price. Fixed slices
// keep question order deterministic, never map iteration order.
var requiredSlots = map[domain.Category][]domain.SlotName{
	domain.CategoryDamagedOnArrival: {domain.SlotHasEvidence, domain.SlotDaysSincePurchase},
	domain.CategoryNotAssembled:     {domain.SlotHasEvidence, domain.SlotDaysSincePurchase},
	domain.CategoryWrongItem:        {domain.SlotDaysSincePurchase},
	domain.CategoryDiscountRequest:  {domain.SlotDaysSincePurchase, domain.SlotAsinOrPrice, domain.SlotDiscountPctRequested},
	domain.CategoryOther:            {},
}

// Merge applies one turn's fact delta onto a claim and returns the
// updated copy. Knowledge is monotonic: a known fact is overwritten only
// by another known value, never discarded by an unknown one. Values that
// fail validation mark the slot ambiguous (re-asked once) instead of
// failing the turn.
func Merge(claim domain.Claim, delta *domain.FactDelta) domain.Claim {
	out := claim.Clone()
	if delta == nil {
		return out
	}

	if delta.Category != nil && out.Category == "" {
		out.Category = *delta.Category
	}

	for _, name := range slotMergeOrder {
		v, ok := delta.Slots[name]
		if !ok || v.State == domain.SlotUnknown {
			continue
		}

		if name == domain.SlotHasEvidence {
			mergeEvidence(&out, v, delta.EvidenceConfidence)
			continue
		}

		spec, known := slotSpecs[name]
		if !known {
			continue
		}
		if !spec.validate(v) {
			// Keep a good value over a later malformed one.
			if !out.Fact(name).Known() {
				out.Facts[name] = domain.AmbiguousValue(spec.kind)
			}
			continue
		}
		out.Facts[name] = v
	}

	return out
}

// slotMergeOrder fixes the order deltas are folded in, so merge results
// never depend on map iteration order.
var slotMergeOrder = []domain.SlotName{
	domain.SlotHasEvidence,
	domain.SlotDaysSincePurchase,
	domain.SlotAsinOrPrice,
	domain.SlotPurchasePrice,
	domain.SlotDiscountPctRequested,
}

// mergeEvidence applies the tri-state evidence rules: once yes/no it is
// never reset, and a low-confidence classification counts as unknown.
func mergeEvidence(claim *domain.Claim, v domain.SlotValue, confidence *float64) {
	if claim.EvidencePresent != domain.TriUnknown {
		return
	}
	if !v.Known() || v.Kind != domain.KindBool {
		return
	}
	if confidence != nil && *confidence < EvidenceConfidenceThreshold {
		return
	}
	if v.BoolVal {
		claim.EvidencePresent = domain.TriYes
	} else {
		claim.EvidencePresent = domain.TriNo
	}
}

// MissingSlots returns the slots still needed for the claim's category,
// in fixed priority order. A slot counts as missing while unknown or
// ambiguous. Before the category is established the only missing slot is
// the category pseudo-slot.
func MissingSlots(claim domain.Claim) []domain.SlotName {
	if claim.Category == "" {
		return []domain.SlotName{domain.SlotClaimCategory}
	}

	// evidence=no settles an evidence-gated claim by itself: the deny rule
	// conditions on category and evidence only, so the remaining slots
	// cannot change the outcome and are not worth asking for.
	if evidenceRequired(claim.Category) && claim.EvidencePresent == domain.TriNo {
		return nil
	}

	var missing []domain.SlotName
	for _, name := range requiredSlots[claim.Category] {
		if !slotSatisfied(claim, name) {
			missing = append(missing, name)
		}
	}
	return missing
}

func evidenceRequired(c domain.Category) bool {
	for _, name := range requiredSlots[c] {
		if name == domain.SlotHasEvidence {
			return true
		}
	}
	return false
}

func slotSatisfied(claim domain.Claim, name domain.SlotName) bool {
	switch name {
	case domain.SlotHasEvidence:
		return claim.EvidencePresent != domain.TriUnknown
	case domain.SlotAsinOrPrice:
		// The ASIN-or-price question exists to learn the price; a known
		// purchase price satisfies it regardless of how it was learned.
		return claim.Fact(domain.SlotPurchasePrice).Known()
	default:
		return claim.Fact(name).Known()
	}
}
