package domain

// Category classifies what the customer is asking for.
type Category string

const (
	CategoryDamagedOnArrival Category = "damaged_on_arrival"
	CategoryNotAssembled     Category = "not_assembled"
	CategoryWrongItem        Category = "wrong_item"
	CategoryDiscountRequest  Category = "discount_request"
	CategoryOther            Category = "other"
)

func ValidCategory(s string) bool {
	switch Category(s) {
	case CategoryDamagedOnArrival, CategoryNotAssembled, CategoryWrongItem, CategoryDiscountRequest, CategoryOther:
		return true
	}
	return false
}

// SlotName identifies a single fact required to evaluate policy.
type SlotName string

const (
	// SlotClaimCategory is a pseudo-slot: it is never stored in Claim.Facts,
	// but the question selector uses it to ask for the claim category before
	// any category-specific slot.
	SlotClaimCategory SlotName = "claim_category"

	SlotHasEvidence          SlotName = "has_evidence"
	SlotDaysSincePurchase    SlotName = "days_since_purchase"
	SlotAsinOrPrice          SlotName = "asin_or_price"
	SlotPurchasePrice        SlotName = "purchase_price"
	SlotDiscountPctRequested SlotName = "discount_pct_requested"
)

// ValueKind tags the payload type of a SlotValue.
type ValueKind string

const (
	KindString   ValueKind = "string"
	KindInt      ValueKind = "int"
	KindBool     ValueKind = "bool"
	KindPercent  ValueKind = "percent"
	KindCurrency ValueKind = "currency"
)

// SlotState tracks what we know about a slot.
type SlotState string

const (
	SlotUnknown   SlotState = "unknown"
	SlotKnown     SlotState = "known"
	SlotAmbiguous SlotState = "ambiguous" // failed validation, eligible for one re-ask
)

// SlotValue is a tagged union: exactly one payload field is meaningful,
// selected by Kind. Unknown and ambiguous values carry no payload.
type SlotValue struct {
	Kind      ValueKind `json:"kind"`
	State     SlotState `json:"state"`
	StringVal string    `json:"string_val,omitempty"`
	IntVal    int       `json:"int_val,omitempty"`
	BoolVal   bool      `json:"bool_val,omitempty"`
	FloatVal  float64   `json:"float_val,omitempty"` // percent or currency payload
}

func (v SlotValue) Known() bool     { return v.State == SlotKnown }
func (v SlotValue) Ambiguous() bool { return v.State == SlotAmbiguous }

func UnknownValue() SlotValue { return SlotValue{State: SlotUnknown} }

func AmbiguousValue(kind ValueKind) SlotValue {
	return SlotValue{Kind: kind, State: SlotAmbiguous}
}

func StringValue(s string) SlotValue {
	return SlotValue{Kind: KindString, State: SlotKnown, StringVal: s}
}

func IntValue(n int) SlotValue {
	return SlotValue{Kind: KindInt, State: SlotKnown, IntVal: n}
}

func BoolValue(b bool) SlotValue {
	return SlotValue{Kind: KindBool, State: SlotKnown, BoolVal: b}
}

func PercentValue(p float64) SlotValue {
	return SlotValue{Kind: KindPercent, State: SlotKnown, FloatVal: p}
}

func CurrencyValue(amount float64) SlotValue {
	return SlotValue{Kind: KindCurrency, State: SlotKnown, FloatVal: amount}
}

// TriState models evidence presence: yes, no, or not yet known.
type TriState string

const (
	TriYes     TriState = "yes"
	TriNo      TriState = "no"
	TriUnknown TriState = "unknown"
)

// Claim is the evolving fact set for one customer request.
//
// Category is immutable once established; a customer changing intent
// mid-session is a new claim. EvidencePresent is set once: a later
// "unknown" is treated as no new information, never as a retraction.
type Claim struct {
	Category        Category               `json:"category"`
	Facts           map[SlotName]SlotValue `json:"facts"`
	EvidencePresent TriState               `json:"evidence_present"`
}

func NewClaim() Claim {
	return Claim{
		Facts:           make(map[SlotName]SlotValue),
		EvidencePresent: TriUnknown,
	}
}

// Fact returns the slot value, or an unknown value if never recorded.
func (c Claim) Fact(name SlotName) SlotValue {
	if v, ok := c.Facts[name]; ok {
		return v
	}
	return UnknownValue()
}

// Clone returns a deep copy; claims are mutated copy-on-write.
func (c Claim) Clone() Claim {
	facts := make(map[SlotName]SlotValue, len(c.Facts))
	for k, v := range c.Facts {
		facts[k] = v
	}
	return Claim{Category: c.Category, Facts: facts, EvidencePresent: c.EvidencePresent}
}

// FactDelta is one inbound turn's worth of newly extracted facts, as
// produced by the extraction collaborator. Nil pointer fields mean the
// collaborator saw nothing for that field this turn.
type FactDelta struct {
	Category           *Category              `json:"category,omitempty"`
	Slots              map[SlotName]SlotValue `json:"slots,omitempty"`
	EvidenceConfidence *float64               `json:"evidence_confidence,omitempty"`
	Summary            string                 `json:"summary,omitempty"`
}

// Empty reports whether the delta carries no information at all, which is
// the shape a failed or silent collaborator produces.
func (d *FactDelta) Empty() bool {
	if d == nil {
		return true
	}
	return d.Category == nil && len(d.Slots) == 0 && d.EvidenceConfidence == nil
}
