package dialog

import (
	"github.com/redresshq/redress/internal/domain"
)

// maxAsksPerSlot allows one initial ask plus one re-ask for a slot whose
// answer failed validation. The hard cap guarantees termination no matter
// what the extraction collaborator returns.
const maxAsksPerSlot = 2

// questionText is the canonical wording per slot. One slot, one question:
// the transcript stays auditable against the asked-slot log.
var questionText = map[domain.SlotName]string{
	domain.SlotClaimCategory:        "Could you tell me a bit more about the problem? Is the item damaged, not assembled correctly, the wrong item, or are you asking about a discount?",
	domain.SlotHasEvidence:          "Do you have photos or a video showing the issue?",
	domain.SlotDaysSincePurchase:    "How many days ago did you purchase the item?",
	domain.SlotAsinOrPrice:          "Could you share the product link (or its ASIN), or the price you paid?",
	domain.SlotDiscountPctRequested: "What discount percentage would you like us to consider?",
	domain.SlotPurchasePrice:        "What price did you pay for the item?",
}

// Question pairs a slot with its canonical wording.
type Question struct {
	Slot domain.SlotName
	Text string
}

// NextQuestion picks the highest-priority missing slot that still has ask
// budget and records the ask on the session. A slot already asked is only
// re-asked while its value is ambiguous, and at most once. Returns nil
// when nothing is missing (decide now) or when every missing slot's ask
// budget is spent (escalate).
func NextQuestion(s *domain.Session) *Question {
	for _, name := range MissingSlots(s.Claim) {
		asked := s.Asked[name]
		if asked >= maxAsksPerSlot {
			continue
		}
		if asked > 0 && !reaskable(s.Claim, name) {
			continue
		}

		s.Asked[name]++
		s.LastAsked = name
		return &Question{Slot: name, Text: questionText[name]}
	}
	return nil
}

// reaskable reports whether an already-asked slot earned a re-ask by
// coming back malformed.
func reaskable(claim domain.Claim, name domain.SlotName) bool {
	switch name {
	case domain.SlotClaimCategory, domain.SlotHasEvidence:
		return false
	case domain.SlotAsinOrPrice:
		return claim.Fact(domain.SlotAsinOrPrice).Ambiguous() || claim.Fact(domain.SlotPurchasePrice).Ambiguous()
	default:
		return claim.Fact(name).Ambiguous()
	}
}

// RepeatQuestion re-issues the question for the most recently asked slot
// without spending ask budget. Used when a turn carried no new facts, for
// example because the extraction collaborator was unavailable.
func RepeatQuestion(s *domain.Session) *Question {
	if s.LastAsked == "" {
		return nil
	}
	return &Question{Slot: s.LastAsked, Text: questionText[s.LastAsked]}
}
