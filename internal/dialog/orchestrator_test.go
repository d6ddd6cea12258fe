package dialog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/redresshq/redress/internal/domain"
	"github.com/redresshq/redress/internal/policy"
	"github.com/redresshq/redress/internal/pricing"
	"github.com/redresshq/redress/internal/store"
)

type fixedPriceProvider struct {
	price float64
	err   error
}

func (p *fixedPriceProvider) Price(ctx context.Context, asin string) (float64, error) {
	if p.err != nil {
		return 0, p.err
	}
	return p.price, nil
}

type orchFixture struct {
	orch     *Orchestrator
	sessions *store.MemorySessionStore
	cases    *store.MemoryCaseStore
	messages *store.MemoryMessageStore
}

func newFixture(t *testing.T, prices domain.PriceProvider) *orchFixture {
	t.Helper()
	f := &orchFixture{
		sessions: store.NewMemorySessionStore(),
		cases:    store.NewMemoryCaseStore(),
		messages: store.NewMemoryMessageStore(),
	}
	engine := policy.NewEngine(policy.DefaultTable())
	f.orch = NewOrchestrator(f.sessions, f.cases, f.messages, engine, prices, zap.NewNop())
	return f
}

func TestStep_AssemblyClaimDeniedWithoutEvidence(t *testing.T) {
	f := newFixture(t, pricing.NewNullProvider())
	ctx := context.Background()

	resp, err := f.orch.Step(ctx, "sess-1", "my shelf is missing screws", &domain.FactDelta{
		Category: catPtr(domain.CategoryNotAssembled),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TurnTypeQuestion, resp.Type)
	assert.Equal(t, domain.SlotHasEvidence, resp.Slot)
	assert.Equal(t, 1, resp.Turn)

	// "No evidence" decides the claim immediately: no timing question, no
	// further turns.
	resp, err = f.orch.Step(ctx, "sess-1", "no, I don't have photos", &domain.FactDelta{
		Slots: map[domain.SlotName]domain.SlotValue{
			domain.SlotHasEvidence: domain.BoolValue(false),
		},
		EvidenceConfidence: confPtr(0.85),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TurnTypeDecision, resp.Type)
	assert.True(t, resp.Terminal)
	require.NotNil(t, resp.Outcome)
	assert.Equal(t, domain.OutcomeDeny, resp.Outcome.Kind)
	assert.Equal(t, "no_evidence_for_assembly_claim", resp.Outcome.ReasonCode)
	assert.Equal(t, 2, resp.Turn)

	// Terminal outcome is recorded as a case.
	cases, err := f.cases.ListBySession(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, domain.OutcomeDeny, cases[0].Outcome)
	assert.Equal(t, 2, cases[0].TurnsTaken)

	// Both sides of every turn end up in the transcript.
	msgs, err := f.messages.ListBySession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Len(t, msgs, 4)

	// A closed session rejects further turns.
	_, err = f.orch.Step(ctx, "sess-1", "wait, actually", &domain.FactDelta{})
	assert.ErrorIs(t, err, ErrSessionTerminated)
}

func TestStep_DamageApprovedAtWindowBoundary(t *testing.T) {
	f := newFixture(t, pricing.NewNullProvider())

	resp, err := f.orch.Step(context.Background(), "sess-1", "cracked table, photos attached, bought 30 days ago", &domain.FactDelta{
		Category: catPtr(domain.CategoryDamagedOnArrival),
		Slots: map[domain.SlotName]domain.SlotValue{
			domain.SlotHasEvidence:       domain.BoolValue(true),
			domain.SlotDaysSincePurchase: domain.IntValue(30),
		},
		EvidenceConfidence: confPtr(0.92),
	})
	require.NoError(t, err)
	assert.True(t, resp.Terminal)
	assert.Equal(t, domain.OutcomeApproveReturn, resp.Outcome.Kind)
	assert.Equal(t, "damage_evidenced_within_window", resp.Outcome.ReasonCode)
	assert.Equal(t, 1, resp.Turn)
}

func TestStep_DiscountCappedAndFloored(t *testing.T) {
	f := newFixture(t, pricing.NewNullProvider())
	ctx := context.Background()

	resp, err := f.orch.Step(ctx, "sess-1", "I want 25% off, bought 4 days ago", &domain.FactDelta{
		Category: catPtr(domain.CategoryDiscountRequest),
		Slots: map[domain.SlotName]domain.SlotValue{
			domain.SlotDaysSincePurchase:    domain.IntValue(4),
			domain.SlotDiscountPctRequested: domain.PercentValue(25),
		},
	})
	require.NoError(t, err)
	require.Equal(t, domain.SlotAsinOrPrice, resp.Slot)

	// A price literal resolves without the lookup collaborator.
	resp, err = f.orch.Step(ctx, "sess-1", "I paid $200", &domain.FactDelta{
		Slots: map[domain.SlotName]domain.SlotValue{
			domain.SlotAsinOrPrice: domain.StringValue("200"),
		},
	})
	require.NoError(t, err)
	assert.True(t, resp.Terminal)
	require.NotNil(t, resp.Outcome)
	assert.Equal(t, domain.OutcomeApproveDiscount, resp.Outcome.Kind)
	assert.Equal(t, 15.0, resp.Outcome.DiscountPct)
	assert.Equal(t, int64(30), resp.Outcome.DiscountAmount)
	assert.True(t, resp.Outcome.Capped)
}

func TestStep_DiscountViaPriceLookup(t *testing.T) {
	f := newFixture(t, &fixedPriceProvider{price: 150})
	ctx := context.Background()

	_, err := f.orch.Step(ctx, "sess-1", "can I get 5% off? bought 20 days ago", &domain.FactDelta{
		Category: catPtr(domain.CategoryDiscountRequest),
		Slots: map[domain.SlotName]domain.SlotValue{
			domain.SlotDaysSincePurchase:    domain.IntValue(20),
			domain.SlotDiscountPctRequested: domain.PercentValue(5),
		},
	})
	require.NoError(t, err)

	resp, err := f.orch.Step(ctx, "sess-1", "here is the link", &domain.FactDelta{
		Slots: map[domain.SlotName]domain.SlotValue{
			domain.SlotAsinOrPrice: domain.StringValue("https://www.amazon.com/dp/B0ABCD1234"),
		},
	})
	require.NoError(t, err)
	assert.True(t, resp.Terminal)
	assert.Equal(t, domain.OutcomeApproveDiscount, resp.Outcome.Kind)
	assert.Equal(t, 5.0, resp.Outcome.DiscountPct)
	assert.Equal(t, int64(7), resp.Outcome.DiscountAmount) // floor(5% of 150)
	assert.False(t, resp.Outcome.Capped)
}

func TestStep_PriceLookupFailureEscalatesAfterReask(t *testing.T) {
	f := newFixture(t, &fixedPriceProvider{err: pricing.ErrPriceUnavailable})
	ctx := context.Background()

	_, err := f.orch.Step(ctx, "sess-1", "25% off please, bought 4 days ago", &domain.FactDelta{
		Category: catPtr(domain.CategoryDiscountRequest),
		Slots: map[domain.SlotName]domain.SlotValue{
			domain.SlotDaysSincePurchase:    domain.IntValue(4),
			domain.SlotDiscountPctRequested: domain.PercentValue(25),
		},
	})
	require.NoError(t, err)

	asinDelta := &domain.FactDelta{
		Slots: map[domain.SlotName]domain.SlotValue{
			domain.SlotAsinOrPrice: domain.StringValue("B0ABCD1234"),
		},
	}

	// First failure earns one re-ask.
	resp, err := f.orch.Step(ctx, "sess-1", "B0ABCD1234", asinDelta)
	require.NoError(t, err)
	assert.Equal(t, domain.TurnTypeQuestion, resp.Type)
	assert.Equal(t, domain.SlotAsinOrPrice, resp.Slot)

	// Second failure exhausts the budget and fails closed.
	resp, err = f.orch.Step(ctx, "sess-1", "B0ABCD1234", asinDelta)
	require.NoError(t, err)
	assert.True(t, resp.Terminal)
	assert.Equal(t, domain.OutcomeEscalateHuman, resp.Outcome.Kind)
	assert.Equal(t, domain.ReasonReaskExhausted, resp.Outcome.ReasonCode)
}

func TestStep_TurnBudgetForcesEscalation(t *testing.T) {
	f := newFixture(t, pricing.NewNullProvider())
	ctx := context.Background()

	// Eight turns that never establish a category.
	for i := 1; i <= domain.MaxTurns; i++ {
		resp, err := f.orch.Step(ctx, "sess-1", "hello?", &domain.FactDelta{})
		require.NoError(t, err)
		assert.Equal(t, domain.TurnTypeQuestion, resp.Type, "turn %d", i)
		assert.Equal(t, i, resp.Turn)
	}

	resp, err := f.orch.Step(ctx, "sess-1", "hello??", &domain.FactDelta{})
	require.NoError(t, err)
	assert.True(t, resp.Terminal)
	assert.Equal(t, domain.OutcomeEscalateHuman, resp.Outcome.Kind)
	assert.Equal(t, domain.ReasonTurnBudgetExceeded, resp.Outcome.ReasonCode)

	// The rejected ninth turn is not counted in stored state.
	sess, err := f.orch.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, domain.MaxTurns, sess.TurnsTaken)
}

func TestStep_CategorylessDeltaRepeatsCategoryQuestion(t *testing.T) {
	f := newFixture(t, pricing.NewNullProvider())
	ctx := context.Background()

	// Facts but no category yet: the category question is asked first.
	resp, err := f.orch.Step(ctx, "sess-1", "I bought it 4 days ago", &domain.FactDelta{
		Slots: map[domain.SlotName]domain.SlotValue{
			domain.SlotDaysSincePurchase: domain.IntValue(4),
		},
	})
	require.NoError(t, err)
	require.Equal(t, domain.SlotClaimCategory, resp.Slot)

	// The next reply also carries facts but still no category: the same
	// question is repeated instead of terminating the session.
	resp, err = f.orch.Step(ctx, "sess-1", "it was 4 days ago, I said", &domain.FactDelta{
		Slots: map[domain.SlotName]domain.SlotValue{
			domain.SlotDaysSincePurchase: domain.IntValue(4),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TurnTypeQuestion, resp.Type)
	assert.Equal(t, domain.SlotClaimCategory, resp.Slot)
	assert.False(t, resp.Terminal)

	// Once the category lands, the already-collected facts complete the
	// claim straight away.
	resp, err = f.orch.Step(ctx, "sess-1", "the wrong item was delivered", &domain.FactDelta{
		Category: catPtr(domain.CategoryWrongItem),
	})
	require.NoError(t, err)
	assert.True(t, resp.Terminal)
	assert.Equal(t, domain.OutcomeApproveReturn, resp.Outcome.Kind)
}

func TestStep_EmptyDeltaRepeatsWithoutSpendingBudget(t *testing.T) {
	f := newFixture(t, pricing.NewNullProvider())
	ctx := context.Background()

	_, err := f.orch.Step(ctx, "sess-1", "wrong item arrived", &domain.FactDelta{
		Category: catPtr(domain.CategoryWrongItem),
	})
	require.NoError(t, err)

	// Extraction produced nothing: the same question is re-issued and the
	// ask count stays where it was.
	resp, err := f.orch.Step(ctx, "sess-1", "...", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.TurnTypeQuestion, resp.Type)
	assert.Equal(t, domain.SlotDaysSincePurchase, resp.Slot)

	sess, err := f.orch.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 1, sess.Asked[domain.SlotDaysSincePurchase])
	assert.Equal(t, 2, sess.TurnsTaken)
}

func TestStep_CancelledContextLeavesSessionUntouched(t *testing.T) {
	f := newFixture(t, pricing.NewNullProvider())
	ctx := context.Background()

	_, err := f.orch.Step(ctx, "sess-1", "wrong item", &domain.FactDelta{
		Category: catPtr(domain.CategoryWrongItem),
	})
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = f.orch.Step(cancelled, "sess-1", "4 days ago", &domain.FactDelta{
		Slots: map[domain.SlotName]domain.SlotValue{
			domain.SlotDaysSincePurchase: domain.IntValue(4),
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	sess, err := f.orch.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 1, sess.TurnsTaken)
	assert.False(t, sess.Claim.Fact(domain.SlotDaysSincePurchase).Known())
}

func TestStep_CategoryChangeIgnored(t *testing.T) {
	f := newFixture(t, pricing.NewNullProvider())
	ctx := context.Background()

	_, err := f.orch.Step(ctx, "sess-1", "wrong item", &domain.FactDelta{
		Category: catPtr(domain.CategoryWrongItem),
	})
	require.NoError(t, err)

	_, err = f.orch.Step(ctx, "sess-1", "actually give me a discount", &domain.FactDelta{
		Category: catPtr(domain.CategoryDiscountRequest),
	})
	require.NoError(t, err)

	sess, err := f.orch.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryWrongItem, sess.Claim.Category)
}

func TestStep_OtherCategoryEscalatesImmediately(t *testing.T) {
	f := newFixture(t, pricing.NewNullProvider())

	resp, err := f.orch.Step(context.Background(), "sess-1", "I have a weird question", &domain.FactDelta{
		Category: catPtr(domain.CategoryOther),
	})
	require.NoError(t, err)
	assert.True(t, resp.Terminal)
	assert.Equal(t, domain.OutcomeEscalateHuman, resp.Outcome.Kind)
	assert.Equal(t, domain.ReasonCategoryUnclassified, resp.Outcome.ReasonCode)
}
