package transition

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/eventengine/event"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()

	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func Test_service_submitBatchPostsOneAggregateExpense(t *testing.T) {
	towels := newTestLinenItem(0, 0, 0, 0, 0)
	sheets := newTestLinenItem(0, 0, 0, 0, 0)
	sheets.Name = "bed sheet"
	store := newFakeStore(towels, sheets)
	engine := &fakeEngine{}
	svc := newTestService(store, engine)

	response, err := svc.SubmitBatch(context.Background(), &SubmitBatchRequest{
		Note:    "may delivery",
		ActorID: "mgr-1",
		Lines: []BatchLine{
			{
				Op: BatchOpPurchase,
				Params: mustJSON(t, map[string]any{
					"itemID": towels.ItemID, "qty": 5, "unitCost": "1000",
				}),
			},
			{
				Op: BatchOpPurchase,
				Params: mustJSON(t, map[string]any{
					"itemID": sheets.ItemID, "qty": 4, "unitCost": "1500",
				}),
			},
		},
	})
	require.NoError(t, err)

	assert.Zero(t, response.FailedCount)
	assert.True(t, response.TotalExpense.Equal(decimal.NewFromInt(11000)),
		"expected 5*1000 + 4*1500, got %s", response.TotalExpense)

	// one aggregate expense, no per-line ones
	var expenses []*event.ExpenseIncurredEvent
	for _, e := range engine.events() {
		if payload, ok := e.Payload.(*event.ExpenseIncurredEvent); ok {
			expenses = append(expenses, payload)
		}
	}
	require.Len(t, expenses, 1)
	assert.True(t, expenses[0].Amount.Equal(decimal.NewFromInt(11000)))
	require.NotNil(t, expenses[0].BatchID)
	assert.Equal(t, response.BatchID, *expenses[0].BatchID)
}

func Test_service_submitBatchToleratesPartialFailure(t *testing.T) {
	linen := newTestLinenItem(10, 0, 0, 0, 10)
	store := newFakeStore(linen)
	svc := newTestService(store, &fakeEngine{})

	missingID := uuid.New()

	response, err := svc.SubmitBatch(context.Background(), &SubmitBatchRequest{
		ActorID: "hk-1",
		Lines: []BatchLine{
			{
				Op: BatchOpLend,
				Params: mustJSON(t, map[string]any{
					"itemID": linen.ItemID, "qty": 3, "roomRef": "210",
				}),
			},
			{
				// unknown item: this line fails, the batch carries on
				Op: BatchOpLend,
				Params: mustJSON(t, map[string]any{
					"itemID": missingID, "qty": 1, "roomRef": "211",
				}),
			},
			{
				Op: BatchOpLend,
				Params: mustJSON(t, map[string]any{
					"itemID": linen.ItemID, "qty": 2, "roomRef": "212",
				}),
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, response.FailedCount)
	require.Len(t, response.Results, 3)

	assert.True(t, response.Results[0].OK)
	assert.False(t, response.Results[1].OK)
	assert.NotEmpty(t, response.Results[1].Error)
	assert.True(t, response.Results[2].OK, "a failed line never blocks later lines")

	state := store.itemState(linen.ItemID)
	assert.Equal(t, 5, state.Available)
	assert.Equal(t, 5, state.InUse)
}

func Test_service_submitBatchStampsEveryEntryWithBatchID(t *testing.T) {
	linen := newTestLinenItem(10, 5, 0, 0, 15)
	store := newFakeStore(linen)
	svc := newTestService(store, &fakeEngine{})

	response, err := svc.SubmitBatch(context.Background(), &SubmitBatchRequest{
		ActorID: "hk-1",
		Lines: []BatchLine{
			{
				Op: BatchOpLaundrySend,
				Params: mustJSON(t, map[string]any{
					"itemID": linen.ItemID, "qty": 5, "stage": "vendor",
				}),
			},
			{
				Op: BatchOpLend,
				Params: mustJSON(t, map[string]any{
					"itemID": linen.ItemID, "qty": 2, "roomRef": "118",
				}),
			},
		},
	})
	require.NoError(t, err)
	require.Zero(t, response.FailedCount)

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.entries, 2)
	for i, entry := range store.entries {
		require.NotNil(t, entry.BatchID)
		assert.Equal(t, response.BatchID, *entry.BatchID)
		require.NotNil(t, entry.BatchLine)
		assert.Equal(t, i, *entry.BatchLine)
	}
}

func Test_service_submitBatchAppliesRepeatedItemAndOpLines(t *testing.T) {
	linen := newTestLinenItem(10, 0, 0, 0, 10)
	store := newFakeStore(linen)
	svc := newTestService(store, &fakeEngine{})

	// two rooms draw the same item: both lines must move counters
	response, err := svc.SubmitBatch(context.Background(), &SubmitBatchRequest{
		ActorID: "hk-1",
		Lines: []BatchLine{
			{
				Op: BatchOpLend,
				Params: mustJSON(t, map[string]any{
					"itemID": linen.ItemID, "qty": 3, "roomRef": "301",
				}),
			},
			{
				Op: BatchOpLend,
				Params: mustJSON(t, map[string]any{
					"itemID": linen.ItemID, "qty": 4, "roomRef": "302",
				}),
			},
		},
	})
	require.NoError(t, err)

	require.Zero(t, response.FailedCount)
	require.Len(t, response.Results, 2)
	assert.NotEqual(t, response.Results[0].EntryID, response.Results[1].EntryID)

	state := store.itemState(linen.ItemID)
	assert.Equal(t, 3, state.Available)
	assert.Equal(t, 7, state.InUse)
	assert.Equal(t, 2, store.entryCount())
}

func Test_service_submitBatchRejectsMalformedLineParams(t *testing.T) {
	linen := newTestLinenItem(10, 0, 0, 0, 10)
	store := newFakeStore(linen)
	svc := newTestService(store, &fakeEngine{})

	response, err := svc.SubmitBatch(context.Background(), &SubmitBatchRequest{
		ActorID: "hk-1",
		Lines: []BatchLine{
			{
				Op:     BatchOpLend,
				Params: json.RawMessage(`{"itemID": "not-a-uuid"`),
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, response.FailedCount)
	assert.False(t, response.Results[0].OK)
	assert.Zero(t, store.entryCount())
}

func Test_service_submitBatchWithoutPurchasesPostsNoExpense(t *testing.T) {
	linen := newTestLinenItem(10, 0, 0, 0, 10)
	store := newFakeStore(linen)
	engine := &fakeEngine{}
	svc := newTestService(store, engine)

	response, err := svc.SubmitBatch(context.Background(), &SubmitBatchRequest{
		ActorID: "hk-1",
		Lines: []BatchLine{
			{
				Op: BatchOpLaundrySend,
				Params: mustJSON(t, map[string]any{
					"itemID": linen.ItemID, "qty": 4, "stage": "internal",
				}),
			},
		},
	})
	require.NoError(t, err)
	require.Zero(t, response.FailedCount)
	assert.True(t, response.TotalExpense.IsZero())

	for _, e := range engine.events() {
		_, isExpense := e.Payload.(*event.ExpenseIncurredEvent)
		assert.False(t, isExpense, fmt.Sprintf("unexpected expense event: %v", e))
	}
}
