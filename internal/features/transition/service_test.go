package transition

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/eventengine/event"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/features/item"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/features/ledger"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/servererrors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLinenItem(available, dirty, atVendor, inUse, recordedTotal int) *item.Item {
	return &item.Item{
		ItemID:       uuid.New(),
		Name:         "bath towel",
		Category:     item.CategoryLinen,
		Unit:         "piece",
		CostPrice:    decimal.NewFromInt(1200),
		MinThreshold: 2,
		Counters: item.Counters{
			Available:    available,
			DirtyAtHotel: dirty,
			AtVendor:     atVendor,
			InUse:        inUse,
		},
		RecordedTotal: recordedTotal,
		Version:       1,
		IsActive:      true,
	}
}

func newTestConsumableItem(available int) *item.Item {
	return &item.Item{
		ItemID:        uuid.New(),
		Name:          "bottled water",
		Category:      item.CategoryConsumable,
		Unit:          "bottle",
		CostPrice:     decimal.NewFromInt(300),
		SalePrice:     decimal.NewFromInt(500),
		MinThreshold:  5,
		Counters:      item.Counters{Available: available},
		RecordedTotal: available,
		Version:       1,
		IsActive:      true,
	}
}

func newTestService(store Storer, engine *fakeEngine) *service {
	return NewService(&ServiceConfig{
		Store:           store,
		EventEngine:     engine,
		Logger:          zap.NewNop(),
		DefaultFacility: "main-building",
		MaxRetries:      5,
		RetryBase:       time.Millisecond,
	})
}

func Test_service_laundryRoundTripWithDamage(t *testing.T) {
	linen := newTestLinenItem(20, 0, 0, 0, 20)
	store := newFakeStore(linen)
	svc := newTestService(store, &fakeEngine{})
	ctx := context.Background()

	_, err := svc.SendToLaundry(ctx, &SendToLaundryRequest{
		ItemID: linen.ItemID, Qty: 8, Stage: StageInternal, ActorID: "hk-1",
	})
	require.NoError(t, err)

	_, err = svc.SendToLaundry(ctx, &SendToLaundryRequest{
		ItemID: linen.ItemID, Qty: 8, Stage: StageVendor, ActorID: "hk-1",
	})
	require.NoError(t, err)

	state := store.itemState(linen.ItemID)
	assert.Equal(t, 12, state.Available)
	assert.Equal(t, 0, state.DirtyAtHotel)
	assert.Equal(t, 8, state.AtVendor)

	result, err := svc.ReceiveFromLaundry(ctx, &ReceiveFromLaundryRequest{
		ItemID: linen.ItemID, QtyReceived: 8, DamageQty: 2, ActorID: "hk-1",
	})
	require.NoError(t, err)

	state = store.itemState(linen.ItemID)
	assert.Equal(t, 18, state.Available, "only the clean units come back")
	assert.Equal(t, 0, state.AtVendor)
	assert.Equal(t, 18, state.RecordedTotal, "damage is written off the books")
	assert.Equal(t, 18, state.ConceptualTotal())
	assert.Zero(t, state.BookVariance())

	// the receive produced two entries: the receipt and the write-off
	require.Len(t, result.Entries, 2)
	assert.Equal(t, ledger.OpLaundryReceive, result.Entries[0].Operation)
	assert.Equal(t, 6, result.Entries[0].Quantity)
	assert.Equal(t, ledger.OpDamageWriteOff, result.Entries[1].Operation)
	assert.Equal(t, -2, result.Entries[1].Quantity)
}

func Test_service_insufficientStockLeavesNoTrace(t *testing.T) {
	linen := newTestLinenItem(3, 0, 0, 0, 3)
	store := newFakeStore(linen)
	svc := newTestService(store, &fakeEngine{})

	_, err := svc.Lend(context.Background(), &LendRequest{
		ItemID: linen.ItemID, Qty: 5, RoomRef: "204", ActorID: "hk-2",
	})
	require.ErrorIs(t, err, servererrors.ErrInsufficientStock)

	state := store.itemState(linen.ItemID)
	assert.Equal(t, 3, state.Available, "counters untouched on rejection")
	assert.Equal(t, 1, state.Version)
	assert.Zero(t, store.entryCount(), "no ledger entry on rejection")
}

func Test_service_laundryOpsRejectNonLifecycleCategories(t *testing.T) {
	water := newTestConsumableItem(50)
	store := newFakeStore(water)
	svc := newTestService(store, &fakeEngine{})

	_, err := svc.SendToLaundry(context.Background(), &SendToLaundryRequest{
		ItemID: water.ItemID, Qty: 5, Stage: StageInternal, ActorID: "hk-1",
	})
	require.ErrorIs(t, err, servererrors.ErrValidationFailed)

	_, err = svc.Lend(context.Background(), &LendRequest{
		ItemID: water.ItemID, Qty: 5, RoomRef: "311", ActorID: "hk-1",
	})
	require.ErrorIs(t, err, servererrors.ErrValidationFailed)
}

func Test_service_retiredItemRejectsTransitions(t *testing.T) {
	linen := newTestLinenItem(10, 0, 0, 0, 10)
	linen.IsActive = false
	store := newFakeStore(linen)
	svc := newTestService(store, &fakeEngine{})

	_, err := svc.Purchase(context.Background(), &PurchaseRequest{
		ItemID: linen.ItemID, Qty: 5, UnitCost: decimal.NewFromInt(1000), ActorID: "mgr-1",
	})
	require.ErrorIs(t, err, servererrors.ErrItemRetired)
}

func Test_service_purchaseLiquidateRoundTrip(t *testing.T) {
	linen := newTestLinenItem(10, 0, 0, 0, 10)
	store := newFakeStore(linen)
	svc := newTestService(store, &fakeEngine{})
	ctx := context.Background()

	_, err := svc.Purchase(ctx, &PurchaseRequest{
		ItemID: linen.ItemID, Qty: 5, UnitCost: decimal.NewFromInt(1500), ActorID: "mgr-1",
	})
	require.NoError(t, err)

	state := store.itemState(linen.ItemID)
	assert.Equal(t, 15, state.Available)
	assert.Equal(t, 15, state.RecordedTotal)

	_, err = svc.Liquidate(ctx, &LiquidateRequest{
		ItemID: linen.ItemID, Qty: 5, Reason: "worn beyond repair", ActorID: "mgr-1",
	})
	require.NoError(t, err)

	state = store.itemState(linen.ItemID)
	assert.Equal(t, 10, state.Available)
	assert.Equal(t, 10, state.RecordedTotal, "round trip restores the books")
	assert.Zero(t, state.BookVariance())
}

func Test_service_standalonePurchasePostsExpense(t *testing.T) {
	linen := newTestLinenItem(0, 0, 0, 0, 0)
	store := newFakeStore(linen)
	engine := &fakeEngine{}
	svc := newTestService(store, engine)

	_, err := svc.Purchase(context.Background(), &PurchaseRequest{
		ItemID: linen.ItemID, Qty: 10, UnitCost: decimal.NewFromInt(1100),
		ActorID: "mgr-1", Note: "monthly towel restock",
	})
	require.NoError(t, err)

	var expense *event.ExpenseIncurredEvent
	for _, e := range engine.events() {
		if payload, ok := e.Payload.(*event.ExpenseIncurredEvent); ok {
			expense = payload
		}
	}
	require.NotNil(t, expense, "standalone purchase must post its own expense")
	assert.True(t, expense.Amount.Equal(decimal.NewFromInt(11000)))
	assert.Nil(t, expense.BatchID)
}

func Test_service_lowStockAlertFiresAtThreshold(t *testing.T) {
	water := newTestConsumableItem(6) // threshold 5
	store := newFakeStore(water)
	engine := &fakeEngine{}
	svc := newTestService(store, engine)

	_, err := svc.ConsumeSale(context.Background(), &ConsumeSaleRequest{
		ItemID: water.ItemID, Qty: 2, UnitPrice: decimal.NewFromInt(500), ActorID: "fd-1",
	})
	require.NoError(t, err)

	var alert *event.StockAlertEvent
	for _, e := range engine.events() {
		if payload, ok := e.Payload.(*event.StockAlertEvent); ok {
			alert = payload
		}
	}
	require.NotNil(t, alert)
	assert.Equal(t, event.AlertLowStock, alert.Kind)
	assert.Equal(t, 4, alert.Available)
}

func Test_service_consumeSaleSyncsConsumableRecordedTotal(t *testing.T) {
	water := newTestConsumableItem(50)
	store := newFakeStore(water)
	engine := &fakeEngine{}
	svc := newTestService(store, engine)

	_, err := svc.ConsumeSale(context.Background(), &ConsumeSaleRequest{
		ItemID: water.ItemID, Qty: 3, UnitPrice: decimal.NewFromInt(500),
		FolioRef: "F-1042", ActorID: "fd-1",
	})
	require.NoError(t, err)

	state := store.itemState(water.ItemID)
	assert.Equal(t, 47, state.Available)
	assert.Equal(t, 47, state.RecordedTotal, "consumables track available")

	var folio *event.FolioLinePostedEvent
	for _, e := range engine.events() {
		if payload, ok := e.Payload.(*event.FolioLinePostedEvent); ok {
			folio = payload
		}
	}
	require.NotNil(t, folio)
	assert.Equal(t, "F-1042", folio.FolioRef)
	assert.True(t, folio.Total.Equal(decimal.NewFromInt(1500)))
}

func Test_service_consumeSaleShedsLifecycleRecordedTotal(t *testing.T) {
	linen := newTestLinenItem(12, 0, 0, 0, 12)
	store := newFakeStore(linen)
	svc := newTestService(store, &fakeEngine{})

	_, err := svc.ConsumeSale(context.Background(), &ConsumeSaleRequest{
		ItemID: linen.ItemID, Qty: 2, UnitPrice: decimal.NewFromInt(3000),
		FolioRef: "F-1107", ActorID: "fd-2",
	})
	require.NoError(t, err)

	state := store.itemState(linen.ItemID)
	assert.Equal(t, 10, state.Available)
	assert.Equal(t, 10, state.RecordedTotal, "sold units leave the books like liquidation")
	assert.Equal(t, 0, state.RecordedTotal-state.ConceptualTotal(), "no phantom variance")
}

func Test_service_returnSplitsDirtyAndClean(t *testing.T) {
	linen := newTestLinenItem(5, 0, 0, 10, 15)
	store := newFakeStore(linen)
	svc := newTestService(store, &fakeEngine{})

	_, err := svc.Return(context.Background(), &ReturnRequest{
		ItemID: linen.ItemID, DirtyQty: 6, CleanQty: 2, RoomRef: "112", ActorID: "hk-3",
	})
	require.NoError(t, err)

	state := store.itemState(linen.ItemID)
	assert.Equal(t, 7, state.Available)
	assert.Equal(t, 6, state.DirtyAtHotel)
	assert.Equal(t, 2, state.InUse)
	assert.Equal(t, 15, state.RecordedTotal, "moves never change the books")
	assert.Equal(t, 15, state.ConceptualTotal())
}

func Test_service_manualCorrectionLedgersBeforeAndAfter(t *testing.T) {
	linen := newTestLinenItem(10, 4, 0, 0, 14)
	store := newFakeStore(linen)
	svc := newTestService(store, &fakeEngine{})

	result, err := svc.ManualCorrection(context.Background(), &ManualCorrectionRequest{
		ItemID: linen.ItemID, Field: item.FieldDirtyAtHotel, NewValue: 2,
		Reason: "physical recount", ActorID: "mgr-1",
	})
	require.NoError(t, err)

	state := store.itemState(linen.ItemID)
	assert.Equal(t, 2, state.DirtyAtHotel)

	require.Len(t, result.Entries, 1)
	assert.Equal(t, ledger.OpAdjust, result.Entries[0].Operation)
	assert.Equal(t, -2, result.Entries[0].Quantity)
	assert.Contains(t, result.Entries[0].Note, "4 -> 2")
}

func Test_service_setRecordedTotalAlwaysLedgers(t *testing.T) {
	linen := newTestLinenItem(10, 0, 0, 0, 10)
	store := newFakeStore(linen)
	svc := newTestService(store, &fakeEngine{})

	result, err := svc.SetRecordedTotal(context.Background(), &SetRecordedTotalRequest{
		ItemID: linen.ItemID, NewValue: 12, Reason: "found misplaced stock", ActorID: "mgr-1",
	})
	require.NoError(t, err)

	state := store.itemState(linen.ItemID)
	assert.Equal(t, 12, state.RecordedTotal)
	assert.Equal(t, 10, state.Available, "counters untouched")

	require.Len(t, result.Entries, 1)
	assert.Equal(t, ledger.OpAdjust, result.Entries[0].Operation)
	assert.Equal(t, 2, result.Entries[0].Quantity)
}

func Test_service_idempotentReplayReturnsOriginalEntry(t *testing.T) {
	linen := newTestLinenItem(20, 0, 0, 0, 20)
	store := newFakeStore(linen)
	svc := newTestService(store, &fakeEngine{})
	ctx := context.Background()

	batchID := uuid.New()
	line := 0
	req := &LendRequest{
		ItemID: linen.ItemID, Qty: 4, RoomRef: "305",
		ActorID: "hk-1", BatchID: &batchID, BatchLine: &line,
	}

	first, err := svc.Lend(ctx, req)
	require.NoError(t, err)
	require.False(t, first.Replayed)

	second, err := svc.Lend(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Entries[0].EntryID, second.Entries[0].EntryID)

	state := store.itemState(linen.ItemID)
	assert.Equal(t, 16, state.Available, "replay must not move counters again")
	assert.Equal(t, 1, store.entryCount())
}

func Test_service_retriesThroughVersionConflicts(t *testing.T) {
	linen := newTestLinenItem(20, 0, 0, 0, 20)
	store := newFakeStore(linen)
	store.conflictsToInject = 2
	svc := newTestService(store, &fakeEngine{})

	_, err := svc.Lend(context.Background(), &LendRequest{
		ItemID: linen.ItemID, Qty: 4, RoomRef: "305", ActorID: "hk-1",
	})
	require.NoError(t, err)

	state := store.itemState(linen.ItemID)
	assert.Equal(t, 16, state.Available)
	assert.Equal(t, 4, state.InUse)
}

func Test_service_givesUpAfterMaxRetries(t *testing.T) {
	linen := newTestLinenItem(20, 0, 0, 0, 20)
	store := newFakeStore(linen)
	store.conflictsToInject = 100
	svc := newTestService(store, &fakeEngine{})

	_, err := svc.Lend(context.Background(), &LendRequest{
		ItemID: linen.ItemID, Qty: 4, RoomRef: "305", ActorID: "hk-1",
	})
	require.ErrorIs(t, err, servererrors.ErrConcurrentModification)
	assert.Zero(t, store.entryCount())
}

func Test_service_concurrentLendsOverLimitAdmitExactlyOne(t *testing.T) {
	linen := newTestLinenItem(1, 0, 0, 0, 1)
	store := newFakeStore(linen)
	svc := newTestService(store, &fakeEngine{})

	const workers = 2
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Lend(context.Background(), &LendRequest{
				ItemID: linen.ItemID, Qty: 1, RoomRef: "101", ActorID: "hk-1",
			})
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, servererrors.ErrInsufficientStock):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded, "exactly one lend may win the last unit")
	assert.Equal(t, 1, rejected)

	state := store.itemState(linen.ItemID)
	assert.Equal(t, 0, state.Available)
	assert.Equal(t, 1, state.InUse)
	assert.Equal(t, 1, store.entryCount())
}
