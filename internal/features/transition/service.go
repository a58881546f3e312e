package transition

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/eventengine"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/eventengine/event"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/features/item"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/features/ledger"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/servererrors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Storer is the persistence surface the engine needs: a point read of the
// item row and the one-unit commit of {counter CAS + ledger append}.
type Storer interface {
	findItem(ctx context.Context, itemID uuid.UUID) (*item.Item, error)
	// applyTransition commits the new counter set and the ledger entries
	// in one transaction, guarded by the item's version. It returns
	// servererrors.ErrConcurrentModification when the version moved.
	applyTransition(ctx context.Context, it *item.Item, next item.Counters, recordedTotal int, entries []*ledger.Entry) error
	findByBatchKey(ctx context.Context, batchID uuid.UUID, batchLine int, op ledger.OperationType) (*ledger.Entry, error)
}

type ServiceConfig struct {
	Store           Storer
	EventEngine     eventengine.RegisterPublisher
	Logger          *zap.Logger
	DefaultFacility string
	MaxRetries      int
	RetryBase       time.Duration
}

type service struct {
	*ServiceConfig
}

func NewService(cfg *ServiceConfig) *service {
	if cfg == nil || cfg.Store == nil || cfg.EventEngine == nil || cfg.Logger == nil {
		panic("transition: config, Store, EventEngine and Logger are all required")
	}

	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 10 * time.Millisecond
	}

	cfg.EventEngine.RegisterEvents(
		event.ExpenseIncurredEventName,
		event.StockAlertEventName,
		event.FolioLinePostedEventName,
	)

	return &service{
		ServiceConfig: cfg,
	}
}

// mutation is the outcome a builder computes from the item's current
// state: the full next counter set, the next recorded total, and the
// ledger entries that explain the change.
type mutation struct {
	next          item.Counters
	recordedTotal int
	entries       []*ledger.Entry
}

type buildFunc func(it *item.Item) (*mutation, error)

// apply is the single write path of the engine. It replays idempotently
// under the (batch, line, operation) key, retries optimistic-lock
// conflicts with jittered backoff, and refuses any counter set with a
// negative value.
func (s *service) apply(
	ctx context.Context,
	itemID uuid.UUID,
	batchID *uuid.UUID,
	batchLine *int,
	op ledger.OperationType,
	build buildFunc,
) (*TransitionResult, error) {
	for attempt := 0; ; attempt++ {
		// the idempotency key is checked every attempt: a conflicting
		// writer may have been this very line replayed concurrently
		if batchID != nil && batchLine != nil {
			existing, err := s.Store.findByBatchKey(ctx, *batchID, *batchLine, op)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				it, err := s.Store.findItem(ctx, itemID)
				if err != nil {
					return nil, err
				}
				return &TransitionResult{
					Item:     item.NewItemDTO(it),
					Entries:  []*ledger.Entry{existing},
					Replayed: true,
				}, nil
			}
		}

		it, err := s.Store.findItem(ctx, itemID)
		if err != nil {
			return nil, err
		}

		if !it.IsActive {
			return nil, servererrors.ErrItemRetired
		}

		mut, err := build(it)
		if err != nil {
			return nil, err
		}

		if mut.next.AnyNegative() || mut.recordedTotal < 0 {
			return nil, servererrors.ErrInsufficientStock
		}

		err = s.Store.applyTransition(ctx, it, mut.next, mut.recordedTotal, mut.entries)
		if err == nil {
			it.Counters = mut.next
			it.RecordedTotal = mut.recordedTotal
			it.Version++

			s.publishLowStockAlert(it)

			return &TransitionResult{
				Item:    item.NewItemDTO(it),
				Entries: mut.entries,
			}, nil
		}

		if !errors.Is(err, servererrors.ErrConcurrentModification) {
			return nil, err
		}

		if attempt+1 >= s.MaxRetries {
			return nil, fmt.Errorf(
				"gave up after %d attempts on item %s: %w",
				s.MaxRetries, itemID, servererrors.ErrConcurrentModification,
			)
		}

		backoff := s.RetryBase*time.Duration(attempt+1) +
			time.Duration(rand.Int63n(int64(s.RetryBase)))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (s *service) newEntry(
	it *item.Item,
	op ledger.OperationType,
	qty int,
	unitCost decimal.Decimal,
	actorID, facility, note string,
	evidenceRef *string,
	batchID *uuid.UUID,
	batchLine *int,
) *ledger.Entry {
	if facility == "" {
		facility = s.DefaultFacility
	}

	return &ledger.Entry{
		EntryID:     uuid.New(),
		ItemID:      it.ItemID,
		Timestamp:   time.Now().UTC(),
		ActorID:     actorID,
		Operation:   op,
		Quantity:    qty,
		UnitCost:    unitCost,
		TotalValue:  unitCost.Mul(decimal.NewFromInt(int64(abs(qty)))),
		Facility:    facility,
		Note:        note,
		EvidenceRef: evidenceRef,
		BatchID:     batchID,
		BatchLine:   batchLine,
	}
}

// Purchase books newly bought units into the clean store. Lifecycle
// categories also grow the recorded total; for the rest the recorded
// total tracks the available counter.
func (s *service) Purchase(ctx context.Context, req *PurchaseRequest) (*TransitionResult, error) {
	if req.Qty <= 0 || req.UnitCost.IsNegative() {
		return nil, servererrors.ErrInvalidQuantity
	}

	result, err := s.apply(ctx, req.ItemID, req.BatchID, req.BatchLine, ledger.OpIn, func(it *item.Item) (*mutation, error) {
		next := it.Counters
		next.Available += req.Qty

		recordedTotal := it.RecordedTotal + req.Qty
		if !it.Category.Lifecycle() {
			recordedTotal = next.Available
		}

		entry := s.newEntry(
			it, ledger.OpIn, req.Qty, req.UnitCost,
			req.ActorID, req.Facility, req.Note, req.EvidenceRef, req.BatchID, req.BatchLine,
		)

		return &mutation{
			next:          next,
			recordedTotal: recordedTotal,
			entries:       []*ledger.Entry{entry},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	// standalone purchases post their own expense; batches post one
	// aggregate instead
	if !result.Replayed && req.BatchID == nil {
		cost := req.UnitCost.Mul(decimal.NewFromInt(int64(req.Qty)))
		if cost.IsPositive() {
			s.publishExpense(result.Entries[0].Facility, cost, req.Note, nil)
		}
	}

	return result, nil
}

// SendToLaundry moves units one leg along the laundry cycle: clean store
// to dirty store, or dirty store to the external vendor.
func (s *service) SendToLaundry(ctx context.Context, req *SendToLaundryRequest) (*TransitionResult, error) {
	if req.Qty <= 0 {
		return nil, servererrors.ErrInvalidQuantity
	}

	return s.apply(ctx, req.ItemID, req.BatchID, req.BatchLine, ledger.OpLaundrySend, func(it *item.Item) (*mutation, error) {
		if err := requireLifecycle(it); err != nil {
			return nil, err
		}

		next := it.Counters
		switch req.Stage {
		case StageInternal:
			if next.Available < req.Qty {
				return nil, servererrors.ErrInsufficientStock
			}
			next.Available -= req.Qty
			next.DirtyAtHotel += req.Qty
		case StageVendor:
			if next.DirtyAtHotel < req.Qty {
				return nil, servererrors.ErrInsufficientStock
			}
			next.DirtyAtHotel -= req.Qty
			next.AtVendor += req.Qty
		default:
			return nil, servererrors.ErrValidationFailed
		}

		note := fmt.Sprintf("stage=%s", req.Stage)
		if req.Note != "" {
			note = fmt.Sprintf("%s; %s", note, req.Note)
		}

		entry := s.newEntry(
			it, ledger.OpLaundrySend, -req.Qty, it.CostPrice,
			req.ActorID, "", note, nil, req.BatchID, req.BatchLine,
		)

		return &mutation{
			next:          next,
			recordedTotal: it.RecordedTotal,
			entries:       []*ledger.Entry{entry},
		}, nil
	})
}

// ReceiveFromLaundry takes units back from the vendor. Damaged units are
// written off the books permanently with their own ledger entry so the
// taxonomy of recorded-total changes stays queryable.
func (s *service) ReceiveFromLaundry(ctx context.Context, req *ReceiveFromLaundryRequest) (*TransitionResult, error) {
	if req.QtyReceived <= 0 || req.DamageQty < 0 || req.DamageQty > req.QtyReceived {
		return nil, servererrors.ErrInvalidQuantity
	}

	return s.apply(ctx, req.ItemID, req.BatchID, req.BatchLine, ledger.OpLaundryReceive, func(it *item.Item) (*mutation, error) {
		if err := requireLifecycle(it); err != nil {
			return nil, err
		}

		next := it.Counters
		if next.AtVendor < req.QtyReceived {
			return nil, servererrors.ErrInsufficientStock
		}

		cleanReturned := req.QtyReceived - req.DamageQty
		next.AtVendor -= req.QtyReceived
		next.Available += cleanReturned

		recordedTotal := it.RecordedTotal

		note := fmt.Sprintf("received=%d damaged=%d", req.QtyReceived, req.DamageQty)
		if req.Note != "" {
			note = fmt.Sprintf("%s; %s", note, req.Note)
		}

		entries := []*ledger.Entry{
			s.newEntry(
				it, ledger.OpLaundryReceive, cleanReturned, it.CostPrice,
				req.ActorID, "", note, req.EvidenceRef, req.BatchID, req.BatchLine,
			),
		}

		if req.DamageQty > 0 {
			recordedTotal -= req.DamageQty // permanent write-off
			entries = append(entries, s.newEntry(
				it, ledger.OpDamageWriteOff, -req.DamageQty, it.CostPrice,
				req.ActorID, "", "damaged in laundering", req.EvidenceRef, req.BatchID, req.BatchLine,
			))
		}

		return &mutation{
			next:          next,
			recordedTotal: recordedTotal,
			entries:       entries,
		}, nil
	})
}

// Lend deploys units from the clean store to a guest room.
func (s *service) Lend(ctx context.Context, req *LendRequest) (*TransitionResult, error) {
	if req.Qty <= 0 {
		return nil, servererrors.ErrInvalidQuantity
	}

	return s.apply(ctx, req.ItemID, req.BatchID, req.BatchLine, ledger.OpLend, func(it *item.Item) (*mutation, error) {
		if err := requireLifecycle(it); err != nil {
			return nil, err
		}

		next := it.Counters
		if next.Available < req.Qty {
			return nil, servererrors.ErrInsufficientStock
		}
		next.Available -= req.Qty
		next.InUse += req.Qty

		entry := s.newEntry(
			it, ledger.OpLend, -req.Qty, it.CostPrice,
			req.ActorID, "", fmt.Sprintf("room=%s", req.RoomRef), nil, req.BatchID, req.BatchLine,
		)

		return &mutation{
			next:          next,
			recordedTotal: it.RecordedTotal,
			entries:       []*ledger.Entry{entry},
		}, nil
	})
}

// Return takes units back from a room, split between those that go
// straight to the clean store and those that join the dirty store.
func (s *service) Return(ctx context.Context, req *ReturnRequest) (*TransitionResult, error) {
	total := req.DirtyQty + req.CleanQty
	if req.DirtyQty < 0 || req.CleanQty < 0 || total <= 0 {
		return nil, servererrors.ErrInvalidQuantity
	}

	return s.apply(ctx, req.ItemID, req.BatchID, req.BatchLine, ledger.OpReturn, func(it *item.Item) (*mutation, error) {
		if err := requireLifecycle(it); err != nil {
			return nil, err
		}

		next := it.Counters
		if next.InUse < total {
			return nil, servererrors.ErrInsufficientStock
		}
		next.InUse -= total
		next.DirtyAtHotel += req.DirtyQty
		next.Available += req.CleanQty

		note := fmt.Sprintf("room=%s dirty=%d clean=%d", req.RoomRef, req.DirtyQty, req.CleanQty)
		entry := s.newEntry(
			it, ledger.OpReturn, total, it.CostPrice,
			req.ActorID, "", note, nil, req.BatchID, req.BatchLine,
		)

		return &mutation{
			next:          next,
			recordedTotal: it.RecordedTotal,
			entries:       []*ledger.Entry{entry},
		}, nil
	})
}

// ConsumeSale sells units to a guest, optionally mirroring the charge
// onto an external folio. Sold units leave the house for good, so
// lifecycle categories shed recorded total with them, same as Liquidate;
// book variance only ever reflects unexplained movement.
func (s *service) ConsumeSale(ctx context.Context, req *ConsumeSaleRequest) (*TransitionResult, error) {
	if req.Qty <= 0 || req.UnitPrice.IsNegative() {
		return nil, servererrors.ErrInvalidQuantity
	}

	var soldItem *item.Item

	result, err := s.apply(ctx, req.ItemID, req.BatchID, req.BatchLine, ledger.OpSale, func(it *item.Item) (*mutation, error) {
		next := it.Counters
		if next.Available < req.Qty {
			return nil, servererrors.ErrInsufficientStock
		}
		next.Available -= req.Qty

		recordedTotal := it.RecordedTotal - req.Qty
		if !it.Category.Lifecycle() {
			recordedTotal = next.Available
		}

		note := ""
		if req.FolioRef != "" {
			note = fmt.Sprintf("folio=%s", req.FolioRef)
		}

		entry := s.newEntry(
			it, ledger.OpSale, -req.Qty, req.UnitPrice,
			req.ActorID, "", note, nil, req.BatchID, req.BatchLine,
		)

		soldItem = it

		return &mutation{
			next:          next,
			recordedTotal: recordedTotal,
			entries:       []*ledger.Entry{entry},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Replayed && req.FolioRef != "" {
		s.publishEvent(&event.Event{
			Name: event.FolioLinePostedEventName,
			Payload: &event.FolioLinePostedEvent{
				FolioRef:  req.FolioRef,
				ItemID:    req.ItemID,
				ItemName:  soldItem.Name,
				Quantity:  req.Qty,
				UnitPrice: req.UnitPrice,
				Total:     req.UnitPrice.Mul(decimal.NewFromInt(int64(req.Qty))),
			},
		})
	}

	return result, nil
}

// Liquidate removes units from service entirely (disposal, donation,
// conversion to rags). Lifecycle categories shed recorded total with it.
func (s *service) Liquidate(ctx context.Context, req *LiquidateRequest) (*TransitionResult, error) {
	if req.Qty <= 0 {
		return nil, servererrors.ErrInvalidQuantity
	}

	return s.apply(ctx, req.ItemID, req.BatchID, req.BatchLine, ledger.OpOut, func(it *item.Item) (*mutation, error) {
		next := it.Counters
		if next.Available < req.Qty {
			return nil, servererrors.ErrInsufficientStock
		}
		next.Available -= req.Qty

		recordedTotal := it.RecordedTotal - req.Qty
		if !it.Category.Lifecycle() {
			recordedTotal = next.Available
		}

		entry := s.newEntry(
			it, ledger.OpOut, -req.Qty, it.CostPrice,
			req.ActorID, "", req.Reason, nil, req.BatchID, req.BatchLine,
		)

		return &mutation{
			next:          next,
			recordedTotal: recordedTotal,
			entries:       []*ledger.Entry{entry},
		}, nil
	})
}

// DamageWriteOff removes damaged units found outside the laundry flow.
func (s *service) DamageWriteOff(ctx context.Context, req *DamageWriteOffRequest) (*TransitionResult, error) {
	if req.Qty <= 0 {
		return nil, servererrors.ErrInvalidQuantity
	}

	fromField := req.FromField
	if fromField == "" {
		fromField = item.FieldDirtyAtHotel
	}
	if !fromField.Valid() {
		return nil, servererrors.ErrValidationFailed
	}

	return s.apply(ctx, req.ItemID, req.BatchID, req.BatchLine, ledger.OpDamageWriteOff, func(it *item.Item) (*mutation, error) {
		next := it.Counters
		current := next.Get(fromField)
		if current < req.Qty {
			return nil, servererrors.ErrInsufficientStock
		}
		next = next.Set(fromField, current-req.Qty)

		recordedTotal := it.RecordedTotal - req.Qty
		if !it.Category.Lifecycle() {
			recordedTotal = next.Available
		}

		note := fmt.Sprintf("from=%s; %s", fromField, req.Reason)
		entry := s.newEntry(
			it, ledger.OpDamageWriteOff, -req.Qty, it.CostPrice,
			req.ActorID, "", note, nil, req.BatchID, req.BatchLine,
		)

		return &mutation{
			next:          next,
			recordedTotal: recordedTotal,
			entries:       []*ledger.Entry{entry},
		}, nil
	})
}

// ManualCorrection sets a single counter to an exact value. Administrative
// only; the ledger entry records the before and after values.
func (s *service) ManualCorrection(ctx context.Context, req *ManualCorrectionRequest) (*TransitionResult, error) {
	if !req.Field.Valid() {
		return nil, servererrors.ErrValidationFailed
	}
	if req.NewValue < 0 {
		return nil, servererrors.ErrInvalidQuantity
	}

	return s.apply(ctx, req.ItemID, req.BatchID, req.BatchLine, ledger.OpAdjust, func(it *item.Item) (*mutation, error) {
		before := it.Counters.Get(req.Field)
		next := it.Counters.Set(req.Field, req.NewValue)

		recordedTotal := it.RecordedTotal
		if !it.Category.Lifecycle() && req.Field == item.FieldAvailable {
			recordedTotal = req.NewValue
		}

		note := fmt.Sprintf(
			"correction %s: %d -> %d; %s",
			req.Field, before, req.NewValue, req.Reason,
		)
		entry := s.newEntry(
			it, ledger.OpAdjust, req.NewValue-before, it.CostPrice,
			req.ActorID, "", note, nil, req.BatchID, req.BatchLine,
		)

		return &mutation{
			next:          next,
			recordedTotal: recordedTotal,
			entries:       []*ledger.Entry{entry},
		}, nil
	})
}

// SetRecordedTotal is the audit correction: always permitted, always
// ledgered.
func (s *service) SetRecordedTotal(ctx context.Context, req *SetRecordedTotalRequest) (*TransitionResult, error) {
	if req.NewValue < 0 {
		return nil, servererrors.ErrInvalidQuantity
	}

	return s.apply(ctx, req.ItemID, req.BatchID, req.BatchLine, ledger.OpAdjust, func(it *item.Item) (*mutation, error) {
		note := fmt.Sprintf(
			"recordedTotal: %d -> %d; %s",
			it.RecordedTotal, req.NewValue, req.Reason,
		)
		entry := s.newEntry(
			it, ledger.OpAdjust, req.NewValue-it.RecordedTotal, it.CostPrice,
			req.ActorID, "", note, nil, req.BatchID, req.BatchLine,
		)

		return &mutation{
			next:          it.Counters,
			recordedTotal: req.NewValue,
			entries:       []*ledger.Entry{entry},
		}, nil
	})
}

func requireLifecycle(it *item.Item) error {
	if !it.Category.Lifecycle() {
		return fmt.Errorf(
			"%w: %s is not a lifecycle category",
			servererrors.ErrValidationFailed, it.Category,
		)
	}
	return nil
}

func (s *service) publishLowStockAlert(it *item.Item) {
	if it.Available > it.MinThreshold {
		return
	}

	s.publishEvent(&event.Event{
		Name: event.StockAlertEventName,
		Payload: &event.StockAlertEvent{
			ItemID:       it.ItemID,
			ItemName:     it.Name,
			Kind:         event.AlertLowStock,
			Available:    it.Available,
			MinThreshold: it.MinThreshold,
			Detail:       "available at or below minimum threshold",
		},
	})
}

func (s *service) publishExpense(facility string, amount decimal.Decimal, note string, batchID *uuid.UUID) {
	s.publishEvent(&event.Event{
		Name: event.ExpenseIncurredEventName,
		Payload: &event.ExpenseIncurredEvent{
			Date:     time.Now().UTC(),
			Facility: facility,
			Category: "stock-purchase",
			Amount:   amount,
			Note:     note,
			BatchID:  batchID,
		},
	})
}

// publishEvent is fire and forget: a failed publish is logged, never
// propagated, and can never roll back a committed counter mutation.
func (s *service) publishEvent(newEvent *event.Event) {
	if err := s.EventEngine.Publish(newEvent); err != nil {
		s.Logger.Warn("failed to publish event",
			zap.String("event", string(newEvent.Name)),
			zap.Error(err),
		)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
