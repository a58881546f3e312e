package item

import (
	"context"
	"strings"
	"testing"

	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/servererrors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeItemStore struct {
	byID   map[uuid.UUID]*Item
	byName map[string]*Item
}

func newFakeItemStore() *fakeItemStore {
	return &fakeItemStore{
		byID:   make(map[uuid.UUID]*Item),
		byName: make(map[string]*Item),
	}
}

func (f *fakeItemStore) createOne(_ context.Context, it *Item) error {
	if _, exists := f.byName[it.Name]; exists {
		return servererrors.ErrItemAlreadyExists
	}
	f.byID[it.ItemID] = it
	f.byName[it.Name] = it
	return nil
}

func (f *fakeItemStore) findByID(_ context.Context, itemID uuid.UUID) (*Item, error) {
	it, ok := f.byID[itemID]
	if !ok {
		return nil, servererrors.ErrItemNotFound
	}
	return it, nil
}

func (f *fakeItemStore) findByName(_ context.Context, name string) (*Item, error) {
	it, ok := f.byName[name]
	if !ok {
		return nil, servererrors.ErrItemNotFound
	}
	return it, nil
}

func (f *fakeItemStore) findAll(_ context.Context, _ *ListItemsQuery) ([]*Item, int, error) {
	var items []*Item
	for _, it := range f.byID {
		items = append(items, it)
	}
	return items, len(items), nil
}

func (f *fakeItemStore) updateOne(_ context.Context, req *UpdateItemRequest) error {
	it, ok := f.byID[req.ItemID]
	if !ok {
		return servererrors.ErrItemNotFound
	}
	if req.Name != nil {
		it.Name = *req.Name
	}
	if req.MinThreshold != nil {
		it.MinThreshold = *req.MinThreshold
	}
	if req.Payload != nil {
		it.Payload = *req.Payload
	}
	return nil
}

func (f *fakeItemStore) retireOne(_ context.Context, itemID uuid.UUID) error {
	it, ok := f.byID[itemID]
	if !ok {
		return servererrors.ErrItemNotFound
	}
	it.IsActive = false
	return nil
}

func Test_service_createItemSeedsOpeningQuantity(t *testing.T) {
	store := newFakeItemStore()
	svc := NewService(store)

	created, err := svc.CreateItem(context.Background(), &CreateItemRequest{
		Name:         "  bath towel ",
		Category:     CategoryLinen,
		Unit:         "piece",
		CostPrice:    decimal.NewFromInt(1200),
		MinThreshold: 2,
		OpeningQty:   30,
		Payload: Payload{
			Linen: &LinenPayload{ParPerRoom: 2, VendorTurnaroundDays: 3},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "bath towel", created.Name, "name is trimmed")
	assert.Equal(t, 30, created.Available)
	assert.Equal(t, 30, created.RecordedTotal)
	assert.Equal(t, 1, created.Version)
	assert.True(t, created.IsActive)
	assert.Zero(t, created.BookVariance())
}

func Test_service_createItemRejectsDuplicateName(t *testing.T) {
	store := newFakeItemStore()
	svc := NewService(store)
	ctx := context.Background()

	req := &CreateItemRequest{
		Name:     "bath towel",
		Category: CategoryLinen,
		Unit:     "piece",
	}

	_, err := svc.CreateItem(ctx, req)
	require.NoError(t, err)

	_, err = svc.CreateItem(ctx, req)
	require.ErrorIs(t, err, servererrors.ErrItemAlreadyExists)
}

func Test_service_createItemRejectsMismatchedPayload(t *testing.T) {
	svc := NewService(newFakeItemStore())

	_, err := svc.CreateItem(context.Background(), &CreateItemRequest{
		Name:     "bottled water",
		Category: CategoryConsumable,
		Unit:     "bottle",
		Payload: Payload{
			Linen: &LinenPayload{ParPerRoom: 2},
		},
	})
	require.ErrorIs(t, err, servererrors.ErrValidationFailed)
	assert.True(t, strings.Contains(err.Error(), "non-consumable"))
}

func Test_service_createItemRejectsPayloadOnServiceCategory(t *testing.T) {
	svc := NewService(newFakeItemStore())

	_, err := svc.CreateItem(context.Background(), &CreateItemRequest{
		Name:     "late checkout",
		Category: CategoryService,
		Unit:     "booking",
		Payload: Payload{
			Consumable: &ConsumablePayload{ReorderQty: 1},
		},
	})
	require.ErrorIs(t, err, servererrors.ErrValidationFailed)
}

func Test_service_updateItemValidatesPayloadAgainstCurrentCategory(t *testing.T) {
	store := newFakeItemStore()
	svc := NewService(store)
	ctx := context.Background()

	created, err := svc.CreateItem(ctx, &CreateItemRequest{
		Name:     "bath towel",
		Category: CategoryLinen,
		Unit:     "piece",
	})
	require.NoError(t, err)

	_, err = svc.UpdateItem(ctx, &UpdateItemRequest{
		ItemID: created.ItemID,
		Payload: &Payload{
			Asset: &AssetPayload{DepreciationMonths: 24},
		},
	})
	require.ErrorIs(t, err, servererrors.ErrValidationFailed)

	updated, err := svc.UpdateItem(ctx, &UpdateItemRequest{
		ItemID: created.ItemID,
		Payload: &Payload{
			Linen: &LinenPayload{ParPerRoom: 3},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Payload.Linen)
	assert.Equal(t, 3, updated.Payload.Linen.ParPerRoom)
}

func Test_service_retireItemIsSoft(t *testing.T) {
	store := newFakeItemStore()
	svc := NewService(store)
	ctx := context.Background()

	created, err := svc.CreateItem(ctx, &CreateItemRequest{
		Name:     "bath towel",
		Category: CategoryLinen,
		Unit:     "piece",
	})
	require.NoError(t, err)

	require.NoError(t, svc.RetireItem(ctx, created.ItemID))

	retired, err := svc.GetItem(ctx, created.ItemID)
	require.NoError(t, err)
	assert.False(t, retired.IsActive, "retire flags, never deletes")

	require.ErrorIs(t, svc.RetireItem(ctx, uuid.New()), servererrors.ErrItemNotFound)
}

func Test_payload_validateForExhaustsCategories(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		payload  Payload
		wantErr  bool
	}{
		{"empty payload on linen", CategoryLinen, Payload{}, false},
		{"linen arm on linen", CategoryLinen, Payload{Linen: &LinenPayload{}}, false},
		{"asset arm on linen", CategoryLinen, Payload{Asset: &AssetPayload{}}, true},
		{"two arms set", CategoryConsumable, Payload{
			Consumable: &ConsumablePayload{}, Linen: &LinenPayload{},
		}, true},
		{"any arm on service", CategoryService, Payload{Asset: &AssetPayload{}}, true},
		{"unknown category", Category("FOOD"), Payload{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.ValidateFor(tt.category)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
