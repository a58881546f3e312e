package item

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/servererrors"
	"github.com/google/uuid"
)

type Storer interface {
	createOne(ctx context.Context, it *Item) error
	findByID(ctx context.Context, itemID uuid.UUID) (*Item, error)
	findByName(ctx context.Context, name string) (*Item, error)
	findAll(ctx context.Context, queryItems *ListItemsQuery) ([]*Item, int, error)
	updateOne(ctx context.Context, req *UpdateItemRequest) error
	retireOne(ctx context.Context, itemID uuid.UUID) error
}

type service struct {
	store Storer
}

func NewService(store Storer) *service {
	return &service{
		store: store,
	}
}

func (s *service) CreateItem(ctx context.Context, req *CreateItemRequest) (*Item, error) {
	req.Name = strings.TrimSpace(req.Name)

	if err := req.Payload.ValidateFor(req.Category); err != nil {
		return nil, fmt.Errorf("%w: %s", servererrors.ErrValidationFailed, err)
	}

	existing, err := s.store.findByName(ctx, req.Name)
	if err != nil && !errors.Is(err, servererrors.ErrItemNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, servererrors.ErrItemAlreadyExists
	}

	it := &Item{
		ItemID:       uuid.New(),
		Name:         req.Name,
		Category:     req.Category,
		Unit:         req.Unit,
		CostPrice:    req.CostPrice,
		SalePrice:    req.SalePrice,
		MinThreshold: req.MinThreshold,
		Counters: Counters{
			Available: req.OpeningQty,
		},
		RecordedTotal: req.OpeningQty,
		Payload:       req.Payload,
		Version:       1,
		IsActive:      true,
	}

	if err := s.store.createOne(ctx, it); err != nil {
		return nil, err
	}

	return it, nil
}

func (s *service) GetItem(ctx context.Context, itemID uuid.UUID) (*Item, error) {
	return s.store.findByID(ctx, itemID)
}

func (s *service) ListItems(ctx context.Context, queryItems *ListItemsQuery) ([]*Item, int, error) {
	return s.store.findAll(ctx, queryItems)
}

func (s *service) UpdateItem(ctx context.Context, req *UpdateItemRequest) (*Item, error) {
	current, err := s.store.findByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}

	if req.Payload != nil {
		if err := req.Payload.ValidateFor(current.Category); err != nil {
			return nil, fmt.Errorf("%w: %s", servererrors.ErrValidationFailed, err)
		}
	}

	if err := s.store.updateOne(ctx, req); err != nil {
		return nil, err
	}

	return s.store.findByID(ctx, req.ItemID)
}

func (s *service) RetireItem(ctx context.Context, itemID uuid.UUID) error {
	if _, err := s.store.findByID(ctx, itemID); err != nil {
		return err
	}

	return s.store.retireOne(ctx, itemID)
}
