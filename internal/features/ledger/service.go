package ledger

import "context"

type Storer interface {
	findAll(ctx context.Context, queryItems *QueryEntriesRequest) ([]*Entry, int, error)
}

type service struct {
	store Storer
}

func NewService(store Storer) *service {
	return &service{
		store: store,
	}
}

func (s *service) QueryEntries(ctx context.Context, queryItems *QueryEntriesRequest) ([]*Entry, int, error) {
	return s.store.findAll(ctx, queryItems)
}
