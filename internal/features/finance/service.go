package finance

import (
	"context"

	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/eventengine/event"
	"github.com/google/uuid"
)

type storer interface {
	createOne(ctx context.Context, expense *Expense) error
	findAll(ctx context.Context, limit, offset uint64) ([]*Expense, error)
}

type service struct {
	store storer
}

func NewService(financeStore storer) *service {
	return &service{
		store: financeStore,
	}
}

func (s *service) recordExpense(ctx context.Context, incurred *event.ExpenseIncurredEvent) error {
	return s.store.createOne(ctx, &Expense{
		ExpenseID: uuid.New(),
		Date:      incurred.Date,
		Facility:  incurred.Facility,
		Category:  incurred.Category,
		Amount:    incurred.Amount,
		Note:      incurred.Note,
		BatchID:   incurred.BatchID,
	})
}

func (s *service) ListExpenses(ctx context.Context, limit, offset uint64) ([]*Expense, error) {
	return s.store.findAll(ctx, limit, offset)
}
