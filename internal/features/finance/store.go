package finance

import (
	"context"
	"database/sql"
	"fmt"
)

type store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *store {
	return &store{
		db: db,
	}
}

func (s *store) createOne(ctx context.Context, expense *Expense) error {
	query := `INSERT INTO expenses(expense_id, date, facility, category, amount, note, batch_id)
		VALUES($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(
		ctx,
		query,
		expense.ExpenseID,
		expense.Date,
		expense.Facility,
		expense.Category,
		expense.Amount,
		expense.Note,
		expense.BatchID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense in finance store: %w", err)
	}

	return nil
}

func (s *store) findAll(ctx context.Context, limit, offset uint64) ([]*Expense, error) {
	query := `SELECT expense_id, date, facility, category, amount, note, batch_id, created_at
		FROM expenses ORDER BY date DESC LIMIT $1 OFFSET $2`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses from finance store: %w", err)
	}
	defer rows.Close()

	var expenses []*Expense
	for rows.Next() {
		var expense Expense
		err := rows.Scan(
			&expense.ExpenseID,
			&expense.Date,
			&expense.Facility,
			&expense.Category,
			&expense.Amount,
			&expense.Note,
			&expense.BatchID,
			&expense.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense in finance store: %w", err)
		}
		expenses = append(expenses, &expense)
	}

	return expenses, rows.Err()
}
