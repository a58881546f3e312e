package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Expense is one posting accepted from the inventory core. Creation is
// fire and forget from the caller's point of view: a lost posting is
// logged there, never surfaced.
type Expense struct {
	ExpenseID uuid.UUID       `json:"expenseID"`
	Date      time.Time       `json:"date"`
	Facility  string          `json:"facility"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note"`
	BatchID   *uuid.UUID      `json:"batchID,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
