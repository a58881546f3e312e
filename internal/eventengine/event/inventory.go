package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ExpenseIncurredEventName EventName = "inventory.expense.incurred"
	StockAlertEventName      EventName = "inventory.stock.alert"
	FolioLinePostedEventName EventName = "inventory.folio.line.posted"
)

// ExpenseIncurredEvent asks the finance collaborator to record money spent
// on stock. Delivery is best effort; a lost expense never rolls back the
// counter mutation that produced it.
type ExpenseIncurredEvent struct {
	Date     time.Time
	Facility string
	Category string
	Amount   decimal.Decimal
	Note     string
	BatchID  *uuid.UUID
}

func (e *ExpenseIncurredEvent) GetEventName() EventName {
	return ExpenseIncurredEventName
}

type AlertKind string

const (
	AlertLowStock      AlertKind = "LOW_STOCK"
	AlertVendorBacklog AlertKind = "VENDOR_BACKLOG"
	AlertShortage      AlertKind = "SHORTAGE"
)

type StockAlertEvent struct {
	ItemID       uuid.UUID
	ItemName     string
	Kind         AlertKind
	Available    int
	MinThreshold int
	Detail       string
}

func (e *StockAlertEvent) GetEventName() EventName {
	return StockAlertEventName
}

// FolioLinePostedEvent mirrors a point-of-sale consumption onto a guest
// folio held by an external system.
type FolioLinePostedEvent struct {
	FolioRef  string
	ItemID    uuid.UUID
	ItemName  string
	Quantity  int
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

func (e *FolioLinePostedEvent) GetEventName() EventName {
	return FolioLinePostedEventName
}
