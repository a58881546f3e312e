package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OperationType string

const (
	OpIn             OperationType = "IN"
	OpOut            OperationType = "OUT"
	OpLaundrySend    OperationType = "LAUNDRY_SEND"
	OpLaundryReceive OperationType = "LAUNDRY_RECEIVE"
	OpLend           OperationType = "LEND"
	OpReturn         OperationType = "RETURN"
	OpSale           OperationType = "SALE"
	OpAdjust         OperationType = "ADJUST"
	OpDamageWriteOff OperationType = "DAMAGE_WRITEOFF"
)

func (op OperationType) Valid() bool {
	switch op {
	case OpIn, OpOut, OpLaundrySend, OpLaundryReceive, OpLend, OpReturn,
		OpSale, OpAdjust, OpDamageWriteOff:
		return true
	}
	return false
}

// Entry is one immutable row of the audit history. Entries are never
// updated or deleted; corrections append new ADJUST entries instead.
type Entry struct {
	EntryID     uuid.UUID       `json:"entryID"`
	ItemID      uuid.UUID       `json:"itemID"`
	Timestamp   time.Time       `json:"timestamp"`
	ActorID     string          `json:"actorID"`
	Operation   OperationType   `json:"operation"`
	Quantity    int             `json:"quantity"` // signed: inflows positive, outflows negative
	UnitCost    decimal.Decimal `json:"unitCost"`
	TotalValue  decimal.Decimal `json:"totalValue"`
	Facility    string          `json:"facility"`
	Note        string          `json:"note"`
	EvidenceRef *string         `json:"evidenceRef,omitempty"`
	BatchID     *uuid.UUID      `json:"batchID,omitempty"`
	// BatchLine is the entry's line index within its batch. Together with
	// BatchID and Operation it forms the idempotency key, so a batch may
	// carry several lines touching the same item and operation.
	BatchLine *int `json:"batchLine,omitempty"`
}
