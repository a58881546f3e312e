package transition

import (
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/features/item"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/features/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LaundryStage selects which leg of the laundry round trip a send covers.
type LaundryStage string

const (
	// StageInternal moves units from the clean store to the on-site dirty
	// store (clean -> dirty).
	StageInternal LaundryStage = "internal"
	// StageVendor hands units in the dirty store over to the external
	// laundry vendor (dirty -> vendor).
	StageVendor LaundryStage = "vendor"
)

// Requests. ActorID and the batch stamps are filled server side, never
// by clients.

type PurchaseRequest struct {
	ItemID      uuid.UUID       `json:"itemID" validate:"required"`
	Qty         int             `json:"qty" validate:"required,gt=0"`
	UnitCost    decimal.Decimal `json:"unitCost"`
	Facility    string          `json:"facility" validate:"max=80"`
	Note        string          `json:"note" validate:"max=255"`
	EvidenceRef *string         `json:"evidenceRef"`

	ActorID   string     `json:"-"`
	BatchID   *uuid.UUID `json:"-"`
	BatchLine *int       `json:"-"`
}

type SendToLaundryRequest struct {
	ItemID uuid.UUID    `json:"itemID" validate:"required"`
	Qty    int          `json:"qty" validate:"required,gt=0"`
	Stage  LaundryStage `json:"stage" validate:"required,oneof=internal vendor"`
	Note   string       `json:"note" validate:"max=255"`

	ActorID   string     `json:"-"`
	BatchID   *uuid.UUID `json:"-"`
	BatchLine *int       `json:"-"`
}

type ReceiveFromLaundryRequest struct {
	ItemID      uuid.UUID `json:"itemID" validate:"required"`
	QtyReceived int       `json:"qtyReceived" validate:"required,gt=0"`
	DamageQty   int       `json:"damageQty" validate:"min=0"`
	Note        string    `json:"note" validate:"max=255"`
	EvidenceRef *string   `json:"evidenceRef"`

	ActorID   string     `json:"-"`
	BatchID   *uuid.UUID `json:"-"`
	BatchLine *int       `json:"-"`
}

type LendRequest struct {
	ItemID  uuid.UUID `json:"itemID" validate:"required"`
	Qty     int       `json:"qty" validate:"required,gt=0"`
	RoomRef string    `json:"roomRef" validate:"required,max=40"`

	ActorID   string     `json:"-"`
	BatchID   *uuid.UUID `json:"-"`
	BatchLine *int       `json:"-"`
}

type ReturnRequest struct {
	ItemID   uuid.UUID `json:"itemID" validate:"required"`
	DirtyQty int       `json:"dirtyQty" validate:"min=0"`
	CleanQty int       `json:"cleanQty" validate:"min=0"`
	RoomRef  string    `json:"roomRef" validate:"required,max=40"`

	ActorID   string     `json:"-"`
	BatchID   *uuid.UUID `json:"-"`
	BatchLine *int       `json:"-"`
}

type ConsumeSaleRequest struct {
	ItemID    uuid.UUID       `json:"itemID" validate:"required"`
	Qty       int             `json:"qty" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	FolioRef  string          `json:"folioRef" validate:"max=80"`

	ActorID   string     `json:"-"`
	BatchID   *uuid.UUID `json:"-"`
	BatchLine *int       `json:"-"`
}

type LiquidateRequest struct {
	ItemID uuid.UUID `json:"itemID" validate:"required"`
	Qty    int       `json:"qty" validate:"required,gt=0"`
	Reason string    `json:"reason" validate:"required,max=255"`

	ActorID   string     `json:"-"`
	BatchID   *uuid.UUID `json:"-"`
	BatchLine *int       `json:"-"`
}

type DamageWriteOffRequest struct {
	ItemID uuid.UUID `json:"itemID" validate:"required"`
	Qty    int       `json:"qty" validate:"required,gt=0"`
	// FromField names the counter the damaged units leave; defaults to
	// the dirty store, where damage is usually discovered.
	FromField item.CounterField `json:"fromField" validate:"omitempty,oneof=available dirtyAtHotel atVendor inUse"`
	Reason    string            `json:"reason" validate:"required,max=255"`

	ActorID   string     `json:"-"`
	BatchID   *uuid.UUID `json:"-"`
	BatchLine *int       `json:"-"`
}

type ManualCorrectionRequest struct {
	ItemID   uuid.UUID         `json:"itemID" validate:"required"`
	Field    item.CounterField `json:"field" validate:"required,oneof=available dirtyAtHotel atVendor inUse"`
	NewValue int               `json:"newValue" validate:"min=0"`
	Reason   string            `json:"reason" validate:"required,max=255"`

	ActorID   string     `json:"-"`
	BatchID   *uuid.UUID `json:"-"`
	BatchLine *int       `json:"-"`
}

type SetRecordedTotalRequest struct {
	ItemID   uuid.UUID `json:"itemID" validate:"required"`
	NewValue int       `json:"newValue" validate:"min=0"`
	Reason   string    `json:"reason" validate:"required,max=255"`

	ActorID   string     `json:"-"`
	BatchID   *uuid.UUID `json:"-"`
	BatchLine *int       `json:"-"`
}

// Responses

type TransitionResult struct {
	Item    *item.ItemDTO   `json:"item"`
	Entries []*ledger.Entry `json:"entries"`
	// Replayed is true when an idempotency key matched and the original
	// entry was returned without touching any counter.
	Replayed bool `json:"replayed,omitempty"`
}
