package ledger

import (
	"time"

	"github.com/google/uuid"
)

type FilterOpts struct {
	ItemID   *uuid.UUID `json:"itemID"`
	BatchID  *uuid.UUID `json:"batchID"`
	Facility string     `json:"facility"`
	From     *time.Time `json:"from"`
	To       *time.Time `json:"to"`
}

type PageOpts struct {
	Page  uint64 `json:"page" validate:"min=1"`
	Limit uint64 `json:"limit" validate:"min=1,max=500"`
}

type QueryEntriesRequest struct {
	FilterOpts FilterOpts `json:"filterOpts"`
	PageOpts   PageOpts   `json:"pageOpts"`
}

type QueryEntriesResponse struct {
	AllEntriesCount int      `json:"allEntriesCount"`
	ReturnedCount   int      `json:"returnedCount"`
	Entries         []*Entry `json:"entries"`
}
