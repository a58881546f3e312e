package item

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Requests

type CreateItemRequest struct {
	Name         string          `json:"name" validate:"required,min=2,max=120"`
	Category     Category        `json:"category" validate:"required,oneof=CONSUMABLE LINEN ASSET SERVICE"`
	Unit         string          `json:"unit" validate:"required,max=30"`
	CostPrice    decimal.Decimal `json:"costPrice"`
	SalePrice    decimal.Decimal `json:"salePrice"`
	MinThreshold int             `json:"minThreshold" validate:"min=0"`
	Payload      Payload         `json:"payload"`

	// OpeningQty seeds available and recorded totals at onboarding.
	OpeningQty int `json:"openingQty" validate:"min=0"`
}

type UpdateItemRequest struct {
	ItemID       uuid.UUID        `json:"-"`
	Name         *string          `json:"name" validate:"omitempty,min=2,max=120"`
	Unit         *string          `json:"unit" validate:"omitempty,max=30"`
	CostPrice    *decimal.Decimal `json:"costPrice"`
	SalePrice    *decimal.Decimal `json:"salePrice"`
	MinThreshold *int             `json:"minThreshold" validate:"omitempty,min=0"`
	Payload      *Payload         `json:"payload"`
}

type FilterOpts struct {
	Category     Category `json:"category" validate:"omitempty,oneof=CONSUMABLE LINEN ASSET SERVICE"`
	Search       string   `json:"search"`
	ActiveOnly   bool     `json:"activeOnly"`
	LowStockOnly bool     `json:"lowStockOnly"`
}

type PageOpts struct {
	Page  uint64 `json:"page" validate:"min=1"`
	Limit uint64 `json:"limit" validate:"min=1,max=200"`
}

type ListItemsQuery struct {
	FilterOpts FilterOpts `json:"filterOpts"`
	PageOpts   PageOpts   `json:"pageOpts"`
}

// Responses

type ItemDTO struct {
	Item
	ConceptualTotal int `json:"conceptualTotal"`
	BookVariance    int `json:"bookVariance"`
}

func NewItemDTO(it *Item) *ItemDTO {
	return &ItemDTO{
		Item:            *it,
		ConceptualTotal: it.ConceptualTotal(),
		BookVariance:    it.BookVariance(),
	}
}

type ListItemsResponse struct {
	AllItemsCount int        `json:"allItemsCount"`
	ReturnedCount int        `json:"returnedCount"`
	TotalPages    int        `json:"totalPages"`
	Items         []*ItemDTO `json:"items"`
}
