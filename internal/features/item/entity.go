package item

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryConsumable Category = "CONSUMABLE"
	CategoryLinen      Category = "LINEN"
	CategoryAsset      Category = "ASSET"
	CategoryService    Category = "SERVICE"
)

// Lifecycle reports whether physical units of this category circulate
// between the clean store, dirty store, vendor and guest rooms. Only
// lifecycle categories keep an independent recorded total; for the rest
// the recorded total mirrors the available counter.
func (c Category) Lifecycle() bool {
	return c == CategoryLinen || c == CategoryAsset
}

func (c Category) Valid() bool {
	switch c {
	case CategoryConsumable, CategoryLinen, CategoryAsset, CategoryService:
		return true
	}
	return false
}

// Counters are the four per-location quantities of a lifecycle item.
// Every one of them is >= 0 at all times; the transition engine rejects
// any operation that would break that.
type Counters struct {
	Available    int `json:"available"`
	DirtyAtHotel int `json:"dirtyAtHotel"`
	AtVendor     int `json:"atVendor"`
	InUse        int `json:"inUse"`
}

// ConceptualTotal is the sum of the observed per-location counters,
// compared against the recorded total to detect shrinkage or surplus.
func (c Counters) ConceptualTotal() int {
	return c.Available + c.DirtyAtHotel + c.AtVendor + c.InUse
}

func (c Counters) AnyNegative() bool {
	return c.Available < 0 || c.DirtyAtHotel < 0 || c.AtVendor < 0 || c.InUse < 0
}

// CounterField names one counter for manual corrections.
type CounterField string

const (
	FieldAvailable    CounterField = "available"
	FieldDirtyAtHotel CounterField = "dirtyAtHotel"
	FieldAtVendor     CounterField = "atVendor"
	FieldInUse        CounterField = "inUse"
)

func (f CounterField) Valid() bool {
	switch f {
	case FieldAvailable, FieldDirtyAtHotel, FieldAtVendor, FieldInUse:
		return true
	}
	return false
}

// Get returns the named counter's current value.
func (c Counters) Get(field CounterField) int {
	switch field {
	case FieldAvailable:
		return c.Available
	case FieldDirtyAtHotel:
		return c.DirtyAtHotel
	case FieldAtVendor:
		return c.AtVendor
	case FieldInUse:
		return c.InUse
	}
	return 0
}

// Set returns a copy with the named counter replaced.
func (c Counters) Set(field CounterField, value int) Counters {
	switch field {
	case FieldAvailable:
		c.Available = value
	case FieldDirtyAtHotel:
		c.DirtyAtHotel = value
	case FieldAtVendor:
		c.AtVendor = value
	case FieldInUse:
		c.InUse = value
	}
	return c
}

type Item struct {
	ItemID       uuid.UUID       `json:"itemID"`
	Name         string          `json:"name"`
	Category     Category        `json:"category"`
	Unit         string          `json:"unit"`
	CostPrice    decimal.Decimal `json:"costPrice"`
	SalePrice    decimal.Decimal `json:"salePrice"`
	MinThreshold int             `json:"minThreshold"`

	Counters

	// RecordedTotal is the book-value ownership count, the audit ground
	// truth. Mutated only through transition engine operations.
	RecordedTotal int `json:"recordedTotal"`

	Payload Payload `json:"payload"`

	// Version backs the optimistic compare-and-swap on the counter set.
	Version int `json:"-"`

	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}

// BookVariance is conceptualTotal - recordedTotal: positive means more
// units observed than the books own, negative means shrinkage.
func (i *Item) BookVariance() int {
	return i.ConceptualTotal() - i.RecordedTotal
}
