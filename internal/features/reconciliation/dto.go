package reconciliation

import (
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/eventengine/event"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/features/item"
	"github.com/google/uuid"
)

// RecipeLine is one row of a room type's standard outfit.
type RecipeLine struct {
	ItemID     uuid.UUID `json:"itemID"`
	QtyPerRoom int       `json:"qtyPerRoom"`
}

type Alert struct {
	Kind   event.AlertKind `json:"kind"`
	Detail string          `json:"detail"`
}

// VarianceReport explains an item's position against both its book value
// and its theoretical requirement.
type VarianceReport struct {
	ItemID   uuid.UUID     `json:"itemID"`
	ItemName string        `json:"itemName"`
	Category item.Category `json:"category"`

	Counters        item.Counters `json:"counters"`
	ConceptualTotal int           `json:"conceptualTotal"`
	RecordedTotal   int           `json:"recordedTotal"`
	// BookVariance = conceptualTotal - recordedTotal; negative is shrinkage.
	BookVariance int `json:"bookVariance"`

	StandardDemand         int `json:"standardDemand"`
	ActiveLending          int `json:"activeLending"`
	TheoreticalRequirement int `json:"theoreticalRequirement"`
	// DemandVariance = recordedTotal - theoreticalRequirement; negative
	// means the house owns less than its rooms currently need.
	DemandVariance int `json:"demandVariance"`

	Alerts []Alert `json:"alerts"`
}

type AlertsResponse struct {
	ItemsChecked int               `json:"itemsChecked"`
	Reports      []*VarianceReport `json:"reports"`
}
