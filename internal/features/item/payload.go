package item

import "fmt"

// Payload is the category-specific tagged variant: exactly the arm
// matching the item's category may be set, Service items carry none.
// This replaces a loose bag of optional numeric fields that would be
// meaningless for most categories.
type Payload struct {
	Consumable *ConsumablePayload `json:"consumable,omitempty"`
	Linen      *LinenPayload      `json:"linen,omitempty"`
	Asset      *AssetPayload      `json:"asset,omitempty"`
}

type ConsumablePayload struct {
	// ReorderQty is the suggested purchase quantity when stock falls to
	// the minimum threshold.
	ReorderQty int `json:"reorderQty" validate:"min=0"`
}

type LinenPayload struct {
	// ParPerRoom is the house standard count kept per occupied room, used
	// when seeding room-type recipes.
	ParPerRoom int `json:"parPerRoom" validate:"min=0"`
	// VendorTurnaroundDays is the expected laundry round trip.
	VendorTurnaroundDays int `json:"vendorTurnaroundDays" validate:"min=0"`
}

type AssetPayload struct {
	// DepreciationMonths drives the book write-down schedule kept by the
	// finance collaborator.
	DepreciationMonths int `json:"depreciationMonths" validate:"min=0"`
}

// ValidateFor checks the variant against the category exhaustively.
func (p Payload) ValidateFor(category Category) error {
	armsSet := 0
	if p.Consumable != nil {
		armsSet++
	}
	if p.Linen != nil {
		armsSet++
	}
	if p.Asset != nil {
		armsSet++
	}

	if armsSet > 1 {
		return fmt.Errorf("payload must set at most one category arm, got %d", armsSet)
	}

	switch category {
	case CategoryConsumable:
		if armsSet == 1 && p.Consumable == nil {
			return fmt.Errorf("consumable item carries a non-consumable payload")
		}
	case CategoryLinen:
		if armsSet == 1 && p.Linen == nil {
			return fmt.Errorf("linen item carries a non-linen payload")
		}
	case CategoryAsset:
		if armsSet == 1 && p.Asset == nil {
			return fmt.Errorf("asset item carries a non-asset payload")
		}
	case CategoryService:
		if armsSet != 0 {
			return fmt.Errorf("service item must not carry a payload")
		}
	default:
		return fmt.Errorf("unknown category %q", category)
	}

	return nil
}
