package reconciliation

import (
	"context"

	"github.com/google/uuid"
)

// RecipeProvider serves room-type recipes: the house standard of what
// each occupied room must carry. Read only; owned by the housekeeping
// system upstream.
type RecipeProvider interface {
	RecipeFor(ctx context.Context, roomType string) ([]RecipeLine, error)
}

// OccupancyProvider serves the live occupancy snapshot: how many rooms of
// each type are occupied, and what extra lendings guests currently hold.
// Read only; owned by the booking system upstream.
type OccupancyProvider interface {
	OccupiedRoomCounts(ctx context.Context) (map[string]int, error)
	ActiveLending(ctx context.Context, itemID uuid.UUID) (int, error)
}
