package reconciliation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/features/item"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/servererrors"
	"github.com/google/uuid"
)

// Store backs both providers with local tables kept in sync by the
// upstream booking and housekeeping systems, so the engine reconciles
// without a network dependency.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db: db,
	}
}

func (s *Store) RecipeFor(ctx context.Context, roomType string) ([]RecipeLine, error) {
	query := `SELECT item_id, qty_per_room FROM room_recipes
		WHERE room_type = $1 ORDER BY position`

	rows, err := s.db.QueryContext(ctx, query, roomType)
	if err != nil {
		return nil, fmt.Errorf("failed to query room recipe in reconciliation store: %w", err)
	}
	defer rows.Close()

	var lines []RecipeLine
	for rows.Next() {
		var line RecipeLine
		if err := rows.Scan(&line.ItemID, &line.QtyPerRoom); err != nil {
			return nil, fmt.Errorf("failed to scan recipe line in reconciliation store: %w", err)
		}
		lines = append(lines, line)
	}

	return lines, rows.Err()
}

func (s *Store) OccupiedRoomCounts(ctx context.Context) (map[string]int, error) {
	query := `SELECT room_type, COUNT(*) FROM room_occupancy
		WHERE occupied = TRUE GROUP BY room_type`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query occupancy in reconciliation store: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var roomType string
		var count int
		if err := rows.Scan(&roomType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan occupancy row in reconciliation store: %w", err)
		}
		counts[roomType] = count
	}

	return counts, rows.Err()
}

func (s *Store) ActiveLending(ctx context.Context, itemID uuid.UUID) (int, error) {
	query := `SELECT COALESCE(SUM(qty), 0) FROM room_lendings
		WHERE item_id = $1 AND active = TRUE`

	var total int
	if err := s.db.QueryRowContext(ctx, query, itemID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum active lendings in reconciliation store: %w", err)
	}

	return total, nil
}

func (s *Store) findItem(ctx context.Context, itemID uuid.UUID) (*item.Item, error) {
	query := `SELECT item_id, name, category, min_threshold,
		available_qty, dirty_at_hotel_qty, at_vendor_qty, in_use_qty, recorded_total_qty
		FROM items WHERE item_id = $1`

	var it item.Item
	err := s.db.QueryRowContext(ctx, query, itemID).Scan(
		&it.ItemID,
		&it.Name,
		&it.Category,
		&it.MinThreshold,
		&it.Available,
		&it.DirtyAtHotel,
		&it.AtVendor,
		&it.InUse,
		&it.RecordedTotal,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, servererrors.ErrItemNotFound
		}

		return nil, fmt.Errorf("failed to scan item in reconciliation store: %w", err)
	}

	return &it, nil
}

func (s *Store) listActiveItems(ctx context.Context) ([]*item.Item, error) {
	query := `SELECT item_id, name, category, min_threshold,
		available_qty, dirty_at_hotel_qty, at_vendor_qty, in_use_qty, recorded_total_qty
		FROM items WHERE is_active = TRUE ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active items in reconciliation store: %w", err)
	}
	defer rows.Close()

	var items []*item.Item
	for rows.Next() {
		var it item.Item
		err := rows.Scan(
			&it.ItemID,
			&it.Name,
			&it.Category,
			&it.MinThreshold,
			&it.Available,
			&it.DirtyAtHotel,
			&it.AtVendor,
			&it.InUse,
			&it.RecordedTotal,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row in reconciliation store: %w", err)
		}
		items = append(items, &it)
	}

	return items, rows.Err()
}
