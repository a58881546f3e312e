package item

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/servererrors"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const itemColumns = `item_id, name, category, unit, cost_price, sale_price, min_threshold,
	available_qty, dirty_at_hotel_qty, at_vendor_qty, in_use_qty, recorded_total_qty,
	payload, version, is_active, created_at, updated_at`

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db: db,
	}
}

func (s *Store) createOne(ctx context.Context, it *Item) error {
	payloadJSON, err := json.Marshal(it.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal item payload in item store: %w", err)
	}

	query := `INSERT INTO items(item_id, name, category, unit, cost_price, sale_price,
		min_threshold, available_qty, dirty_at_hotel_qty, at_vendor_qty, in_use_qty,
		recorded_total_qty, payload, version, is_active)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err = s.db.ExecContext(
		ctx,
		query,
		it.ItemID,
		it.Name,
		it.Category,
		it.Unit,
		it.CostPrice,
		it.SalePrice,
		it.MinThreshold,
		it.Available,
		it.DirtyAtHotel,
		it.AtVendor,
		it.InUse,
		it.RecordedTotal,
		payloadJSON,
		it.Version,
		it.IsActive,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return servererrors.ErrItemAlreadyExists
		}

		return fmt.Errorf("failed to insert new item in item store: %w", err)
	}

	return nil
}

func (s *Store) findByID(ctx context.Context, itemID uuid.UUID) (*Item, error) {
	query := fmt.Sprintf(`SELECT %s FROM items WHERE item_id = $1`, itemColumns)

	it, err := scanItemRow(s.db.QueryRowContext(ctx, query, itemID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, servererrors.ErrItemNotFound
		}

		return nil, fmt.Errorf("failed to scan item from item store: %w", err)
	}

	return it, nil
}

func (s *Store) findByName(ctx context.Context, name string) (*Item, error) {
	query := fmt.Sprintf(`SELECT %s FROM items WHERE name = $1`, itemColumns)

	it, err := scanItemRow(s.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, servererrors.ErrItemNotFound
		}

		return nil, fmt.Errorf("failed to scan item from item store: %w", err)
	}

	return it, nil
}

func (s *Store) findAll(ctx context.Context, queryItems *ListItemsQuery) ([]*Item, int, error) {
	query, countQuery, queryParams := generateListQueryAndParams(queryItems)

	var count int
	err := s.db.QueryRowContext(
		ctx,
		countQuery,
		queryParams[:len(queryParams)-2]..., // exclude limit and offset
	).Scan(&count)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count items in item store: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, queryParams...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list items from item store: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		it, err := scanItemRow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan item row in item store: %w", err)
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed while iterating item rows in item store: %w", err)
	}

	return items, count, nil
}

func (s *Store) updateOne(ctx context.Context, req *UpdateItemRequest) error {
	setClauses := []string{}
	queryParams := []any{}

	appendSet := func(column string, value any) {
		setClauses = append(
			setClauses,
			fmt.Sprintf("%s = $%d", column, len(queryParams)+1),
		)
		queryParams = append(queryParams, value)
	}

	if req.Name != nil {
		appendSet("name", *req.Name)
	}
	if req.Unit != nil {
		appendSet("unit", *req.Unit)
	}
	if req.CostPrice != nil {
		appendSet("cost_price", *req.CostPrice)
	}
	if req.SalePrice != nil {
		appendSet("sale_price", *req.SalePrice)
	}
	if req.MinThreshold != nil {
		appendSet("min_threshold", *req.MinThreshold)
	}
	if req.Payload != nil {
		payloadJSON, err := json.Marshal(*req.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal item payload in item store: %w", err)
		}
		appendSet("payload", payloadJSON)
	}

	if len(setClauses) == 0 {
		return nil
	}

	setClauses = append(setClauses, "updated_at = now()")

	query := fmt.Sprintf(
		`UPDATE items SET %s WHERE item_id = $%d`,
		strings.Join(setClauses, ", "),
		len(queryParams)+1,
	)
	queryParams = append(queryParams, req.ItemID)

	result, err := s.db.ExecContext(ctx, query, queryParams...)
	if err != nil {
		return fmt.Errorf("failed to update item in item store: %w", err)
	}

	return requireOneRow(result)
}

// retireOne soft-removes an item. The row stays so ledger history keeps
// resolving; further transitions are rejected by the engine.
func (s *Store) retireOne(ctx context.Context, itemID uuid.UUID) error {
	query := `UPDATE items SET is_active = FALSE, updated_at = now() WHERE item_id = $1`

	result, err := s.db.ExecContext(ctx, query, itemID)
	if err != nil {
		return fmt.Errorf("failed to retire item in item store: %w", err)
	}

	return requireOneRow(result)
}

func requireOneRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected in item store: %w", err)
	}

	if affected == 0 {
		return servererrors.ErrItemNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItemRow(row rowScanner) (*Item, error) {
	var it Item
	var payloadJSON []byte

	err := row.Scan(
		&it.ItemID,
		&it.Name,
		&it.Category,
		&it.Unit,
		&it.CostPrice,
		&it.SalePrice,
		&it.MinThreshold,
		&it.Available,
		&it.DirtyAtHotel,
		&it.AtVendor,
		&it.InUse,
		&it.RecordedTotal,
		&payloadJSON,
		&it.Version,
		&it.IsActive,
		&it.CreatedAt,
		&it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(payloadJSON) > 0 {
		if err := json.Unmarshal(payloadJSON, &it.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal item payload: %w", err)
		}
	}

	return &it, nil
}

func generateListQueryAndParams(queryItems *ListItemsQuery) (string, string, []any) {
	defaultQuery := fmt.Sprintf(`SELECT %s FROM items`, itemColumns)
	defaultCountQuery := `SELECT COUNT(*) FROM items`

	whereClauses := []string{}
	queryParams := []any{}

	if queryItems.FilterOpts.Category != "" {
		whereClauses = append(
			whereClauses,
			fmt.Sprintf("category = $%d", len(queryParams)+1),
		)
		queryParams = append(queryParams, queryItems.FilterOpts.Category)
	}

	if queryItems.FilterOpts.Search != "" {
		whereClauses = append(
			whereClauses,
			fmt.Sprintf("name ILIKE $%d", len(queryParams)+1),
		)
		queryParams = append(
			queryParams,
			fmt.Sprintf("%s%%", queryItems.FilterOpts.Search),
		)
	}

	if queryItems.FilterOpts.ActiveOnly {
		whereClauses = append(whereClauses, "is_active = TRUE")
	}

	if queryItems.FilterOpts.LowStockOnly {
		whereClauses = append(whereClauses, "available_qty <= min_threshold")
	}

	if len(whereClauses) > 0 {
		whereStr := strings.Join(whereClauses, " AND ")
		defaultQuery += fmt.Sprintf(" WHERE %s", whereStr)
		defaultCountQuery += fmt.Sprintf(" WHERE %s", whereStr)
	}

	defaultQuery += fmt.Sprintf(
		" ORDER BY name ASC LIMIT $%d OFFSET $%d",
		len(queryParams)+1,
		len(queryParams)+2,
	)
	queryParams = append(
		queryParams,
		queryItems.PageOpts.Limit,
		(queryItems.PageOpts.Page-1)*queryItems.PageOpts.Limit,
	)

	return defaultQuery, defaultCountQuery, queryParams
}
