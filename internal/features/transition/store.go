package transition

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/features/item"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/features/ledger"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/servererrors"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *store {
	return &store{
		db: db,
	}
}

func (s *store) findItem(ctx context.Context, itemID uuid.UUID) (*item.Item, error) {
	query := `SELECT item_id, name, category, unit, cost_price, sale_price, min_threshold,
		available_qty, dirty_at_hotel_qty, at_vendor_qty, in_use_qty, recorded_total_qty,
		payload, version, is_active, created_at, updated_at
		FROM items WHERE item_id = $1`

	var it item.Item
	var payloadJSON []byte

	err := s.db.QueryRowContext(ctx, query, itemID).Scan(
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
		if errors.Is(err, sql.ErrNoRows) {
			return nil, servererrors.ErrItemNotFound
		}

		return nil, fmt.Errorf("failed to scan item in transition store: %w", err)
	}

	if len(payloadJSON) > 0 {
		if err := json.Unmarshal(payloadJSON, &it.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal item payload in transition store: %w", err)
		}
	}

	return &it, nil
}

// applyTransition commits the counter CAS and the ledger appends as one
// transaction. If the ledger write cannot commit, the counter change is
// never observable.
func (s *store) applyTransition(
	ctx context.Context,
	it *item.Item,
	next item.Counters,
	recordedTotal int,
	entries []*ledger.Entry,
) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transition tx: %w", err)
	}

	updateQuery := `UPDATE items SET
		available_qty = $1,
		dirty_at_hotel_qty = $2,
		at_vendor_qty = $3,
		in_use_qty = $4,
		recorded_total_qty = $5,
		version = version + 1,
		updated_at = now()
		WHERE item_id = $6 AND version = $7`

	result, err := tx.ExecContext(
		ctx,
		updateQuery,
		next.Available,
		next.DirtyAtHotel,
		next.AtVendor,
		next.InUse,
		recordedTotal,
		it.ItemID,
		it.Version,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update item counters in transition store: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to read rows affected in transition store: %w", err)
	}

	if affected == 0 {
		// the row exists (the caller just loaded it), so the version moved
		tx.Rollback()
		return servererrors.ErrConcurrentModification
	}

	insertQuery := `INSERT INTO ledger_entries(entry_id, item_id, created_at, actor_id,
		operation_type, quantity, unit_cost, total_value, facility, note, evidence_ref,
		batch_id, batch_line)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	for _, entry := range entries {
		_, err := tx.ExecContext(
			ctx,
			insertQuery,
			entry.EntryID,
			entry.ItemID,
			entry.Timestamp,
			entry.ActorID,
			entry.Operation,
			entry.Quantity,
			entry.UnitCost,
			entry.TotalValue,
			entry.Facility,
			entry.Note,
			entry.EvidenceRef,
			entry.BatchID,
			entry.BatchLine,
		)
		if err != nil {
			tx.Rollback()

			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
				// a concurrent replay of the same batch key won the race;
				// the caller re-reads the original entry and no-ops
				return servererrors.ErrConcurrentModification
			}

			return fmt.Errorf("failed to append ledger entry in transition store: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transition tx: %w", err)
	}

	return nil
}

func (s *store) findByBatchKey(
	ctx context.Context,
	batchID uuid.UUID,
	batchLine int,
	op ledger.OperationType,
) (*ledger.Entry, error) {
	query := `SELECT entry_id, item_id, created_at, actor_id, operation_type, quantity,
		unit_cost, total_value, facility, note, evidence_ref, batch_id, batch_line
		FROM ledger_entries
		WHERE batch_id = $1 AND batch_line = $2 AND operation_type = $3`

	var entry ledger.Entry
	err := s.db.QueryRowContext(ctx, query, batchID, batchLine, op).Scan(
		&entry.EntryID,
		&entry.ItemID,
		&entry.Timestamp,
		&entry.ActorID,
		&entry.Operation,
		&entry.Quantity,
		&entry.UnitCost,
		&entry.TotalValue,
		&entry.Facility,
		&entry.Note,
		&entry.EvidenceRef,
		&entry.BatchID,
		&entry.BatchLine,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to look up batch key in transition store: %w", err)
	}

	return &entry, nil
}
