package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const entryColumns = `entry_id, item_id, created_at, actor_id, operation_type, quantity,
	unit_cost, total_value, facility, note, evidence_ref, batch_id, batch_line`

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db: db,
	}
}

func (s *Store) findAll(ctx context.Context, queryItems *QueryEntriesRequest) ([]*Entry, int, error) {
	query, countQuery, queryParams := generateQueryAndParams(queryItems)

	var count int
	err := s.db.QueryRowContext(
		ctx,
		countQuery,
		queryParams[:len(queryParams)-2]..., // exclude limit and offset
	).Scan(&count)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count ledger entries in ledger store: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, queryParams...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query ledger entries from ledger store: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var entry Entry
		err := rows.Scan(
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
			return nil, 0, fmt.Errorf("failed to scan ledger entry in ledger store: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed while iterating ledger rows in ledger store: %w", err)
	}

	return entries, count, nil
}

func generateQueryAndParams(queryItems *QueryEntriesRequest) (string, string, []any) {
	defaultQuery := fmt.Sprintf(`SELECT %s FROM ledger_entries`, entryColumns)
	defaultCountQuery := `SELECT COUNT(*) FROM ledger_entries`

	whereClauses := []string{}
	queryParams := []any{}

	if queryItems.FilterOpts.ItemID != nil {
		whereClauses = append(
			whereClauses,
			fmt.Sprintf("item_id = $%d", len(queryParams)+1),
		)
		queryParams = append(queryParams, *queryItems.FilterOpts.ItemID)
	}

	if queryItems.FilterOpts.BatchID != nil {
		whereClauses = append(
			whereClauses,
			fmt.Sprintf("batch_id = $%d", len(queryParams)+1),
		)
		queryParams = append(queryParams, *queryItems.FilterOpts.BatchID)
	}

	if queryItems.FilterOpts.Facility != "" {
		whereClauses = append(
			whereClauses,
			fmt.Sprintf("facility = $%d", len(queryParams)+1),
		)
		queryParams = append(queryParams, queryItems.FilterOpts.Facility)
	}

	if queryItems.FilterOpts.From != nil {
		whereClauses = append(
			whereClauses,
			fmt.Sprintf("created_at >= $%d", len(queryParams)+1),
		)
		queryParams = append(queryParams, *queryItems.FilterOpts.From)
	}

	if queryItems.FilterOpts.To != nil {
		whereClauses = append(
			whereClauses,
			fmt.Sprintf("created_at < $%d", len(queryParams)+1),
		)
		queryParams = append(queryParams, *queryItems.FilterOpts.To)
	}

	if len(whereClauses) > 0 {
		whereStr := strings.Join(whereClauses, " AND ")
		defaultQuery += fmt.Sprintf(" WHERE %s", whereStr)
		defaultCountQuery += fmt.Sprintf(" WHERE %s", whereStr)
	}

	// item-then-time ordering matches how audits read the history
	defaultQuery += fmt.Sprintf(
		" ORDER BY item_id, created_at DESC LIMIT $%d OFFSET $%d",
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
