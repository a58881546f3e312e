package transition

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/servererrors"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/validate"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchOp names the transition a batch line performs.
type BatchOp string

const (
	BatchOpPurchase       BatchOp = "purchase"
	BatchOpLaundrySend    BatchOp = "laundry-send"
	BatchOpLaundryReceive BatchOp = "laundry-receive"
	BatchOpLend           BatchOp = "lend"
	BatchOpReturn         BatchOp = "return"
	BatchOpSale           BatchOp = "sale"
	BatchOpLiquidate      BatchOp = "liquidate"
	BatchOpDamage         BatchOp = "damage"
)

// BatchLine is one single-item call inside a batch. Params carries the
// operation-specific request body.
type BatchLine struct {
	Op     BatchOp         `json:"op" validate:"required,oneof=purchase laundry-send laundry-receive lend return sale liquidate damage"`
	Params json.RawMessage `json:"params" validate:"required"`
}

type SubmitBatchRequest struct {
	Note        string      `json:"note" validate:"max=255"`
	EvidenceRef *string     `json:"evidenceRef"`
	Lines       []BatchLine `json:"lines" validate:"required,min=1,max=500"`

	ActorID string `json:"-"`
}

// BatchLineResult reports one line's outcome. Lines are processed
// independently: a failed line never rolls back the ones already
// committed, so receiving workflows tolerate partial completion.
type BatchLineResult struct {
	Index   int        `json:"index"`
	Op      BatchOp    `json:"op"`
	ItemID  *uuid.UUID `json:"itemID,omitempty"`
	OK      bool       `json:"ok"`
	EntryID *uuid.UUID `json:"entryID,omitempty"`
	Error   string     `json:"error,omitempty"`
}

type SubmitBatchResponse struct {
	BatchID     uuid.UUID         `json:"batchID"`
	Results     []BatchLineResult `json:"results"`
	FailedCount int               `json:"failedCount"`
	// TotalExpense is the aggregated financial impact posted to finance
	// when nonzero, zero otherwise.
	TotalExpense decimal.Decimal `json:"totalExpense"`
}

// SubmitBatch runs the lines of one user-initiated bulk action under a
// single fresh batch id. Lines run sequentially; each line's ledger entry
// carries the batch id and the line's index, which together with the
// operation type form the idempotency key. Keying on the line index lets
// one batch carry several lines touching the same item and operation.
func (s *service) SubmitBatch(ctx context.Context, req *SubmitBatchRequest) (*SubmitBatchResponse, error) {
	batchID := uuid.New()

	response := &SubmitBatchResponse{
		BatchID:      batchID,
		Results:      make([]BatchLineResult, 0, len(req.Lines)),
		TotalExpense: decimal.Zero,
	}

	for i, line := range req.Lines {
		result := BatchLineResult{
			Index: i,
			Op:    line.Op,
		}

		lineExpense, itemID, entryID, err := s.runBatchLine(ctx, batchID, i, req, &line)
		result.ItemID = itemID

		if err != nil {
			result.Error = err.Error()
			response.FailedCount++
		} else {
			result.OK = true
			result.EntryID = entryID
			response.TotalExpense = response.TotalExpense.Add(lineExpense)
		}

		response.Results = append(response.Results, result)
	}

	if response.TotalExpense.IsPositive() {
		s.publishExpense(s.DefaultFacility, response.TotalExpense, req.Note, &batchID)
	}

	return response, nil
}

// runBatchLine decodes, validates and executes one line. Any error it
// returns marks only that line as failed.
func (s *service) runBatchLine(
	ctx context.Context,
	batchID uuid.UUID,
	lineIndex int,
	req *SubmitBatchRequest,
	line *BatchLine,
) (decimal.Decimal, *uuid.UUID, *uuid.UUID, error) {
	var (
		result  *TransitionResult
		itemID  uuid.UUID
		expense = decimal.Zero
		err     error
	)

	switch line.Op {
	case BatchOpPurchase:
		var params PurchaseRequest
		if err = decodeLineParams(line.Params, &params); err != nil {
			return expense, nil, nil, err
		}
		itemID = params.ItemID
		params.ActorID = req.ActorID
		params.BatchID = &batchID
		params.BatchLine = &lineIndex
		if params.Note == "" {
			params.Note = req.Note
		}
		if params.EvidenceRef == nil {
			params.EvidenceRef = req.EvidenceRef
		}

		result, err = s.Purchase(ctx, &params)
		if err == nil && !result.Replayed {
			expense = params.UnitCost.Mul(decimal.NewFromInt(int64(params.Qty)))
		}

	case BatchOpLaundrySend:
		var params SendToLaundryRequest
		if err = decodeLineParams(line.Params, &params); err != nil {
			return expense, nil, nil, err
		}
		itemID = params.ItemID
		params.ActorID = req.ActorID
		params.BatchID = &batchID
		params.BatchLine = &lineIndex

		result, err = s.SendToLaundry(ctx, &params)

	case BatchOpLaundryReceive:
		var params ReceiveFromLaundryRequest
		if err = decodeLineParams(line.Params, &params); err != nil {
			return expense, nil, nil, err
		}
		itemID = params.ItemID
		params.ActorID = req.ActorID
		params.BatchID = &batchID
		params.BatchLine = &lineIndex
		if params.EvidenceRef == nil {
			params.EvidenceRef = req.EvidenceRef
		}

		result, err = s.ReceiveFromLaundry(ctx, &params)

	case BatchOpLend:
		var params LendRequest
		if err = decodeLineParams(line.Params, &params); err != nil {
			return expense, nil, nil, err
		}
		itemID = params.ItemID
		params.ActorID = req.ActorID
		params.BatchID = &batchID
		params.BatchLine = &lineIndex

		result, err = s.Lend(ctx, &params)

	case BatchOpReturn:
		var params ReturnRequest
		if err = decodeLineParams(line.Params, &params); err != nil {
			return expense, nil, nil, err
		}
		itemID = params.ItemID
		params.ActorID = req.ActorID
		params.BatchID = &batchID
		params.BatchLine = &lineIndex

		result, err = s.Return(ctx, &params)

	case BatchOpSale:
		var params ConsumeSaleRequest
		if err = decodeLineParams(line.Params, &params); err != nil {
			return expense, nil, nil, err
		}
		itemID = params.ItemID
		params.ActorID = req.ActorID
		params.BatchID = &batchID
		params.BatchLine = &lineIndex

		result, err = s.ConsumeSale(ctx, &params)

	case BatchOpLiquidate:
		var params LiquidateRequest
		if err = decodeLineParams(line.Params, &params); err != nil {
			return expense, nil, nil, err
		}
		itemID = params.ItemID
		params.ActorID = req.ActorID
		params.BatchID = &batchID
		params.BatchLine = &lineIndex

		result, err = s.Liquidate(ctx, &params)

	case BatchOpDamage:
		var params DamageWriteOffRequest
		if err = decodeLineParams(line.Params, &params); err != nil {
			return expense, nil, nil, err
		}
		itemID = params.ItemID
		params.ActorID = req.ActorID
		params.BatchID = &batchID
		params.BatchLine = &lineIndex

		result, err = s.DamageWriteOff(ctx, &params)

	default:
		return expense, nil, nil, fmt.Errorf(
			"%w: unknown batch op %q",
			servererrors.ErrValidationFailed, line.Op,
		)
	}

	if err != nil {
		if itemID == uuid.Nil {
			return expense, nil, nil, err
		}
		return expense, &itemID, nil, err
	}

	entryID := result.Entries[0].EntryID

	return expense, &itemID, &entryID, nil
}

func decodeLineParams(raw json.RawMessage, params any) error {
	if err := json.Unmarshal(raw, params); err != nil {
		return fmt.Errorf("%w: malformed line params: %s", servererrors.ErrValidationFailed, err)
	}

	if err := validate.StructFields(params); err != nil {
		return fmt.Errorf("%w: %s", servererrors.ErrValidationFailed, err)
	}

	return nil
}
