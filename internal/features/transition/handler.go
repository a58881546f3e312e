package transition

import (
	"context"
	"net/http"
	"time"

	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/handlerutils"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/middlewares"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/servererrors"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/validate"
	"github.com/go-chi/chi"
)

type servicer interface {
	Purchase(ctx context.Context, req *PurchaseRequest) (*TransitionResult, error)
	SendToLaundry(ctx context.Context, req *SendToLaundryRequest) (*TransitionResult, error)
	ReceiveFromLaundry(ctx context.Context, req *ReceiveFromLaundryRequest) (*TransitionResult, error)
	Lend(ctx context.Context, req *LendRequest) (*TransitionResult, error)
	Return(ctx context.Context, req *ReturnRequest) (*TransitionResult, error)
	ConsumeSale(ctx context.Context, req *ConsumeSaleRequest) (*TransitionResult, error)
	Liquidate(ctx context.Context, req *LiquidateRequest) (*TransitionResult, error)
	DamageWriteOff(ctx context.Context, req *DamageWriteOffRequest) (*TransitionResult, error)
	ManualCorrection(ctx context.Context, req *ManualCorrectionRequest) (*TransitionResult, error)
	SetRecordedTotal(ctx context.Context, req *SetRecordedTotalRequest) (*TransitionResult, error)
	SubmitBatch(ctx context.Context, req *SubmitBatchRequest) (*SubmitBatchResponse, error)
}

type middleware interface {
	ErrorHandler(h handlerutils.APIHandler) http.HandlerFunc
	ActorWithContext(h handlerutils.APIHandler) handlerutils.APIHandler
}

type handler struct {
	service    servicer
	middleware middleware
}

func NewHandler(transitionService servicer, middleware middleware) *handler {
	return &handler{
		service:    transitionService,
		middleware: middleware,
	}
}

func (h *handler) RegisterRoutes(router *chi.Mux) {
	routes := map[string]handlerutils.APIHandler{
		"/transitions/purchase":        h.purchaseHandler,
		"/transitions/laundry-send":    h.sendToLaundryHandler,
		"/transitions/laundry-receive": h.receiveFromLaundryHandler,
		"/transitions/lend":            h.lendHandler,
		"/transitions/return":          h.returnHandler,
		"/transitions/sale":            h.consumeSaleHandler,
		"/transitions/liquidate":       h.liquidateHandler,
		"/transitions/damage":          h.damageWriteOffHandler,
		"/transitions/correction":      h.manualCorrectionHandler,
		"/transitions/recorded-total":  h.setRecordedTotalHandler,
		"/batches":                     h.submitBatchHandler,
	}

	for path, apiHandler := range routes {
		router.Post(
			path,
			h.middleware.ErrorHandler(
				h.middleware.ActorWithContext(apiHandler),
			),
		)
	}
}

// parseTransitionRequest decodes and validates a transition body.
func parseTransitionRequest(r *http.Request, payload any) error {
	defer r.Body.Close()

	if err := handlerutils.ParseJSON(r, payload); err != nil {
		return servererrors.New(
			http.StatusBadRequest,
			servererrors.ErrInvalidRequestPayload.Error(),
			nil,
		)
	}

	if err := validate.StructFields(payload); err != nil {
		return servererrors.New(
			http.StatusUnprocessableEntity,
			servererrors.ErrValidationFailed.Error(),
			err,
		)
	}

	return nil
}

func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), (30 * time.Second))
}

func (h *handler) purchaseHandler(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := requestContext(r)
	defer cancel()

	var payload PurchaseRequest
	if err := parseTransitionRequest(r, &payload); err != nil {
		return err
	}
	payload.ActorID = middlewares.GetActorIDFromContext(ctx)

	result, err := h.service.Purchase(ctx, &payload)
	if err != nil {
		return err
	}

	return handlerutils.WriteSuccessJSON(w, http.StatusOK, "purchase recorded", result)
}

func (h *handler) sendToLaundryHandler(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := requestContext(r)
	defer cancel()

	var payload SendToLaundryRequest
	if err := parseTransitionRequest(r, &payload); err != nil {
		return err
	}
	payload.ActorID = middlewares.GetActorIDFromContext(ctx)

	result, err := h.service.SendToLaundry(ctx, &payload)
	if err != nil {
		return err
	}

	return handlerutils.WriteSuccessJSON(w, http.StatusOK, "laundry send recorded", result)
}

func (h *handler) receiveFromLaundryHandler(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := requestContext(r)
	defer cancel()

	var payload ReceiveFromLaundryRequest
	if err := parseTransitionRequest(r, &payload); err != nil {
		return err
	}
	payload.ActorID = middlewares.GetActorIDFromContext(ctx)

	result, err := h.service.ReceiveFromLaundry(ctx, &payload)
	if err != nil {
		return err
	}

	return handlerutils.WriteSuccessJSON(w, http.StatusOK, "laundry receive recorded", result)
}

func (h *handler) lendHandler(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := requestContext(r)
	defer cancel()

	var payload LendRequest
	if err := parseTransitionRequest(r, &payload); err != nil {
		return err
	}
	payload.ActorID = middlewares.GetActorIDFromContext(ctx)

	result, err := h.service.Lend(ctx, &payload)
	if err != nil {
		return err
	}

	return handlerutils.WriteSuccessJSON(w, http.StatusOK, "lend recorded", result)
}

func (h *handler) returnHandler(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := requestContext(r)
	defer cancel()

	var payload ReturnRequest
	if err := parseTransitionRequest(r, &payload); err != nil {
		return err
	}
	payload.ActorID = middlewares.GetActorIDFromContext(ctx)

	result, err := h.service.Return(ctx, &payload)
	if err != nil {
		return err
	}

	return handlerutils.WriteSuccessJSON(w, http.StatusOK, "return recorded", result)
}

func (h *handler) consumeSaleHandler(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := requestContext(r)
	defer cancel()

	var payload ConsumeSaleRequest
	if err := parseTransitionRequest(r, &payload); err != nil {
		return err
	}
	payload.ActorID = middlewares.GetActorIDFromContext(ctx)

	result, err := h.service.ConsumeSale(ctx, &payload)
	if err != nil {
		return err
	}

	return handlerutils.WriteSuccessJSON(w, http.StatusOK, "sale recorded", result)
}

func (h *handler) liquidateHandler(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := requestContext(r)
	defer cancel()

	var payload LiquidateRequest
	if err := parseTransitionRequest(r, &payload); err != nil {
		return err
	}
	payload.ActorID = middlewares.GetActorIDFromContext(ctx)

	result, err := h.service.Liquidate(ctx, &payload)
	if err != nil {
		return err
	}

	return handlerutils.WriteSuccessJSON(w, http.StatusOK, "liquidation recorded", result)
}

func (h *handler) damageWriteOffHandler(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := requestContext(r)
	defer cancel()

	var payload DamageWriteOffRequest
	if err := parseTransitionRequest(r, &payload); err != nil {
		return err
	}
	payload.ActorID = middlewares.GetActorIDFromContext(ctx)

	result, err := h.service.DamageWriteOff(ctx, &payload)
	if err != nil {
		return err
	}

	return handlerutils.WriteSuccessJSON(w, http.StatusOK, "damage write-off recorded", result)
}

func (h *handler) manualCorrectionHandler(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := requestContext(r)
	defer cancel()

	var payload ManualCorrectionRequest
	if err := parseTransitionRequest(r, &payload); err != nil {
		return err
	}
	payload.ActorID = middlewares.GetActorIDFromContext(ctx)

	result, err := h.service.ManualCorrection(ctx, &payload)
	if err != nil {
		return err
	}

	return handlerutils.WriteSuccessJSON(w, http.StatusOK, "correction recorded", result)
}

func (h *handler) setRecordedTotalHandler(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := requestContext(r)
	defer cancel()

	var payload SetRecordedTotalRequest
	if err := parseTransitionRequest(r, &payload); err != nil {
		return err
	}
	payload.ActorID = middlewares.GetActorIDFromContext(ctx)

	result, err := h.service.SetRecordedTotal(ctx, &payload)
	if err != nil {
		return err
	}

	return handlerutils.WriteSuccessJSON(w, http.StatusOK, "recorded total adjusted", result)
}

func (h *handler) submitBatchHandler(w http.ResponseWriter, r *http.Request) error {
	// batches can be long; give them more room than single transitions
	ctx, cancel := context.WithTimeout(r.Context(), (2 * time.Minute))
	defer cancel()

	var payload SubmitBatchRequest
	if err := parseTransitionRequest(r, &payload); err != nil {
		return err
	}
	payload.ActorID = middlewares.GetActorIDFromContext(ctx)

	response, err := h.service.SubmitBatch(ctx, &payload)
	if err != nil {
		return err
	}

	return handlerutils.WriteSuccessJSON(w, http.StatusOK, "batch processed", response)
}
