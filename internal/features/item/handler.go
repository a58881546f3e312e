package item

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/handlerutils"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/servererrors"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/validate"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type servicer interface {
	CreateItem(ctx context.Context, req *CreateItemRequest) (*Item, error)
	GetItem(ctx context.Context, itemID uuid.UUID) (*Item, error)
	ListItems(ctx context.Context, queryItems *ListItemsQuery) ([]*Item, int, error)
	UpdateItem(ctx context.Context, req *UpdateItemRequest) (*Item, error)
	RetireItem(ctx context.Context, itemID uuid.UUID) error
}

type middleware interface {
	ErrorHandler(h handlerutils.APIHandler) http.HandlerFunc
	ActorWithContext(h handlerutils.APIHandler) handlerutils.APIHandler
}

type handler struct {
	service    servicer
	middleware middleware
}

func NewHandler(itemService servicer, middleware middleware) *handler {
	return &handler{
		service:    itemService,
		middleware: middleware,
	}
}

func (h *handler) RegisterRoutes(router *chi.Mux) {
	router.Get(
		"/items",
		h.middleware.ErrorHandler(h.listItemsHandler),
	)

	router.Get(
		"/items/{itemID}",
		h.middleware.ErrorHandler(h.getItemHandler),
	)

	router.Post(
		"/items",
		h.middleware.ErrorHandler(
			h.middleware.ActorWithContext(h.createItemHandler),
		),
	)

	router.Patch(
		"/items/{itemID}",
		h.middleware.ErrorHandler(
			h.middleware.ActorWithContext(h.updateItemHandler),
		),
	)

	router.Delete(
		"/items/{itemID}",
		h.middleware.ErrorHandler(
			h.middleware.ActorWithContext(h.retireItemHandler),
		),
	)
}

func (h *handler) createItemHandler(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), (30 * time.Second))
	defer cancel()

	var payload *CreateItemRequest
	defer r.Body.Close()

	if err := handlerutils.ParseJSON(r, &payload); err != nil {
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

	created, err := h.service.CreateItem(ctx, payload)
	if err != nil {
		return err
	}

	return handlerutils.WriteSuccessJSON(
		w,
		http.StatusCreated,
		"item created",
		NewItemDTO(created),
	)
}

func (h *handler) getItemHandler(w http.ResponseWriter, r *http.Request) error {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		return servererrors.New(
			http.StatusBadRequest,
			"itemID must be a uuid",
			nil,
		)
	}

	it, err := h.service.GetItem(r.Context(), itemID)
	if err != nil {
		return err
	}

	return handlerutils.WriteSuccessJSON(
		w,
		http.StatusOK,
		"item found",
		NewItemDTO(it),
	)
}

func (h *handler) listItemsHandler(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), (30 * time.Second))
	defer cancel()

	queryItems := getListQueryItems(r.URL.Query())

	if err := validate.StructFields(queryItems); err != nil {
		return servererrors.New(
			http.StatusUnprocessableEntity,
			servererrors.ErrURLQueryParams.Error(),
			err,
		)
	}

	items, totalCount, err := h.service.ListItems(ctx, queryItems)
	if err != nil {
		return err
	}

	dtos := make([]*ItemDTO, 0, len(items))
	for _, it := range items {
		dtos = append(dtos, NewItemDTO(it))
	}

	limit := int(queryItems.PageOpts.Limit)
	totalPages := (totalCount + limit - 1) / limit

	return handlerutils.WriteSuccessJSON(
		w,
		http.StatusOK,
		"items retrieved",
		ListItemsResponse{
			AllItemsCount: totalCount,
			ReturnedCount: len(dtos),
			TotalPages:    totalPages,
			Items:         dtos,
		},
	)
}

func (h *handler) updateItemHandler(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), (30 * time.Second))
	defer cancel()

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		return servererrors.New(
			http.StatusBadRequest,
			"itemID must be a uuid",
			nil,
		)
	}

	var payload *UpdateItemRequest
	defer r.Body.Close()

	if err := handlerutils.ParseJSON(r, &payload); err != nil {
		return servererrors.New(
			http.StatusBadRequest,
			servererrors.ErrInvalidRequestPayload.Error(),
			nil,
		)
	}

	payload.ItemID = itemID

	if err := validate.StructFields(payload); err != nil {
		return servererrors.New(
			http.StatusUnprocessableEntity,
			servererrors.ErrValidationFailed.Error(),
			err,
		)
	}

	updated, err := h.service.UpdateItem(ctx, payload)
	if err != nil {
		return err
	}

	return handlerutils.WriteSuccessJSON(
		w,
		http.StatusOK,
		"item updated",
		NewItemDTO(updated),
	)
}

func (h *handler) retireItemHandler(w http.ResponseWriter, r *http.Request) error {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		return servererrors.New(
			http.StatusBadRequest,
			"itemID must be a uuid",
			nil,
		)
	}

	if err := h.service.RetireItem(r.Context(), itemID); err != nil {
		return err
	}

	return handlerutils.WriteSuccessJSON(
		w,
		http.StatusOK,
		"item retired",
		nil,
	)
}

func getListQueryItems(queryParams url.Values) *ListItemsQuery {
	query := new(ListItemsQuery)

	query.FilterOpts.Category = Category(queryParams.Get("category"))
	query.FilterOpts.Search = queryParams.Get("search")
	query.FilterOpts.ActiveOnly = queryParams.Get("active") == "true"
	query.FilterOpts.LowStockOnly = queryParams.Get("lowStock") == "true"

	query.PageOpts.Page = stringToUint64(1, queryParams.Get("page"))
	query.PageOpts.Limit = stringToUint64(20, queryParams.Get("limit"))

	return query
}

func stringToUint64(defaultValue uint64, field string) uint64 {
	num, err := strconv.ParseUint(field, 10, 0)
	if err != nil || num == 0 {
		return defaultValue
	}

	return num
}
