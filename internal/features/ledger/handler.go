package ledger

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
	QueryEntries(ctx context.Context, queryItems *QueryEntriesRequest) ([]*Entry, int, error)
}

type middleware interface {
	ErrorHandler(h handlerutils.APIHandler) http.HandlerFunc
}

type handler struct {
	service    servicer
	middleware middleware
}

func NewHandler(ledgerService servicer, middleware middleware) *handler {
	return &handler{
		service:    ledgerService,
		middleware: middleware,
	}
}

func (h *handler) RegisterRoutes(router *chi.Mux) {
	router.Get(
		"/ledger",
		h.middleware.ErrorHandler(h.queryEntriesHandler),
	)
}

func (h *handler) queryEntriesHandler(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), (30 * time.Second))
	defer cancel()

	queryItems, err := getQueryItems(r.URL.Query())
	if err != nil {
		return servererrors.New(
			http.StatusBadRequest,
			servererrors.ErrURLQueryParams.Error(),
			err.Error(),
		)
	}

	if err := validate.StructFields(queryItems); err != nil {
		return servererrors.New(
			http.StatusUnprocessableEntity,
			servererrors.ErrURLQueryParams.Error(),
			err,
		)
	}

	entries, totalCount, err := h.service.QueryEntries(ctx, queryItems)
	if err != nil {
		return err
	}

	return handlerutils.WriteSuccessJSON(
		w,
		http.StatusOK,
		"ledger entries retrieved",
		QueryEntriesResponse{
			AllEntriesCount: totalCount,
			ReturnedCount:   len(entries),
			Entries:         entries,
		},
	)
}

func getQueryItems(queryParams url.Values) (*QueryEntriesRequest, error) {
	query := new(QueryEntriesRequest)

	if raw := queryParams.Get("item"); raw != "" {
		itemID, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		query.FilterOpts.ItemID = &itemID
	}

	if raw := queryParams.Get("batch"); raw != "" {
		batchID, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		query.FilterOpts.BatchID = &batchID
	}

	query.FilterOpts.Facility = queryParams.Get("facility")

	if raw := queryParams.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, err
		}
		query.FilterOpts.From = &from
	}

	if raw := queryParams.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, err
		}
		query.FilterOpts.To = &to
	}

	query.PageOpts.Page = stringToUint64(1, queryParams.Get("page"))
	query.PageOpts.Limit = stringToUint64(50, queryParams.Get("limit"))

	return query, nil
}

func stringToUint64(defaultValue uint64, field string) uint64 {
	num, err := strconv.ParseUint(field, 10, 0)
	if err != nil || num == 0 {
		return defaultValue
	}

	return num
}
