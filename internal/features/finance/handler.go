package finance

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/handlerutils"
	"github.com/go-chi/chi"
)

type servicer interface {
	ListExpenses(ctx context.Context, limit, offset uint64) ([]*Expense, error)
}

type middleware interface {
	ErrorHandler(h handlerutils.APIHandler) http.HandlerFunc
}

type handler struct {
	service    servicer
	middleware middleware
}

func NewHandler(financeService servicer, middleware middleware) *handler {
	return &handler{
		service:    financeService,
		middleware: middleware,
	}
}

func (h *handler) RegisterRoutes(router *chi.Mux) {
	router.Get(
		"/expenses",
		h.middleware.ErrorHandler(h.listExpensesHandler),
	)
}

func (h *handler) listExpensesHandler(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), (30 * time.Second))
	defer cancel()

	limit := queryUint64(r, "limit", 50)
	page := queryUint64(r, "page", 1)

	expenses, err := h.service.ListExpenses(ctx, limit, (page-1)*limit)
	if err != nil {
		return err
	}

	return handlerutils.WriteSuccessJSON(
		w,
		http.StatusOK,
		"expenses retrieved",
		expenses,
	)
}

func queryUint64(r *http.Request, key string, defaultValue uint64) uint64 {
	num, err := strconv.ParseUint(r.URL.Query().Get(key), 10, 0)
	if err != nil || num == 0 {
		return defaultValue
	}

	return num
}
