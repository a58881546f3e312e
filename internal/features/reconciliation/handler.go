package reconciliation

import (
	"context"
	"net/http"
	"time"

	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/handlerutils"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/servererrors"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type servicer interface {
	Report(ctx context.Context, itemID uuid.UUID) (*VarianceReport, error)
	Alerts(ctx context.Context) (*AlertsResponse, error)
}

type middleware interface {
	ErrorHandler(h handlerutils.APIHandler) http.HandlerFunc
}

type handler struct {
	service    servicer
	middleware middleware
}

func NewHandler(reconciliationService servicer, middleware middleware) *handler {
	return &handler{
		service:    reconciliationService,
		middleware: middleware,
	}
}

func (h *handler) RegisterRoutes(router *chi.Mux) {
	router.Get(
		"/reconciliation/items/{itemID}",
		h.middleware.ErrorHandler(h.reportHandler),
	)

	router.Get(
		"/reconciliation/alerts",
		h.middleware.ErrorHandler(h.alertsHandler),
	)
}

func (h *handler) reportHandler(w http.ResponseWriter, r *http.Request) error {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		return servererrors.New(
			http.StatusBadRequest,
			"itemID must be a uuid",
			nil,
		)
	}

	report, err := h.service.Report(r.Context(), itemID)
	if err != nil {
		return err
	}

	return handlerutils.WriteSuccessJSON(
		w,
		http.StatusOK,
		"variance report computed",
		report,
	)
}

func (h *handler) alertsHandler(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), (60 * time.Second))
	defer cancel()

	response, err := h.service.Alerts(ctx)
	if err != nil {
		return err
	}

	return handlerutils.WriteSuccessJSON(
		w,
		http.StatusOK,
		"alerts evaluated",
		response,
	)
}
