package middlewares

import (
	"errors"
	"net/http"

	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/handlerutils"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/servererrors"
	"go.uber.org/zap"
)

// ErrorHandler takes a handler that returns an error and returns a
// HandlerFunc to create centralized error handling and logging.
func (mw *middleware) ErrorHandler(h handlerutils.APIHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}

		mw.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)

		var serverError *servererrors.ServerError
		if !errors.As(err, &serverError) {
			// known domain errors get their canonical status code even
			// when a handler forgot to wrap them
			serverError = servererrors.FromDomainError(err)
		}

		if serverError != nil {
			handlerutils.WriteErrorJSON(
				w,
				serverError.StatusCode,
				serverError.Error(),
				serverError.Errors,
			)
			return
		}

		handlerutils.WriteErrorJSON(
			w,
			http.StatusInternalServerError,
			"something went wrong",
			nil,
		)
	}
}
