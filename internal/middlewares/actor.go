package middlewares

import (
	"context"
	"net/http"

	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/handlerutils"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/servererrors"
)

type contextKey struct{}

var actorKey contextKey = contextKey{}

// ActorHeader carries the identity of the staff member performing a
// mutation. Who may perform an operation is decided upstream; the core
// only records the actor on every ledger entry.
const ActorHeader = "X-Actor-Id"

func (mw *middleware) ActorWithContext(h handlerutils.APIHandler) handlerutils.APIHandler {
	return func(w http.ResponseWriter, r *http.Request) error {
		actorID := r.Header.Get(ActorHeader)
		if actorID == "" {
			return servererrors.New(
				http.StatusBadRequest,
				servererrors.ErrMissingActor.Error(),
				nil,
			)
		}

		ctx := context.WithValue(
			r.Context(),
			actorKey,
			actorID,
		)

		return h(w, r.WithContext(ctx))
	}
}

func GetActorIDFromContext(ctx context.Context) string {
	actorID, ok := ctx.Value(actorKey).(string)
	if !ok {
		return ""
	}

	return actorID
}
