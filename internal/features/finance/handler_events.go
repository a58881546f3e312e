package finance

import (
	"context"
	"sync"
	"time"

	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/eventengine"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/eventengine/event"

	"go.uber.org/zap"
)

// subscriberName is the name of this event handler.
const subscriberName event.SubscriberName = "handler_event.finance"

type eventServicer interface {
	recordExpense(ctx context.Context, incurred *event.ExpenseIncurredEvent) error
}

type HandlerEventsConfig struct {
	DoneCh        <-chan struct{}
	InternalSrvWG *sync.WaitGroup
	EventEngine   eventengine.SubscribeRegisterPublisher
	Service       eventServicer
	Logger        *zap.Logger
	AddressChSize uint16
}

type handlerEvent struct {
	*HandlerEventsConfig
	addressCh chan any
}

func NewEventHandler(cfg *HandlerEventsConfig) *handlerEvent {
	if cfg.AddressChSize == 0 {
		cfg.AddressChSize = 10
	}

	if cfg.DoneCh == nil || cfg.InternalSrvWG == nil || cfg.EventEngine == nil || cfg.Service == nil || cfg.Logger == nil {
		panic("finance: DoneCh, InternalSrvWG, EventEngine, Service and Logger are all required")
	}

	he := &handlerEvent{
		HandlerEventsConfig: cfg,
		addressCh:           make(chan any, cfg.AddressChSize),
	}

	he.InternalSrvWG.Add(1)
	go he.listen()

	return he
}

func (h *handlerEvent) listen() {
	defer h.InternalSrvWG.Done()

	h.addSubscriptions()

	h.Logger.Info("listening for events", zap.String("subscriber", string(subscriberName)))

	for newEvent := range h.addressCh {
		switch ne := newEvent.(type) {
		case *event.ExpenseIncurredEvent:
			h.expenseIncurredEventHandler(ne)

		default:
			h.Logger.Warn(
				"received unknown event type",
				zap.String("subscriber", string(subscriberName)),
				zap.Any("event", ne),
			)
		}
	}

	h.Logger.Info("shutting down", zap.String("subscriber", string(subscriberName)))
}

func (h *handlerEvent) expenseIncurredEventHandler(incurred *event.ExpenseIncurredEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.Service.recordExpense(ctx, incurred); err != nil {
		// best effort: the counter mutation already committed, so the
		// posting is logged and dropped rather than retried forever
		h.Logger.Error(
			"failed to record expense",
			zap.String("subscriber", string(subscriberName)),
			zap.String("category", incurred.Category),
			zap.String("amount", incurred.Amount.String()),
			zap.Error(err),
		)
	}
}

// addSubscriptions iterates over subscribeToEventNames and subscribes to
// each event with addressCh.
func (h *handlerEvent) addSubscriptions() {
	subscribeToEventNames := [1]event.EventName{
		event.ExpenseIncurredEventName,
	}

	for _, v := range subscribeToEventNames {
		err := h.EventEngine.Subscribe(
			v,
			&event.Subscriber{
				Name:      subscriberName,
				AddressCh: h.addressCh,
			},
		)
		if err != nil {
			h.Logger.Fatal(
				"error subscribing to event",
				zap.String("subscriber", string(subscriberName)),
				zap.String("event", string(v)),
				zap.Error(err),
			)
		}
	}
}
