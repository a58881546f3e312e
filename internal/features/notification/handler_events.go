package notification

import (
	"sync"

	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/eventengine"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/eventengine/event"

	"go.uber.org/zap"
)

// subscriberName is the name of this event handler.
const subscriberName event.SubscriberName = "handler_event.notification"

type HandlerEventsConfig struct {
	DoneCh        <-chan struct{}
	InternalSrvWG *sync.WaitGroup
	EventEngine   eventengine.SubscribeRegisterPublisher
	Service       Notifier
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
		panic("notification: DoneCh, InternalSrvWG, EventEngine, Service and Logger are all required")
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
		var err error

		switch ne := newEvent.(type) {
		case *event.StockAlertEvent:
			err = h.Service.NotifyStockAlert(ne)

		case *event.FolioLinePostedEvent:
			err = h.Service.NotifyFolioLine(ne)

		default:
			h.Logger.Warn(
				"received unknown event type",
				zap.String("subscriber", string(subscriberName)),
				zap.Any("event", ne),
			)
		}

		if err != nil {
			h.Logger.Error(
				"failed to deliver notification",
				zap.String("subscriber", string(subscriberName)),
				zap.Error(err),
			)
		}
	}

	h.Logger.Info("shutting down", zap.String("subscriber", string(subscriberName)))
}

// addSubscriptions iterates over subscribeToEventNames and subscribes to
// each event with addressCh.
func (h *handlerEvent) addSubscriptions() {
	subscribeToEventNames := [2]event.EventName{
		event.StockAlertEventName,
		event.FolioLinePostedEventName,
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
