package eventengine

import (
	"fmt"
	"sync"

	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/eventengine/event"
	"go.uber.org/zap"
)

type Publisher interface {
	Publish(event *event.Event) error
}

type Subscriber interface {
	Subscribe(toEventName event.EventName, subscriber *event.Subscriber) error
}

type RegisterPublisher interface {
	Publisher
	RegisterEvents(eventNames ...event.EventName)
}

type SubscribeRegisterPublisher interface {
	Subscriber
	RegisterPublisher
}

type subscribers struct {
	names      []event.SubscriberName
	addressChs []chan<- any
}

type EventEngineConfig struct {
	DoneCh        <-chan struct{}
	InternalSrvWG *sync.WaitGroup
	Logger        *zap.Logger
}

// eventEngine is the in-process pub/sub that decouples the transition
// engine from its fire-and-forget collaborators. Events published before
// shutdown are drained to subscribers before their channels close, so a
// committed counter mutation never loses its expense or alert.
type eventEngine struct {
	*EventEngineConfig
	eventEngineCh chan *event.Event
	events        map[event.EventName]*subscribers

	// closeMu orders the shutdown close of eventEngineCh against in-flight
	// Publish calls, which would otherwise race a send into a closed channel.
	closeMu sync.RWMutex
	closed  bool
}

func NewEventEngine(cfg *EventEngineConfig) SubscribeRegisterPublisher {
	if cfg == nil || cfg.DoneCh == nil || cfg.InternalSrvWG == nil || cfg.Logger == nil {
		panic("eventengine: config, DoneCh, InternalSrvWG and Logger are all required")
	}

	e := &eventEngine{
		EventEngineConfig: cfg,
		events:            make(map[event.EventName]*subscribers, 20),
		eventEngineCh:     make(chan *event.Event, 20),
	}

	e.InternalSrvWG.Add(1)
	go e.listen()

	return e
}

func (e *eventEngine) listen() {
	defer e.InternalSrvWG.Done()

	e.Logger.Info("event engine is listening")

	for {
		select {
		case <-e.DoneCh:
			e.closeMu.Lock()
			e.closed = true
			close(e.eventEngineCh)
			e.closeMu.Unlock()

			// drain pending events before subscriber channels go away
			for pending := range e.eventEngineCh {
				e.broadcast(pending)
			}

			e.shutdownSubscriberChannels()
			e.Logger.Info("event engine has shut down")
			return

		case newEvent, isOpen := <-e.eventEngineCh:
			if !isOpen {
				return
			}

			e.broadcast(newEvent)
		}
	}
}

func (e *eventEngine) broadcast(newEvent *event.Event) {
	subs, exists := e.events[newEvent.Name]
	if !exists {
		e.Logger.Warn("event has no registration, dropping",
			zap.String("event", string(newEvent.Name)),
		)
		return
	}

	for i, addressCh := range subs.addressChs {
		if addressCh == nil {
			e.Logger.Warn("subscriber addressCh is nil, skipping",
				zap.String("subscriber", string(subs.names[i])),
			)
			continue
		}

		addressCh <- newEvent.Payload
	}
}

// RegisterEvents adds the events a publisher will emit. Register an event
// before publishing or subscribing to it.
func (e *eventEngine) RegisterEvents(eventNames ...event.EventName) {
	for _, eventName := range eventNames {
		if _, exists := e.events[eventName]; exists {
			continue
		}

		e.events[eventName] = &subscribers{}
	}
}

func (e *eventEngine) Subscribe(toEventName event.EventName, newSubscriber *event.Subscriber) error {
	subs, ok := e.events[toEventName]
	if !ok {
		return fmt.Errorf(
			"event '%v' not found; the publishing feature must call RegisterEvents before anyone subscribes",
			toEventName,
		)
	}

	subs.names = append(subs.names, newSubscriber.Name)
	subs.addressChs = append(subs.addressChs, newSubscriber.AddressCh)

	return nil
}

func (e *eventEngine) Publish(newEvent *event.Event) error {
	if _, exists := e.events[newEvent.Name]; !exists {
		return fmt.Errorf(
			"event '%v' not found; call RegisterEvents before publishing",
			newEvent.Name,
		)
	}

	e.closeMu.RLock()
	defer e.closeMu.RUnlock()

	if e.closed {
		return fmt.Errorf("event engine is shut down, dropping '%v'", newEvent.Name)
	}

	select {
	case e.eventEngineCh <- newEvent:
		return nil
	case <-e.DoneCh:
		return fmt.Errorf("event engine is shutting down, dropping '%v'", newEvent.Name)
	}
}

func (e *eventEngine) shutdownSubscriberChannels() {
	closed := make(map[chan<- any]struct{})

	for _, subs := range e.events {
		for _, addressCh := range subs.addressChs {
			if addressCh == nil {
				continue
			}

			if _, done := closed[addressCh]; done {
				continue
			}

			close(addressCh)
			closed[addressCh] = struct{}{}
		}
	}
}
