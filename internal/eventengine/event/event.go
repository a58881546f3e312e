// Package event declares the payloads the inventory core publishes for
// its fire-and-forget collaborators (finance postings, notifications).
package event

type SubscriberName string
type EventName string

type Event struct {
	Name    EventName
	Payload any
}

type Subscriber struct {
	Name      SubscriberName // Name of subscriber
	AddressCh chan<- any     // Where a subscriber is listening for events at.
}
