package event

import (
	"time"

	"github.com/google/uuid"
)

// Topics announced by the order, table, payment and inventory services
const (
	TopicOrderCreated         = "order.created"
	TopicOrderUpdated         = "order.updated"
	TopicTableStatusChanged   = "table.status_changed"
	TopicPaymentStatusChanged = "payment.status_changed"
	TopicInventoryLowStock    = "inventory.low_stock"
)

// Payload is the envelope delivered to every sink
type Payload struct {
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Data         any       `json:"data"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// NewPayload wraps data for the given restaurant
func NewPayload(restaurantID uuid.UUID, data any) Payload {
	return Payload{RestaurantID: restaurantID, Data: data, OccurredAt: time.Now().UTC()}
}

// Sink receives domain events. Delivery is fire and forget, at most once.
// Implementations must not block the caller for long and must not panic.
type Sink interface {
	Notify(topic string, payload Payload)
}

// NopSink discards every event
type NopSink struct{}

func (NopSink) Notify(string, Payload) {}

// Fanout delivers each event to every wrapped sink in order
type Fanout []Sink

func (f Fanout) Notify(topic string, payload Payload) {
	for _, s := range f {
		if s != nil {
			s.Notify(topic, payload)
		}
	}
}

type pending struct {
	topic   string
	payload Payload
}

// Batch buffers events raised inside a transaction so they can be published
// once it has committed. The zero value is ready to use.
type Batch struct {
	events []pending
}

func (b *Batch) Add(topic string, restaurantID uuid.UUID, data any) {
	b.events = append(b.events, pending{topic: topic, payload: NewPayload(restaurantID, data)})
}

// Flush publishes the buffered events in the order they were added
func (b *Batch) Flush(sink Sink) {
	if sink == nil {
		b.events = nil
		return
	}
	for _, e := range b.events {
		sink.Notify(e.topic, e.payload)
	}
	b.events = nil
}

// Len returns the number of buffered events
func (b *Batch) Len() int {
	return len(b.events)
}
