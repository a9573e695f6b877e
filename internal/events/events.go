package events

import (
	"encoding/json"
	"sync"
	"time"

	"oncestock/internal/models"
)

const (
	EventProductCreated  = "product_created"
	EventProductUpdated  = "product_updated"
	EventProductDeleted  = "product_deleted"
	EventMovementApplied = "movement_applied"
	EventLowStock        = "low_stock"
)

// MovementEventPayload is the snapshot consumers get after a stock change.
type MovementEventPayload struct {
	MovementID  int64     `json:"movement_id"`
	ProductID   int64     `json:"product_id"`
	ProductCode string    `json:"product_code"`
	ProductName string    `json:"product_name"`
	Type        string    `json:"type"`
	Quantity    int64     `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	Stock       int64     `json:"stock"`
	MinStock    int64     `json:"min_stock"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewMovementPayload builds the payload from a movement and the product
// state after it was applied.
func NewMovementPayload(movement *models.Movement, product *models.Product) MovementEventPayload {
	return MovementEventPayload{
		MovementID:  movement.ID,
		ProductID:   product.ID,
		ProductCode: product.Code,
		ProductName: product.Name,
		Type:        movement.Type,
		Quantity:    movement.Quantity,
		UnitPrice:   movement.UnitPrice,
		Stock:       product.Stock,
		MinStock:    product.MinStock,
		Note:        movement.Note,
		CreatedAt:   movement.CreatedAt,
	}
}

// ProductEventPayload describes catalog changes.
type ProductEventPayload struct {
	ProductID int64  `json:"product_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
	Processed bool
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{
		Type:    eventType,
		Payload: data,
	})
	return nil
}
