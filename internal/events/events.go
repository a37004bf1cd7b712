package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventOrderEdited        = "OrderEdited"
	EventReviewPosted       = "ReviewPosted"
)

const producerName = "foodorder-api"

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID      string  `json:"order_id"`
	OrderNumber  string  `json:"order_number"`
	UserID       string  `json:"user_id"`
	RestaurantID string  `json:"restaurant_id"`
	OrderType    string  `json:"order_type"`
	TotalPrice   float64 `json:"total_price"`
}

type OrderStatusChangedPayload struct {
	OrderID      string `json:"order_id"`
	RestaurantID string `json:"restaurant_id"`
	From         string `json:"from"`
	To           string `json:"to"`
	Actor        string `json:"actor"`
}

type OrderEditedPayload struct {
	OrderID      string  `json:"order_id"`
	RestaurantID string  `json:"restaurant_id"`
	TotalPrice   float64 `json:"total_price"`
}

type ReviewPostedPayload struct {
	RestaurantID string `json:"restaurant_id"`
	MenuItemID   string `json:"menu_item_id,omitempty"`
	UserID       string `json:"user_id"`
	Rating       int    `json:"rating"`
}

// NewEnvelope wraps payload; correlationID is the order id where one exists.
func NewEnvelope(eventType, correlationID string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}

	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producerName,
		CorrelationID: correlationID,
		Payload:       raw,
	}, nil
}

func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
