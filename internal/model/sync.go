package model

import "time"

type SyncKind string

const (
	// SyncCreate appends the restaurant copy of a new order.
	SyncCreate SyncKind = "create"
	// SyncStatus copies a status change onto the twin.
	SyncStatus SyncKind = "status"
	// SyncEdit copies an item/address/phone edit onto the twin.
	SyncEdit SyncKind = "edit"
)

type SyncTarget string

const (
	TargetUser       SyncTarget = "user"
	TargetRestaurant SyncTarget = "restaurant"
)

// TwinSync is an outbox entry describing the change still owed to the twin
// copy of an order. It is committed together with the primary write.
type TwinSync struct {
	ID           string     `json:"id"`
	Kind         SyncKind   `json:"kind"`
	Target       SyncTarget `json:"target"`
	OrderID      string     `json:"orderId"`
	OrderNumber  string     `json:"orderNumber,omitempty"`
	RestaurantID string     `json:"restaurantId,omitempty"`
	UserEmail    string     `json:"userEmail,omitempty"`

	Status         Status       `json:"status,omitempty"`
	CompletionDate *time.Time   `json:"completionDate,omitempty"`
	Items          []Item       `json:"items,omitempty"`
	Address        string       `json:"address,omitempty"`
	Phone          string       `json:"phone,omitempty"`
	Record         *OrderRecord `json:"record,omitempty"`

	Attempts  int       `json:"attempts"`
	LastError string    `json:"lastError,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
