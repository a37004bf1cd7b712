package model

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var allStatuses = []Status{
	StatusPending,
	StatusAccepted,
	StatusRejected,
	StatusCompleted,
	StatusCancelled,
}

// validNext is the order state machine. Editing an order re-enters pending,
// which is why pending and accepted both list it.
var validNext = map[Status]map[Status]bool{
	StatusPending: {
		StatusAccepted:  true,
		StatusRejected:  true,
		StatusCompleted: true,
		StatusCancelled: true,
		StatusPending:   true,
	},
	StatusAccepted: {
		StatusCompleted: true,
		StatusPending:   true,
	},
	StatusRejected:  {},
	StatusCompleted: {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Valid() bool {
	for _, v := range allStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCompleted || s == StatusCancelled
}

type OrderType string

const (
	OrderTypeDineIn       OrderType = "dineIn"
	OrderTypePickUp       OrderType = "pickUp"
	OrderTypeDelivery     OrderType = "delivery"
	OrderTypeReservations OrderType = "reservations"
)

// ParseOrderType falls back to dineIn for an empty value.
func ParseOrderType(s string) (OrderType, bool) {
	switch OrderType(s) {
	case "":
		return OrderTypeDineIn, true
	case OrderTypeDineIn, OrderTypePickUp, OrderTypeDelivery, OrderTypeReservations:
		return OrderType(s), true
	}
	return "", false
}

type Item struct {
	MenuItemID string  `json:"menuItemId,omitempty"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
}

func (i Item) Subtotal() float64 {
	return float64(i.Quantity) * i.Price
}

func TotalPrice(items []Item) float64 {
	var total float64
	for _, it := range items {
		total += it.Subtotal()
	}
	return total
}

// Customer is a snapshot taken at checkout. Later profile edits do not touch it.
type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// OrderRecord is one placed order. The same record lives twice: once in the
// user's order history and once in the restaurant's order list, joined by
// OrderID. Revision grows by one on every change to either copy.
type OrderRecord struct {
	OrderID        string     `json:"orderId"`
	OrderNumber    string     `json:"orderNumber"`
	Items          []Item     `json:"items"`
	TotalPrice     float64    `json:"totalPrice"`
	Status         Status     `json:"status"`
	OrderType      OrderType  `json:"orderType"`
	OrderDate      time.Time  `json:"orderDate"`
	CompletionDate *time.Time `json:"completionDate,omitempty"`
	Customer       Customer   `json:"customer"`
	Revision       int        `json:"revision"`
}

// SetItems replaces the item list and recomputes the total.
func (o *OrderRecord) SetItems(items []Item) {
	o.Items = append([]Item(nil), items...)
	o.TotalPrice = TotalPrice(o.Items)
}

// Snapshot returns a copy that shares no slices or pointers with o.
func (o *OrderRecord) Snapshot() *OrderRecord {
	c := *o
	c.Items = append([]Item(nil), o.Items...)
	if o.CompletionDate != nil {
		t := *o.CompletionDate
		c.CompletionDate = &t
	}
	return &c
}

// SetStatus applies a status and stamps the completion date when needed.
func (o *OrderRecord) SetStatus(status Status, at time.Time) {
	o.Status = status
	if status == StatusCompleted {
		t := at
		o.CompletionDate = &t
	}
}
