package model

import (
	"strings"
	"time"
)

// RegistrationStatus is the admin approval state of a restaurant.
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationAccepted RegistrationStatus = "accepted"
	RegistrationRejected RegistrationStatus = "rejected"
)

type Review struct {
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type MenuItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Category    string   `json:"category,omitempty"`
	IsAvailable bool     `json:"isAvailable"`
	Image       string   `json:"image,omitempty"`
	Reviews     []Review `json:"reviews"`
}

func (m *MenuItem) AverageRating() float64 {
	if len(m.Reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range m.Reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(m.Reviews))
}

type Restaurant struct {
	ID           string             `json:"id"`
	Status       RegistrationStatus `json:"status"`
	Name         string             `json:"name"`
	City         string             `json:"city"`
	Address      string             `json:"address,omitempty"`
	ProfileImage string             `json:"profileImage,omitempty"`
	Menu         []MenuItem         `json:"menu"`
	Orders       []OrderRecord      `json:"orders"`
	TotalRevenue float64            `json:"totalRevenue"`
	TotalOrders  int                `json:"totalOrders"`
	Reviews      []Review           `json:"reviews"`
	CreatedAt    time.Time          `json:"createdAt"`
}

func (r *Restaurant) FindOrder(orderID string) *OrderRecord {
	for i := range r.Orders {
		if r.Orders[i].OrderID == orderID {
			return &r.Orders[i]
		}
	}
	return nil
}

// FindOrdersByNumber can return more than one record since order numbers are
// derived from the creation time.
func (r *Restaurant) FindOrdersByNumber(orderNumber string) []*OrderRecord {
	var out []*OrderRecord
	for i := range r.Orders {
		if r.Orders[i].OrderNumber == orderNumber {
			out = append(out, &r.Orders[i])
		}
	}
	return out
}

func (r *Restaurant) FindMenuItem(id string) *MenuItem {
	for i := range r.Menu {
		if r.Menu[i].ID == id {
			return &r.Menu[i]
		}
	}
	return nil
}

// AddOrder appends the restaurant copy and bumps the running totals. The
// totals are never decreased afterwards.
func (r *Restaurant) AddOrder(o OrderRecord) {
	r.Orders = append(r.Orders, o)
	r.TotalRevenue += o.TotalPrice
	r.TotalOrders++
}

func (r *Restaurant) OrdersByStatus(status Status) []OrderRecord {
	out := make([]OrderRecord, 0)
	for _, o := range r.Orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}

func (r *Restaurant) InCity(city string) bool {
	return strings.EqualFold(strings.TrimSpace(r.City), strings.TrimSpace(city))
}
