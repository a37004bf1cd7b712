package model

import "time"

type Role string

const (
	RoleUser       Role = "user"
	RoleRestaurant Role = "restaurant"
	RoleAdmin      Role = "admin"
)

// UserOrder is the user-side copy of an order.
type UserOrder struct {
	OrderRecord
	RestaurantID   string `json:"restaurantId"`
	RestaurantName string `json:"restaurantName"`
}

// UserReview mirrors a review the user left on a restaurant or menu item.
type UserReview struct {
	RestaurantID string    `json:"restaurantId"`
	MenuItemID   string    `json:"menuItemId,omitempty"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type User struct {
	ID           string       `json:"id"`
	FirstName    string       `json:"firstName"`
	LastName     string       `json:"lastName"`
	Email        string       `json:"email"`
	PhoneNo      string       `json:"phoneNo"`
	Address      string       `json:"address"`
	OrderHistory []UserOrder  `json:"orderHistory"`
	Reviews      []UserReview `json:"reviews"`
	CreatedAt    time.Time    `json:"createdAt"`
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// FindOrder returns a pointer into OrderHistory so callers can mutate in place.
func (u *User) FindOrder(orderID string) *UserOrder {
	for i := range u.OrderHistory {
		if u.OrderHistory[i].OrderID == orderID {
			return &u.OrderHistory[i]
		}
	}
	return nil
}

func (u *User) FindOrderByNumber(orderNumber string) *UserOrder {
	for i := range u.OrderHistory {
		if u.OrderHistory[i].OrderNumber == orderNumber {
			return &u.OrderHistory[i]
		}
	}
	return nil
}
