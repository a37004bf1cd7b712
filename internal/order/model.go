package order

import "foodorder-be/internal/model"

type CartItem struct {
	MenuItemID   string  `json:"menuItemId"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
	RestaurantID string  `json:"restaurantId"`
}

type UserInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	PhoneNo   string `json:"phoneNo"`
	Address   string `json:"address"`
}

type CheckoutInput struct {
	CartItems []CartItem `json:"cartItems"`
	UserInfo  UserInfo   `json:"userInfo"`
	OrderType string     `json:"orderType"`
}

// CheckoutResult lists one order per restaurant that accepted a partition.
// Skipped holds restaurant ids that were invalid or unknown.
type CheckoutResult struct {
	Orders  []model.UserOrder `json:"orders"`
	Skipped []string          `json:"skipped,omitempty"`
}

// EditInput uses nil for "not supplied".
type EditInput struct {
	OrderID string        `json:"orderId"`
	Items   *[]model.Item `json:"items,omitempty"`
	Address *string       `json:"address,omitempty"`
	PhoneNo *string       `json:"phoneNo,omitempty"`
}

// StatusInput addresses an order by OrderID, or by OrderNumber when no id is given.
type StatusInput struct {
	OrderID     string       `json:"orderId"`
	OrderNumber string       `json:"orderNumber"`
	Status      model.Status `json:"status"`
}

func (c CartItem) item() model.Item {
	return model.Item{
		MenuItemID: c.MenuItemID,
		Name:       c.Name,
		Quantity:   c.Quantity,
		Price:      c.Price,
	}
}

func validItem(it model.Item) bool {
	return it.Name != "" && it.Quantity > 0 && it.Price >= 0
}
