package order

import (
	"errors"

	"foodorder-be/internal/restaurant"
	"foodorder-be/internal/user"
)

var (
	ErrUnauthorized = errors.New("unauthorized")

	ErrEmptyCart         = errors.New("cart is empty")
	ErrMissingFields     = errors.New("please provide all required user info fields")
	ErrInvalidPhone      = errors.New("invalid phone number")
	ErrInvalidItem       = errors.New("items need a name, a positive quantity and a non-negative price")
	ErrInvalidOrderType  = errors.New("invalid order type")
	ErrNoValidRestaurant = errors.New("no item in the cart belongs to a known restaurant")
	ErrMissingOrderRef   = errors.New("order ID required")
	ErrEmptyItems        = errors.New("an order needs at least one item")
	ErrNothingToEdit     = errors.New("nothing to update")
	ErrInvalidStatus     = errors.New("invalid order status")

	ErrOrderNotFound        = errors.New("order not found")
	ErrUserNotFound         = user.ErrNotFound
	ErrEmailTaken           = user.ErrEmailTaken
	ErrRestaurantNotFound   = restaurant.ErrNotFound
	ErrAmbiguousOrderNumber = errors.New("order number matches more than one order, use the order ID")

	ErrCannotCancel      = errors.New("only pending orders can be cancelled")
	ErrCannotEdit        = errors.New("only pending or accepted orders can be edited")
	ErrInvalidTransition = errors.New("order status cannot change that way")

	ErrTwinNotFound = errors.New("twin order record not found")
)
