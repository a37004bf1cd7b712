package review

import "errors"

var (
	ErrMissingFields    = errors.New("missing required fields")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrMenuItemNotFound = errors.New("menu item not found")
)
