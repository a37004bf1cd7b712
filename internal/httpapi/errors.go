package httpapi

import (
	"errors"
	"net/http"
	"unicode"
	"unicode/utf8"

	"foodorder-be/internal/chat"
	"foodorder-be/internal/logger"
	"foodorder-be/internal/order"
	"foodorder-be/internal/restaurant"
	"foodorder-be/internal/review"
	"foodorder-be/internal/user"
	"foodorder-be/internal/utils"

	"go.uber.org/zap"
)

var errStatus = []struct {
	err    error
	status int
}{
	{order.ErrUnauthorized, http.StatusUnauthorized},

	{order.ErrEmptyCart, http.StatusBadRequest},
	{order.ErrMissingFields, http.StatusBadRequest},
	{order.ErrInvalidPhone, http.StatusBadRequest},
	{order.ErrInvalidItem, http.StatusBadRequest},
	{order.ErrInvalidOrderType, http.StatusBadRequest},
	{order.ErrNoValidRestaurant, http.StatusBadRequest},
	{order.ErrMissingOrderRef, http.StatusBadRequest},
	{order.ErrEmptyItems, http.StatusBadRequest},
	{order.ErrNothingToEdit, http.StatusBadRequest},
	{order.ErrInvalidStatus, http.StatusBadRequest},
	{order.ErrAmbiguousOrderNumber, http.StatusBadRequest},
	{order.ErrCannotCancel, http.StatusBadRequest},
	{order.ErrCannotEdit, http.StatusBadRequest},
	{order.ErrInvalidTransition, http.StatusBadRequest},
	{review.ErrMissingFields, http.StatusBadRequest},
	{review.ErrInvalidRating, http.StatusBadRequest},
	{chat.ErrEmptyMessage, http.StatusBadRequest},

	{order.ErrEmailTaken, http.StatusConflict},

	{order.ErrOrderNotFound, http.StatusNotFound},
	{user.ErrNotFound, http.StatusNotFound},
	{restaurant.ErrNotFound, http.StatusNotFound},
	{review.ErrMenuItemNotFound, http.StatusNotFound},
}

// writeError maps a service error to its status and message. Anything not
// known is a 500 with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range errStatus {
		if errors.Is(err, e.err) {
			utils.WriteMessage(w, e.status, sentence(e.err.Error()))
			return
		}
	}

	logger.FromCtx(r.Context()).Error("request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	utils.WriteMessage(w, http.StatusInternalServerError, "Server error")
}

func sentence(s string) string {
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + s[size:]
}
