package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"foodorder-be/internal/chat"
	"foodorder-be/internal/order"
	"foodorder-be/internal/restaurant"
	"foodorder-be/internal/review"
	"foodorder-be/internal/utils"
)

const requestTimeout = 5 * time.Second

// Handler holds the services behind the REST routes.
type Handler struct {
	Orders      order.Service
	Restaurants restaurant.Service
	Reviews     review.Service
	Chat        *chat.Responder
}

func decode(r *http.Request, v any) bool {
	return json.NewDecoder(r.Body).Decode(v) == nil
}

func withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), requestTimeout)
}

// subject returns the authenticated id. RequireRole guarantees it is set.
func subject(r *http.Request) string {
	id, _ := utils.GetUserIDFromContext(r.Context())
	return id
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var in order.CheckoutInput
	if !decode(r, &in) {
		utils.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := withTimeout(r)
	defer cancel()

	res, err := h.Orders.Checkout(ctx, subject(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Order placed successfully",
		"orders":  res.Orders,
		"skipped": res.Skipped,
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	orders, err := h.Orders.ListUserOrders(ctx, subject(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OrderID string `json:"orderId"`
	}
	if !decode(r, &body) {
		utils.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := withTimeout(r)
	defer cancel()

	o, err := h.Orders.Cancel(ctx, subject(r), body.OrderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Order cancelled successfully",
		"order":   o,
	})
}

func (h *Handler) editOrder(w http.ResponseWriter, r *http.Request) {
	var in order.EditInput
	if !decode(r, &in) {
		utils.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := withTimeout(r)
	defer cancel()

	o, err := h.Orders.Edit(ctx, subject(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Order updated successfully",
		"order":   o,
	})
}

func (h *Handler) restaurantOrders(w http.ResponseWriter, r *http.Request) {
	statuses := r.URL.Query()["status"]
	if len(statuses) > 1 {
		writeError(w, r, order.ErrInvalidStatus)
		return
	}
	status := ""
	if len(statuses) == 1 {
		status = statuses[0]
	}

	ctx, cancel := withTimeout(r)
	defer cancel()

	orders, err := h.Orders.ListRestaurantOrders(ctx, subject(r), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var in order.StatusInput
	if !decode(r, &in) {
		utils.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := withTimeout(r)
	defer cancel()

	o, err := h.Orders.UpdateStatus(ctx, subject(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Order " + string(o.Status),
		"order":   o,
	})
}

func (h *Handler) restaurantProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	rest, err := h.Restaurants.Profile(ctx, subject(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"restaurant": rest})
}

func (h *Handler) restaurantStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	st, err := h.Restaurants.Stats(ctx, subject(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"stats": st})
}

func (h *Handler) topProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	products, err := h.Restaurants.TopProducts(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handler) rate(menuItem bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in review.Input
		if !decode(r, &in) {
			utils.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		in.UserID = subject(r)
		in.DisplayName = utils.GetUserNameFromContext(r.Context())

		ctx, cancel := withTimeout(r)
		defer cancel()

		rate := h.Reviews.RateRestaurant
		if menuItem {
			rate = h.Reviews.RateMenuItem
		}
		reviews, err := rate(ctx, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		utils.WriteJSON(w, http.StatusOK, map[string]any{
			"message": "Review saved",
			"reviews": reviews,
		})
	}
}

func (h *Handler) chatbot(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if !decode(r, &body) {
		utils.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := withTimeout(r)
	defer cancel()

	reply, err := h.Chat.Reply(ctx, body.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func health(ping func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
