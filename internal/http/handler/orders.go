package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"concierge/internal/shopify"
)

type orderTracker interface {
	TrackOrder(ctx context.Context, identifier string) []shopify.Order
}

type OrderHandler struct {
	Tracker orderTracker
}

func (h *OrderHandler) Track(w http.ResponseWriter, r *http.Request) {
	identifier := strings.TrimSpace(r.URL.Query().Get("identifier"))
	if identifier == "" {
		http.Error(w, "order number or email required", http.StatusBadRequest)
		return
	}

	orders := h.Tracker.TrackOrder(r.Context(), identifier)
	if len(orders) == 0 {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"orders": orders})
}
