package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"concierge/internal/shopify"
)

type catalog interface {
	FetchProducts(ctx context.Context, limit int) []shopify.Product
	SearchProducts(ctx context.Context, query string) []shopify.Product
}

type ProductHandler struct {
	Catalog catalog
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 250 {
			limit = n
		}
	}

	var products []shopify.Product
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		products = h.Catalog.SearchProducts(r.Context(), q)
	} else {
		products = h.Catalog.FetchProducts(r.Context(), limit)
	}
	if products == nil {
		products = []shopify.Product{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"products": products})
}
