package handler

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"concierge/internal/memory"
	"concierge/internal/store"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// AdminHandler serves the read-only dashboard queries.
type AdminHandler struct {
	DB       *gorm.DB
	Memories *memory.Store
}

type dashboardStats struct {
	TotalCustomers      int64 `json:"total_customers"`
	NewCustomersWeek    int64 `json:"new_customers_week"`
	TotalConversations  int64 `json:"total_conversations"`
	ActiveConversations int64 `json:"active_conversations"`
	TotalMessages       int64 `json:"total_messages"`
	TotalTickets        int64 `json:"total_tickets"`
	OpenTickets         int64 `json:"open_tickets"`
}

type recentActivityRow struct {
	ID            uint64    `json:"id"`
	SessionID     string    `json:"session_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	StartedAt     time.Time `json:"timestamp"`
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	db := h.DB.WithContext(r.Context())
	weekAgo := time.Now().AddDate(0, 0, -7)

	var stats dashboardStats
	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&stats.TotalCustomers, db.Model(&store.Customer{})},
		{&stats.NewCustomersWeek, db.Model(&store.Customer{}).Where("created_at > ?", weekAgo)},
		{&stats.TotalConversations, db.Model(&store.Conversation{})},
		{&stats.ActiveConversations, db.Model(&store.Conversation{}).Where("status = ?", "active")},
		{&stats.TotalMessages, db.Model(&store.Message{})},
		{&stats.TotalTickets, db.Model(&store.SupportTicket{})},
		{&stats.OpenTickets, db.Model(&store.SupportTicket{}).Where("status = ?", "open")},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
	}

	var recent []recentActivityRow
	err := db.Raw(`
		select conv.id, conv.session_id, conv.started_at,
		       cu.name as customer_name, cu.email as customer_email
		from conversations conv
		join customers cu on conv.customer_id = cu.id
		order by conv.started_at desc
		limit 10
	`).Scan(&recent).Error
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"stats":          stats,
		"recentActivity": recent,
	})
}

type conversationRow struct {
	ID            uint64     `json:"id"`
	SessionID     string     `json:"session_id"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at"`
	Status        string     `json:"status"`
	Channel       string     `json:"channel"`
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email"`
	MessageCount  int64      `json:"message_count"`
}

func (h *AdminHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	db := h.DB.WithContext(r.Context())

	var rows []conversationRow
	err := db.Raw(`
		select conv.id, conv.session_id, conv.started_at, conv.ended_at, conv.status, conv.channel,
		       cu.name as customer_name, cu.email as customer_email,
		       (select count(*) from messages where conversation_id = conv.id) as message_count
		from conversations conv
		join customers cu on conv.customer_id = cu.id
		order by conv.started_at desc
		limit ? offset ?
	`, limit, (page-1)*limit).Scan(&rows).Error
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	var total int64
	if err := db.Model(&store.Conversation{}).Count(&total).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"conversations": rows,
		"pagination":    paginationMeta(page, limit, total),
	})
}

func (h *AdminHandler) ConversationDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	db := h.DB.WithContext(r.Context())

	var conv store.Conversation
	if err := db.First(&conv, id).Error; err != nil {
		http.Error(w, "conversation not found", http.StatusNotFound)
		return
	}

	var customer store.Customer
	if err := db.First(&customer, conv.CustomerID).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	var messages []store.Message
	err = db.Where("conversation_id = ?", id).
		Order("created_at asc").Order("id asc").
		Find(&messages).Error
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"conversation": conv,
		"customer":     customer,
		"messages":     messages,
	})
}

type customerRow struct {
	store.Customer
	ConversationCount int64 `json:"conversation_count"`
	MemoryCount       int64 `json:"memory_count"`
}

func (h *AdminHandler) Customers(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	db := h.DB.WithContext(r.Context())

	var rows []customerRow
	err := db.Raw(`
		select cu.*,
		       (select count(*) from conversations where customer_id = cu.id) as conversation_count,
		       (select count(*) from customer_memory where customer_id = cu.id and is_active = ?) as memory_count
		from customers cu
		order by cu.last_interaction desc nulls last, cu.created_at desc
		limit ? offset ?
	`, true, limit, (page-1)*limit).Scan(&rows).Error
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	var total int64
	if err := db.Model(&store.Customer{}).Count(&total).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"customers":  rows,
		"pagination": paginationMeta(page, limit, total),
	})
}

func (h *AdminHandler) CustomerDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	db := h.DB.WithContext(r.Context())

	var customer store.Customer
	if err := db.First(&customer, id).Error; err != nil {
		http.Error(w, "customer not found", http.StatusNotFound)
		return
	}

	memories, err := h.Memories.List(r.Context(), id, memory.ListOptions{ActiveOnly: true})
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	var conversations []conversationRow
	err = db.Raw(`
		select conv.id, conv.session_id, conv.started_at, conv.ended_at, conv.status, conv.channel,
		       (select count(*) from messages where conversation_id = conv.id) as message_count
		from conversations conv
		where conv.customer_id = ?
		order by conv.started_at desc
		limit 10
	`, id).Scan(&conversations).Error
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"customer":      customer,
		"memories":      memories,
		"conversations": conversations,
	})
}

type trendRow struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type topCustomerRow struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	ConversationCount int64  `json:"conversation_count"`
}

func (h *AdminHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	window := 7 * 24 * time.Hour
	switch strings.TrimSpace(r.URL.Query().Get("range")) {
	case "24hours":
		window = 24 * time.Hour
	case "30days":
		window = 30 * 24 * time.Hour
	}
	cutoff := time.Now().Add(-window)
	db := h.DB.WithContext(r.Context())

	var convTrends []trendRow
	err := db.Raw(`
		select date(started_at) as date, count(*) as count
		from conversations
		where started_at > ?
		group by date(started_at)
		order by date asc
	`, cutoff).Scan(&convTrends).Error
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	var msgTrends []trendRow
	err = db.Raw(`
		select date(created_at) as date, count(*) as count
		from messages
		where created_at > ?
		group by date(created_at)
		order by date asc
	`, cutoff).Scan(&msgTrends).Error
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	var top []topCustomerRow
	err = db.Raw(`
		select cu.name, cu.email, count(conv.id) as conversation_count
		from customers cu
		join conversations conv on cu.id = conv.customer_id
		where conv.started_at > ?
		group by cu.id, cu.name, cu.email
		order by conversation_count desc
		limit 10
	`, cutoff).Scan(&top).Error
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"conversationTrends": convTrends,
		"messageTrends":      msgTrends,
		"topCustomers":       top,
	})
}

type ticketRow struct {
	store.SupportTicket
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
}

func (h *AdminHandler) Tickets(w http.ResponseWriter, r *http.Request) {
	var rows []ticketRow
	err := h.DB.WithContext(r.Context()).Raw(`
		select t.*, cu.name as customer_name, cu.email as customer_email
		from support_tickets t
		join customers cu on t.customer_id = cu.id
		order by t.created_at desc
		limit 50
	`).Scan(&rows).Error
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"tickets": rows})
}

func pagination(r *http.Request) (page, limit int) {
	page, limit = 1, 20
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	return page, limit
}

func paginationMeta(page, limit int, total int64) map[string]any {
	return map[string]any{
		"page":       page,
		"limit":      limit,
		"total":      total,
		"totalPages": int(math.Ceil(float64(total) / float64(limit))),
	}
}
