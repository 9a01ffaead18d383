package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"concierge/internal/memory"
	"concierge/internal/store"

	"github.com/glebarez/sqlite"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testAdmin(t *testing.T) (*AdminHandler, *store.Store) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&store.Customer{}, &store.Conversation{}, &store.Message{},
		&store.SupportTicket{}, &store.AnalyticsEvent{}, &memory.Memory{},
	))
	return &AdminHandler{DB: gdb, Memories: &memory.Store{DB: gdb}}, &store.Store{DB: gdb}
}

func seedConversation(t *testing.T, repo *store.Store, email, session string, messages int) (store.Customer, store.Conversation) {
	t.Helper()
	ctx := context.Background()
	customer, _, err := repo.GetOrCreateCustomer(ctx, email, "Ana")
	require.NoError(t, err)
	conv, err := repo.GetOrCreateConversation(ctx, session, customer.ID)
	require.NoError(t, err)
	for i := 0; i < messages; i++ {
		role := store.RoleUser
		if i%2 == 1 {
			role = store.RoleAssistant
		}
		_, err := repo.AppendMessage(ctx, conv.ID, role, "message")
		require.NoError(t, err)
	}
	return customer, conv
}

func getJSON(t *testing.T, h http.HandlerFunc, target string) map[string]any {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestAdminStats(t *testing.T) {
	h, repo := testAdmin(t)
	seedConversation(t, repo, "ana@example.com", "s1", 4)
	seedConversation(t, repo, "bob@example.com", "s2", 2)

	resp := getJSON(t, h.Stats, "/api/admin/stats")

	stats := resp["stats"].(map[string]any)
	require.EqualValues(t, 2, stats["total_customers"])
	require.EqualValues(t, 2, stats["new_customers_week"])
	require.EqualValues(t, 2, stats["total_conversations"])
	require.EqualValues(t, 2, stats["active_conversations"])
	require.EqualValues(t, 6, stats["total_messages"])
	require.EqualValues(t, 0, stats["total_tickets"])

	recent := resp["recentActivity"].([]any)
	require.Len(t, recent, 2)
	emails := map[string]bool{}
	for _, row := range recent {
		emails[row.(map[string]any)["customer_email"].(string)] = true
	}
	require.True(t, emails["ana@example.com"])
	require.True(t, emails["bob@example.com"])
}

func TestAdminConversations(t *testing.T) {
	h, repo := testAdmin(t)
	seedConversation(t, repo, "ana@example.com", "s1", 3)

	resp := getJSON(t, h.Conversations, "/api/admin/conversations?page=1&limit=10")

	rows := resp["conversations"].([]any)
	require.Len(t, rows, 1)
	row := rows[0].(map[string]any)
	require.Equal(t, "s1", row["session_id"])
	require.EqualValues(t, 3, row["message_count"])
	require.Equal(t, "ana@example.com", row["customer_email"])

	meta := resp["pagination"].(map[string]any)
	require.EqualValues(t, 1, meta["total"])
	require.EqualValues(t, 1, meta["totalPages"])
}

func TestAdminConversationDetail(t *testing.T) {
	h, repo := testAdmin(t)
	_, conv := seedConversation(t, repo, "ana@example.com", "s1", 2)

	r := withURLParam(httptest.NewRequest(http.MethodGet, "/api/admin/conversations/1", nil), "id", "1")
	w := httptest.NewRecorder()
	h.ConversationDetail(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.EqualValues(t, conv.ID, resp["conversation"].(map[string]any)["ID"])
	require.Len(t, resp["messages"].([]any), 2)
}

func TestAdminConversationDetailNotFound(t *testing.T) {
	h, _ := testAdmin(t)

	r := withURLParam(httptest.NewRequest(http.MethodGet, "/api/admin/conversations/99", nil), "id", "99")
	w := httptest.NewRecorder()
	h.ConversationDetail(w, r)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminCustomers(t *testing.T) {
	h, repo := testAdmin(t)
	customer, _ := seedConversation(t, repo, "ana@example.com", "s1", 2)
	require.NoError(t, h.Memories.Upsert(context.Background(), customer.ID,
		memory.TypePreference, "base_type", "lace", memory.UpsertOptions{}))

	resp := getJSON(t, h.Customers, "/api/admin/customers")

	rows := resp["customers"].([]any)
	require.Len(t, rows, 1)
	row := rows[0].(map[string]any)
	require.EqualValues(t, 1, row["conversation_count"])
	require.EqualValues(t, 1, row["memory_count"])
}

func TestAdminCustomerDetail(t *testing.T) {
	h, repo := testAdmin(t)
	customer, _ := seedConversation(t, repo, "ana@example.com", "s1", 2)
	require.NoError(t, h.Memories.Upsert(context.Background(), customer.ID,
		memory.TypeGoal, "timeline", "before June", memory.UpsertOptions{}))

	r := withURLParam(httptest.NewRequest(http.MethodGet, "/api/admin/customers/1", nil), "id", "1")
	w := httptest.NewRecorder()
	h.CustomerDetail(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp["memories"].([]any), 1)
	require.Len(t, resp["conversations"].([]any), 1)
}

func TestAdminAnalytics(t *testing.T) {
	h, repo := testAdmin(t)
	seedConversation(t, repo, "ana@example.com", "s1", 4)
	seedConversation(t, repo, "ana@example.com", "s2", 2)

	resp := getJSON(t, h.Analytics, "/api/admin/analytics?range=7days")

	trends := resp["conversationTrends"].([]any)
	require.Len(t, trends, 1)
	require.EqualValues(t, 2, trends[0].(map[string]any)["count"])

	top := resp["topCustomers"].([]any)
	require.Len(t, top, 1)
	require.Equal(t, "ana@example.com", top[0].(map[string]any)["email"])
	require.EqualValues(t, 2, top[0].(map[string]any)["conversation_count"])
}

func TestAdminTickets(t *testing.T) {
	h, repo := testAdmin(t)
	customer, conv := seedConversation(t, repo, "ana@example.com", "s1", 0)
	require.NoError(t, h.DB.Create(&store.SupportTicket{
		CustomerID:     customer.ID,
		ConversationID: conv.ID,
		Subject:        "broken clip",
		Description:    "clip snapped off",
		Status:         "open",
	}).Error)

	resp := getJSON(t, h.Tickets, "/api/admin/tickets")

	rows := resp["tickets"].([]any)
	require.Len(t, rows, 1)
	require.Equal(t, "ana@example.com", rows[0].(map[string]any)["customer_email"])
}
