package notion

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"concierge/internal/memory"
	"concierge/internal/store"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

type fakeCustomers struct {
	customer store.Customer
	err      error
	pageID   string
}

func (f *fakeCustomers) GetCustomer(ctx context.Context, id uint64) (store.Customer, error) {
	return f.customer, f.err
}

func (f *fakeCustomers) SetNotionPageID(ctx context.Context, customerID uint64, pageID string) error {
	f.pageID = pageID
	return nil
}

type fakeMemories struct {
	memories []memory.Memory
}

func (f *fakeMemories) List(ctx context.Context, customerID uint64, opts memory.ListOptions) ([]memory.Memory, error) {
	return f.memories, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSyncCustomerCreatesPage(t *testing.T) {
	var method, path string
	var payload map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.Equal(t, "2022-06-28", r.Header.Get("Notion-Version"))

		method, path = r.Method, r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "page-1"})
	}))
	defer srv.Close()

	last := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	customers := &fakeCustomers{customer: store.Customer{
		ID:              5,
		Email:           "ana@example.com",
		Name:            "Ana",
		Status:          "vip",
		Tags:            pq.StringArray{"repeat-buyer"},
		LastInteraction: &last,
	}}
	memories := &fakeMemories{memories: []memory.Memory{
		{Key: "base_type", Value: "lace"},
	}}

	c := New("tok", "db-1", customers, memories, discardLogger())
	c.BaseURL = srv.URL

	require.True(t, c.SyncCustomer(context.Background(), 5))
	require.Equal(t, http.MethodPost, method)
	require.Equal(t, "/v1/pages", path)
	// the new page id is written back to the customer row
	require.Equal(t, "page-1", customers.pageID)

	require.Equal(t, "db-1", payload["parent"].(map[string]any)["database_id"])
	props := payload["properties"].(map[string]any)
	require.Equal(t, "ana@example.com", props["Email"].(map[string]any)["email"])
	require.Equal(t, true, props["VIP"].(map[string]any)["checkbox"])

	tags := props["Tags"].(map[string]any)["multi_select"].([]any)
	require.Len(t, tags, 1)
	require.Equal(t, "repeat-buyer", tags[0].(map[string]any)["name"])

	insights := props["AI Insights"].(map[string]any)["rich_text"].([]any)
	require.Contains(t, insights[0].(map[string]any)["text"].(map[string]any)["content"], "base_type: lace")
}

func TestSyncCustomerUpdatesExistingPage(t *testing.T) {
	var method, path string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "page-1"})
	}))
	defer srv.Close()

	customers := &fakeCustomers{customer: store.Customer{
		ID: 5, Email: "ana@example.com", NotionPageID: "page-1",
	}}

	c := New("tok", "db-1", customers, &fakeMemories{}, discardLogger())
	c.BaseURL = srv.URL

	require.True(t, c.SyncCustomer(context.Background(), 5))
	require.Equal(t, http.MethodPatch, method)
	require.Equal(t, "/v1/pages/page-1", path)
	// no backfill on update
	require.Empty(t, customers.pageID)
}

func TestSyncCustomerDisabled(t *testing.T) {
	c := New("", "", &fakeCustomers{}, &fakeMemories{}, discardLogger())
	require.False(t, c.SyncCustomer(context.Background(), 1))
}

func TestSyncCustomerUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New("tok", "db-1", &fakeCustomers{customer: store.Customer{ID: 1, Email: "a@b.c"}},
		&fakeMemories{}, discardLogger())
	c.BaseURL = srv.URL

	require.False(t, c.SyncCustomer(context.Background(), 1))
}

func TestSyncCustomerMissingCustomer(t *testing.T) {
	c := New("tok", "db-1", &fakeCustomers{err: store.ErrNotFound}, &fakeMemories{}, discardLogger())
	c.BaseURL = "http://127.0.0.1:1"

	require.False(t, c.SyncCustomer(context.Background(), 99))
}

func TestBuildPropertiesDefaults(t *testing.T) {
	props := buildProperties(store.Customer{Email: "a@b.c"}, nil)

	title := props["Name"].(map[string]any)["title"].([]map[string]any)
	require.Equal(t, "Unknown", title[0]["text"].(map[string]any)["content"])
	require.NotContains(t, props, "VIP")
	require.NotContains(t, props, "Tags")
	require.NotContains(t, props, "AI Insights")
	require.NotContains(t, props, "Last Contact")
}
