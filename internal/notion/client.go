package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"concierge/internal/memory"
	"concierge/internal/store"
)

const (
	defaultBaseURL = "https://api.notion.com"
	apiVersion     = "2022-06-28"
)

type customerSource interface {
	GetCustomer(ctx context.Context, id uint64) (store.Customer, error)
	SetNotionPageID(ctx context.Context, customerID uint64, pageID string) error
}

type memorySource interface {
	List(ctx context.Context, customerID uint64, opts memory.ListOptions) ([]memory.Memory, error)
}

// Client mirrors customer records into a Notion database. Sync is
// best-effort; failures are logged and reported as false, never as errors.
type Client struct {
	BaseURL    string
	token      string
	databaseID string
	customers  customerSource
	memories   memorySource
	http       *http.Client
	logger     *slog.Logger
}

func New(token, databaseID string, customers customerSource, memories memorySource, logger *slog.Logger) *Client {
	return &Client{
		BaseURL:    defaultBaseURL,
		token:      token,
		databaseID: databaseID,
		customers:  customers,
		memories:   memories,
		http:       &http.Client{Timeout: 15 * time.Second},
		logger:     logger.With(slog.String("service", "notion")),
	}
}

func (c *Client) enabled() bool { return c.token != "" && c.databaseID != "" }

// SyncCustomer upserts the customer's Notion page, keyed by the page id
// stored on the customer row. The first sync creates the page and backfills
// that id.
func (c *Client) SyncCustomer(ctx context.Context, customerID uint64) bool {
	if !c.enabled() {
		return false
	}

	customer, err := c.customers.GetCustomer(ctx, customerID)
	if err != nil {
		c.logger.Error("customer not found for sync",
			slog.Uint64("customer_id", customerID), slog.Any("error", err))
		return false
	}

	memories, err := c.memories.List(ctx, customerID, memory.ListOptions{ActiveOnly: true})
	if err != nil {
		c.logger.Error("failed to load memories for sync", slog.Any("error", err))
		return false
	}

	props := buildProperties(customer, memories)

	if customer.NotionPageID != "" {
		if err := c.updatePage(ctx, customer.NotionPageID, props); err != nil {
			c.logger.Error("failed to update page", slog.Any("error", err))
			return false
		}
		return true
	}

	pageID, err := c.createPage(ctx, props)
	if err != nil {
		c.logger.Error("failed to create page", slog.Any("error", err))
		return false
	}
	if err := c.customers.SetNotionPageID(ctx, customerID, pageID); err != nil {
		c.logger.Error("failed to store page id", slog.Any("error", err))
	}
	return true
}

func buildProperties(customer store.Customer, memories []memory.Memory) map[string]any {
	name := customer.Name
	if name == "" {
		name = "Unknown"
	}

	props := map[string]any{
		"Name": map[string]any{
			"title": []map[string]any{
				{"text": map[string]any{"content": name}},
			},
		},
		"Email": map[string]any{"email": customer.Email},
	}

	if customer.Phone != "" {
		props["Phone"] = map[string]any{"phone_number": customer.Phone}
	}
	if customer.Status == "vip" {
		props["VIP"] = map[string]any{"checkbox": true}
	}
	if customer.LastInteraction != nil {
		props["Last Contact"] = map[string]any{
			"date": map[string]any{"start": customer.LastInteraction.Format(time.RFC3339)},
		}
	}
	if len(customer.Tags) > 0 {
		options := make([]map[string]any, 0, len(customer.Tags))
		for _, t := range customer.Tags {
			options = append(options, map[string]any{"name": t})
		}
		props["Tags"] = map[string]any{"multi_select": options}
	}

	if len(memories) > 0 {
		insights := ""
		for i, m := range memories {
			if i > 0 {
				insights += "\n"
			}
			insights += m.Key + ": " + m.Value
		}
		if len(insights) > 2000 {
			insights = insights[:2000]
		}
		props["AI Insights"] = map[string]any{
			"rich_text": []map[string]any{
				{"text": map[string]any{"content": insights}},
			},
		}
	}

	return props
}

func (c *Client) createPage(ctx context.Context, props map[string]any) (string, error) {
	payload := map[string]any{
		"parent":     map[string]any{"database_id": c.databaseID},
		"properties": props,
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/pages", payload, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (c *Client) updatePage(ctx context.Context, pageID string, props map[string]any) error {
	payload := map[string]any{"properties": props}
	return c.do(ctx, http.MethodPatch, "/v1/pages/"+pageID, payload, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", apiVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notion api status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
