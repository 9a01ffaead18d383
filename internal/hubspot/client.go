package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.hubapi.com"

// contact-to-ticket association, HubSpot-defined
const ticketAssociationTypeID = 16

type TicketRequest struct {
	Subject       string
	Description   string
	CustomerEmail string
	CustomerName  string
	Priority      string // defaults to MEDIUM
	TicketType    string // defaults to GENERAL_INQUIRY
}

type TicketResult struct {
	Success   bool
	TicketID  string
	ContactID string
	TicketURL string
}

// Client opens support tickets in HubSpot. It never returns errors to
// callers: a missing API key or an unreachable API yields Success=false.
type Client struct {
	BaseURL  string
	apiKey   string
	portalID string
	http     *http.Client
	logger   *slog.Logger
}

func New(apiKey, portalID string, logger *slog.Logger) *Client {
	return &Client{
		BaseURL:  defaultBaseURL,
		apiKey:   apiKey,
		portalID: portalID,
		http:     &http.Client{Timeout: 15 * time.Second},
		logger:   logger.With(slog.String("service", "hubspot")),
	}
}

func (c *Client) enabled() bool { return c.apiKey != "" }

// CreateTicket finds or creates the contact for the customer email, then
// opens a ticket associated with it.
func (c *Client) CreateTicket(ctx context.Context, req TicketRequest) TicketResult {
	if !c.enabled() {
		c.logger.Warn("api key not configured, ticket not created")
		return TicketResult{}
	}

	if req.Priority == "" {
		req.Priority = "MEDIUM"
	}
	if req.TicketType == "" {
		req.TicketType = "GENERAL_INQUIRY"
	}

	contactID, err := c.findOrCreateContact(ctx, req.CustomerEmail, req.CustomerName)
	if err != nil {
		c.logger.Error("failed to resolve contact", slog.Any("error", err))
		return TicketResult{}
	}

	payload := map[string]any{
		"properties": map[string]any{
			"subject":            req.Subject,
			"content":            req.Description,
			"hs_pipeline":        "0",
			"hs_pipeline_stage":  "1",
			"hs_ticket_priority": req.Priority,
			"hs_ticket_category": req.TicketType,
		},
		"associations": []map[string]any{
			{
				"to": map[string]any{"id": contactID},
				"types": []map[string]any{
					{
						"associationCategory": "HUBSPOT_DEFINED",
						"associationTypeId":   ticketAssociationTypeID,
					},
				},
			},
		},
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/crm/v3/objects/tickets", payload, &created); err != nil {
		c.logger.Error("failed to create ticket", slog.Any("error", err))
		return TicketResult{}
	}

	res := TicketResult{Success: true, TicketID: created.ID, ContactID: contactID}
	if c.portalID != "" {
		res.TicketURL = fmt.Sprintf("https://app.hubspot.com/contacts/%s/ticket/%s", c.portalID, created.ID)
	}
	return res
}

func (c *Client) findOrCreateContact(ctx context.Context, email, name string) (string, error) {
	search := map[string]any{
		"filterGroups": []map[string]any{
			{
				"filters": []map[string]any{
					{"propertyName": "email", "operator": "EQ", "value": email},
				},
			},
		},
	}

	var found struct {
		Results []struct {
			ID string `json:"id"`
		} `json:"results"`
	}
	if err := c.post(ctx, "/crm/v3/objects/contacts/search", search, &found); err == nil && len(found.Results) > 0 {
		return found.Results[0].ID, nil
	}

	firstName, lastName := splitName(name)
	create := map[string]any{
		"properties": map[string]any{
			"email":     email,
			"firstname": firstName,
			"lastname":  lastName,
		},
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/crm/v3/objects/contacts", create, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("hubspot api status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
