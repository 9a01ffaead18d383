package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const apiVersion = "2024-01"

type Product struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Handle      string   `json:"handle"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	Available   bool     `json:"available"`
	ProductType string   `json:"productType"`
	Tags        []string `json:"tags"`
	URL         string   `json:"url"`
	ImageURL    string   `json:"imageUrl"`
}

type OrderItem struct {
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

type Order struct {
	OrderNumber     string      `json:"orderNumber"`
	OrderDate       string      `json:"orderDate"`
	Status          string      `json:"status"`
	FinancialStatus string      `json:"financialStatus"`
	Total           string      `json:"total"`
	Currency        string      `json:"currency"`
	TrackingNumber  string      `json:"trackingNumber,omitempty"`
	TrackingURL     string      `json:"trackingUrl,omitempty"`
	Items           []OrderItem `json:"items"`
}

// Client reads products and orders from the Shopify admin API. Every method
// is best-effort: upstream failures degrade to empty results, never errors.
type Client struct {
	// BaseURL overrides the store's admin API origin. Empty means
	// https://<domain>.
	BaseURL string

	domain string
	token  string
	http   *http.Client
	logger *slog.Logger
}

func New(domain, token string, logger *slog.Logger) *Client {
	return &Client{
		domain: domain,
		token:  token,
		http:   &http.Client{Timeout: 15 * time.Second},
		logger: logger.With(slog.String("service", "shopify")),
	}
}

func (c *Client) enabled() bool { return c.domain != "" && c.token != "" }

func (c *Client) origin() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return "https://" + c.domain
}

// wire format of the admin API, only the fields we read
type apiProduct struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Handle      string `json:"handle"`
	BodyHTML    string `json:"body_html"`
	ProductType string `json:"product_type"`
	Tags        string `json:"tags"`
	Variants    []struct {
		Price             string `json:"price"`
		InventoryQuantity int    `json:"inventory_quantity"`
	} `json:"variants"`
	Images []struct {
		Src string `json:"src"`
	} `json:"images"`
}

type apiOrder struct {
	Name              string `json:"name"`
	CreatedAt         string `json:"created_at"`
	FulfillmentStatus string `json:"fulfillment_status"`
	FinancialStatus   string `json:"financial_status"`
	TotalPrice        string `json:"total_price"`
	Currency          string `json:"currency"`
	Fulfillments      []struct {
		TrackingNumber string `json:"tracking_number"`
		TrackingURL    string `json:"tracking_url"`
	} `json:"fulfillments"`
	LineItems []struct {
		Title    string `json:"title"`
		Quantity int    `json:"quantity"`
		Price    string `json:"price"`
	} `json:"line_items"`
}

// FetchProducts pulls up to limit products, normalized for prompt injection.
func (c *Client) FetchProducts(ctx context.Context, limit int) []Product {
	if !c.enabled() {
		return nil
	}
	if limit <= 0 {
		limit = 50
	}

	var payload struct {
		Products []apiProduct `json:"products"`
	}
	endpoint := fmt.Sprintf("%s/admin/api/%s/products.json?limit=%d", c.origin(), apiVersion, limit)
	if err := c.get(ctx, endpoint, &payload); err != nil {
		c.logger.Error("failed to fetch products", slog.Any("error", err))
		return nil
	}

	out := make([]Product, 0, len(payload.Products))
	for _, p := range payload.Products {
		out = append(out, c.normalizeProduct(p))
	}
	return out
}

// SearchProducts filters the catalog by a case-insensitive substring over
// title, description, tags and product type.
func (c *Client) SearchProducts(ctx context.Context, query string) []Product {
	all := c.FetchProducts(ctx, 250)
	query = strings.ToLower(query)

	var out []Product
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Title), query) ||
			strings.Contains(strings.ToLower(p.Description), query) ||
			strings.Contains(strings.ToLower(p.ProductType), query) ||
			tagsMatch(p.Tags, query) {
			out = append(out, p)
		}
	}
	return out
}

// TrackOrder looks up orders by order number or, when the identifier looks
// like an email address, by customer email. Returns nil when nothing matches.
func (c *Client) TrackOrder(ctx context.Context, identifier string) []Order {
	if !c.enabled() {
		return nil
	}

	var endpoint string
	if strings.Contains(identifier, "@") {
		endpoint = fmt.Sprintf("%s/admin/api/%s/orders.json?email=%s&limit=10",
			c.origin(), apiVersion, url.QueryEscape(identifier))
	} else {
		endpoint = fmt.Sprintf("%s/admin/api/%s/orders.json?name=%s",
			c.origin(), apiVersion, url.QueryEscape(identifier))
	}

	var payload struct {
		Orders []apiOrder `json:"orders"`
	}
	if err := c.get(ctx, endpoint, &payload); err != nil {
		c.logger.Error("failed to track order", slog.Any("error", err))
		return nil
	}
	if len(payload.Orders) == 0 {
		return nil
	}

	out := make([]Order, 0, len(payload.Orders))
	for _, o := range payload.Orders {
		order := Order{
			OrderNumber:     o.Name,
			OrderDate:       o.CreatedAt,
			Status:          o.FulfillmentStatus,
			FinancialStatus: o.FinancialStatus,
			Total:           o.TotalPrice,
			Currency:        o.Currency,
		}
		if order.Status == "" {
			order.Status = "unfulfilled"
		}
		if len(o.Fulfillments) > 0 {
			order.TrackingNumber = o.Fulfillments[0].TrackingNumber
			order.TrackingURL = o.Fulfillments[0].TrackingURL
		}
		for _, li := range o.LineItems {
			order.Items = append(order.Items, OrderItem{Title: li.Title, Quantity: li.Quantity, Price: li.Price})
		}
		out = append(out, order)
	}
	return out
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Shopify-Access-Token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("shopify api status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

func (c *Client) normalizeProduct(p apiProduct) Product {
	out := Product{
		ID:          p.ID,
		Title:       p.Title,
		Handle:      p.Handle,
		ProductType: p.ProductType,
		Price:       "N/A",
		URL: fmt.Sprintf("https://%s/products/%s",
			strings.TrimSuffix(c.domain, ".myshopify.com"), p.Handle),
	}

	out.Description = truncate(htmlTagRe.ReplaceAllString(p.BodyHTML, ""), 200)

	if len(p.Variants) > 0 {
		out.Price = p.Variants[0].Price
		out.Available = p.Variants[0].InventoryQuantity > 0
	}
	if len(p.Images) > 0 {
		out.ImageURL = p.Images[0].Src
	}
	for _, t := range strings.Split(p.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out.Tags = append(out.Tags, t)
		}
	}
	return out
}

// truncate caps s at n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func tagsMatch(tags []string, query string) bool {
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), query) {
			return true
		}
	}
	return false
}
