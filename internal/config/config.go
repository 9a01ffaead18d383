package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries everything read from the environment at startup.
// Only the database and session secret are mandatory; each third-party
// integration degrades to a no-op when its credentials are absent.
type Config struct {
	HTTPAddr             string
	DatabaseURL          string
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	OpenAIAPIKey string
	ChatModel    string

	ShopifyDomain      string
	ShopifyAccessToken string

	HubSpotAPIKey   string
	HubSpotPortalID string

	NotionToken      string
	NotionDatabaseID string

	AdminPassword string
	SessionSecret string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getenv("DATABASE_URL", ""),
		CORSAllowCredentials: getenv("CORS_ALLOW_CREDENTIALS", "true") == "true",

		OpenAIAPIKey: getenv("OPENAI_API_KEY", ""),
		ChatModel:    getenv("CHAT_MODEL", "gpt-4o"),

		ShopifyDomain:      getenv("SHOPIFY_DOMAIN", ""),
		ShopifyAccessToken: getenv("SHOPIFY_ACCESS_TOKEN", ""),

		HubSpotAPIKey:   getenv("HUBSPOT_API_KEY", ""),
		HubSpotPortalID: getenv("HUBSPOT_PORTAL_ID", ""),

		NotionToken:      getenv("NOTION_TOKEN", ""),
		NotionDatabaseID: getenv("NOTION_DATABASE_ID", ""),

		AdminPassword: getenv("ADMIN_PASSWORD", ""),
		SessionSecret: getenv("SESSION_SECRET", ""),
	}

	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SessionSecret == "" {
		return cfg, fmt.Errorf("SESSION_SECRET is required")
	}

	origins := strings.Split(getenv("CORS_ALLOWED_ORIGINS", ""), ",")
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	return cfg, nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
