package http

import (
	"net/http"

	"concierge/internal/auth"
	"concierge/internal/chat"
	"concierge/internal/config"
	"concierge/internal/http/handler"
	mw "concierge/internal/http/middleware"
	"concierge/internal/memory"
	"concierge/internal/shopify"
	"concierge/internal/support"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

type Deps struct {
	Chat              *chat.Service
	Shopify           *shopify.Client
	Support           *support.Service
	Memories          *memory.Store
	Sessions          *auth.Sessions
	AdminPasswordHash string
}

func NewRouter(cfg config.Config, db *gorm.DB, deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	health := &handler.HealthHandler{DB: db}
	r.Get("/api/health", health.Check)

	chatH := &handler.ChatHandler{Svc: deps.Chat}
	r.Post("/api/chat", chatH.Chat)

	productsH := &handler.ProductHandler{Catalog: deps.Shopify}
	r.Get("/api/products", productsH.List)

	ordersH := &handler.OrderHandler{Tracker: deps.Shopify}
	r.Get("/api/orders/track", ordersH.Track)

	supportH := &handler.SupportHandler{Svc: deps.Support}
	r.Post("/api/support/ticket", supportH.Create)

	adminAuth := &handler.AdminAuthHandler{Sessions: deps.Sessions, PasswordHash: deps.AdminPasswordHash}
	adminH := &handler.AdminHandler{DB: db, Memories: deps.Memories}

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", adminAuth.Login)
		r.Post("/logout", adminAuth.Logout)
		r.Get("/check", adminAuth.Check)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin(deps.Sessions))

			r.Get("/stats", adminH.Stats)
			r.Get("/conversations", adminH.Conversations)
			r.Get("/conversations/{id}", adminH.ConversationDetail)
			r.Get("/customers", adminH.Customers)
			r.Get("/customers/{id}", adminH.CustomerDetail)
			r.Get("/analytics", adminH.Analytics)
			r.Get("/tickets", adminH.Tickets)
		})
	})

	return r
}
