package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"concierge/internal/auth"
	"concierge/internal/chat"
	"concierge/internal/config"
	"concierge/internal/db"
	"concierge/internal/hubspot"
	httpx "concierge/internal/http"
	"concierge/internal/llm"
	"concierge/internal/maintenance"
	"concierge/internal/memory"
	"concierge/internal/notion"
	"concierge/internal/shopify"
	"concierge/internal/store"
	"concierge/internal/support"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		log.Fatal(err)
	}

	repo := &store.Store{DB: gdb}
	memories := &memory.Store{DB: gdb}
	model := llm.New(cfg.OpenAIAPIKey, cfg.ChatModel)

	catalog := shopify.New(cfg.ShopifyDomain, cfg.ShopifyAccessToken, logger)
	crm := hubspot.New(cfg.HubSpotAPIKey, cfg.HubSpotPortalID, logger)
	workspace := notion.New(cfg.NotionToken, cfg.NotionDatabaseID, repo, memories, logger)

	extractor := &memory.Extractor{
		LLM:      model,
		Memories: memories,
		Messages: repo,
		Logger:   logger.With(slog.String("service", "memory")),
	}

	chatSvc := &chat.Service{
		Store:     repo,
		Memories:  memories,
		LLM:       model,
		Catalog:   catalog,
		Orders:    catalog,
		Extractor: extractor,
		Workspace: workspace,
		Logger:    logger.With(slog.String("service", "chat")),
	}

	supportSvc := &support.Service{
		DB:     gdb,
		Store:  repo,
		CRM:    crm,
		Logger: logger.With(slog.String("service", "support")),
	}

	var adminHash string
	if cfg.AdminPassword != "" {
		adminHash, err = auth.HashPassword(cfg.AdminPassword)
		if err != nil {
			log.Fatal(err)
		}
	}

	r := httpx.NewRouter(cfg, gdb, httpx.Deps{
		Chat:              chatSvc,
		Shopify:           catalog,
		Support:           supportSvc,
		Memories:          memories,
		Sessions:          auth.NewSessions(cfg.SessionSecret),
		AdminPasswordHash: adminHash,
	})

	sweeper := &maintenance.Sweeper{
		DB:        gdb,
		Memories:  memories,
		Extractor: extractor,
		Logger:    logger.With(slog.String("service", "maintenance")),
	}

	ctx, cancel := context.WithCancel(context.Background())
	go sweeper.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", slog.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
