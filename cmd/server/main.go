package main

import (
	"fmt"
	"log"
	"os"

	"github.com/groceryscout/backend/config"
	httpDelivery "github.com/groceryscout/backend/internal/delivery/http"
	"github.com/groceryscout/backend/internal/domain"
	"github.com/groceryscout/backend/internal/infrastructure/provider"
	"github.com/groceryscout/backend/internal/infrastructure/store"
	"github.com/groceryscout/backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting GroceryScout Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Store Type: %s", cfg.Store.Type)

	documents, closeStore, err := openStore(cfg.Store)
	if err != nil {
		log.Fatalf("Failed to open document store: %v", err)
	}
	defer closeStore()

	searchProvider := provider.NewClient(provider.Config{
		BaseURL:           cfg.Provider.BaseURL,
		APIKey:            cfg.Provider.APIKey,
		Model:             cfg.Provider.Model,
		Timeout:           cfg.Provider.Timeout,
		RequestsPerSecond: cfg.Provider.RequestsPerSecond,
		Burst:             cfg.Provider.Burst,
		ProductLookupURL:  cfg.Provider.ProductLookupURL,
	})

	if cfg.Server.Environment == "development" {
		searchProvider.SetDebug(true)
		log.Printf("Provider client debug mode enabled")
	}
	log.Printf("Search provider configured: %s (key: %s)", cfg.Provider.BaseURL, maskKey(cfg.Provider.APIKey))

	priceService := usecase.NewPriceService(
		documents,
		searchProvider,
		usecase.PriceServiceConfig{
			MaxEntriesPerStore: cfg.History.MaxEntriesPerStore,
			MaxDocumentBytes:   cfg.History.MaxDocumentBytes,
			SearchesPerMinute:  cfg.RateLimit.SearchesPerMinute,
			EnableDebugLogging: cfg.Matching.EnableDebugLogging,
		},
	)
	listService := usecase.NewListService(documents, nil)

	log.Printf("History: %d entries/store, %d byte ceiling; searches: %d/min per account",
		cfg.History.MaxEntriesPerStore,
		cfg.History.MaxDocumentBytes,
		cfg.RateLimit.SearchesPerMinute)

	handler := httpDelivery.NewHandler(priceService, listService)
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func openStore(cfg config.StoreConfig) (domain.DocumentStore, func(), error) {
	switch cfg.Type {
	case "mysql":
		s, err := store.NewMySQLStore(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				log.Printf("[STORE] Close error: %v", err)
			}
		}, nil
	default:
		return store.NewMemoryStore(), func() {}, nil
	}
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "..."
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
