package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/mealforge/mealforge/internal/auth"
	"github.com/mealforge/mealforge/internal/blob"
	"github.com/mealforge/mealforge/internal/catalog"
	"github.com/mealforge/mealforge/internal/config"
	"github.com/mealforge/mealforge/internal/nutrition"
	"github.com/mealforge/mealforge/internal/plans"
	"github.com/mealforge/mealforge/internal/preferences"
	"github.com/mealforge/mealforge/internal/reports"
	"github.com/mealforge/mealforge/internal/storage"
	"github.com/mealforge/mealforge/internal/storage/memory"
	"github.com/mealforge/mealforge/internal/storage/postgres"
)

// Server wires storage, blob store and feature handlers behind one mux.
type Server struct {
	config         *config.Config
	mux            *http.ServeMux
	storage        storage.Storage
	blobStore      blob.Store
	authMiddleware *auth.Middleware
}

// New creates an HTTP server with all routes registered.
func New(cfg *config.Config) *Server {
	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
	}

	s.initStorage()
	s.initBlobStore()
	s.routes()
	return s
}

// initStorage picks the storage backend: Postgres when DATABASE_URL is set,
// in-memory otherwise. A failed Postgres connection falls back to memory so
// a local server still comes up.
func (s *Server) initStorage() {
	if s.config.DatabaseURL == "" {
		log.Println("Using in-memory storage")
		s.storage = memory.New()
		return
	}

	log.Println("Connecting to PostgreSQL...")
	ctx := context.Background()
	pgStorage, err := postgres.New(ctx, s.config.DatabaseURL)
	if err != nil {
		log.Printf("PostgreSQL connection failed: %v", err)
		log.Println("Falling back to in-memory storage")
		s.storage = memory.New()
		return
	}
	log.Println("PostgreSQL connected")
	s.storage = pgStorage
}

// initBlobStore builds the blob store for catalog item images. Local mode
// keeps objects in memory.
func (s *Server) initBlobStore() {
	store, _, err := blob.NewBlobStore(s.config.Blob, log.Default())
	if err != nil {
		log.Fatalf("blob store initialization failed: %v", err)
	}
	if store == nil {
		store = blob.NewMemoryStore()
	}
	s.blobStore = store
}

// routes registers all HTTP routes.
func (s *Server) routes() {
	// Health check (no auth required)
	s.mux.HandleFunc("/healthz", s.handleHealthz)

	// Auth API (no auth required)
	authService := auth.NewService(s.config)
	authHandler := auth.NewHandlers(authService)
	s.authMiddleware = auth.NewMiddleware(s.config, authService)

	// POST /v1/auth/dev - local dev token
	s.mux.HandleFunc("POST /v1/auth/dev", authHandler.HandleDevAuth)

	// Catalog API
	catalogService := catalog.NewService(s.storage.Catalog(), s.blobStore, s.config.UploadMaxMB, s.config.UploadAllowedMime)
	catalogHandler := catalog.NewHandler(catalogService)

	s.mux.HandleFunc("GET /v1/catalog/items", catalogHandler.HandleList)
	s.mux.HandleFunc("POST /v1/catalog/items", catalogHandler.HandleUpsert)
	s.mux.HandleFunc("GET /v1/catalog/items/{id}", catalogHandler.HandleGet)
	s.mux.HandleFunc("DELETE /v1/catalog/items/{id}", catalogHandler.HandleDelete)
	s.mux.HandleFunc("POST /v1/catalog/items/{id}/image", catalogHandler.HandleUploadImage)
	s.mux.HandleFunc("GET /v1/catalog/items/{id}/image", catalogHandler.HandleDownloadImage)

	// Nutrition API: daily requirement + slot configs
	nutritionService := nutrition.NewService(s.storage.Nutrition())
	nutritionHandler := nutrition.NewHandler(nutritionService)

	s.mux.HandleFunc("GET /v1/nutrition/requirement", nutritionHandler.HandleGetRequirement)
	s.mux.HandleFunc("PUT /v1/nutrition/requirement", nutritionHandler.HandlePutRequirement)
	s.mux.HandleFunc("GET /v1/nutrition/slots", nutritionHandler.HandleListSlots)
	s.mux.HandleFunc("PUT /v1/nutrition/slots/replace", nutritionHandler.HandleReplaceSlots)

	// Preferences API
	preferencesService := preferences.NewService(s.storage.Preferences(), s.storage.Catalog())
	preferencesHandler := preferences.NewHandler(preferencesService)

	s.mux.HandleFunc("GET /v1/preferences/recent", preferencesHandler.HandleListRecent)
	s.mux.HandleFunc("POST /v1/preferences", preferencesHandler.HandleRecord)

	// Plans API: week assembly, combo candidates, slot editing
	plansService := plans.NewService(s.storage, plans.OptionsFromConfig(s.config.Planner))
	plansHandler := plans.NewHandler(plansService)

	s.mux.HandleFunc("POST /v1/plans/week/assemble", plansHandler.HandleAssembleWeek)
	s.mux.HandleFunc("GET /v1/plans/week", plansHandler.HandleGetWeek)
	s.mux.HandleFunc("DELETE /v1/plans/week", plansHandler.HandleDeleteWeek)
	s.mux.HandleFunc("POST /v1/plans/candidates", plansHandler.HandleCandidates)
	s.mux.HandleFunc("POST /v1/plans/slots/{id}/regenerate", plansHandler.HandleRegenerateSlot)
	s.mux.HandleFunc("POST /v1/plans/slots/{id}/quantity", plansHandler.HandleProposeQuantity)

	// Reports API: week plan export
	reportsHandler := reports.NewHandler(reports.NewGenerator(s.storage.WeekPlans(), s.storage.Catalog()))

	s.mux.HandleFunc("GET /v1/plans/week/export", reportsHandler.HandleExportWeek)
}

// handleHealthz reports server liveness.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	// Build middleware chain (outermost first): CORS -> Rate Limit -> Auth -> Router
	var handler http.Handler = s.mux
	if s.authMiddleware != nil && s.config.AuthMode != "none" {
		if s.config.AuthRequired {
			handler = s.authMiddleware.RequireAuth(handler)
		} else {
			handler = s.authMiddleware.OptionalAuth(handler)
		}
	}
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)

	log.Printf("Server listening on http://localhost%s\n", addr)
	log.Printf("Health check: http://localhost%s/healthz\n", addr)
	log.Printf("Catalog API: http://localhost%s/v1/catalog/items\n", addr)

	return http.ListenAndServe(addr, handler)
}

// Close releases the storage backend.
func (s *Server) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
