package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/matchacafe/api/internal/auth"
	"github.com/matchacafe/api/internal/config"
	"github.com/matchacafe/api/internal/handler"
	"github.com/matchacafe/api/internal/ledger"
	mw "github.com/matchacafe/api/internal/middleware"
	"github.com/matchacafe/api/internal/wizard"
	"github.com/matchacafe/api/internal/ws"
)

// New creates a Chi router with all application routes wired up: the
// public order wizard, the JWT-gated admin console, and the live order
// feed.
func New(cfg *config.Config, store ledger.Store, slipStore handler.SlipOpener, wiz *wizard.Wizard, sessions *wizard.Sessions, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Customer wizard (public, session cookie)
	wizardHandler := handler.NewWizardHandler(wiz, sessions, cfg.QRImage)
	wizardHandler.RegisterRoutes(r)

	// Admin login (public)
	checker := auth.NewStaticChecker(cfg.AdminPasswordHash, cfg.AdminPassword)
	authHandler := handler.NewAuthHandler(checker, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Admin console (requires authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		adminHandler := handler.NewAdminHandler(store, slipStore)
		r.Route("/admin", adminHandler.RegisterRoutes)
	})

	return r
}
