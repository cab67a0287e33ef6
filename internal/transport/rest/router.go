package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/eduwang/tmssr-250809/internal/cache"
	"github.com/eduwang/tmssr-250809/internal/service"
	"github.com/eduwang/tmssr-250809/internal/transport/rest/handler"
	"github.com/eduwang/tmssr-250809/internal/transport/rest/middleware"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService     *service.AuthService
	ScenarioService *service.ScenarioService
	ResponseService *service.ResponseService
	ResultService   *service.ResultService
	SettingsService *service.SettingsService
	Sessions        cache.SessionCache
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService, c.Sessions)
	scenarioHandler := handler.NewScenarioHandler(c.ScenarioService)
	responseHandler := handler.NewResponseHandler(c.ResponseService)
	resultHandler := handler.NewResultHandler(c.ResultService)
	settingsHandler := handler.NewSettingsHandler(c.SettingsService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Learner routes (any signed-in user)
	userRoutes := v1.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireUser)

	userRoutes.HandleFunc("/auth/session", authHandler.Session).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/scenario/active", scenarioHandler.Active).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/settings/feedback", settingsHandler.GetFeedback).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/responses", responseHandler.Submit).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/responses/feedback", responseHandler.SubmitWithFeedback).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/responses/mine", responseHandler.ListMine).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/responses/{responseId}", responseHandler.Delete).Methods("DELETE", "OPTIONS")

	// Admin routes (allow-listed uids only)
	adminRoutes := v1.NewRoute().Subrouter()
	adminRoutes.Use(authMW.RequireAdmin)

	adminRoutes.HandleFunc("/scenarios", scenarioHandler.List).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/scenarios", scenarioHandler.Create).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/scenarios/{scenarioId}", scenarioHandler.Get).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/scenarios/{scenarioId}", scenarioHandler.Update).Methods("PUT", "OPTIONS")
	adminRoutes.HandleFunc("/scenarios/{scenarioId}", scenarioHandler.Delete).Methods("DELETE", "OPTIONS")
	adminRoutes.HandleFunc("/scenarios/{scenarioId}/select", scenarioHandler.Select).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/settings/feedback", settingsHandler.SetFeedback).Methods("PUT", "OPTIONS")

	adminRoutes.HandleFunc("/results", resultHandler.Query).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/results/users", resultHandler.Users).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/results/dates", resultHandler.Dates).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/results/reload", resultHandler.Reload).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/results/export/csv", resultHandler.ExportCSV).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/results/export/png", resultHandler.ExportPNG).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/results/export/pdf", resultHandler.ExportPDF).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
