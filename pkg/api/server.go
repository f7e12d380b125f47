// Package api esmtool Script Catalog REST API
//
// @title           esmtool Script Catalog API
// @version         1.0.0
// @description     REST interface over a catalog of scripts indexed from plugin files.
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in              header
// @name            X-API-Key
package api

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the catalog handlers into a chi router
func NewRouter(server *Server, metrics *Metrics) chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.Handler())

	// API key authentication middleware for protected routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(metrics.InstrumentAuthMiddleware(apiKeyMiddleware(server.config.APIKey)))

		// Health check
		r.Get("/health", metrics.InstrumentHandler("GET", "/api/v1/health", server.handleHealth))

		// Script catalog
		r.Get("/scripts", metrics.InstrumentHandler("GET", "/api/v1/scripts", server.handleListScripts))
		r.Get("/scripts/{id}", metrics.InstrumentHandler("GET", "/api/v1/scripts/{id}", server.handleGetScript))
		r.Get("/scripts/{id}/text", metrics.InstrumentHandler("GET", "/api/v1/scripts/{id}/text", server.handleGetScriptText))
		r.Get("/conflicts", metrics.InstrumentHandler("GET", "/api/v1/conflicts", server.handleConflicts))

		// Plugins
		r.Get("/plugins", metrics.InstrumentHandler("GET", "/api/v1/plugins", server.handlePlugins))
		r.Delete("/plugins/{name}", metrics.InstrumentHandler("DELETE", "/api/v1/plugins/{name}", server.handleDeletePlugin))

		// Diagnostics
		r.Get("/stats", metrics.InstrumentHandler("GET", "/api/v1/stats", server.handleStats))
	})

	return r
}

// StartServer starts the HTTP server with all routes configured
func StartServer(catalog ScriptCatalog, config ServerConfig) error {
	// Initialize metrics
	metrics := NewMetrics()

	server := NewServer(catalog, config, metrics)
	r := NewRouter(server, metrics)

	// Start background metrics updater
	go server.startMetricsUpdater()

	addr := fmt.Sprintf(":%d", config.Port)
	fmt.Printf("Starting esmtool catalog API server on %s\n", addr)
	fmt.Printf("Metrics available at: http://localhost:%d/metrics\n", config.Port)
	log.Fatal(http.ListenAndServe(addr, r))

	return nil
}
