package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Prometheus scrape endpoint (outside the versioned API)
	r.Handle("/metrics", promhttp.Handler())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no owner identity required)
		r.Get("/health", s.handleHealth)

		// Owner-scoped routes
		r.Group(func(r chi.Router) {
			r.Use(s.ownerMiddleware)

			// Device endpoints
			r.Route("/devices", func(r chi.Router) {
				r.Get("/", s.handleListDevices)
				r.Post("/", s.handleCreateDevice)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetDevice)
					r.Patch("/", s.handleUpdateDevice)
					r.Delete("/", s.handleDeleteDevice)
					r.Get("/pipeline", s.handleGetDevicePipeline)
					r.Post("/move", s.handleMoveDevice)
				})
			})

			// Endpoint endpoints
			r.Route("/endpoints", func(r chi.Router) {
				r.Get("/", s.handleListEndpoints)
				r.Post("/", s.handleCreateEndpoint)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetEndpoint)
					r.Patch("/", s.handleUpdateEndpoint)
					r.Delete("/", s.handleDeleteEndpoint)
				})
			})

			// Pipeline endpoints
			r.Route("/pipelines", func(r chi.Router) {
				r.Get("/", s.handleListPipelines)
				r.Post("/", s.handleCreatePipeline)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetPipeline)
					r.Patch("/", s.handleUpdatePipeline)
					r.Delete("/", s.handleDeletePipeline)

					r.Get("/devices", s.handleListPipelineDevices)
					r.Post("/devices/{deviceID}", s.handleAttachDevice)
					r.Delete("/devices/{deviceID}", s.handleDetachDevice)
					r.Post("/endpoints/{endpointID}", s.handleAttachEndpoint)
					r.Delete("/endpoints/{endpointID}", s.handleDetachEndpoint)
				})
			})

			// Topology change history
			r.Get("/audit", s.handleListAuditLogs)

			// WebSocket topology event stream
			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{
		"status":  "ok",
		"version": s.version,
	}
	if s.mqtt != nil {
		resp["mqtt_connected"] = s.mqtt.IsConnected()
	}
	writeJSON(w, http.StatusOK, resp)
}
