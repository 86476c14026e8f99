package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Signals
	mux.HandleFunc("/api/signals/counts", s.app.SignalHandler.CountsHandler)
	mux.HandleFunc("/api/signals", s.handleSignalCollection)
	mux.HandleFunc("/api/signals/", s.handleSignalRoutes) // GET /{id}, POST /{id}/dismiss, POST /{id}/act

	// API routes - Worker
	mux.HandleFunc("/api/worker/trigger", s.app.WorkerHandler.TriggerHandler)
	mux.HandleFunc("/api/worker/config", s.handleWorkerConfig)

	// API routes - System
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleSignalCollection routes the signal collection by method
func (s *Server) handleSignalCollection(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{
		"GET":  s.app.SignalHandler.ListHandler,
		"POST": s.app.SignalHandler.CreateHandler,
	})
}

// handleSignalRoutes routes signal item requests to the appropriate handler
func (s *Server) handleSignalRoutes(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	// POST /api/signals/{id}/dismiss
	if strings.HasSuffix(path, "/dismiss") {
		s.app.SignalHandler.DismissHandler(w, r)
		return
	}

	// POST /api/signals/{id}/act
	if strings.HasSuffix(path, "/act") {
		s.app.SignalHandler.ActOnHandler(w, r)
		return
	}

	// GET /api/signals/{id}
	s.app.SignalHandler.GetHandler(w, r)
}

// handleWorkerConfig routes worker config requests by method
func (s *Server) handleWorkerConfig(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{
		"GET": s.app.WorkerHandler.GetConfigHandler,
		"PUT": s.app.WorkerHandler.UpdateConfigHandler,
	})
}
