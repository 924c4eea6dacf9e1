package handler

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the chat surface on the given router.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/api/chat", h.HandleChat)
	r.Get("/api/sessions/{sessionID}/transcript", h.HandleTranscript)
	r.Delete("/api/sessions/{sessionID}", h.HandleClear)
	r.Get("/api/info", h.HandleInfo)
	r.Get("/healthz", h.HandleHealth)
}
