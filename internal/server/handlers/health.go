package handlers

import (
	"net/http"

	"github.com/agentstation/storefront/internal/server/response"
)

// HandleHealth handles GET /health. It never calls upstream.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]string{"status": "healthy"})
}
