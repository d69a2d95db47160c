package handlers

import (
	"net/http"

	"github.com/agentstation/storefront/internal/server/response"
)

// HandleListStores handles GET /api/stores.
func (h *Handlers) HandleListStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.svc.Stores(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to fetch store data", err)
		return
	}
	response.OK(w, stores)
}

// HandleDirectory handles GET /api/directory, every store with its latest
// review plus the full review list.
func (h *Handlers) HandleDirectory(w http.ResponseWriter, r *http.Request) {
	dir, err := h.svc.Directory(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to fetch directory data", err)
		return
	}
	response.OK(w, dir)
}
