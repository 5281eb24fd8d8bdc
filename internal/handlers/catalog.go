package handlers

import (
	"log/slog"
	"net/http"

	"github.com/crucial707/booktrack/internal/catalog"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// CatalogHandler proxies book search to the external catalog.
type CatalogHandler struct {
	Search catalog.Searcher
}

func (h *CatalogHandler) SearchBooks(w http.ResponseWriter, r *http.Request) {
	vols, err := h.Search.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		slog.Error("catalog search", "err", err, "request_id", chimw.GetReqID(r.Context()))
		JSONError(w, "catalog search failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, vols)
}
