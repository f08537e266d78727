// Package item provides HTTP handlers for wishlist items and their link
// metadata enrichment.
package item

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"Wishly/internal/api/middleware"
	"Wishly/internal/core/items"
	"Wishly/internal/core/linkmeta"
)

// blockedMessage is shown when a source restricts automated access; the
// classification is terminal, not an error.
const blockedMessage = "this source restricts automated access, open the link manually"

// Handler handles item HTTP requests.
type Handler struct {
	items    items.Service
	enricher linkmeta.Service
}

// NewHandler creates a new item handler.
func NewHandler(itemService items.Service, enricher linkmeta.Service) *Handler {
	return &Handler{items: itemService, enricher: enricher}
}

// itemView is an item plus its runtime-only enrichment state (image URL,
// loading/blocked flags), which is never persisted and re-derived from
// the cache on read.
type itemView struct {
	*items.Item
	Enrichment *enrichmentView `json:"enrichment,omitempty"`
}

type enrichmentView struct {
	ImageURL       string `json:"imageUrl,omitempty"`
	Loading        bool   `json:"loading,omitempty"`
	Blocked        bool   `json:"blocked,omitempty"`
	BlockedReason  string `json:"blockedReason,omitempty"`
	BlockedMessage string `json:"blockedMessage,omitempty"`
}

// List handles GET /api/items
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetAuthenticatedUserID(r.Context())

	list, err := h.items.ListItems(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]itemView, 0, len(list))
	for _, it := range list {
		views = append(views, itemView{Item: it, Enrichment: h.enrichmentFor(it)})
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": views})
}

// Create handles POST /api/items
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req items.CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("InvalidRequest", "invalid JSON body"))
		return
	}
	req.OwnerID = middleware.GetAuthenticatedUserID(r.Context())

	item, err := h.items.CreateItem(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, itemView{Item: item, Enrichment: h.enrichmentFor(item)})
}

// Update handles PATCH /api/items/{itemID}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetAuthenticatedUserID(r.Context())
	itemID := chi.URLParam(r, "itemID")

	var req items.UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("InvalidRequest", "invalid JSON body"))
		return
	}

	item, err := h.items.UpdateItem(r.Context(), ownerID, itemID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, itemView{Item: item, Enrichment: h.enrichmentFor(item)})
}

// Delete handles DELETE /api/items/{itemID}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetAuthenticatedUserID(r.Context())
	itemID := chi.URLParam(r, "itemID")

	if err := h.items.DeleteItem(r.Context(), ownerID, itemID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Reorder handles PUT /api/items/order
func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetAuthenticatedUserID(r.Context())

	var req struct {
		Order []string `json:"order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("InvalidRequest", "invalid JSON body"))
		return
	}

	if err := h.items.ReorderItems(r.Context(), ownerID, req.Order); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Refresh handles POST /api/items/{itemID}/refresh
// Forces a new enrichment pass for the item's URL, bypassing the TTL.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetAuthenticatedUserID(r.Context())
	itemID := chi.URLParam(r, "itemID")

	meta, err := h.items.EnrichItem(r.Context(), ownerID, itemID, true)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]any{"metadata": meta}
	if meta != nil && meta.Blocked {
		resp["blockedMessage"] = blockedMessage
	}
	writeJSON(w, http.StatusOK, resp)
}

// enrichmentFor reads the runtime enrichment state for an item's URL from
// the coordinator cache.
func (h *Handler) enrichmentFor(it *items.Item) *enrichmentView {
	if h.enricher == nil || it.URL == "" {
		return nil
	}
	meta := h.enricher.Cached(it.URL)
	if meta == nil {
		return nil
	}
	view := &enrichmentView{
		ImageURL:      meta.ImageURL,
		Loading:       meta.Loading,
		Blocked:       meta.Blocked,
		BlockedReason: string(meta.BlockedReason),
	}
	if meta.Blocked {
		view.BlockedMessage = blockedMessage
	}
	return view
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, items.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("NotFound", "item not found"))
	case errors.Is(err, items.ErrNoURL):
		writeJSON(w, http.StatusBadRequest, errorBody("InvalidRequest", "item has no URL to enrich"))
	case errors.Is(err, linkmeta.ErrInvalidURL):
		writeJSON(w, http.StatusBadRequest, errorBody("InvalidRequest", "item URL must be http or https"))
	case items.IsValidationError(err):
		writeJSON(w, http.StatusBadRequest, errorBody("InvalidRequest", err.Error()))
	default:
		log.Printf("[ITEMS-API] internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("InternalServerError", "something went wrong"))
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func errorBody(code, message string) map[string]string {
	return map[string]string{"error": code, "message": message}
}
