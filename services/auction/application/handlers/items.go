// Package handlers contains the HTTP handlers for the auction API.
// Handlers validate the request, call into the ledger or sync layer, and map
// domain errors to status codes through pkg/errhttp.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ghuser/auctiondesk/pkg/errhttp"
	"github.com/ghuser/auctiondesk/pkg/httpx"
	pkgvalidator "github.com/ghuser/auctiondesk/pkg/validator"
	appsvcs "github.com/ghuser/auctiondesk/services/auction/application/services"
)

// ItemRequest is the request body for creating or updating an item.
// On update, ID may differ from the path key; that moves the item to a new key.
type ItemRequest struct {
	ID      string `json:"id" validate:"required,max=64"`
	Name    string `json:"name" validate:"required,max=255"`
	Section string `json:"section" validate:"max=255"`
}

// ErrorResponse is returned on all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ItemsHandler handles the /api/items endpoints.
type ItemsHandler struct {
	svc *appsvcs.Services
}

// NewItemsHandler returns an ItemsHandler backed by the given services.
func NewItemsHandler(svc *appsvcs.Services) *ItemsHandler {
	return &ItemsHandler{svc: svc}
}

// List returns all items ordered by id.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.svc.Ledger.Items())
}

// Get returns one item by id.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, ok := h.svc.Ledger.FindItem(chi.URLParam(r, "id"))
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "item not found")
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

// Create registers a new item.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[ItemRequest](w, r)
	if !ok {
		return
	}
	item, err := h.svc.Ledger.AddItem(r.Context(), req.ID, req.Name, req.Section)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

// Update renames an item, or moves it to a new id when the body id differs
// from the path id.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[ItemRequest](w, r)
	if !ok {
		return
	}
	item, err := h.svc.Ledger.UpdateItem(r.Context(), chi.URLParam(r, "id"), req.ID, req.Name, req.Section)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

// Delete removes an item, detaching it from its winner if sold.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ledger.DeleteItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		errhttp.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
