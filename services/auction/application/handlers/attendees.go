package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ghuser/auctiondesk/pkg/errhttp"
	"github.com/ghuser/auctiondesk/pkg/httpx"
	pkgvalidator "github.com/ghuser/auctiondesk/pkg/validator"
	appsvcs "github.com/ghuser/auctiondesk/services/auction/application/services"
	"github.com/ghuser/auctiondesk/services/auction/domain/models"
)

// AttendeeRequest is the request body for creating or updating an attendee.
// On update, BidNum may differ from the path key; that reassigns the paddle
// number and rewrites the winner reference on every item they have won.
type AttendeeRequest struct {
	BidNum string `json:"bidNum" validate:"required,max=64"`
	Name   string `json:"name" validate:"required,max=255"`
}

// ReceiptResponse is the checkout view for one attendee: the items they won,
// in the order the wins were recorded, and the recomputed total.
type ReceiptResponse struct {
	Attendee   *models.Attendee `json:"attendee"`
	Items      []*models.Item   `json:"items"`
	TotalSpent float64          `json:"totalSpent"`
}

// AttendeesHandler handles the /api/attendees endpoints.
type AttendeesHandler struct {
	svc *appsvcs.Services
}

// NewAttendeesHandler returns an AttendeesHandler backed by the given services.
func NewAttendeesHandler(svc *appsvcs.Services) *AttendeesHandler {
	return &AttendeesHandler{svc: svc}
}

// List returns all attendees ordered by bid number.
func (h *AttendeesHandler) List(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.svc.Ledger.Attendees())
}

// Get returns one attendee by bid number.
func (h *AttendeesHandler) Get(w http.ResponseWriter, r *http.Request) {
	attendee, ok := h.svc.Ledger.FindAttendee(chi.URLParam(r, "bidNum"))
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "attendee not found")
		return
	}
	httpx.JSON(w, http.StatusOK, attendee)
}

// Create registers a new attendee.
func (h *AttendeesHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[AttendeeRequest](w, r)
	if !ok {
		return
	}
	attendee, err := h.svc.Ledger.AddAttendee(r.Context(), req.BidNum, req.Name)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, attendee)
}

// Update renames an attendee, or reassigns their paddle number when the body
// bidNum differs from the path bidNum.
func (h *AttendeesHandler) Update(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[AttendeeRequest](w, r)
	if !ok {
		return
	}
	attendee, err := h.svc.Ledger.UpdateAttendee(r.Context(), chi.URLParam(r, "bidNum"), req.BidNum, req.Name)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, attendee)
}

// Delete removes an attendee; every item they had won reverts to unsold.
func (h *AttendeesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ledger.DeleteAttendee(r.Context(), chi.URLParam(r, "bidNum")); err != nil {
		errhttp.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Receipt returns the attendee's won items and recomputed total for checkout.
func (h *AttendeesHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	bidNum := chi.URLParam(r, "bidNum")
	attendee, ok := h.svc.Ledger.FindAttendee(bidNum)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "attendee not found")
		return
	}
	items := h.svc.Ledger.ItemsWonBy(bidNum)
	if items == nil {
		items = []*models.Item{}
	}
	httpx.JSON(w, http.StatusOK, ReceiptResponse{
		Attendee:   attendee,
		Items:      items,
		TotalSpent: h.svc.Ledger.TotalSpent(bidNum),
	})
}
