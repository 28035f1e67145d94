package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ghuser/auctiondesk/pkg/errhttp"
	"github.com/ghuser/auctiondesk/pkg/httpx"
	pkgvalidator "github.com/ghuser/auctiondesk/pkg/validator"
	appsvcs "github.com/ghuser/auctiondesk/services/auction/application/services"
)

// WinningBidRequest is the request body for recording or editing a winning bid.
// Amount is dollars; it is rounded to cents on the way in. Zero is a valid
// amount (donated items are sold for nothing all the time).
type WinningBidRequest struct {
	BidNum string  `json:"bidNum" validate:"required,max=64"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

// BidsHandler handles the winning-bid sub-resource of an item.
type BidsHandler struct {
	svc *appsvcs.Services
}

// NewBidsHandler returns a BidsHandler backed by the given services.
func NewBidsHandler(svc *appsvcs.Services) *BidsHandler {
	return &BidsHandler{svc: svc}
}

// Record marks an item sold to a paddle for an amount.
func (h *BidsHandler) Record(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[WinningBidRequest](w, r)
	if !ok {
		return
	}
	item, err := h.svc.Ledger.RecordWinningBid(r.Context(), chi.URLParam(r, "id"), req.BidNum, req.Amount)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

// Edit replaces an item's winning bid. A previous winner, if different, is
// detached in the same operation.
func (h *BidsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[WinningBidRequest](w, r)
	if !ok {
		return
	}
	item, err := h.svc.Ledger.EditWinningBid(r.Context(), chi.URLParam(r, "id"), req.BidNum, req.Amount)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

// Clear reverts an item to unsold.
func (h *BidsHandler) Clear(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Ledger.ClearWinningBid(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}
