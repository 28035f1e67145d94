package handlers

import (
	"net/http"

	"github.com/ghuser/auctiondesk/pkg/httpx"
	appsvcs "github.com/ghuser/auctiondesk/services/auction/application/services"
)

// SummaryResponse is the dashboard roll-up of the auction's current state.
type SummaryResponse struct {
	ItemCount     int     `json:"itemCount"`
	SoldCount     int     `json:"soldCount"`
	AttendeeCount int     `json:"attendeeCount"`
	TotalRevenue  float64 `json:"totalRevenue"`
	Degraded      bool    `json:"degraded"`
}

// SummaryHandler handles GET /api/summary.
type SummaryHandler struct {
	svc *appsvcs.Services
}

// NewSummaryHandler returns a SummaryHandler backed by the given services.
func NewSummaryHandler(svc *appsvcs.Services) *SummaryHandler {
	return &SummaryHandler{svc: svc}
}

// Summary returns counts and total revenue, recomputed from the item set.
func (h *SummaryHandler) Summary(w http.ResponseWriter, r *http.Request) {
	items, attendees := h.svc.Ledger.Snapshot()

	sold := 0
	for _, item := range items {
		if item.Sold() {
			sold++
		}
	}

	httpx.JSON(w, http.StatusOK, SummaryResponse{
		ItemCount:     len(items),
		SoldCount:     sold,
		AttendeeCount: len(attendees),
		TotalRevenue:  h.svc.Ledger.TotalRevenue(),
		Degraded:      h.svc.Sync.Degraded(),
	})
}
