package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ghuser/auctiondesk/pkg/errhttp"
	"github.com/ghuser/auctiondesk/pkg/httpx"
	appsvcs "github.com/ghuser/auctiondesk/services/auction/application/services"
	"github.com/ghuser/auctiondesk/services/auction/domain/models"
)

// ImportSnapshotRequest carries an exported working set to seed a freshly
// provisioned store. Records whose keys already exist are skipped.
type ImportSnapshotRequest struct {
	Items     []*models.Item     `json:"items"`
	Attendees []*models.Attendee `json:"attendees"`
}

// AdminHandler handles the /api/admin endpoints.
type AdminHandler struct {
	svc *appsvcs.Services
}

// NewAdminHandler returns an AdminHandler backed by the given services.
func NewAdminHandler(svc *appsvcs.Services) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// ImportSnapshot inserts the posted records that the store does not already
// hold and reports per-collection counts.
func (h *AdminHandler) ImportSnapshot(w http.ResponseWriter, r *http.Request) {
	var req ImportSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	report, err := h.svc.Sync.ImportSnapshot(r.Context(), req.Items, req.Attendees)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}
