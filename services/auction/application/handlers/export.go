package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ghuser/auctiondesk/pkg/logger"
	appsvcs "github.com/ghuser/auctiondesk/services/auction/application/services"
)

// ExportHandler streams the full auction state as a CSV report: an item
// section, a blank separator row, then an attendee section. Built for the
// organizer's spreadsheet, so amounts are formatted as dollars.
type ExportHandler struct {
	svc *appsvcs.Services
	log logger.Logger
}

// NewExportHandler returns an ExportHandler backed by the given services.
func NewExportHandler(svc *appsvcs.Services, log logger.Logger) *ExportHandler {
	return &ExportHandler{svc: svc, log: log}
}

// Export writes the CSV. Fields with commas or quotes are escaped by the csv
// writer; column order is fixed so repeated exports diff cleanly.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	items, attendees := h.svc.Ledger.Snapshot()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "auction-export-"+time.Now().UTC().Format("2006-01-02")+".csv"))

	cw := csv.NewWriter(w)

	// Once streaming starts the status line is committed; a failed write
	// aborts the stream instead of attempting an error response.
	writeRow := func(row ...string) bool {
		if err := cw.Write(row); err != nil {
			h.log.WarnContext(r.Context(), "csv export aborted mid-stream", "error", err)
			return false
		}
		return true
	}

	if !writeRow("Type", "ID", "Name", "Section", "Status", "Winning Bid Amount", "Winner Bid #", "Winner Name") {
		return
	}
	for _, item := range items {
		status, amount, winnerBid, winnerName := "Unsold", "", "", ""
		if item.WinningBid != nil {
			status = "Sold"
			amount = fmt.Sprintf("$%.2f", item.WinningBid.Amount)
			winnerBid = item.WinningBid.BidNum
			if winner, ok := h.svc.Ledger.FindAttendee(item.WinningBid.BidNum); ok {
				winnerName = winner.Name
			}
		}
		if !writeRow("Item", item.ID, item.Name, item.Section, status, amount, winnerBid, winnerName) {
			return
		}
	}

	// Blank separator row between the sections.
	if !writeRow() {
		return
	}

	if !writeRow("Type", "Bid #", "Name", "Items Won", "Total Spent") {
		return
	}
	for _, attendee := range attendees {
		if !writeRow(
			"Attendee",
			attendee.BidNum,
			attendee.Name,
			strconv.Itoa(len(h.svc.Ledger.ItemsWonBy(attendee.BidNum))),
			fmt.Sprintf("$%.2f", h.svc.Ledger.TotalSpent(attendee.BidNum)),
		) {
			return
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		h.log.WarnContext(r.Context(), "csv export aborted mid-stream", "error", err)
	}
}
