package models

import (
	"math"
	"strings"
	"time"
)

// WinningBid records the sale of an item: which paddle won it and for how much.
type WinningBid struct {
	BidNum string  `json:"bidNum"`
	Amount float64 `json:"amount"`
}

// Item is an auctioned object keyed by an operator-assigned ID.
// A nil WinningBid means the item is unsold.
type Item struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Section    string      `json:"section"`
	WinningBid *WinningBid `json:"winningBid"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// NewItem constructs an unsold Item with the current timestamp.
func NewItem(id, name, section string) *Item {
	now := time.Now().UTC()
	return &Item{
		ID:        id,
		Name:      name,
		Section:   section,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Sold reports whether the item has a recorded winning bid.
func (i *Item) Sold() bool {
	return i.WinningBid != nil
}

// Clone returns a deep copy so callers can hand items across ownership
// boundaries without sharing the WinningBid pointer.
func (i *Item) Clone() *Item {
	c := *i
	if i.WinningBid != nil {
		wb := *i.WinningBid
		c.WinningBid = &wb
	}
	return &c
}

// RoundCents rounds a dollar amount to cent precision. Monetary values are
// rounded once at the boundary; totals are recomputed from the item set.
func RoundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// ValidAmount reports whether amount is a usable bid: non-negative and finite.
func ValidAmount(amount float64) bool {
	return amount >= 0 && !math.IsNaN(amount) && !math.IsInf(amount, 0)
}

// ValidKey reports whether s is usable as a natural key or display name.
// Keys are operator-assigned free text ("001", "42"); only emptiness is
// structural — everything else is the operator's business.
func ValidKey(s string) bool {
	return strings.TrimSpace(s) != ""
}
