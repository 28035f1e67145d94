package models

import (
	"slices"
	"time"
)

// Attendee is a registered bidder keyed by paddle number.
// WonItems holds the ids of items this attendee has won, in the order the
// wins were recorded. Order is preserved for display only; totals are always
// recomputed from the item collection, never from this list.
type Attendee struct {
	BidNum    string    `json:"bidNum"`
	Name      string    `json:"name"`
	WonItems  []string  `json:"wonItems"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAttendee constructs an Attendee with no won items.
func NewAttendee(bidNum, name string) *Attendee {
	now := time.Now().UTC()
	return &Attendee{
		BidNum:    bidNum,
		Name:      name,
		WonItems:  []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy with its own WonItems slice.
func (a *Attendee) Clone() *Attendee {
	c := *a
	c.WonItems = slices.Clone(a.WonItems)
	return &c
}

// HasWon reports whether itemID is in the won-item list.
func (a *Attendee) HasWon(itemID string) bool {
	return slices.Contains(a.WonItems, itemID)
}

// AddWonItem appends itemID, first removing any existing entry so the list
// never holds duplicates and a re-recorded win moves to the end.
func (a *Attendee) AddWonItem(itemID string) {
	a.RemoveWonItem(itemID)
	a.WonItems = append(a.WonItems, itemID)
}

// RemoveWonItem deletes itemID from the list. No-op if absent.
func (a *Attendee) RemoveWonItem(itemID string) {
	a.WonItems = slices.DeleteFunc(a.WonItems, func(id string) bool {
		return id == itemID
	})
}

// RewriteWonItem replaces oldID with newID in place, preserving position.
// No-op if oldID is absent.
func (a *Attendee) RewriteWonItem(oldID, newID string) {
	for i, id := range a.WonItems {
		if id == oldID {
			a.WonItems[i] = newID
		}
	}
}
