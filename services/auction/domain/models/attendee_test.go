package models

import "testing"

func TestAddWonItem(t *testing.T) {
	a := NewAttendee("42", "Pat Jones")

	a.AddWonItem("001")
	a.AddWonItem("002")
	if len(a.WonItems) != 2 || a.WonItems[0] != "001" || a.WonItems[1] != "002" {
		t.Fatalf("WonItems = %v", a.WonItems)
	}

	// Re-adding moves the id to the end without duplicating it.
	a.AddWonItem("001")
	if len(a.WonItems) != 2 || a.WonItems[0] != "002" || a.WonItems[1] != "001" {
		t.Fatalf("WonItems after re-add = %v", a.WonItems)
	}
}

func TestRemoveWonItem(t *testing.T) {
	a := NewAttendee("42", "Pat Jones")
	a.AddWonItem("001")
	a.AddWonItem("002")

	a.RemoveWonItem("001")
	if len(a.WonItems) != 1 || a.WonItems[0] != "002" {
		t.Fatalf("WonItems = %v", a.WonItems)
	}

	a.RemoveWonItem("missing")
	if len(a.WonItems) != 1 {
		t.Fatal("removing an absent id must be a no-op")
	}
}

func TestRewriteWonItem(t *testing.T) {
	a := NewAttendee("42", "Pat Jones")
	a.AddWonItem("001")
	a.AddWonItem("002")

	a.RewriteWonItem("001", "101")
	if a.WonItems[0] != "101" || a.WonItems[1] != "002" {
		t.Fatalf("WonItems = %v, rewrite must preserve position", a.WonItems)
	}
}

func TestAttendeeClone(t *testing.T) {
	a := NewAttendee("42", "Pat Jones")
	a.AddWonItem("001")

	clone := a.Clone()
	clone.AddWonItem("002")

	if len(a.WonItems) != 1 {
		t.Error("clone shares WonItems slice with original")
	}
}

func TestHasWon(t *testing.T) {
	a := NewAttendee("42", "Pat Jones")
	if a.HasWon("001") {
		t.Error("new attendee has won nothing")
	}
	a.AddWonItem("001")
	if !a.HasWon("001") {
		t.Error("HasWon must see added item")
	}
}
