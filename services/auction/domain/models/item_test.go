package models

import (
	"math"
	"testing"
)

func TestItemClone(t *testing.T) {
	item := NewItem("001", "Signed Jersey", "Sports")
	item.WinningBid = &WinningBid{BidNum: "42", Amount: 150}

	clone := item.Clone()
	clone.Name = "mutated"
	clone.WinningBid.Amount = 999

	if item.Name != "Signed Jersey" {
		t.Error("clone shares Name with original")
	}
	if item.WinningBid.Amount != 150 {
		t.Error("clone shares WinningBid pointer with original")
	}
}

func TestSold(t *testing.T) {
	item := NewItem("001", "Signed Jersey", "")
	if item.Sold() {
		t.Error("new item must be unsold")
	}
	item.WinningBid = &WinningBid{BidNum: "42", Amount: 0}
	if !item.Sold() {
		t.Error("zero-amount winning bid still counts as sold")
	}
}

func TestRoundCents(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{10.005, 10.01},
		{10.004, 10.0},
		{0, 0},
		{149.999, 150.0},
	}
	for _, tt := range tests {
		if got := RoundCents(tt.in); got != tt.want {
			t.Errorf("RoundCents(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidAmount(t *testing.T) {
	if !ValidAmount(0) || !ValidAmount(150.5) {
		t.Error("non-negative finite amounts must be valid")
	}
	if ValidAmount(-1) || ValidAmount(math.NaN()) || ValidAmount(math.Inf(1)) {
		t.Error("negative, NaN, and infinite amounts must be invalid")
	}
}

func TestValidKey(t *testing.T) {
	if !ValidKey("001") || !ValidKey("table 7") {
		t.Error("free-text keys must be valid")
	}
	if ValidKey("") || ValidKey("   ") {
		t.Error("blank keys must be invalid")
	}
}
