// Package ledger owns the in-memory working set of the auction: both keyed
// collections behind one lock, mutated only through whole-operation functions
// that keep the Item↔Attendee cross-references consistent on every change.
//
// Every mutation follows the same shape: validate, apply optimistically
// in-memory, issue the remote write(s) through the store, and restore the
// prior in-memory state if any remote write fails. There is no automatic
// retry — a failed attempt is terminal and the operator retries manually.
//
// Multi-row operations issue their remote writes sequentially without a
// cross-row transaction; a half-applied remote state converges once the
// operator retries and the change feed echoes the repair.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ghuser/auctiondesk/services/auction/domain"
	"github.com/ghuser/auctiondesk/services/auction/domain/events"
	"github.com/ghuser/auctiondesk/services/auction/domain/models"
	"github.com/ghuser/auctiondesk/services/auction/domain/repositories"
)

// Ledger holds the canonical in-memory copies of both collections.
// All reads return clones; callers never see the owned records.
type Ledger struct {
	mu        sync.RWMutex
	store     repositories.Store
	items     map[string]*models.Item
	attendees map[string]*models.Attendee
}

// New returns an empty Ledger writing through to store.
func New(store repositories.Store) *Ledger {
	return &Ledger{
		store:     store,
		items:     make(map[string]*models.Item),
		attendees: make(map[string]*models.Attendee),
	}
}

// undoLog collects restore closures for the optimistic-update-then-rollback
// pattern. Closures run in reverse order so later changes unwind first.
type undoLog []func()

func (u *undoLog) record(fn func()) { *u = append(*u, fn) }

func (u undoLog) rollback() {
	for i := len(u) - 1; i >= 0; i-- {
		u[i]()
	}
}

// AddItem registers a new unsold item.
func (l *Ledger) AddItem(ctx context.Context, id, name, section string) (*models.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !models.ValidKey(id) || !models.ValidKey(name) {
		return nil, fmt.Errorf("%w: item id and name are required", domain.ErrInvalidInput)
	}
	if _, ok := l.items[id]; ok {
		return nil, fmt.Errorf("%w: item %q already exists", domain.ErrDuplicateKey, id)
	}

	item := models.NewItem(id, name, section)
	l.items[id] = item

	if err := l.store.InsertItem(ctx, item); err != nil {
		delete(l.items, id)
		return nil, err
	}
	return item.Clone(), nil
}

// AddAttendee registers a new bidder with no won items.
func (l *Ledger) AddAttendee(ctx context.Context, bidNum, name string) (*models.Attendee, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !models.ValidKey(bidNum) || !models.ValidKey(name) {
		return nil, fmt.Errorf("%w: attendee bid number and name are required", domain.ErrInvalidInput)
	}
	if _, ok := l.attendees[bidNum]; ok {
		return nil, fmt.Errorf("%w: bid number %q already assigned", domain.ErrDuplicateKey, bidNum)
	}

	attendee := models.NewAttendee(bidNum, name)
	l.attendees[bidNum] = attendee

	if err := l.store.InsertAttendee(ctx, attendee); err != nil {
		delete(l.attendees, bidNum)
		return nil, err
	}
	return attendee.Clone(), nil
}

// RecordWinningBid marks an item as sold to the given paddle for the given
// amount. If the item was previously won by a different attendee, the item id
// is detached from that attendee's won list in the same operation, so an item
// id appears in at most one attendee's list at any point.
func (l *Ledger) RecordWinningBid(ctx context.Context, itemID, bidNum string, amount float64) (*models.Item, error) {
	return l.setWinningBid(ctx, itemID, bidNum, amount)
}

// EditWinningBid replaces an item's winning bid, detaching the previous winner
// before attaching the new one. Validation is identical to RecordWinningBid.
func (l *Ledger) EditWinningBid(ctx context.Context, itemID, newBidNum string, newAmount float64) (*models.Item, error) {
	return l.setWinningBid(ctx, itemID, newBidNum, newAmount)
}

func (l *Ledger) setWinningBid(ctx context.Context, itemID, bidNum string, amount float64) (*models.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !models.ValidAmount(amount) {
		return nil, fmt.Errorf("%w: bid amount must be a non-negative number", domain.ErrInvalidInput)
	}
	item, ok := l.items[itemID]
	if !ok {
		return nil, fmt.Errorf("%w: item %q", domain.ErrNotFound, itemID)
	}
	winner, ok := l.attendees[bidNum]
	if !ok {
		return nil, fmt.Errorf("%w: attendee %q", domain.ErrNotFound, bidNum)
	}

	now := time.Now().UTC()
	var undo undoLog

	// Detach the previous winner first, if the item is changing hands.
	var prevWinner *models.Attendee
	if item.WinningBid != nil && item.WinningBid.BidNum != bidNum {
		if holder, ok := l.attendees[item.WinningBid.BidNum]; ok {
			snap := holder.Clone()
			undo.record(func() { l.attendees[snap.BidNum] = snap })
			holder.RemoveWonItem(itemID)
			holder.UpdatedAt = now
			prevWinner = holder
		}
	}

	itemSnap := item.Clone()
	undo.record(func() { l.items[itemSnap.ID] = itemSnap })
	item.WinningBid = &models.WinningBid{BidNum: bidNum, Amount: models.RoundCents(amount)}
	item.UpdatedAt = now

	winnerSnap := winner.Clone()
	undo.record(func() { l.attendees[winnerSnap.BidNum] = winnerSnap })
	winner.AddWonItem(itemID)
	winner.UpdatedAt = now

	if err := l.writeAll(ctx, func() error {
		if err := l.store.UpdateItem(ctx, item); err != nil {
			return err
		}
		if prevWinner != nil {
			if err := l.store.UpdateAttendee(ctx, prevWinner); err != nil {
				return err
			}
		}
		return l.store.UpdateAttendee(ctx, winner)
	}, undo); err != nil {
		return nil, err
	}
	return item.Clone(), nil
}

// ClearWinningBid marks an item unsold and detaches it from the former
// winner's won list. Clearing an already-unsold item is a silent no-op.
func (l *Ledger) ClearWinningBid(ctx context.Context, itemID string) (*models.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.items[itemID]
	if !ok {
		return nil, fmt.Errorf("%w: item %q", domain.ErrNotFound, itemID)
	}
	if item.WinningBid == nil {
		return item.Clone(), nil
	}

	now := time.Now().UTC()
	var undo undoLog

	var holder *models.Attendee
	if h, ok := l.attendees[item.WinningBid.BidNum]; ok {
		snap := h.Clone()
		undo.record(func() { l.attendees[snap.BidNum] = snap })
		h.RemoveWonItem(itemID)
		h.UpdatedAt = now
		holder = h
	}

	itemSnap := item.Clone()
	undo.record(func() { l.items[itemSnap.ID] = itemSnap })
	item.WinningBid = nil
	item.UpdatedAt = now

	if err := l.writeAll(ctx, func() error {
		if err := l.store.UpdateItem(ctx, item); err != nil {
			return err
		}
		if holder != nil {
			return l.store.UpdateAttendee(ctx, holder)
		}
		return nil
	}, undo); err != nil {
		return nil, err
	}
	return item.Clone(), nil
}

// UpdateItem renames an item and, when newID differs from oldID, moves it to
// the new key. The natural key is also the reference target in the winner's
// won list, so a rekey rewrites that entry from oldID to newID in the same
// operation. The winning bid survives the move untouched.
//
// Remotely a rekey is insert-new, rewrite references, delete-old; a failure
// partway through rolls back the in-memory state but can leave both keys
// present remotely until the operator retries.
func (l *Ledger) UpdateItem(ctx context.Context, oldID, newID, name, section string) (*models.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !models.ValidKey(newID) || !models.ValidKey(name) {
		return nil, fmt.Errorf("%w: item id and name are required", domain.ErrInvalidInput)
	}
	item, ok := l.items[oldID]
	if !ok {
		return nil, fmt.Errorf("%w: item %q", domain.ErrNotFound, oldID)
	}

	now := time.Now().UTC()
	var undo undoLog

	if newID == oldID {
		snap := item.Clone()
		undo.record(func() { l.items[snap.ID] = snap })
		item.Name = name
		item.Section = section
		item.UpdatedAt = now

		if err := l.writeAll(ctx, func() error {
			return l.store.UpdateItem(ctx, item)
		}, undo); err != nil {
			return nil, err
		}
		return item.Clone(), nil
	}

	if _, taken := l.items[newID]; taken {
		return nil, fmt.Errorf("%w: item %q already exists", domain.ErrDuplicateKey, newID)
	}

	moved := item.Clone()
	moved.ID = newID
	moved.Name = name
	moved.Section = section
	moved.UpdatedAt = now

	prev := item
	undo.record(func() {
		delete(l.items, newID)
		l.items[oldID] = prev
	})
	delete(l.items, oldID)
	l.items[newID] = moved

	var holder *models.Attendee
	if moved.WinningBid != nil {
		if h, ok := l.attendees[moved.WinningBid.BidNum]; ok {
			snap := h.Clone()
			undo.record(func() { l.attendees[snap.BidNum] = snap })
			h.RewriteWonItem(oldID, newID)
			h.UpdatedAt = now
			holder = h
		}
	}

	if err := l.writeAll(ctx, func() error {
		if err := l.store.InsertItem(ctx, moved); err != nil {
			return err
		}
		if holder != nil {
			if err := l.store.UpdateAttendee(ctx, holder); err != nil {
				return err
			}
		}
		return l.store.DeleteItem(ctx, oldID)
	}, undo); err != nil {
		return nil, err
	}
	return moved.Clone(), nil
}

// UpdateAttendee renames an attendee and, when newBidNum differs, moves them
// to the new paddle number, rewriting the bidder reference on every item they
// have won. The won-item list itself carries over unchanged.
func (l *Ledger) UpdateAttendee(ctx context.Context, oldBidNum, newBidNum, name string) (*models.Attendee, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !models.ValidKey(newBidNum) || !models.ValidKey(name) {
		return nil, fmt.Errorf("%w: attendee bid number and name are required", domain.ErrInvalidInput)
	}
	attendee, ok := l.attendees[oldBidNum]
	if !ok {
		return nil, fmt.Errorf("%w: attendee %q", domain.ErrNotFound, oldBidNum)
	}

	now := time.Now().UTC()
	var undo undoLog

	if newBidNum == oldBidNum {
		snap := attendee.Clone()
		undo.record(func() { l.attendees[snap.BidNum] = snap })
		attendee.Name = name
		attendee.UpdatedAt = now

		if err := l.writeAll(ctx, func() error {
			return l.store.UpdateAttendee(ctx, attendee)
		}, undo); err != nil {
			return nil, err
		}
		return attendee.Clone(), nil
	}

	if _, taken := l.attendees[newBidNum]; taken {
		return nil, fmt.Errorf("%w: bid number %q already assigned", domain.ErrDuplicateKey, newBidNum)
	}

	moved := attendee.Clone()
	moved.BidNum = newBidNum
	moved.Name = name
	moved.UpdatedAt = now

	prev := attendee
	undo.record(func() {
		delete(l.attendees, newBidNum)
		l.attendees[oldBidNum] = prev
	})
	delete(l.attendees, oldBidNum)
	l.attendees[newBidNum] = moved

	var rewritten []*models.Item
	for _, item := range l.items {
		if item.WinningBid != nil && item.WinningBid.BidNum == oldBidNum {
			snap := item.Clone()
			undo.record(func() { l.items[snap.ID] = snap })
			item.WinningBid.BidNum = newBidNum
			item.UpdatedAt = now
			rewritten = append(rewritten, item)
		}
	}

	if err := l.writeAll(ctx, func() error {
		if err := l.store.InsertAttendee(ctx, moved); err != nil {
			return err
		}
		for _, item := range rewritten {
			if err := l.store.UpdateItem(ctx, item); err != nil {
				return err
			}
		}
		return l.store.DeleteAttendee(ctx, oldBidNum)
	}, undo); err != nil {
		return nil, err
	}
	return moved.Clone(), nil
}

// DeleteItem removes an item. If the item had a winning bid, its id is
// detached from the winner's won list in the same operation.
func (l *Ledger) DeleteItem(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.items[id]
	if !ok {
		return fmt.Errorf("%w: item %q", domain.ErrNotFound, id)
	}

	now := time.Now().UTC()
	var undo undoLog

	undo.record(func() { l.items[id] = item })
	delete(l.items, id)

	var holder *models.Attendee
	if item.WinningBid != nil {
		if h, ok := l.attendees[item.WinningBid.BidNum]; ok {
			snap := h.Clone()
			undo.record(func() { l.attendees[snap.BidNum] = snap })
			h.RemoveWonItem(id)
			h.UpdatedAt = now
			holder = h
		}
	}

	return l.writeAll(ctx, func() error {
		if err := l.store.DeleteItem(ctx, id); err != nil {
			return err
		}
		if holder != nil {
			return l.store.UpdateAttendee(ctx, holder)
		}
		return nil
	}, undo)
}

// DeleteAttendee removes a bidder. Every item they had won reverts to unsold.
func (l *Ledger) DeleteAttendee(ctx context.Context, bidNum string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	attendee, ok := l.attendees[bidNum]
	if !ok {
		return fmt.Errorf("%w: attendee %q", domain.ErrNotFound, bidNum)
	}

	now := time.Now().UTC()
	var undo undoLog

	undo.record(func() { l.attendees[bidNum] = attendee })
	delete(l.attendees, bidNum)

	var cleared []*models.Item
	for _, item := range l.items {
		if item.WinningBid != nil && item.WinningBid.BidNum == bidNum {
			snap := item.Clone()
			undo.record(func() { l.items[snap.ID] = snap })
			item.WinningBid = nil
			item.UpdatedAt = now
			cleared = append(cleared, item)
		}
	}

	return l.writeAll(ctx, func() error {
		for _, item := range cleared {
			if err := l.store.UpdateItem(ctx, item); err != nil {
				return err
			}
		}
		return l.store.DeleteAttendee(ctx, bidNum)
	}, undo)
}

// writeAll runs the remote writes and rolls the in-memory state back on failure.
func (l *Ledger) writeAll(_ context.Context, writes func() error, undo undoLog) error {
	if err := writes(); err != nil {
		undo.rollback()
		return err
	}
	return nil
}

// FindItem returns a copy of the item, or false when absent. Never fails.
func (l *Ledger) FindItem(id string) (*models.Item, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	item, ok := l.items[id]
	if !ok {
		return nil, false
	}
	return item.Clone(), true
}

// FindAttendee returns a copy of the attendee, or false when absent. Never fails.
func (l *Ledger) FindAttendee(bidNum string) (*models.Attendee, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	attendee, ok := l.attendees[bidNum]
	if !ok {
		return nil, false
	}
	return attendee.Clone(), true
}

// Items returns copies of all items ordered by id ascending.
func (l *Ledger) Items() []*models.Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.itemsLocked()
}

func (l *Ledger) itemsLocked() []*models.Item {
	out := make([]*models.Item, 0, len(l.items))
	for _, item := range l.items {
		out = append(out, item.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Attendees returns copies of all attendees ordered by bid number ascending.
func (l *Ledger) Attendees() []*models.Attendee {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.attendeesLocked()
}

func (l *Ledger) attendeesLocked() []*models.Attendee {
	out := make([]*models.Attendee, 0, len(l.attendees))
	for _, attendee := range l.attendees {
		out = append(out, attendee.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BidNum < out[j].BidNum })
	return out
}

// Snapshot returns both collections under a single lock acquisition,
// ordered by natural key. Used for the continuity cache and the CSV export.
func (l *Ledger) Snapshot() ([]*models.Item, []*models.Attendee) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.itemsLocked(), l.attendeesLocked()
}

// ItemsWonBy returns copies of the items the attendee has won, in the order
// the wins were recorded. Returns nil for an unknown attendee.
func (l *Ledger) ItemsWonBy(bidNum string) []*models.Item {
	l.mu.RLock()
	defer l.mu.RUnlock()

	attendee, ok := l.attendees[bidNum]
	if !ok {
		return nil
	}
	out := make([]*models.Item, 0, len(attendee.WonItems))
	for _, id := range attendee.WonItems {
		if item, ok := l.items[id]; ok && item.WinningBid != nil && item.WinningBid.BidNum == bidNum {
			out = append(out, item.Clone())
		}
	}
	return out
}

// TotalSpent sums the winning-bid amounts over all items currently won by the
// attendee. The item collection is the source of truth; the value is never
// stored. An unknown attendee totals zero.
func (l *Ledger) TotalSpent(bidNum string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var total float64
	for _, item := range l.items {
		if item.WinningBid != nil && item.WinningBid.BidNum == bidNum {
			total += item.WinningBid.Amount
		}
	}
	return models.RoundCents(total)
}

// TotalRevenue sums the winning-bid amounts over all sold items.
func (l *Ledger) TotalRevenue() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var total float64
	for _, item := range l.items {
		if item.WinningBid != nil {
			total += item.WinningBid.Amount
		}
	}
	return models.RoundCents(total)
}

// ApplyItemChange applies a change-feed event with same-key upsert semantics:
// created and updated both replace the record wholesale, deleted removes it.
// Applying the same event twice, or applying an echo of a local write, leaves
// the collection unchanged. Cross-reference invariants are the writer's
// responsibility; the feed replays rows exactly as the store saw them.
func (l *Ledger) ApplyItemChange(kind events.Kind, key string, item *models.Item) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch kind {
	case events.KindCreated, events.KindUpdated:
		if item != nil {
			l.items[key] = item.Clone()
		}
	case events.KindDeleted:
		delete(l.items, key)
	}
}

// ApplyAttendeeChange is the attendee-collection counterpart of ApplyItemChange.
func (l *Ledger) ApplyAttendeeChange(kind events.Kind, key string, attendee *models.Attendee) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch kind {
	case events.KindCreated, events.KindUpdated:
		if attendee != nil {
			l.attendees[key] = attendee.Clone()
		}
	case events.KindDeleted:
		delete(l.attendees, key)
	}
}

// Replace swaps in a full set of records, used by the initial load and the
// snapshot fallback. The inputs are cloned; callers keep their slices.
func (l *Ledger) Replace(items []*models.Item, attendees []*models.Attendee) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = make(map[string]*models.Item, len(items))
	for _, item := range items {
		l.items[item.ID] = item.Clone()
	}
	l.attendees = make(map[string]*models.Attendee, len(attendees))
	for _, attendee := range attendees {
		l.attendees[attendee.BidNum] = attendee.Clone()
	}
}
