// Package events defines the change-feed contract for the auction collections.
// The store publishes one event per row write, transactionally with the write;
// followers apply them to their in-memory working set with same-key upsert
// semantics, so replaying or reordering events is safe.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/auctiondesk/services/auction/domain/models"
)

// Watermill topics carrying the change feed, one per collection.
const (
	TopicItemChanged     = "auction.item.changed"
	TopicAttendeeChanged = "auction.attendee.changed"
)

// Kind tags what happened to the row.
type Kind string

const (
	KindCreated Kind = "created"
	KindUpdated Kind = "updated"
	KindDeleted Kind = "deleted"
)

// ItemChanged is published after an item row is written or removed.
// Item carries the full row for created/updated and is nil for deleted.
type ItemChanged struct {
	EventID    uuid.UUID    `json:"event_id"` // unique publish-time identifier for deduplication
	Version    int          `json:"version"`  // schema version; increment on breaking changes
	Kind       Kind         `json:"kind"`
	Key        string       `json:"key"`
	Item       *models.Item `json:"item,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// AttendeeChanged is published after an attendee row is written or removed.
// Attendee carries the full row for created/updated and is nil for deleted.
type AttendeeChanged struct {
	EventID    uuid.UUID        `json:"event_id"`
	Version    int              `json:"version"`
	Kind       Kind             `json:"kind"`
	Key        string           `json:"key"`
	Attendee   *models.Attendee `json:"attendee,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}
