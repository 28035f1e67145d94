package repositories

import (
	"context"

	"github.com/ghuser/auctiondesk/services/auction/domain/models"
)

// Store is the persistence interface for the auction collections.
// The domain layer owns this interface; infrastructure implements it.
//
// Implementations map backend failures onto the domain sentinels: unique-key
// collisions return ErrDuplicateKey, a missing relation returns
// ErrNotProvisioned, an access-policy rejection returns ErrPermissionDenied,
// and any other transport failure is wrapped in ErrRemoteWrite. Each write
// also publishes the matching change-feed event in the same transaction.
type Store interface {
	// ListItems returns every item ordered by id ascending.
	ListItems(ctx context.Context) ([]*models.Item, error)
	InsertItem(ctx context.Context, item *models.Item) error
	UpdateItem(ctx context.Context, item *models.Item) error
	DeleteItem(ctx context.Context, id string) error

	// ListAttendees returns every attendee ordered by bid number ascending.
	ListAttendees(ctx context.Context) ([]*models.Attendee, error)
	InsertAttendee(ctx context.Context, attendee *models.Attendee) error
	UpdateAttendee(ctx context.Context, attendee *models.Attendee) error
	DeleteAttendee(ctx context.Context, bidNum string) error
}
