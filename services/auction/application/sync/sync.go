// Package sync keeps the in-memory ledger aligned with the remote store.
//
// Startup loads both collections from the store; if the store is unreachable
// for transport reasons the last continuity snapshot is restored instead and
// the service runs degraded until a restart succeeds. Configuration failures
// (missing relations, denied access) are not masked by the fallback.
//
// After loading, the service follows the change feed under a process-unique
// consumer group, so every replica observes every row change and converges on
// the same working set.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/ghuser/auctiondesk/pkg/cache"
	"github.com/ghuser/auctiondesk/pkg/logger"
	"github.com/ghuser/auctiondesk/services/auction/domain"
	"github.com/ghuser/auctiondesk/services/auction/domain/events"
	"github.com/ghuser/auctiondesk/services/auction/domain/ledger"
	"github.com/ghuser/auctiondesk/services/auction/domain/models"
	"github.com/ghuser/auctiondesk/services/auction/domain/repositories"
)

// Feed is the subset of the event bus the sync service consumes.
type Feed interface {
	SubscribeBroadcast(ctx context.Context, topic, group string, handler func(context.Context, *message.Message) error) (<-chan error, error)
}

// Snapshots is the continuity cache interface, implemented by cache.SnapshotStore.
type Snapshots interface {
	Save(ctx context.Context, key string, v any) error
	Load(ctx context.Context, key string, dest any) error
}

// Service owns the load-follow-persist lifecycle of the ledger's working set.
type Service struct {
	ledger   *ledger.Ledger
	store    repositories.Store
	feed     Feed
	snaps    Snapshots
	log      logger.Logger
	degraded atomic.Bool
}

// New wires a sync Service. snaps may be nil when no continuity cache is
// configured; Load then has no fallback and Persist is a no-op.
func New(l *ledger.Ledger, store repositories.Store, feed Feed, snaps Snapshots, log logger.Logger) *Service {
	return &Service{
		ledger: l,
		store:  store,
		feed:   feed,
		snaps:  snaps,
		log:    log,
	}
}

// Load fills the ledger from the remote store. Transport failures fall back
// to the continuity snapshot and mark the service degraded; configuration
// failures are returned as-is because a snapshot would only mask them.
func (s *Service) Load(ctx context.Context) error {
	items, attendees, err := s.loadRemote(ctx)
	if err == nil {
		s.ledger.Replace(items, attendees)
		s.degraded.Store(false)
		if persistErr := s.Persist(ctx); persistErr != nil {
			s.log.WarnContext(ctx, "sync: failed to refresh continuity snapshot", "error", persistErr)
		}
		return nil
	}

	if errors.Is(err, domain.ErrNotProvisioned) || errors.Is(err, domain.ErrPermissionDenied) {
		return err
	}
	if s.snaps == nil {
		return err
	}

	snapItems, snapAttendees, snapErr := s.loadSnapshot(ctx)
	if snapErr != nil {
		s.log.ErrorContext(ctx, "sync: store unreachable and no usable snapshot",
			"store_error", err, "snapshot_error", snapErr)
		return err
	}

	s.ledger.Replace(snapItems, snapAttendees)
	s.degraded.Store(true)
	s.log.WarnContext(ctx, "sync: store unreachable, serving from continuity snapshot",
		"error", err,
		"items", len(snapItems),
		"attendees", len(snapAttendees),
	)
	return nil
}

func (s *Service) loadRemote(ctx context.Context) ([]*models.Item, []*models.Attendee, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load items: %w", err)
	}
	attendees, err := s.store.ListAttendees(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load attendees: %w", err)
	}
	return items, attendees, nil
}

func (s *Service) loadSnapshot(ctx context.Context) ([]*models.Item, []*models.Attendee, error) {
	var items []*models.Item
	if err := s.snaps.Load(ctx, cache.SnapshotItemsKey, &items); err != nil {
		return nil, nil, err
	}
	var attendees []*models.Attendee
	if err := s.snaps.Load(ctx, cache.SnapshotAttendeesKey, &attendees); err != nil {
		return nil, nil, err
	}
	return items, attendees, nil
}

// Start subscribes to both change topics under a process-unique consumer
// group and applies every event to the ledger. Returns after the
// subscriptions are established; delivery runs until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	group := "auction-feed-" + uuid.NewString()

	itemErrs, err := s.feed.SubscribeBroadcast(ctx, events.TopicItemChanged, group, s.handleItemChanged)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", events.TopicItemChanged, err)
	}
	attendeeErrs, err := s.feed.SubscribeBroadcast(ctx, events.TopicAttendeeChanged, group, s.handleAttendeeChanged)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", events.TopicAttendeeChanged, err)
	}

	go s.drain(ctx, events.TopicItemChanged, itemErrs)
	go s.drain(ctx, events.TopicAttendeeChanged, attendeeErrs)
	return nil
}

func (s *Service) drain(ctx context.Context, topic string, errs <-chan error) {
	for err := range errs {
		s.log.ErrorContext(ctx, "sync: feed handler gave up", "topic", topic, "error", err)
	}
}

// handleItemChanged applies one feed event. A payload that cannot be decoded
// is logged and dropped; redelivery cannot repair it.
func (s *Service) handleItemChanged(ctx context.Context, msg *message.Message) error {
	var event events.ItemChanged
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		s.log.ErrorContext(ctx, "sync: dropping undecodable item event",
			"message_id", msg.UUID, "error", err)
		return nil
	}
	s.ledger.ApplyItemChange(event.Kind, event.Key, event.Item)
	s.persistAfterEvent(ctx)
	return nil
}

func (s *Service) handleAttendeeChanged(ctx context.Context, msg *message.Message) error {
	var event events.AttendeeChanged
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		s.log.ErrorContext(ctx, "sync: dropping undecodable attendee event",
			"message_id", msg.UUID, "error", err)
		return nil
	}
	s.ledger.ApplyAttendeeChange(event.Kind, event.Key, event.Attendee)
	s.persistAfterEvent(ctx)
	return nil
}

func (s *Service) persistAfterEvent(ctx context.Context) {
	if err := s.Persist(ctx); err != nil {
		s.log.WarnContext(ctx, "sync: failed to refresh continuity snapshot", "error", err)
	}
}

// Persist writes the current working set to the continuity cache.
// Best-effort: a failure degrades the fallback, not the auction.
func (s *Service) Persist(ctx context.Context) error {
	if s.snaps == nil {
		return nil
	}
	items, attendees := s.ledger.Snapshot()
	if err := s.snaps.Save(ctx, cache.SnapshotItemsKey, items); err != nil {
		return err
	}
	return s.snaps.Save(ctx, cache.SnapshotAttendeesKey, attendees)
}

// Degraded reports whether the working set was loaded from the continuity
// snapshot instead of the store.
func (s *Service) Degraded() bool {
	return s.degraded.Load()
}

// ImportReport summarizes an ImportSnapshot run.
type ImportReport struct {
	ItemsImported     int `json:"itemsImported"`
	ItemsSkipped      int `json:"itemsSkipped"`
	AttendeesImported int `json:"attendeesImported"`
	AttendeesSkipped  int `json:"attendeesSkipped"`
}

// ImportSnapshot inserts records the store does not already hold, keyed by
// natural key; existing keys are skipped, never overwritten. Used to seed a
// freshly provisioned store from an exported snapshot. Attendees import
// before items so winner references land on existing rows.
func (s *Service) ImportSnapshot(ctx context.Context, items []*models.Item, attendees []*models.Attendee) (ImportReport, error) {
	var report ImportReport

	for _, attendee := range attendees {
		if _, exists := s.ledger.FindAttendee(attendee.BidNum); exists {
			report.AttendeesSkipped++
			continue
		}
		if err := s.store.InsertAttendee(ctx, attendee); err != nil {
			if errors.Is(err, domain.ErrDuplicateKey) {
				report.AttendeesSkipped++
				continue
			}
			return report, fmt.Errorf("import attendee %s: %w", attendee.BidNum, err)
		}
		s.ledger.ApplyAttendeeChange(events.KindCreated, attendee.BidNum, attendee)
		report.AttendeesImported++
	}

	for _, item := range items {
		if _, exists := s.ledger.FindItem(item.ID); exists {
			report.ItemsSkipped++
			continue
		}
		if err := s.store.InsertItem(ctx, item); err != nil {
			if errors.Is(err, domain.ErrDuplicateKey) {
				report.ItemsSkipped++
				continue
			}
			return report, fmt.Errorf("import item %s: %w", item.ID, err)
		}
		s.ledger.ApplyItemChange(events.KindCreated, item.ID, item)
		report.ItemsImported++
	}

	if err := s.Persist(ctx); err != nil {
		s.log.WarnContext(ctx, "sync: failed to refresh continuity snapshot after import", "error", err)
	}
	return report, nil
}
