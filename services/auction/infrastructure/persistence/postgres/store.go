// Package postgres implements the auction Store on PostgreSQL.
//
// Every write runs in a transaction that also publishes the matching
// change-feed event through the Watermill SQL publisher, so a committed row
// and its event are atomic: followers never observe one without the other.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ghuser/auctiondesk/pkg/database"
	pkgevents "github.com/ghuser/auctiondesk/pkg/events"
	"github.com/ghuser/auctiondesk/services/auction/domain"
	"github.com/ghuser/auctiondesk/services/auction/domain/events"
	"github.com/ghuser/auctiondesk/services/auction/domain/models"
)

// PostgreSQL error codes surfaced to the domain.
const (
	codeUniqueViolation  = "23505"
	codeUndefinedTable   = "42P01"
	codePermissionDenied = "42501"
)

// Store persists both auction collections and feeds the change topics.
type Store struct {
	db  *database.Database
	bus *pkgevents.EventBus
}

// New returns a Store writing through db and publishing on bus.
func New(db *database.Database, bus *pkgevents.EventBus) *Store {
	return &Store{db: db, bus: bus}
}

// mapError translates backend failures onto the domain sentinels.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s: %s", domain.ErrDuplicateKey, op, pgErr.Detail)
		case codeUndefinedTable:
			return fmt.Errorf("%w: %s: relation missing", domain.ErrNotProvisioned, op)
		case codePermissionDenied:
			return fmt.Errorf("%w: %s", domain.ErrPermissionDenied, op)
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, op)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrRemoteWrite, op, err)
}

func (s *Store) ListItems(ctx context.Context) ([]*models.Item, error) {
	rows, err := s.db.DB().QueryContext(ctx, `
		SELECT id, name, section, winning_bid, created_at, updated_at
		FROM items
		ORDER BY id ASC`)
	if err != nil {
		return nil, mapError("list items", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, mapError("scan item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list items", err)
	}
	return items, nil
}

func scanItem(rows *sql.Rows) (*models.Item, error) {
	var (
		item       models.Item
		winningBid []byte
	)
	if err := rows.Scan(&item.ID, &item.Name, &item.Section, &winningBid, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	if len(winningBid) > 0 {
		var wb models.WinningBid
		if err := json.Unmarshal(winningBid, &wb); err != nil {
			return nil, fmt.Errorf("decode winning_bid for item %s: %w", item.ID, err)
		}
		item.WinningBid = &wb
	}
	return &item, nil
}

func (s *Store) InsertItem(ctx context.Context, item *models.Item) error {
	wb, err := marshalWinningBid(item.WinningBid)
	if err != nil {
		return mapError("insert item", err)
	}
	return mapError("insert item", s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO items (id, name, section, winning_bid, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			item.ID, item.Name, item.Section, wb, item.CreatedAt, item.UpdatedAt,
		); err != nil {
			return err
		}
		return s.publishItemChange(tx, events.KindCreated, item.ID, item)
	}))
}

func (s *Store) UpdateItem(ctx context.Context, item *models.Item) error {
	wb, err := marshalWinningBid(item.WinningBid)
	if err != nil {
		return mapError("update item", err)
	}
	return mapError("update item", s.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE items
			SET name = $2, section = $3, winning_bid = $4, updated_at = $5
			WHERE id = $1`,
			item.ID, item.Name, item.Section, wb, item.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return sql.ErrNoRows
		}
		return s.publishItemChange(tx, events.KindUpdated, item.ID, item)
	}))
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	return mapError("delete item", s.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return sql.ErrNoRows
		}
		return s.publishItemChange(tx, events.KindDeleted, id, nil)
	}))
}

func (s *Store) ListAttendees(ctx context.Context) ([]*models.Attendee, error) {
	rows, err := s.db.DB().QueryContext(ctx, `
		SELECT bid_num, name, won_items, created_at, updated_at
		FROM attendees
		ORDER BY bid_num ASC`)
	if err != nil {
		return nil, mapError("list attendees", err)
	}
	defer rows.Close()

	var attendees []*models.Attendee
	for rows.Next() {
		attendee, err := scanAttendee(rows)
		if err != nil {
			return nil, mapError("scan attendee", err)
		}
		attendees = append(attendees, attendee)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list attendees", err)
	}
	return attendees, nil
}

func scanAttendee(rows *sql.Rows) (*models.Attendee, error) {
	var (
		attendee models.Attendee
		wonItems []byte
	)
	if err := rows.Scan(&attendee.BidNum, &attendee.Name, &wonItems, &attendee.CreatedAt, &attendee.UpdatedAt); err != nil {
		return nil, err
	}
	attendee.WonItems = []string{}
	if len(wonItems) > 0 {
		if err := json.Unmarshal(wonItems, &attendee.WonItems); err != nil {
			return nil, fmt.Errorf("decode won_items for attendee %s: %w", attendee.BidNum, err)
		}
	}
	return &attendee, nil
}

func (s *Store) InsertAttendee(ctx context.Context, attendee *models.Attendee) error {
	won, err := json.Marshal(attendee.WonItems)
	if err != nil {
		return mapError("insert attendee", err)
	}
	return mapError("insert attendee", s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO attendees (bid_num, name, won_items, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)`,
			attendee.BidNum, attendee.Name, won, attendee.CreatedAt, attendee.UpdatedAt,
		); err != nil {
			return err
		}
		return s.publishAttendeeChange(tx, events.KindCreated, attendee.BidNum, attendee)
	}))
}

func (s *Store) UpdateAttendee(ctx context.Context, attendee *models.Attendee) error {
	won, err := json.Marshal(attendee.WonItems)
	if err != nil {
		return mapError("update attendee", err)
	}
	return mapError("update attendee", s.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE attendees
			SET name = $2, won_items = $3, updated_at = $4
			WHERE bid_num = $1`,
			attendee.BidNum, attendee.Name, won, attendee.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return sql.ErrNoRows
		}
		return s.publishAttendeeChange(tx, events.KindUpdated, attendee.BidNum, attendee)
	}))
}

func (s *Store) DeleteAttendee(ctx context.Context, bidNum string) error {
	return mapError("delete attendee", s.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM attendees WHERE bid_num = $1`, bidNum)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return sql.ErrNoRows
		}
		return s.publishAttendeeChange(tx, events.KindDeleted, bidNum, nil)
	}))
}

func marshalWinningBid(wb *models.WinningBid) ([]byte, error) {
	if wb == nil {
		return nil, nil
	}
	return json.Marshal(wb)
}

func (s *Store) publishItemChange(tx *sql.Tx, kind events.Kind, key string, item *models.Item) error {
	event := events.ItemChanged{
		EventID:    uuid.New(),
		Version:    1,
		Kind:       kind,
		Key:        key,
		Item:       item,
		OccurredAt: time.Now().UTC(),
	}
	return s.publishInTx(tx, events.TopicItemChanged, event)
}

func (s *Store) publishAttendeeChange(tx *sql.Tx, kind events.Kind, key string, attendee *models.Attendee) error {
	event := events.AttendeeChanged{
		EventID:    uuid.New(),
		Version:    1,
		Kind:       kind,
		Key:        key,
		Attendee:   attendee,
		OccurredAt: time.Now().UTC(),
	}
	return s.publishInTx(tx, events.TopicAttendeeChanged, event)
}

func (s *Store) publishInTx(tx *sql.Tx, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}
	pub, err := s.bus.NewTxPublisher(tx)
	if err != nil {
		return err
	}
	return pub.Publish(topic, message.NewMessage(watermill.NewUUID(), payload))
}
