package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/ticketflow/internal/model"
)

// EventRepo persists events, their artist links and ticket types.
type EventRepo struct{ DB *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{DB: db} }

// EventFilter narrows List. Zero values mean no filter.
type EventFilter struct {
	Status   model.EventStatus
	ArtistID uint64
}

const eventSelect = `SELECT e.id, e.name, COALESCE(e.description, ''), e.starts_at, e.ends_at, e.status, e.created_at, e.updated_at FROM events e`

func scanEvent(row rowScanner) (model.Event, error) {
	var ev model.Event
	err := row.Scan(&ev.ID, &ev.Name, &ev.Description, &ev.StartsAt, &ev.EndsAt, &ev.Status, &ev.CreatedAt, &ev.UpdatedAt)
	return ev, err
}

// List returns events ordered by start time with artists and ticket types
// attached.
func (r *EventRepo) List(ctx context.Context, f EventFilter) ([]model.Event, error) {
	q := eventSelect
	var (
		where []string
		args  []any
	)
	if f.ArtistID != 0 {
		q += " JOIN event_artists fa ON fa.event_id = e.id"
		where, args = append(where, "fa.artist_id = ?"), append(args, f.ArtistID)
	}
	if f.Status != "" {
		where, args = append(where, "e.status = ?"), append(args, string(f.Status))
	}
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY e.starts_at, e.id"

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []model.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attach(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

// Get returns one event with artists and every ticket type, active or not.
func (r *EventRepo) Get(ctx context.Context, id uint64) (model.Event, error) {
	ev, err := scanEvent(r.DB.QueryRowContext(ctx, eventSelect+" WHERE e.id = ?", id))
	if err != nil {
		return model.Event{}, noRows(err)
	}
	evs := []model.Event{ev}
	if err := r.attach(ctx, evs); err != nil {
		return model.Event{}, err
	}
	return evs[0], nil
}

// attach loads artist links and ticket types for events in two queries.
func (r *EventRepo) attach(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	idx := make(map[uint64]int, len(events))
	ids := make([]any, 0, len(events))
	for i := range events {
		idx[events[i].ID] = i
		ids = append(ids, events[i].ID)
		events[i].ArtistIDs = []uint64{}
		events[i].TicketTypes = []model.TicketType{}
	}
	in := placeholders(len(ids))

	rows, err := r.DB.QueryContext(ctx,
		"SELECT event_id, artist_id FROM event_artists WHERE event_id IN ("+in+") ORDER BY artist_id", ids...)
	if err != nil {
		return err
	}
	for rows.Next() {
		var eventID, artistID uint64
		if err := rows.Scan(&eventID, &artistID); err != nil {
			rows.Close()
			return err
		}
		events[idx[eventID]].ArtistIDs = append(events[idx[eventID]].ArtistIDs, artistID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.DB.QueryContext(ctx, ticketTypeSelect+" WHERE event_id IN ("+in+") ORDER BY id", ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		tt, err := scanTicketType(rows)
		if err != nil {
			return err
		}
		events[idx[tt.EventID]].TicketTypes = append(events[idx[tt.EventID]].TicketTypes, tt)
	}
	return rows.Err()
}

// ArtistIDs returns the artists linked to an event. A missing event is
// model.ErrNotFound; an event without artists returns an empty slice.
func (r *EventRepo) ArtistIDs(ctx context.Context, eventID uint64) ([]uint64, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT ea.artist_id FROM events e LEFT JOIN event_artists ea ON ea.event_id = e.id WHERE e.id = ?", eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	found := false
	ids := []uint64{}
	for rows.Next() {
		found = true
		var id sql.NullInt64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if id.Valid {
			ids = append(ids, uint64(id.Int64))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, model.ErrNotFound
	}
	return ids, nil
}

// Create inserts ev with its artist links and ticket types in one
// transaction and fills in the generated ids.
func (r *EventRepo) Create(ctx context.Context, ev *model.Event) error {
	if ev.Status == "" {
		ev.Status = model.EventDraft
	}
	return inTx(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO events (name, description, starts_at, ends_at, status) VALUES (?, ?, ?, ?, ?)",
			ev.Name, ev.Description, ev.StartsAt.UTC(), ev.EndsAt.UTC(), string(ev.Status))
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		ev.ID = uint64(id)
		for _, artistID := range ev.ArtistIDs {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO event_artists (event_id, artist_id) VALUES (?, ?)", ev.ID, artistID); err != nil {
				return fmt.Errorf("link artist %d: %w", artistID, err)
			}
		}
		return insertTicketTypes(ctx, tx, ev.ID, ev.TicketTypes)
	})
}

func insertTicketTypes(ctx context.Context, tx *sql.Tx, eventID uint64, types []model.TicketType) error {
	for i := range types {
		tt := &types[i]
		tt.EventID = eventID
		tt.IsActive = true
		tt.Sold = 0
		if tt.Currency == "" {
			tt.Currency = model.DefaultCurrency
		}
		if tt.Category == "" {
			tt.Category = "general"
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO ticket_types (event_id, name, category, price_cents, currency, quota, max_per_user, sold, is_active)
			 VALUES (?, ?, ?, ?, ?, ?, ?, 0, 1)`,
			eventID, tt.Name, tt.Category, tt.PriceCents, tt.Currency, nullableUint32(tt.Quota), nullableUint32(tt.MaxPerUser))
		if err != nil {
			return fmt.Errorf("insert ticket type %q: %w", tt.Name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		tt.ID = uint64(id)
	}
	return nil
}

// EventPatch lists the event columns an update may change. A non-nil
// TicketTypes replaces the event's active ticket configuration.
type EventPatch struct {
	Name        *string
	Description *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	Status      *model.EventStatus
	TicketTypes *[]model.TicketType
}

// Update applies p in one transaction. When p replaces the ticket
// configuration, every existing type of the event is deactivated and the
// new set inserted as active; deactivated types keep their sold counts and
// tickets. An empty patch only checks that the event exists.
func (r *EventRepo) Update(ctx context.Context, id uint64, p EventPatch) error {
	var (
		sets []string
		args []any
	)
	if p.Name != nil {
		sets, args = append(sets, "name = ?"), append(args, *p.Name)
	}
	if p.Description != nil {
		sets, args = append(sets, "description = ?"), append(args, *p.Description)
	}
	if p.StartsAt != nil {
		sets, args = append(sets, "starts_at = ?"), append(args, p.StartsAt.UTC())
	}
	if p.EndsAt != nil {
		sets, args = append(sets, "ends_at = ?"), append(args, p.EndsAt.UTC())
	}
	if p.Status != nil {
		sets, args = append(sets, "status = ?"), append(args, string(*p.Status))
	}

	return inTx(ctx, r.DB, func(tx *sql.Tx) error {
		var one int
		if err := tx.QueryRowContext(ctx, "SELECT 1 FROM events WHERE id = ? FOR UPDATE", id).Scan(&one); err != nil {
			return noRows(err)
		}
		if len(sets) > 0 {
			if _, err := tx.ExecContext(ctx, "UPDATE events SET "+strings.Join(sets, ", ")+" WHERE id = ?", append(args, id)...); err != nil {
				return fmt.Errorf("update event: %w", err)
			}
		}
		if p.TicketTypes == nil {
			return nil
		}
		if _, err := tx.ExecContext(ctx, "UPDATE ticket_types SET is_active = 0 WHERE event_id = ?", id); err != nil {
			return fmt.Errorf("deactivate ticket types: %w", err)
		}
		return insertTicketTypes(ctx, tx, id, *p.TicketTypes)
	})
}

// Delete removes an event, its links and ticket types. Events with any
// sold unit are model.ErrConflict.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	return inTx(ctx, r.DB, func(tx *sql.Tx) error {
		var one int
		if err := tx.QueryRowContext(ctx, "SELECT 1 FROM events WHERE id = ? FOR UPDATE", id).Scan(&one); err != nil {
			return noRows(err)
		}
		// Locking read: a reservation committing concurrently must be seen
		// here, or the ticket_types delete trips the tickets foreign key.
		var sold int64
		if err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(SUM(sold), 0) FROM ticket_types WHERE event_id = ? FOR UPDATE", id).Scan(&sold); err != nil {
			return err
		}
		if sold > 0 {
			return model.ErrConflict
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM ticket_types WHERE event_id = ?", id); err != nil {
			return fmt.Errorf("delete ticket types: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM event_artists WHERE event_id = ?", id); err != nil {
			return fmt.Errorf("delete artist links: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id); err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		return nil
	})
}
