package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/ticketflow/internal/model"
)

// TicketTypeRepo owns ticket types, per-purchaser holdings and sold
// tickets. All inventory arithmetic happens in conditional UPDATE
// statements; the process keeps no counters of its own.
type TicketTypeRepo struct{ DB *sql.DB }

func NewTicketTypeRepo(db *sql.DB) *TicketTypeRepo { return &TicketTypeRepo{DB: db} }

const ticketTypeSelect = `SELECT id, event_id, name, category, price_cents, currency, quota, max_per_user, sold, is_active FROM ticket_types`

func scanTicketType(row rowScanner) (model.TicketType, error) {
	var (
		tt             model.TicketType
		quota, perUser sql.NullInt64
	)
	if err := row.Scan(&tt.ID, &tt.EventID, &tt.Name, &tt.Category, &tt.PriceCents, &tt.Currency,
		&quota, &perUser, &tt.Sold, &tt.IsActive); err != nil {
		return model.TicketType{}, err
	}
	tt.Quota = uint32Ptr(quota)
	tt.MaxPerUser = uint32Ptr(perUser)
	return tt, nil
}

// Get returns one ticket type.
func (r *TicketTypeRepo) Get(ctx context.Context, id uint64) (model.TicketType, error) {
	tt, err := scanTicketType(r.DB.QueryRowContext(ctx, ticketTypeSelect+" WHERE id = ?", id))
	return tt, noRows(err)
}

// Reservation is one request for units of a ticket type.
type Reservation struct {
	TicketTypeID uint64
	UserID       uint64
	Quantity     uint32
}

// Reserve allocates res.Quantity units in one transaction:
//
//  1. the purchaser's holding row is created if missing and grown only
//     while it stays within max_per_user (model.ErrPerUserCapExceeded);
//  2. sold grows only while it stays within quota
//     (model.ErrQuotaExceeded);
//  3. one ticket row with a fresh code is written per unit.
//
// A missing or inactive ticket type, or one whose event is not on sale,
// is model.ErrNotFound. Any failure rolls the whole allocation back.
func (r *TicketTypeRepo) Reserve(ctx context.Context, res Reservation) (model.Allocation, error) {
	if res.Quantity == 0 {
		return model.Allocation{}, model.ErrInvalidInput
	}
	var alloc model.Allocation
	err := inTx(ctx, r.DB, func(tx *sql.Tx) error {
		var (
			price    int64
			currency string
			active   bool
			status   string
		)
		err := tx.QueryRowContext(ctx,
			`SELECT t.price_cents, t.currency, t.is_active, e.status
			 FROM ticket_types t JOIN events e ON e.id = t.event_id WHERE t.id = ?`,
			res.TicketTypeID).Scan(&price, &currency, &active, &status)
		if err != nil {
			return noRows(err)
		}
		if !active || model.EventStatus(status) != model.EventActive {
			return model.ErrNotFound
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO ticket_holdings (ticket_type_id, user_id, quantity) VALUES (?, ?, 0) ON DUPLICATE KEY UPDATE quantity = quantity",
			res.TicketTypeID, res.UserID); err != nil {
			return fmt.Errorf("upsert holding: %w", err)
		}
		out, err := tx.ExecContext(ctx,
			`UPDATE ticket_holdings h JOIN ticket_types t ON t.id = h.ticket_type_id
			 SET h.quantity = h.quantity + ?
			 WHERE h.ticket_type_id = ? AND h.user_id = ? AND (t.max_per_user IS NULL OR h.quantity + ? <= t.max_per_user)`,
			res.Quantity, res.TicketTypeID, res.UserID, res.Quantity)
		if err != nil {
			return fmt.Errorf("grow holding: %w", err)
		}
		if n, _ := out.RowsAffected(); n == 0 {
			return model.ErrPerUserCapExceeded
		}

		out, err = tx.ExecContext(ctx,
			"UPDATE ticket_types SET sold = sold + ? WHERE id = ? AND is_active = 1 AND (quota IS NULL OR sold + ? <= quota)",
			res.Quantity, res.TicketTypeID, res.Quantity)
		if err != nil {
			return fmt.Errorf("grow sold: %w", err)
		}
		if n, _ := out.RowsAffected(); n == 0 {
			return model.ErrQuotaExceeded
		}

		codes := make([]string, res.Quantity)
		rows := make([]string, res.Quantity)
		args := make([]any, 0, 4*res.Quantity)
		for i := range codes {
			codes[i] = uuid.NewString()
			rows[i] = "(?, ?, ?, ?)"
			args = append(args, codes[i], res.TicketTypeID, res.UserID, price)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tickets (code, ticket_type_id, user_id, price_cents) VALUES "+strings.Join(rows, ", "),
			args...); err != nil {
			return fmt.Errorf("insert tickets: %w", err)
		}

		alloc = model.Allocation{
			TicketTypeID: res.TicketTypeID,
			UserID:       res.UserID,
			Quantity:     res.Quantity,
			TotalCents:   price * int64(res.Quantity),
			Currency:     currency,
			Codes:        codes,
		}
		return nil
	})
	if err != nil {
		return model.Allocation{}, err
	}
	return alloc, nil
}

// TicketTypePatch lists the columns an update may change.
type TicketTypePatch struct {
	Name       *string
	Category   *string
	PriceCents *int64
	Quota      *uint32
	MaxPerUser *uint32
}

// Update applies p. Price and quota are frozen once a unit has been sold;
// changing them then is model.ErrConflict. A quota below the units already
// sold is model.ErrInvalidInput.
func (r *TicketTypeRepo) Update(ctx context.Context, id uint64, p TicketTypePatch) error {
	return inTx(ctx, r.DB, func(tx *sql.Tx) error {
		var sold uint32
		if err := tx.QueryRowContext(ctx, "SELECT sold FROM ticket_types WHERE id = ? FOR UPDATE", id).Scan(&sold); err != nil {
			return noRows(err)
		}
		if sold > 0 && (p.PriceCents != nil || p.Quota != nil) {
			return model.ErrConflict
		}
		if p.Quota != nil && *p.Quota < sold {
			return model.ErrInvalidInput
		}
		var (
			sets []string
			args []any
		)
		if p.Name != nil {
			sets, args = append(sets, "name = ?"), append(args, *p.Name)
		}
		if p.Category != nil {
			sets, args = append(sets, "category = ?"), append(args, *p.Category)
		}
		if p.PriceCents != nil {
			sets, args = append(sets, "price_cents = ?"), append(args, *p.PriceCents)
		}
		if p.Quota != nil {
			sets, args = append(sets, "quota = ?"), append(args, *p.Quota)
		}
		if p.MaxPerUser != nil {
			sets, args = append(sets, "max_per_user = ?"), append(args, *p.MaxPerUser)
		}
		if len(sets) == 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx, "UPDATE ticket_types SET "+strings.Join(sets, ", ")+" WHERE id = ?", append(args, id)...); err != nil {
			return fmt.Errorf("update ticket type: %w", err)
		}
		return nil
	})
}

// Delete hard-deletes a ticket type that never sold anything. Any sold
// unit or ticket row is model.ErrConflict.
func (r *TicketTypeRepo) Delete(ctx context.Context, id uint64) error {
	return inTx(ctx, r.DB, func(tx *sql.Tx) error {
		var sold uint32
		if err := tx.QueryRowContext(ctx, "SELECT sold FROM ticket_types WHERE id = ? FOR UPDATE", id).Scan(&sold); err != nil {
			return noRows(err)
		}
		var tickets int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM tickets WHERE ticket_type_id = ?", id).Scan(&tickets); err != nil {
			return err
		}
		if sold > 0 || tickets > 0 {
			return model.ErrConflict
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM ticket_holdings WHERE ticket_type_id = ?", id); err != nil {
			return fmt.Errorf("delete holdings: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM ticket_types WHERE id = ?", id); err != nil {
			return fmt.Errorf("delete ticket type: %w", err)
		}
		return nil
	})
}

// TicketsByUser lists the sold units a purchaser holds, newest first.
func (r *TicketTypeRepo) TicketsByUser(ctx context.Context, userID uint64) ([]model.Ticket, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, code, ticket_type_id, user_id, status, price_cents, created_at FROM tickets WHERE user_id = ? ORDER BY created_at DESC, id DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Ticket{}
	for rows.Next() {
		var t model.Ticket
		if err := rows.Scan(&t.ID, &t.Code, &t.TicketTypeID, &t.UserID, &t.Status, &t.PriceCents, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
