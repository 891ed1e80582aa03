package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/ticketflow/internal/model"
)

// UserRepo is the credential store over the `users` table. Artist
// profiles live in `artists` and are joined in on every read.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userSelect = `SELECT u.id, u.name, u.email, u.password_hash, u.role, u.status, u.failed_attempts,
 u.last_login_at, u.created_at, u.updated_at, a.id
 FROM users u LEFT JOIN artists a ON a.user_id = u.id`

type rowScanner interface{ Scan(dest ...any) error }

func scanUser(row rowScanner) (model.User, error) {
	var (
		u        model.User
		role     sql.NullString
		lastSeen sql.NullTime
		artistID sql.NullInt64
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.Status, &u.FailedAttempts,
		&lastSeen, &u.CreatedAt, &u.UpdatedAt, &artistID)
	if err != nil {
		return model.User{}, err
	}
	if role.Valid && role.String != "" {
		r := model.Role(role.String)
		u.Role = &r
	}
	if lastSeen.Valid {
		t := lastSeen.Time
		u.LastLoginAt = &t
	}
	u.ArtistID = uint64Ptr(artistID)
	return u, nil
}

// Create inserts u and sets u.ID. When artist is non-nil an artist
// profile linked to the new user is inserted in the same transaction and
// both artist.ID and u.ArtistID are set. A taken email is
// model.ErrDuplicateEmail.
func (r *UserRepo) Create(ctx context.Context, u *model.User, artist *model.Artist) error {
	u.Email = model.NormalizeEmail(u.Email)
	if u.Status == "" {
		u.Status = model.StatusActive
	}
	return inTx(ctx, r.DB, func(tx *sql.Tx) error {
		var role any
		if u.Role != nil {
			role = string(*u.Role)
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO users (name, email, password_hash, role, status) VALUES (?, ?, ?, ?, ?)",
			u.Name, u.Email, u.PasswordHash, role, string(u.Status))
		if err != nil {
			if isDuplicateKey(err) {
				return model.ErrDuplicateEmail
			}
			return fmt.Errorf("insert user: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		u.ID = uint64(id)
		if artist == nil {
			return nil
		}
		artist.UserID = &u.ID
		res, err = tx.ExecContext(ctx,
			"INSERT INTO artists (user_id, name, contact_email, bio) VALUES (?, ?, ?, ?)",
			u.ID, artist.Name, artist.ContactEmail, artist.Bio)
		if err != nil {
			return fmt.Errorf("insert artist profile: %w", err)
		}
		aid, err := res.LastInsertId()
		if err != nil {
			return err
		}
		artist.ID = uint64(aid)
		u.ArtistID = &artist.ID
		return nil
	})
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, userSelect+" WHERE u.email = ? LIMIT 1", model.NormalizeEmail(email)))
	return u, noRows(err)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, userSelect+" WHERE u.id = ? LIMIT 1", id))
	return u, noRows(err)
}

// List returns every account ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, userSelect+" ORDER BY u.id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// IncrementFailedAttempts adds one to the failure counter and returns the
// new value. The increment is a single statement, so concurrent failures
// are never lost; the read happens under the row lock the update took.
func (r *UserRepo) IncrementFailedAttempts(ctx context.Context, id uint64) (uint32, error) {
	var n uint32
	err := inTx(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "UPDATE users SET failed_attempts = failed_attempts + 1 WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("increment failed attempts: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return model.ErrNotFound
		}
		return tx.QueryRowContext(ctx, "SELECT failed_attempts FROM users WHERE id = ?", id).Scan(&n)
	})
	return n, err
}

// RecordLogin clears the failure counter and stamps the login time.
func (r *UserRepo) RecordLogin(ctx context.Context, id uint64, at time.Time) error {
	return r.exec(ctx, "UPDATE users SET failed_attempts = 0, last_login_at = ? WHERE id = ?", at.UTC(), id)
}

// ResetFailedAttempts clears the failure counter (admin unlock).
func (r *UserRepo) ResetFailedAttempts(ctx context.Context, id uint64) error {
	return r.exec(ctx, "UPDATE users SET failed_attempts = 0 WHERE id = ?", id)
}

func (r *UserRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// UserPatch lists the columns an admin update may change. Nil fields are
// left untouched. Role replaces the stored role; it is never merged.
type UserPatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Role         *model.Role
	Status       *model.AccountStatus
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.PasswordHash == nil && p.Role == nil && p.Status == nil
}

// Update applies p to the user. Switching the role to artist makes sure an
// artist profile exists.
func (r *UserRepo) Update(ctx context.Context, id uint64, p UserPatch) error {
	var (
		sets []string
		args []any
	)
	if p.Name != nil {
		sets, args = append(sets, "name = ?"), append(args, *p.Name)
	}
	if p.Email != nil {
		sets, args = append(sets, "email = ?"), append(args, model.NormalizeEmail(*p.Email))
	}
	if p.PasswordHash != nil {
		sets, args = append(sets, "password_hash = ?"), append(args, *p.PasswordHash)
	}
	if p.Role != nil {
		sets, args = append(sets, "role = ?"), append(args, string(*p.Role))
	}
	if p.Status != nil {
		sets, args = append(sets, "status = ?"), append(args, string(*p.Status))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	return inTx(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			if isDuplicateKey(err) {
				return model.ErrDuplicateEmail
			}
			return fmt.Errorf("update user: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return model.ErrNotFound
		}
		if p.Role != nil && *p.Role == model.RoleArtist {
			if _, err := tx.ExecContext(ctx,
				"INSERT IGNORE INTO artists (user_id, name, contact_email) SELECT id, name, email FROM users WHERE id = ?",
				id); err != nil {
				return fmt.Errorf("ensure artist profile: %w", err)
			}
		}
		return nil
	})
}

// Delete removes a user. Accounts holding sold tickets are kept for the
// ticket history and yield model.ErrConflict.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	return inTx(ctx, r.DB, func(tx *sql.Tx) error {
		var sold int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM tickets WHERE user_id = ?", id).Scan(&sold); err != nil {
			return err
		}
		if sold > 0 {
			return model.ErrConflict
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return model.ErrNotFound
		}
		return nil
	})
}
