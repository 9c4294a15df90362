package repos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"jecistore/internal/domain"
)

// SessionRepo backs the "sid" cookie: who is logged in and which anonymous cart the browser holds.
type SessionRepo struct{ q sqlx.ExtContext }

func NewSessionRepo(q sqlx.ExtContext) *SessionRepo { return &SessionRepo{q: q} }

type Session struct {
	ID     string         `db:"id"`
	UserID sql.NullString `db:"user_id"`
	CartID sql.NullString `db:"cart_id"`
}

// Ensure creates the session row if missing and refreshes last_seen.
func (r *SessionRepo) Ensure(ctx context.Context, sid string) (Session, error) {
	if _, err := r.q.ExecContext(ctx, `
		INSERT INTO sessions(id, last_seen) VALUES(?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET last_seen = CURRENT_TIMESTAMP
	`, sid); err != nil {
		return Session{}, err
	}
	var s Session
	err := sqlx.GetContext(ctx, r.q, &s, `SELECT id, user_id, cart_id FROM sessions WHERE id = ?`, sid)
	return s, err
}

func (r *SessionRepo) BindUser(ctx context.Context, sid, userID string) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO sessions(id, user_id, last_seen) VALUES(?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id, last_seen = CURRENT_TIMESTAMP
	`, sid, userID)
	return err
}

func (r *SessionRepo) UnbindUser(ctx context.Context, sid string) error {
	_, err := r.q.ExecContext(ctx, `UPDATE sessions SET user_id = NULL, last_seen = CURRENT_TIMESTAMP WHERE id = ?`, sid)
	return err
}

func (r *SessionRepo) User(ctx context.Context, sid string) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.q, &u, `
		SELECT u.id, u.username, u.email, u.password_hash
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.id = ?`, sid)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// SetCartID stores the anonymous cart reference; an empty id clears it.
func (r *SessionRepo) SetCartID(ctx context.Context, sid, cartID string) error {
	_, err := r.q.ExecContext(ctx, `UPDATE sessions SET cart_id = ? WHERE id = ?`,
		sql.NullString{String: cartID, Valid: cartID != ""}, sid)
	return err
}
