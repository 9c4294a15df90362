package repos

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"jecistore/internal/domain"
)

type UserRepo struct{ q sqlx.ExtContext }

func NewUserRepo(q sqlx.ExtContext) *UserRepo { return &UserRepo{q: q} }

func (r *UserRepo) ByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.q, &u,
		`SELECT id,username,email,password_hash FROM users WHERE LOWER(username)=LOWER(?)`, username)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.q, &u, `SELECT id,username,email,password_hash FROM users WHERE id=?`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, u domain.User) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users(id,username,email,password_hash) VALUES(?,?,?,?)`, u.ID, u.Username, u.Email, u.Hash)
	return err
}

func (r *UserRepo) CreateProfile(ctx context.Context, p domain.Profile) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO profiles(user_id,is_seller,phone,address) VALUES(?,?,?,?)`, p.UserID, p.IsSeller, p.Phone, p.Address)
	return err
}

// Profile reports ok=false when the user has no profile row.
func (r *UserRepo) Profile(ctx context.Context, userID string) (domain.Profile, bool, error) {
	var p domain.Profile
	err := sqlx.GetContext(ctx, r.q, &p, `SELECT user_id,is_seller,phone,address FROM profiles WHERE user_id=?`, userID)
	if err != nil {
		if err = notFound(err); errors.Is(err, domain.ErrNotFound) {
			return domain.Profile{}, false, nil
		}
		return domain.Profile{}, false, err
	}
	return p, true, nil
}

func (r *UserRepo) SetSeller(ctx context.Context, userID string, seller bool) error {
	_, err := r.q.ExecContext(ctx, `UPDATE profiles SET is_seller=? WHERE user_id=?`, seller, userID)
	return err
}
