package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"jecistore/internal/domain"
)

// CartRepo works against either the pool or an open transaction.
type CartRepo struct{ q sqlx.ExtContext }

func NewCartRepo(q sqlx.ExtContext) *CartRepo { return &CartRepo{q: q} }

const cartCols = `id, user_id, session_key, COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at`

func (r *CartRepo) Get(ctx context.Context, cartID string) (domain.Cart, error) {
	var c domain.Cart
	err := sqlx.GetContext(ctx, r.q, &c, `SELECT `+cartCols+` FROM carts WHERE id = ?`, cartID)
	return c, notFound(err)
}

func (r *CartRepo) ByUser(ctx context.Context, userID string) (domain.Cart, error) {
	var c domain.Cart
	err := sqlx.GetContext(ctx, r.q, &c, `SELECT `+cartCols+` FROM carts WHERE user_id = ?`, userID)
	return c, notFound(err)
}

// EnsureForUser returns the identity cart, creating it on first use.
func (r *CartRepo) EnsureForUser(ctx context.Context, userID string) (domain.Cart, bool, error) {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO carts(id, user_id, created_at, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO NOTHING
	`, uuid.NewString(), userID)
	if err != nil {
		return domain.Cart{}, false, err
	}
	n, _ := res.RowsAffected()
	c, err := r.ByUser(ctx, userID)
	return c, n > 0, err
}

// Anonymous looks up a session cart by id, scoped to the session key it was created for.
func (r *CartRepo) Anonymous(ctx context.Context, cartID, sessionKey string) (domain.Cart, error) {
	var c domain.Cart
	err := sqlx.GetContext(ctx, r.q, &c, `
		SELECT `+cartCols+` FROM carts
		WHERE id = ? AND session_key = ? AND user_id IS NULL
	`, cartID, sessionKey)
	return c, notFound(err)
}

func (r *CartRepo) CreateAnonymous(ctx context.Context, sessionKey string) (domain.Cart, error) {
	id := uuid.NewString()
	if _, err := r.q.ExecContext(ctx, `
		INSERT INTO carts(id, session_key, created_at, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, id, sessionKey); err != nil {
		return domain.Cart{}, err
	}
	return r.Get(ctx, id)
}

func (r *CartRepo) Delete(ctx context.Context, cartID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM carts WHERE id = ?`, cartID)
	return err
}

func (r *CartRepo) Touch(ctx context.Context, cartID string) error {
	_, err := r.q.ExecContext(ctx, `UPDATE carts SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, cartID)
	return err
}

// Lines returns the cart's items joined with live product data, oldest first.
func (r *CartRepo) Lines(ctx context.Context, cartID string) ([]domain.CartLine, error) {
	out := []domain.CartLine{}
	err := sqlx.SelectContext(ctx, r.q, &out, `
		SELECT ci.id AS item_id, ci.product_id, p.name AS product_name, ci.quantity,
		       p.price, p.stock, p.tracking_code
		FROM cart_items ci JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = ?
		ORDER BY ci.id
	`, cartID)
	return out, err
}

func (r *CartRepo) Item(ctx context.Context, itemID int64) (domain.CartItem, error) {
	var it domain.CartItem
	err := sqlx.GetContext(ctx, r.q, &it,
		`SELECT id, cart_id, product_id, quantity FROM cart_items WHERE id = ?`, itemID)
	return it, notFound(err)
}

func (r *CartRepo) ItemByProduct(ctx context.Context, cartID string, productID int64) (domain.CartItem, error) {
	var it domain.CartItem
	err := sqlx.GetContext(ctx, r.q, &it,
		`SELECT id, cart_id, product_id, quantity FROM cart_items WHERE cart_id = ? AND product_id = ?`,
		cartID, productID)
	return it, notFound(err)
}

// AddQuantity increments the (cart, product) line, inserting it if absent.
func (r *CartRepo) AddQuantity(ctx context.Context, cartID string, productID int64, qty int) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO cart_items(cart_id, product_id, quantity, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(cart_id, product_id) DO UPDATE
		SET quantity = cart_items.quantity + excluded.quantity, updated_at = CURRENT_TIMESTAMP
	`, cartID, productID, qty)
	return err
}

func (r *CartRepo) SetQuantity(ctx context.Context, itemID int64, qty int) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE cart_items SET quantity = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, qty, itemID)
	return err
}

func (r *CartRepo) DeleteItem(ctx context.Context, itemID int64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM cart_items WHERE id = ?`, itemID)
	return err
}

func (r *CartRepo) CountItems(ctx context.Context, cartID string) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.q, &n, `SELECT COUNT(*) FROM cart_items WHERE cart_id = ?`, cartID)
	return n, err
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}
