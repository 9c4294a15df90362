package repos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"

	"jecistore/internal/domain"
)

type OrderRepo struct{ q sqlx.ExtContext }

func NewOrderRepo(q sqlx.ExtContext) *OrderRepo { return &OrderRepo{q: q} }

const orderCols = `
    o.id, o.user_id, o.session_key, o.full_name, o.shipping_address, o.contact_info, o.total_price, o.status,
    COALESCE(o.created_at,'') AS created_at, COALESCE(o.updated_at,'') AS updated_at`

const orderItemCols = `
    oi.id, oi.order_id, COALESCE(oi.product_id, 0) AS product_id, oi.product_name, oi.quantity,
    oi.price_at_purchase, oi.tracking_code, oi.status`

// Create inserts a new order header.
func (r *OrderRepo) Create(ctx context.Context, o domain.Order) error {
	_, err := r.q.ExecContext(ctx, `
	  INSERT INTO orders
	    (id, user_id, session_key, full_name, shipping_address, contact_info, total_price, status, created_at, updated_at)
	  VALUES
	    (?,  ?,       ?,           ?,         ?,                ?,            ?,           ?,      CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, o.ID, o.UserID, o.SessionKey, o.FullName, o.ShippingAddress, o.ContactInfo,
		o.TotalPrice.StringFixed(2), o.Status)
	return err
}

// InsertItem inserts a single line item and returns its id.
func (r *OrderRepo) InsertItem(ctx context.Context, it domain.OrderItem, sellerID sql.NullString) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
	  INSERT INTO order_items(order_id, product_id, seller_id, product_name, quantity, price_at_purchase, tracking_code, status)
	  VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	`, it.OrderID, it.ProductID, sellerID, it.ProductName, it.Quantity, it.PriceAtPurchase.StringFixed(2),
		it.TrackingCode, it.Status)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *OrderRepo) Get(ctx context.Context, orderID string) (domain.Order, error) {
	var o domain.Order
	if err := sqlx.GetContext(ctx, r.q, &o, `SELECT `+orderCols+` FROM orders o WHERE o.id = ?`, orderID); err != nil {
		return domain.Order{}, notFound(err)
	}
	items, err := r.Items(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	o.Items = items
	return o, nil
}

func (r *OrderRepo) Items(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	items := []domain.OrderItem{}
	err := sqlx.SelectContext(ctx, r.q, &items,
		`SELECT `+orderItemCols+` FROM order_items oi WHERE oi.order_id = ? ORDER BY oi.id`, orderID)
	return items, err
}

// Item returns one order line together with the seller it was sold by.
func (r *OrderRepo) Item(ctx context.Context, itemID int64) (domain.OrderItem, string, error) {
	var row struct {
		domain.OrderItem
		SellerID string `db:"seller_id"`
	}
	err := sqlx.GetContext(ctx, r.q, &row,
		`SELECT `+orderItemCols+`, COALESCE(oi.seller_id,'') AS seller_id FROM order_items oi WHERE oi.id = ?`, itemID)
	if err != nil {
		return domain.OrderItem{}, "", notFound(err)
	}
	return row.OrderItem, row.SellerID, nil
}

func (r *OrderRepo) UpdateItem(ctx context.Context, itemID int64, status domain.ItemStatus, tracking string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE order_items SET status = ?, tracking_code = ? WHERE id = ?`, status, tracking, itemID)
	return err
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, orderID)
	return err
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	out := []domain.Order{}
	err := sqlx.SelectContext(ctx, r.q, &out, `
		SELECT `+orderCols+` FROM orders o
		WHERE o.user_id = ?
		ORDER BY datetime(o.created_at) DESC, o.rowid DESC
	`, userID)
	return out, err
}

// ListBySession returns orders placed anonymously from a given session.
func (r *OrderRepo) ListBySession(ctx context.Context, sessionKey string) ([]domain.Order, error) {
	out := []domain.Order{}
	err := sqlx.SelectContext(ctx, r.q, &out, `
		SELECT `+orderCols+` FROM orders o
		WHERE o.session_key = ?
		ORDER BY datetime(o.created_at) DESC, o.rowid DESC
	`, sessionKey)
	return out, err
}

// OrderFilter narrows the seller order list. Status "" or "all" means any.
type OrderFilter struct {
	Q      string
	Status string
}

// ListForSeller returns orders that contain at least one item sold by sellerID, newest first.
func (r *OrderRepo) ListForSeller(ctx context.Context, sellerID string, f OrderFilter) ([]domain.Order, error) {
	where := `EXISTS (SELECT 1 FROM order_items s WHERE s.order_id = o.id AND s.seller_id = ?)`
	args := []any{sellerID}
	if q := strings.ToLower(strings.TrimSpace(f.Q)); q != "" {
		like := "%" + q + "%"
		where += ` AND (LOWER(o.id) LIKE ? OR LOWER(COALESCE(u.username,'')) LIKE ?
		           OR LOWER(o.shipping_address) LIKE ? OR LOWER(o.contact_info) LIKE ?
		           OR EXISTS (SELECT 1 FROM order_items m WHERE m.order_id = o.id
		                      AND (LOWER(m.product_name) LIKE ? OR LOWER(m.tracking_code) LIKE ?)))`
		args = append(args, like, like, like, like, like, like)
	}
	if f.Status != "" && f.Status != "all" {
		where += ` AND o.status = ?`
		args = append(args, f.Status)
	}
	out := []domain.Order{}
	err := sqlx.SelectContext(ctx, r.q, &out, `
		SELECT `+orderCols+`
		FROM orders o LEFT JOIN users u ON u.id = o.user_id
		WHERE `+where+`
		ORDER BY datetime(o.created_at) DESC, o.rowid DESC
	`, args...)
	return out, err
}

// HasSellerItems reports whether sellerID sold at least one line of the order.
func (r *OrderRepo) HasSellerItems(ctx context.Context, orderID, sellerID string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.q, &n,
		`SELECT COUNT(*) FROM order_items WHERE order_id = ? AND seller_id = ?`, orderID, sellerID)
	return n > 0, err
}

// SellerItems returns only the lines of the order that sellerID sold.
func (r *OrderRepo) SellerItems(ctx context.Context, orderID, sellerID string) ([]domain.OrderItem, error) {
	items := []domain.OrderItem{}
	err := sqlx.SelectContext(ctx, r.q, &items,
		`SELECT `+orderItemCols+` FROM order_items oi WHERE oi.order_id = ? AND oi.seller_id = ? ORDER BY oi.id`,
		orderID, sellerID)
	return items, err
}
