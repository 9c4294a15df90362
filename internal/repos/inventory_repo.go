package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// InventoryRepo owns reads and guarded writes of products.stock.
type InventoryRepo struct{ q sqlx.ExtContext }

func NewInventoryRepo(q sqlx.ExtContext) *InventoryRepo { return &InventoryRepo{q: q} }

// InventoryRow is used by the seller stock overview.
type InventoryRow struct {
	ProductID int64  `db:"product_id" json:"product_id"`
	Name      string `db:"name" json:"name"`
	Stock     int    `db:"stock" json:"stock"`
}

func (r *InventoryRepo) ListBySeller(ctx context.Context, sellerID string) ([]InventoryRow, error) {
	rows := []InventoryRow{}
	err := sqlx.SelectContext(ctx, r.q, &rows, `
		SELECT id AS product_id, name, stock
		FROM products
		WHERE seller_id = ?
		ORDER BY stock, LOWER(name)
	`, sellerID)
	return rows, err
}

// Stock returns the current stock of a product, or domain.ErrNotFound.
func (r *InventoryRepo) Stock(ctx context.Context, productID int64) (int, error) {
	var qty int
	err := sqlx.GetContext(ctx, r.q, &qty, `SELECT stock FROM products WHERE id = ?`, productID)
	return qty, notFound(err)
}

// Decrement subtracts by units only if that many are still available.
// It reports false when the guard rejected the update.
func (r *InventoryRepo) Decrement(ctx context.Context, productID int64, by int) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock >= ?
	`, by, productID, by)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SetStock overwrites the stock of a product owned by sellerID. It reports
// false when no such product exists for that seller.
func (r *InventoryRepo) SetStock(ctx context.Context, sellerID string, productID int64, qty int) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE products
		SET stock = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND seller_id = ?
	`, qty, productID, sellerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
