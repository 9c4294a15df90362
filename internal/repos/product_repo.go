package repos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"jecistore/internal/domain"
)

type ProductRepo struct{ q sqlx.ExtContext }

func NewProductRepo(q sqlx.ExtContext) *ProductRepo { return &ProductRepo{q: q} }

const productCols = `
    id, category_id, seller_id, name, description, price, stock, tracking_code, is_featured,
    COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at`

// ProductFilter narrows a product listing. Zero values mean "no filter".
type ProductFilter struct {
	Q           string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	CategoryIDs []int64
	StockStatus string // in_stock | out_of_stock
	SellerID    string
	InStockOnly bool
	SellerView  bool // search tracking codes, allow stock sorts
	Sort        string
	Limit       int
	Offset      int
}

var productSorts = map[string]string{
	"price_asc":   "CAST(price AS REAL) ASC, id",
	"price_desc":  "CAST(price AS REAL) DESC, id",
	"name_asc":    "LOWER(name) ASC, id",
	"name_desc":   "LOWER(name) DESC, id",
	"created_at":  "created_at ASC, id",
	"-created_at": "created_at DESC, id DESC",
}

var sellerSorts = map[string]string{
	"stock_asc":  "stock ASC, id",
	"stock_desc": "stock DESC, id",
}

func (f ProductFilter) orderBy() string {
	if o, ok := productSorts[f.Sort]; ok {
		return o
	}
	if f.SellerView {
		if o, ok := sellerSorts[f.Sort]; ok {
			return o
		}
		return productSorts["-created_at"]
	}
	return productSorts["name_asc"]
}

func (f ProductFilter) where() (string, []any, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if q := strings.ToLower(strings.TrimSpace(f.Q)); q != "" {
		like := "%" + q + "%"
		c := `(LOWER(name) LIKE ? OR LOWER(description) LIKE ?`
		args = append(args, like, like)
		if f.SellerView {
			c += ` OR LOWER(tracking_code) LIKE ?`
			args = append(args, like)
		}
		clauses = append(clauses, c+")")
	}
	if f.SellerID != "" {
		clauses = append(clauses, `seller_id = ?`)
		args = append(args, f.SellerID)
	}
	if f.InStockOnly {
		clauses = append(clauses, `stock > 0`)
	}
	switch f.StockStatus {
	case "in_stock":
		clauses = append(clauses, `stock > 0`)
	case "out_of_stock":
		clauses = append(clauses, `stock = 0`)
	}
	if f.MinPrice != nil {
		clauses = append(clauses, `CAST(price AS REAL) >= ?`)
		args = append(args, f.MinPrice.InexactFloat64())
	}
	if f.MaxPrice != nil {
		clauses = append(clauses, `CAST(price AS REAL) <= ?`)
		args = append(args, f.MaxPrice.InexactFloat64())
	}
	where := strings.Join(clauses, " AND ")
	if f.CategoryIDs != nil {
		if len(f.CategoryIDs) == 0 {
			return where + " AND 1=0", args, nil
		}
		q, inArgs, err := sqlx.In(` AND category_id IN (?)`, f.CategoryIDs)
		if err != nil {
			return "", nil, err
		}
		where += q
		args = append(args, inArgs...)
	}
	return where, args, nil
}

// Search returns one page of matching products and the total match count.
func (r *ProductRepo) Search(ctx context.Context, f ProductFilter) ([]domain.Product, int, error) {
	where, args, err := f.where()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := sqlx.GetContext(ctx, r.q, &total, `SELECT COUNT(*) FROM products WHERE `+where, args...); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + productCols + ` FROM products WHERE ` + where + ` ORDER BY ` + f.orderBy()
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}
	out := []domain.Product{}
	if err := sqlx.SelectContext(ctx, r.q, &out, query, args...); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *ProductRepo) Get(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := sqlx.GetContext(ctx, r.q, &p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	return p, notFound(err)
}

func (r *ProductRepo) Featured(ctx context.Context, limit int) ([]domain.Product, error) {
	out := []domain.Product{}
	err := sqlx.SelectContext(ctx, r.q, &out, `
		SELECT `+productCols+` FROM products
		WHERE is_featured = 1 AND stock > 0
		ORDER BY LOWER(name)
		LIMIT ?
	`, limit)
	return out, err
}

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO products(category_id, seller_id, name, description, price, stock, tracking_code, is_featured,
		                     created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, p.CategoryID, p.SellerID, p.Name, p.Description, p.Price.StringFixed(2), p.Stock, p.TrackingCode, p.IsFeatured)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update rewrites the editable fields of a product, stock included.
func (r *ProductRepo) Update(ctx context.Context, p domain.Product) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE products
		SET category_id = ?, name = ?, description = ?, price = ?, stock = ?, tracking_code = ?,
		    is_featured = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, p.CategoryID, p.Name, p.Description, p.Price.StringFixed(2), p.Stock, p.TrackingCode, p.IsFeatured, p.ID)
	return err
}

func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	return err
}
