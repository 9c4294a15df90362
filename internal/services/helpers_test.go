package services_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"jecistore/internal/domain"
	"jecistore/internal/repos"
)

const (
	sellerID = "u-seller"
	buyerID  = "u-buyer"
	otherID  = "u-other"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	seedUsers(t, db)
	return db
}

func seedUsers(t *testing.T, db *sqlx.DB) {
	t.Helper()
	db.MustExec(`INSERT INTO users(id,username,email,password_hash) VALUES
	  ('u-seller','seller','seller@test.local','x'),
	  ('u-buyer','buyer','buyer@test.local','x'),
	  ('u-other','other','other@test.local','x')`)
	db.MustExec(`INSERT INTO profiles(user_id,is_seller) VALUES ('u-seller',1),('u-buyer',0),('u-other',1)`)
}

func addProduct(t *testing.T, db *sqlx.DB, name, price string, stock int) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO products(seller_id,name,price,stock,tracking_code) VALUES (?,?,?,?,?)`,
		sellerID, name, price, stock, "TRK-"+name)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func stockOf(t *testing.T, db *sqlx.DB, productID int64) int {
	t.Helper()
	n, err := repos.NewInventoryRepo(db).Stock(context.Background(), productID)
	require.NoError(t, err)
	return n
}

// anonCart creates a session cart holding the given product quantities,
// bypassing the stock check so tests can stage carts that exceed stock.
func anonCart(t *testing.T, db *sqlx.DB, sid string, lines map[int64]int) string {
	t.Helper()
	ctx := context.Background()
	_, err := repos.NewSessionRepo(db).Ensure(ctx, sid)
	require.NoError(t, err)
	carts := repos.NewCartRepo(db)
	c, err := carts.CreateAnonymous(ctx, sid)
	require.NoError(t, err)
	for pid, qty := range lines {
		require.NoError(t, carts.AddQuantity(ctx, c.ID, pid, qty))
	}
	require.NoError(t, repos.NewSessionRepo(db).SetCartID(ctx, sid, c.ID))
	return c.ID
}

func userCart(t *testing.T, db *sqlx.DB, userID string, lines map[int64]int) string {
	t.Helper()
	ctx := context.Background()
	carts := repos.NewCartRepo(db)
	c, _, err := carts.EnsureForUser(ctx, userID)
	require.NoError(t, err)
	for pid, qty := range lines {
		require.NoError(t, carts.AddQuantity(ctx, c.ID, pid, qty))
	}
	return c.ID
}

func quantities(t *testing.T, db *sqlx.DB, cartID string) map[int64]int {
	t.Helper()
	lines, err := repos.NewCartRepo(db).Lines(context.Background(), cartID)
	require.NoError(t, err)
	out := map[int64]int{}
	for _, l := range lines {
		out[l.ProductID] = l.Quantity
	}
	return out
}

func countRows(t *testing.T, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM `+table))
	return n
}

func shipping() domain.ShippingInfo {
	return domain.ShippingInfo{FullName: "Ana Souza", Contact: "+55 11 99999-0000", Address: "Rua A, 10"}
}
