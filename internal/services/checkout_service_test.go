package services_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jecistore/internal/domain"
	"jecistore/internal/repos"
	"jecistore/internal/services"
)

func TestCheckout_Success(t *testing.T) {
	db := memdb(t)
	p1 := addProduct(t, db, "P1", "10.00", 5)
	p2 := addProduct(t, db, "P2", "5.00", 3)
	cartID := userCart(t, db, buyerID, map[int64]int{p1: 2, p2: 1})

	svc := services.NewCheckoutService(db, nil)
	o, err := svc.Checkout(context.Background(), cartID, shipping())
	require.NoError(t, err)

	assert.Equal(t, "25.00", o.TotalPrice.StringFixed(2))
	assert.Equal(t, domain.OrderPending, o.Status)
	assert.Equal(t, buyerID, o.UserID.String)
	assert.Equal(t, "Ana Souza", o.FullName)
	require.Len(t, o.Items, 2)
	prices := map[int64]string{}
	for _, it := range o.Items {
		prices[it.ProductID] = it.PriceAtPurchase.StringFixed(2)
		assert.Equal(t, domain.ItemPending, it.Status)
		assert.Equal(t, "TRK-"+it.ProductName, it.TrackingCode)
	}
	assert.Equal(t, map[int64]string{p1: "10.00", p2: "5.00"}, prices)

	assert.Equal(t, 3, stockOf(t, db, p1))
	assert.Equal(t, 2, stockOf(t, db, p2))
	_, err = repos.NewCartRepo(db).Get(context.Background(), cartID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, countRows(t, db, "cart_items"))
}

func TestCheckout_PriceSnapshot(t *testing.T) {
	db := memdb(t)
	p1 := addProduct(t, db, "P1", "10.00", 5)
	cartID := userCart(t, db, buyerID, map[int64]int{p1: 1})

	o, err := services.NewCheckoutService(db, nil).Checkout(context.Background(), cartID, shipping())
	require.NoError(t, err)
	db.MustExec(`UPDATE products SET price = '99.00' WHERE id = ?`, p1)

	got, err := repos.NewOrderRepo(db).Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, "10.00", got.TotalPrice.StringFixed(2))
	assert.Equal(t, "10.00", got.Items[0].PriceAtPurchase.StringFixed(2))
}

func TestCheckout_EmptyCart(t *testing.T) {
	db := memdb(t)
	svc := services.NewCheckoutService(db, nil)
	cartID := userCart(t, db, buyerID, nil)

	var eerr *domain.EmptyCartError
	_, err := svc.Checkout(context.Background(), cartID, shipping())
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, cartID, eerr.CartID)
	assert.Equal(t, 0, countRows(t, db, "orders"))
}

func TestCheckout_SecondCallIsEmpty(t *testing.T) {
	db := memdb(t)
	p1 := addProduct(t, db, "P1", "10.00", 5)
	cartID := anonCart(t, db, "sid", map[int64]int{p1: 1})
	svc := services.NewCheckoutService(db, nil)

	o, err := svc.Checkout(context.Background(), cartID, shipping())
	require.NoError(t, err)
	assert.Equal(t, "sid", o.SessionKey.String)

	var eerr *domain.EmptyCartError
	_, err = svc.Checkout(context.Background(), cartID, shipping())
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, 1, countRows(t, db, "orders"))
	assert.Equal(t, 4, stockOf(t, db, p1))
}

func TestCheckout_InsufficientStockLeavesEverything(t *testing.T) {
	db := memdb(t)
	p1 := addProduct(t, db, "P1", "10.00", 5)
	p2 := addProduct(t, db, "P2", "5.00", 3)
	cartID := userCart(t, db, buyerID, map[int64]int{p1: 2, p2: 2})
	db.MustExec(`UPDATE products SET stock = 1 WHERE id = ?`, p2)
	before := quantities(t, db, cartID)

	_, err := services.NewCheckoutService(db, nil).Checkout(context.Background(), cartID, shipping())
	var serr *domain.InsufficientStockError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, p2, serr.ProductID)
	assert.Equal(t, "P2", serr.ProductName)
	assert.Equal(t, 1, serr.Available)
	assert.Equal(t, 2, serr.Requested)

	assert.Equal(t, before, quantities(t, db, cartID))
	assert.Equal(t, 0, countRows(t, db, "orders"))
	assert.Equal(t, 0, countRows(t, db, "order_items"))
	assert.Equal(t, 5, stockOf(t, db, p1))
	assert.Equal(t, 1, stockOf(t, db, p2))
}

func TestCheckout_RollsBackOnPersistenceFailure(t *testing.T) {
	db := memdb(t)
	p1 := addProduct(t, db, "P1", "10.00", 5)
	p2 := addProduct(t, db, "P2", "5.00", 5)
	p3 := addProduct(t, db, "Boom", "1.00", 5)
	cartID := userCart(t, db, buyerID, map[int64]int{p1: 1, p2: 1})
	userCart(t, db, buyerID, map[int64]int{p3: 1}) // added last, so its line is written third
	db.MustExec(`CREATE TRIGGER fail_boom BEFORE INSERT ON order_items
	  WHEN NEW.product_name = 'Boom' BEGIN SELECT RAISE(ABORT, 'disk full'); END`)

	_, err := services.NewCheckoutService(db, nil).Checkout(context.Background(), cartID, shipping())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	assert.Equal(t, 0, countRows(t, db, "orders"))
	assert.Equal(t, 0, countRows(t, db, "order_items"))
	for _, id := range []int64{p1, p2, p3} {
		assert.Equal(t, 5, stockOf(t, db, id))
	}
	assert.Equal(t, map[int64]int{p1: 1, p2: 1, p3: 1}, quantities(t, db, cartID))
}

func TestCheckout_GuardedDecrementDetectsRace(t *testing.T) {
	db := memdb(t)
	p1 := addProduct(t, db, "P1", "10.00", 2)
	cartID := userCart(t, db, buyerID, map[int64]int{p1: 2})
	// simulates a sale landing between validation and decrement
	db.MustExec(`CREATE TRIGGER steal AFTER INSERT ON order_items
	  BEGIN UPDATE products SET stock = 1 WHERE id = NEW.product_id; END`)

	_, err := services.NewCheckoutService(db, nil).Checkout(context.Background(), cartID, shipping())
	var rerr *domain.StockRaceError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, p1, rerr.ProductID)
	assert.True(t, domain.IsStockError(err))

	assert.Equal(t, 2, stockOf(t, db, p1))
	assert.Equal(t, 0, countRows(t, db, "orders"))
	assert.Equal(t, map[int64]int{p1: 2}, quantities(t, db, cartID))
}

func TestCheckout_ConcurrentBuyersNeverOversell(t *testing.T) {
	db, err := repos.Open(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	seedUsers(t, db)
	p1 := addProduct(t, db, "Last one", "10.00", 3)

	const buyers = 8
	carts := make([]string, buyers)
	for i := range carts {
		carts[i] = anonCart(t, db, fmt.Sprintf("sid-%d", i), map[int64]int{p1: 1})
	}

	svc := services.NewCheckoutService(db, nil)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)
	for _, id := range carts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Checkout(context.Background(), id, shipping())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case domain.IsStockError(err):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	assert.Equal(t, buyers-3, rejected)
	assert.Equal(t, 0, stockOf(t, db, p1))
	assert.Equal(t, 3, countRows(t, db, "orders"))
}
