package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"jecistore/internal/domain"
	"jecistore/internal/repos"
)

type CheckoutService struct {
	DB  *sqlx.DB
	Log *zap.Logger
}

func NewCheckoutService(db *sqlx.DB, logger *zap.Logger) *CheckoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutService{DB: db, Log: logger}
}

// Checkout converts the cart into a pending order. Stock is re-read and
// decremented inside one write transaction; any failure leaves the cart,
// stock and orders exactly as they were.
func (s *CheckoutService) Checkout(ctx context.Context, cartID string, ship domain.ShippingInfo) (domain.Order, error) {
	var order domain.Order
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		carts := repos.NewCartRepo(tx)
		prods := repos.NewProductRepo(tx)
		inv := repos.NewInventoryRepo(tx)
		orders := repos.NewOrderRepo(tx)

		cart, err := carts.Get(ctx, cartID)
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.EmptyCartError{CartID: cartID}
		}
		if err != nil {
			return err
		}
		lines, err := carts.Lines(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return &domain.EmptyCartError{CartID: cartID}
		}

		for _, l := range lines {
			if l.Quantity > l.Stock {
				return &domain.InsufficientStockError{
					ProductID: l.ProductID, ProductName: l.ProductName,
					Available: l.Stock, Requested: l.Quantity,
				}
			}
		}

		o := domain.Order{
			ID:              uuid.NewString(),
			UserID:          cart.UserID,
			SessionKey:      cart.SessionKey,
			FullName:        ship.FullName,
			ShippingAddress: ship.Address,
			ContactInfo:     ship.Contact,
			TotalPrice:      linesTotal(lines),
			Status:          domain.OrderPending,
		}
		if err := orders.Create(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, l := range lines {
			p, err := prods.Get(ctx, l.ProductID)
			if err != nil {
				return err
			}
			item := domain.OrderItem{
				OrderID:         o.ID,
				ProductID:       l.ProductID,
				ProductName:     l.ProductName,
				Quantity:        l.Quantity,
				PriceAtPurchase: l.Price,
				TrackingCode:    l.TrackingCode,
				Status:          domain.ItemPending,
			}
			if _, err := orders.InsertItem(ctx, item, p.SellerID); err != nil {
				return fmt.Errorf("insert order item for product %d: %w", l.ProductID, err)
			}
			ok, err := inv.Decrement(ctx, l.ProductID, l.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return &domain.StockRaceError{
					ProductID: l.ProductID, ProductName: l.ProductName, Requested: l.Quantity,
				}
			}
		}

		if err := carts.Delete(ctx, cart.ID); err != nil {
			return err
		}
		if cart.Anonymous() && cart.SessionKey.Valid {
			if err := repos.NewSessionRepo(tx).SetCartID(ctx, cart.SessionKey.String, ""); err != nil {
				return err
			}
		}

		order, err = orders.Get(ctx, o.ID)
		return err
	})
	if err != nil {
		if domain.IsStockError(err) {
			s.Log.Warn("checkout.rejected", zap.String("cart_id", cartID), zap.Error(err))
		}
		return domain.Order{}, err
	}
	s.Log.Info("checkout.completed",
		zap.String("order_id", order.ID),
		zap.String("total", order.TotalPrice.StringFixed(2)),
		zap.Int("items", len(order.Items)),
	)
	return order, nil
}
