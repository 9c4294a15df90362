package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"jecistore/internal/domain"
	"jecistore/internal/repos"
)

type OrderService struct {
	DB     *sqlx.DB
	Orders *repos.OrderRepo
	Log    *zap.Logger
}

func NewOrderService(db *sqlx.DB, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{DB: db, Orders: repos.NewOrderRepo(db), Log: logger}
}

// UpdateItem moves one order line to a new status and recomputes the order
// status from all of its lines. Only the seller of the line may do this.
func (s *OrderService) UpdateItem(ctx context.Context, sellerID string, itemID int64, status domain.ItemStatus, tracking string) (domain.Order, error) {
	if !status.Valid() {
		return domain.Order{}, &domain.InvalidStatusError{To: status}
	}
	var order domain.Order
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		orders := repos.NewOrderRepo(tx)
		item, owner, err := orders.Item(ctx, itemID)
		if err != nil {
			return err
		}
		if owner == "" || owner != sellerID {
			return &domain.PermissionError{Resource: "order item", ID: strconv.FormatInt(itemID, 10)}
		}
		if !domain.CanTransition(item.Status, status) {
			return &domain.InvalidStatusError{From: item.Status, To: status}
		}
		if tracking = strings.TrimSpace(tracking); tracking == "" {
			tracking = item.TrackingCode
		}
		if err := orders.UpdateItem(ctx, itemID, status, tracking); err != nil {
			return err
		}

		items, err := orders.Items(ctx, item.OrderID)
		if err != nil {
			return err
		}
		statuses := make([]domain.ItemStatus, 0, len(items))
		for _, it := range items {
			statuses = append(statuses, it.Status)
		}
		if err := orders.UpdateStatus(ctx, item.OrderID, domain.DeriveOrderStatus(statuses)); err != nil {
			return err
		}
		order, err = orders.Get(ctx, item.OrderID)
		return err
	})
	if err != nil {
		return domain.Order{}, err
	}
	s.Log.Info("order.item.updated",
		zap.String("order_id", order.ID),
		zap.Int64("item_id", itemID),
		zap.String("item_status", string(status)),
		zap.String("order_status", string(order.Status)),
	)
	return order, nil
}

// ListForSeller returns orders holding lines sold by sellerID. Each order
// carries only that seller's lines.
func (s *OrderService) ListForSeller(ctx context.Context, sellerID string, f repos.OrderFilter) ([]domain.Order, error) {
	orders, err := s.Orders.ListForSeller(ctx, sellerID, f)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		items, err := s.Orders.SellerItems(ctx, orders[i].ID, sellerID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

// ListForActor returns the actor's own orders, newest first.
func (s *OrderService) ListForActor(ctx context.Context, actor domain.ActorContext) ([]domain.Order, error) {
	if actor.Authenticated() {
		return s.Orders.ListByUser(ctx, actor.UserID)
	}
	if actor.SessionKey == "" {
		return []domain.Order{}, nil
	}
	return s.Orders.ListBySession(ctx, actor.SessionKey)
}

// Get returns an order the actor placed, or one containing lines the actor
// sold. A seller only sees their own lines.
func (s *OrderService) Get(ctx context.Context, actor domain.ActorContext, orderID string) (domain.Order, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	switch {
	case actor.Authenticated() && o.UserID.Valid && o.UserID.String == actor.UserID:
		return o, nil
	case !o.UserID.Valid && o.SessionKey.Valid && o.SessionKey.String == actor.SessionKey:
		return o, nil
	case actor.Authenticated():
		sold, err := s.Orders.HasSellerItems(ctx, orderID, actor.UserID)
		if err != nil {
			return domain.Order{}, err
		}
		if sold {
			if o.Items, err = s.Orders.SellerItems(ctx, orderID, actor.UserID); err != nil {
				return domain.Order{}, err
			}
			return o, nil
		}
	}
	return domain.Order{}, &domain.PermissionError{Resource: "order", ID: orderID}
}
