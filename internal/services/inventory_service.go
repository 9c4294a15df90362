package services

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"jecistore/internal/domain"
	"jecistore/internal/repos"
)

// LowStockThreshold is the level under which a product shows as LOW_STOCK.
const LowStockThreshold = 5

type InventoryService struct {
	Inv *repos.InventoryRepo
	Log *zap.Logger
}

func NewInventoryService(inv *repos.InventoryRepo, logger *zap.Logger) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{Inv: inv, Log: logger}
}

// Availability converts stock into IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func (s *InventoryService) Availability(ctx context.Context, productID int64) (domain.Availability, error) {
	qty, err := s.Inv.Stock(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Availability{Status: "OUT_OF_STOCK", Qty: 0}, nil
		}
		return domain.Availability{}, err
	}
	return availabilityOf(qty), nil
}

func availabilityOf(qty int) domain.Availability {
	status := "OUT_OF_STOCK"
	switch {
	case qty >= LowStockThreshold:
		status = "IN_STOCK"
	case qty > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: qty}
}

// StockRow is one line of the seller stock overview.
type StockRow struct {
	repos.InventoryRow
	domain.Availability
}

// SellerStock lists the seller's products, lowest stock first.
func (s *InventoryService) SellerStock(ctx context.Context, sellerID string) ([]StockRow, error) {
	rows, err := s.Inv.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	out := make([]StockRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, StockRow{InventoryRow: r, Availability: availabilityOf(r.Stock)})
	}
	return out, nil
}

// SetStock lets a seller correct the stock of one of their products.
func (s *InventoryService) SetStock(ctx context.Context, sellerID string, productID int64, qty int) (domain.Availability, error) {
	if qty < 0 {
		return domain.Availability{}, &domain.ValidationError{Field: "stock", Reason: "must not be negative"}
	}
	ok, err := s.Inv.SetStock(ctx, sellerID, productID, qty)
	if err != nil {
		return domain.Availability{}, err
	}
	if !ok {
		s.Log.Warn("inventory.set.denied", zap.String("seller_id", sellerID), zap.Int64("product_id", productID))
		return domain.Availability{}, &domain.PermissionError{Resource: "product", ID: strconv.FormatInt(productID, 10)}
	}
	s.Log.Info("inventory.set",
		zap.String("seller_id", sellerID),
		zap.Int64("product_id", productID),
		zap.Int("qty", qty),
	)
	return availabilityOf(qty), nil
}
