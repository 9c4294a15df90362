package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"jecistore/internal/domain"
	"jecistore/internal/repos"
	"jecistore/internal/services"
)

func TestInventoryService_Availability(t *testing.T) {
	db := memdb(t)
	many := addProduct(t, db, "Many", "1.00", 6)
	few := addProduct(t, db, "Few", "1.00", 2)
	none := addProduct(t, db, "None", "1.00", 0)
	svc := services.NewInventoryService(repos.NewInventoryRepo(db), nil)
	ctx := context.Background()

	cases := []struct {
		id     int64
		status string
		qty    int
	}{
		{many, "IN_STOCK", 6},
		{few, "LOW_STOCK", 2},
		{none, "OUT_OF_STOCK", 0},
		{9999, "OUT_OF_STOCK", 0},
	}
	for _, tc := range cases {
		a, err := svc.Availability(ctx, tc.id)
		require.NoError(t, err)
		assert.Equal(t, tc.status, a.Status, "product %d", tc.id)
		assert.Equal(t, tc.qty, a.Qty)
	}

	rows, err := svc.SellerStock(ctx, sellerID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "None", rows[0].Name)
	assert.Equal(t, "OUT_OF_STOCK", rows[0].Status)
}

func TestInventoryService_SetStock(t *testing.T) {
	db := memdb(t)
	p := addProduct(t, db, "Hat", "1.00", 0)
	core, logs := observer.New(zap.InfoLevel)
	svc := services.NewInventoryService(repos.NewInventoryRepo(db), zap.New(core))
	ctx := context.Background()

	a, err := svc.SetStock(ctx, sellerID, p, 3)
	require.NoError(t, err)
	assert.Equal(t, "LOW_STOCK", a.Status)
	assert.Equal(t, 3, stockOf(t, db, p))
	entries := logs.FilterMessage("inventory.set").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(3), entries[0].ContextMap()["qty"])
	assert.Equal(t, sellerID, entries[0].ContextMap()["seller_id"])

	_, err = svc.SetStock(ctx, otherID, p, 50)
	var perr *domain.PermissionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 3, stockOf(t, db, p))
	assert.Equal(t, 1, logs.FilterMessage("inventory.set.denied").Len())

	_, err = svc.SetStock(ctx, sellerID, p, -1)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}
