package handlers_test

import (
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sellerOrdersJSON struct {
	Orders []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Items  []struct {
			ID           int64  `json:"id"`
			ProductName  string `json:"product_name"`
			Status       string `json:"status"`
			TrackingCode string `json:"tracking_code"`
		} `json:"items"`
	} `json:"orders"`
}

func TestSellerAreaRequiresSeller(t *testing.T) {
	app, _ := newApp(t)
	logs := observeLogs(t)

	anon := newClient(t, app)
	assert.Equal(t, http.StatusUnauthorized, anon.get("/seller/products", true).StatusCode)
	resp := anon.get("/seller/products", false)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	buyer := newClient(t, app)
	buyer.login("ana")
	assert.Equal(t, http.StatusForbidden, buyer.get("/seller/orders", true).StatusCode)
	assert.Equal(t, http.StatusForbidden, buyer.post("/seller/inventory/1", url.Values{"qty": {"99"}}, true).StatusCode)
	assert.Equal(t, 2, logs.FilterMessage("access.denied.seller").Len())

	seller := newClient(t, app)
	seller.login("jeci")
	page := decode[struct {
		Page struct {
			Total int `json:"total"`
		} `json:"page"`
	}](t, seller.get("/seller/products", true))
	assert.Equal(t, 4, page.Page.Total, "seller view includes out-of-stock products")
}

func TestSellerProductLifecycle(t *testing.T) {
	app, db := newApp(t)
	s := newClient(t, app)
	s.login("jeci")
	logs := observeLogs(t)

	form := url.Values{
		"name":          {"Linen Dress"},
		"description":   {"Light summer dress"},
		"price":         {"129,90"},
		"stock":         {"3"},
		"category_id":   {"1"},
		"tracking_code": {"DRS-01"},
	}
	resp := s.post("/seller/products", form, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := strconv.FormatInt(decode[struct {
		ID int64 `json:"id"`
	}](t, resp).ID, 10)
	assert.Equal(t, 1, logs.FilterMessage("seller.product.create").Len())

	var price string
	require.NoError(t, db.Get(&price, `SELECT price FROM products WHERE id = ?`, id))
	assert.Equal(t, "129.90", price)

	bad := url.Values{"name": {"Linen Dress"}, "price": {"-1"}, "stock": {"3"}}
	resp = s.post("/seller/products/"+id, bad, true)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	form.Set("stock", "5")
	resp = s.post("/seller/products/"+id, form, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, decode[struct {
		Stock int `json:"stock"`
	}](t, resp).Stock)

	// the edit form renders for the owner
	resp = s.get("/seller/products/"+id+"/edit", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, bodyOf(t, resp), "Linen Dress")

	resp = s.post("/seller/products/"+id+"/delete", nil, true)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, http.StatusNotFound, s.get("/product/"+id, true).StatusCode)
}

func TestSellerCannotTouchForeignProduct(t *testing.T) {
	app, db := newApp(t)
	db.MustExec(`INSERT INTO users(id,username,email,password_hash) SELECT 'u-rival','rival','rival@jecistore.test',password_hash FROM users WHERE id='u-jeci'`)
	db.MustExec(`INSERT INTO profiles(user_id,is_seller) VALUES ('u-rival',1)`)

	rival := newClient(t, app)
	rival.login("rival")
	resp := rival.post("/seller/products/"+sandalID+"/delete", nil, true)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = rival.post("/seller/inventory/"+sandalID, url.Values{"qty": {"0"}}, true)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 12, stock(t, db, sandalID))

	orders := decode[sellerOrdersJSON](t, rival.get("/seller/orders", true))
	assert.Empty(t, orders.Orders)
}

func TestSellerFulfilsOrder(t *testing.T) {
	app, _ := newApp(t)

	buyer := newClient(t, app)
	require.Equal(t, http.StatusOK, buyer.post("/cart/add/"+sandalID, url.Values{"quantity": {"1"}}, true).StatusCode)
	require.Equal(t, http.StatusOK, buyer.post("/cart/add/"+printedID, url.Values{"quantity": {"2"}}, true).StatusCode)
	require.Equal(t, http.StatusCreated, buyer.post("/checkout", shippingForm(), true).StatusCode)

	s := newClient(t, app)
	s.login("jeci")
	list := decode[sellerOrdersJSON](t, s.get("/seller/orders?status=pending", true))
	require.Len(t, list.Orders, 1)
	order := list.Orders[0]
	require.Len(t, order.Items, 2)

	ship := func(item int64, status, tracking string) *http.Response {
		return s.post("/seller/orders/items/"+strconv.FormatInt(item, 10),
			url.Values{"status": {status}, "tracking_code": {tracking}}, true)
	}

	resp := ship(order.Items[0].ID, "shipped", "BR123")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "processing", decode[struct {
		Status string `json:"status"`
	}](t, resp).Status)

	resp = ship(order.Items[1].ID, "shipped", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "shipped", decode[struct {
		Status string `json:"status"`
	}](t, resp).Status)

	resp = ship(order.Items[0].ID, "pending", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_status", decode[errorJSON](t, resp).Code)

	resp = ship(order.Items[0].ID, "delivered", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// the buyer sees the seller's progress
	view := decode[struct {
		Order struct {
			Status string `json:"status"`
			Items  []struct {
				TrackingCode string `json:"tracking_code"`
			} `json:"items"`
		} `json:"order"`
	}](t, buyer.get("/order/"+order.ID, true))
	assert.Equal(t, "shipped", view.Order.Status)
	assert.Equal(t, "BR123", view.Order.Items[0].TrackingCode)

	// and so does the seller, through the same page
	assert.Equal(t, http.StatusOK, s.get("/order/"+order.ID, true).StatusCode)

	list = decode[sellerOrdersJSON](t, s.get("/seller/orders?q=br123", true))
	assert.Len(t, list.Orders, 1)
	list = decode[sellerOrdersJSON](t, s.get("/seller/orders?status=pending", true))
	assert.Empty(t, list.Orders)
}

func TestSellerInventory(t *testing.T) {
	app, db := newApp(t)
	s := newClient(t, app)
	s.login("jeci")

	rows := decode[struct {
		Rows []struct {
			ProductID int64  `json:"product_id"`
			Status    string `json:"status"`
		} `json:"rows"`
	}](t, s.get("/seller/inventory", true))
	require.Len(t, rows.Rows, 4)
	assert.Equal(t, "OUT_OF_STOCK", rows.Rows[0].Status, "lowest stock first")

	resp := s.post("/seller/inventory/"+hatID, url.Values{"qty": {"7"}}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	avail := decode[struct {
		Status string `json:"status"`
		Qty    int    `json:"qty"`
	}](t, resp)
	assert.Equal(t, "IN_STOCK", avail.Status)
	assert.Equal(t, 7, avail.Qty)
	assert.Equal(t, 7, stock(t, db, hatID))

	resp = s.post("/seller/inventory/"+hatID, url.Values{"qty": {"-1"}}, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	page := bodyOf(t, s.get("/seller/inventory", false))
	assert.Contains(t, page, "Straw Hat")
}
