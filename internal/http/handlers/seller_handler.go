package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"jecistore/internal/domain"
	applog "jecistore/internal/log"
	"jecistore/internal/repos"
	"jecistore/internal/services"
	"jecistore/internal/validate"
)

// SellerHandler serves the seller area. Every route sits behind RequireSeller.
type SellerHandler struct {
	Catalog *services.CatalogService
	Orders  *services.OrderService
	Inv     *services.InventoryService
}

var itemStatuses = []domain.ItemStatus{
	domain.ItemPending, domain.ItemShipped, domain.ItemCompleted, domain.ItemCancelled,
}

var orderStatuses = []domain.OrderStatus{
	domain.OrderPending, domain.OrderProcessing, domain.OrderShipped, domain.OrderCompleted, domain.OrderCancelled,
}

// GET /seller/products
func (h *SellerHandler) Products(c *fiber.Ctx) error {
	q, errs := listQuery(c)
	page, err := h.Catalog.SellerProducts(c.UserContext(), userOf(c).ID, q)
	if err != nil {
		return fail(c, "seller.products.list", err, "")
	}
	if wantsJSON(c) {
		return c.JSON(fiber.Map{"page": page, "errors": errs})
	}
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return fail(c, "categories.load", err, "")
	}
	return render(c, "seller_products", fiber.Map{
		"Q": q, "Page": page, "Products": page.Products, "Categories": cats, "Errors": errs,
	})
}

// productForm reads the seller product form. Field errors come back as a
// ValidationError so the form can be shown again.
func productForm(c *fiber.Ctx) (services.ProductInput, error) {
	in := services.ProductInput{
		Name:         c.FormValue("name"),
		Description:  c.FormValue("description"),
		TrackingCode: c.FormValue("tracking_code"),
		IsFeatured:   c.FormValue("is_featured") != "",
	}
	price, ok := validate.Price(c.FormValue("price"))
	if !ok {
		return in, &domain.ValidationError{Field: "price", Reason: "enter a non-negative amount with up to 2 decimals"}
	}
	in.Price = price
	stock, ok := validate.Stock(c.FormValue("stock"))
	if !ok {
		return in, &domain.ValidationError{Field: "stock", Reason: "enter a whole number, 0 or more"}
	}
	in.Stock = stock
	if raw := c.FormValue("category_id"); raw != "" {
		id, ok := validate.ID(raw)
		if !ok {
			return in, &domain.ValidationError{Field: "category", Reason: "unknown category"}
		}
		in.CategoryID = id
	}
	return in, nil
}

func (h *SellerHandler) showForm(c *fiber.Ctx, status int, p domain.Product, err error) error {
	cats, cerr := h.Catalog.ListCategories(c.UserContext())
	if cerr != nil {
		return fail(c, "categories.load", cerr, "")
	}
	msg := ""
	if err != nil {
		_, _, msg = statusOf(err)
	}
	c.Status(status)
	return render(c, "seller_product_form", fiber.Map{"P": p, "Categories": cats, "Err": msg, "IsNew": p.ID == 0})
}

// invalidForm answers a rejected product form.
func (h *SellerHandler) invalidForm(c *fiber.Ctx, p domain.Product, err error) error {
	status, code, msg := statusOf(err)
	if status != fiber.StatusBadRequest {
		return fail(c, "seller.product.save", err, "/seller/products")
	}
	applog.Info(c, "seller.product.invalid", map[string]any{"reason": code})
	if wantsJSON(c) {
		return c.Status(status).JSON(fiber.Map{"error": msg, "code": code})
	}
	return h.showForm(c, status, p, err)
}

// GET /seller/products/new
func (h *SellerHandler) NewProduct(c *fiber.Ctx) error {
	return h.showForm(c, fiber.StatusOK, domain.Product{}, nil)
}

// POST /seller/products
func (h *SellerHandler) CreateProduct(c *fiber.Ctx) error {
	in, err := productForm(c)
	if err != nil {
		return h.invalidForm(c, domain.Product{Name: in.Name, Description: in.Description}, err)
	}
	id, err := h.Catalog.CreateProduct(c.UserContext(), userOf(c).ID, in)
	if err != nil {
		return h.invalidForm(c, domain.Product{Name: in.Name, Description: in.Description}, err)
	}
	applog.Audit(c, "seller.product.create", map[string]any{"product_id": id})
	if wantsJSON(c) {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
	}
	setFlash(c, success("Product created."))
	return c.Redirect("/seller/products")
}

func productID(c *fiber.Ctx) (int64, bool) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "product"})
	}
	return id, ok
}

// GET /seller/products/:id/edit
func (h *SellerHandler) EditProduct(c *fiber.Ctx) error {
	id, ok := productID(c)
	if !ok {
		return notFound(c, "Product not found")
	}
	p, err := h.Catalog.SellerProduct(c.UserContext(), userOf(c).ID, id)
	if err != nil {
		return fail(c, "seller.product.edit", err, "/seller/products")
	}
	return h.showForm(c, fiber.StatusOK, p, nil)
}

// POST /seller/products/:id
func (h *SellerHandler) UpdateProduct(c *fiber.Ctx) error {
	id, ok := productID(c)
	if !ok {
		return notFound(c, "Product not found")
	}
	in, err := productForm(c)
	if err != nil {
		return h.invalidForm(c, domain.Product{ID: id, Name: in.Name, Description: in.Description}, err)
	}
	p, err := h.Catalog.UpdateProduct(c.UserContext(), userOf(c).ID, id, in)
	if err != nil {
		return h.invalidForm(c, domain.Product{ID: id, Name: in.Name, Description: in.Description}, err)
	}
	applog.Audit(c, "seller.product.update", map[string]any{"product_id": id, "stock": p.Stock})
	if wantsJSON(c) {
		return c.JSON(p)
	}
	setFlash(c, success("Product updated."))
	return c.Redirect("/seller/products")
}

// POST /seller/products/:id/delete
func (h *SellerHandler) DeleteProduct(c *fiber.Ctx) error {
	id, ok := productID(c)
	if !ok {
		return notFound(c, "Product not found")
	}
	if err := h.Catalog.DeleteProduct(c.UserContext(), userOf(c).ID, id); err != nil {
		return fail(c, "seller.product.delete", err, "/seller/products")
	}
	applog.Audit(c, "seller.product.delete", map[string]any{"product_id": id})
	if wantsJSON(c) {
		return c.SendStatus(fiber.StatusNoContent)
	}
	setFlash(c, success("Product deleted."))
	return c.Redirect("/seller/products")
}

// GET /seller/orders
func (h *SellerHandler) OrdersPage(c *fiber.Ctx) error {
	f := repos.OrderFilter{Q: c.Query("q"), Status: c.Query("status")}
	if f.Q != "" {
		if q, ok := validate.Text(f.Q, 100); ok {
			f.Q = q
		} else {
			f.Q = ""
		}
	}
	if f.Status != "" && f.Status != "all" && !domain.OrderStatus(f.Status).Valid() {
		applog.Security(c, "validation.fail", map[string]any{"field": "status"})
		f.Status = ""
	}
	ords, err := h.Orders.ListForSeller(c.UserContext(), userOf(c).ID, f)
	if err != nil {
		return fail(c, "seller.orders.list", err, "")
	}
	if wantsJSON(c) {
		return c.JSON(fiber.Map{"orders": ords})
	}
	return render(c, "seller_orders", fiber.Map{
		"Orders": ords, "Filter": f, "ItemStatuses": itemStatuses, "OrderStatuses": orderStatuses,
	})
}

// POST /seller/orders/items/:id
func (h *SellerHandler) UpdateOrderItem(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return notFound(c, "Order item not found")
	}
	status := domain.ItemStatus(c.FormValue("status"))
	tracking, ok := validate.TrackingCode(c.FormValue("tracking_code"))
	if !ok {
		return fail(c, "seller.orders.update", &domain.ValidationError{Field: "tracking_code", Reason: "letters, digits, dash and underscore only"}, "/seller/orders")
	}
	o, err := h.Orders.UpdateItem(c.UserContext(), userOf(c).ID, id, status, tracking)
	if err != nil {
		return fail(c, "seller.orders.update", err, "/seller/orders")
	}
	applog.Audit(c, "seller.orders.update", map[string]any{
		"order_id": o.ID, "item_id": id, "item_status": string(status), "order_status": string(o.Status),
	})
	if wantsJSON(c) {
		return c.JSON(o)
	}
	setFlash(c, success("Order "+o.ID+" is now "+string(o.Status)+"."))
	return c.Redirect("/seller/orders")
}

// GET /seller/inventory
func (h *SellerHandler) Inventory(c *fiber.Ctx) error {
	rows, err := h.Inv.SellerStock(c.UserContext(), userOf(c).ID)
	if err != nil {
		return fail(c, "seller.inventory.list", err, "")
	}
	if wantsJSON(c) {
		return c.JSON(fiber.Map{"rows": rows})
	}
	return render(c, "seller_inventory", fiber.Map{"Rows": rows})
}

// POST /seller/inventory/:id
func (h *SellerHandler) UpdateInventory(c *fiber.Ctx) error {
	id, ok := productID(c)
	if !ok {
		return notFound(c, "Product not found")
	}
	qty, ok := validate.Stock(c.FormValue("qty"))
	if !ok {
		return fail(c, "seller.inventory.save", &domain.ValidationError{Field: "qty", Reason: "enter a whole number, 0 or more"}, "/seller/inventory")
	}
	avail, err := h.Inv.SetStock(c.UserContext(), userOf(c).ID, id, qty)
	if err != nil {
		return fail(c, "seller.inventory.save", err, "/seller/inventory")
	}
	applog.Audit(c, "seller.inventory.save", map[string]any{"product_id": id, "qty": qty})
	if wantsJSON(c) {
		return c.JSON(avail)
	}
	setFlash(c, success("Stock updated."))
	return c.Redirect("/seller/inventory")
}
