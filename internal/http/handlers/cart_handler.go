package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "jecistore/internal/log"
	"jecistore/internal/services"
	"jecistore/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

// GET /cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	v, err := h.Cart.View(c.UserContext(), actorOf(c))
	if err != nil {
		return fail(c, "cart.view.fail", err, "")
	}
	if len(v.Notices) > 0 {
		applog.Info(c, "cart.merge.notices", map[string]any{"count": len(v.Notices)})
	}
	if wantsJSON(c) {
		return c.JSON(v)
	}
	return render(c, "cart", fiber.Map{"Cart": v, "Notices": v.Notices})
}

// POST /cart/add/:id
func (h *CartHandler) Add(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "product"})
		return notFound(c, "This item is no longer available")
	}
	back := "/product/" + strconv.FormatInt(id, 10)
	raw := c.FormValue("quantity")
	if strings.TrimSpace(raw) == "" {
		raw = "1"
	}
	qty, err := validate.Quantity(raw)
	if err != nil {
		return fail(c, "cart.add.fail", err, back)
	}
	res, err := h.Cart.AddItem(c.UserContext(), actorOf(c), id, qty)
	if err != nil {
		return fail(c, "cart.add.fail", err, back)
	}
	applog.Info(c, "cart.add", map[string]any{"product_id": id, "qty": qty})
	if wantsJSON(c) {
		return c.JSON(fiber.Map{"cart_id": res.Cart.ID, "notices": res.Notices, "added": qty})
	}
	setFlash(c, res.Notices...)
	setFlash(c, success(strconv.Itoa(qty)+" item(s) added to your cart."))
	return c.Redirect(back)
}

// POST /cart/items/:id
func (h *CartHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Cart item not found")
	}
	qty, err := validate.Quantity(c.FormValue("quantity"))
	if err != nil {
		return fail(c, "cart.update.fail", err, "/cart")
	}
	res, err := h.Cart.UpdateItem(c.UserContext(), actorOf(c), id, qty)
	if err != nil {
		return fail(c, "cart.update.fail", err, "/cart")
	}
	msg := "Quantity updated."
	if qty == 0 {
		msg = "Item removed from your cart."
	}
	if wantsJSON(c) {
		return c.JSON(fiber.Map{"cart_id": res.Cart.ID, "notices": res.Notices, "message": msg})
	}
	setFlash(c, res.Notices...)
	setFlash(c, success(msg))
	return c.Redirect("/cart")
}

// POST /cart/items/:id/delete
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Cart item not found")
	}
	res, err := h.Cart.RemoveItem(c.UserContext(), actorOf(c), id)
	if err != nil {
		return fail(c, "cart.remove.fail", err, "/cart")
	}
	if wantsJSON(c) {
		return c.JSON(fiber.Map{"cart_id": res.Cart.ID, "notices": res.Notices, "message": "Item removed from your cart."})
	}
	setFlash(c, res.Notices...)
	setFlash(c, success("Item removed from your cart."))
	return c.Redirect("/cart")
}
