package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"jecistore/internal/domain"
	"jecistore/internal/handoff"
	applog "jecistore/internal/log"
	"jecistore/internal/services"
	"jecistore/internal/validate"
)

type OrderHandler struct {
	Cart           *services.CartService
	Checkout       *services.CheckoutService
	Orders         *services.OrderService
	StoreName      string
	WhatsAppNumber string
}

// GET /checkout
func (h *OrderHandler) CheckoutForm(c *fiber.Ctx) error {
	v, err := h.Cart.View(c.UserContext(), actorOf(c))
	if err != nil {
		return fail(c, "checkout.load", err, "")
	}
	if len(v.Lines) == 0 {
		return fail(c, "checkout.empty", &domain.EmptyCartError{CartID: v.Cart.ID}, "/cart")
	}
	return render(c, "checkout", fiber.Map{"Cart": v, "Notices": v.Notices})
}

// POST /checkout
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	ship, err := validate.Shipping(c.FormValue("full_name"), c.FormValue("contact"), c.FormValue("address"))
	if err != nil {
		applog.Security(c, "validation.fail", map[string]any{"form": "checkout"})
		return fail(c, "checkout.invalid", err, "/checkout")
	}
	res, err := h.Cart.ResolveCart(c.UserContext(), actorOf(c))
	if err != nil {
		return fail(c, "checkout.resolve", err, "/cart")
	}
	// merged quantities may differ from what the shopper reviewed
	if len(res.Notices) > 0 {
		setFlash(c, res.Notices...)
		if wantsJSON(c) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "cart changed", "notices": res.Notices})
		}
		return c.Redirect("/cart")
	}
	order, err := h.Checkout.Checkout(c.UserContext(), res.Cart.ID, ship)
	if err != nil {
		return fail(c, "order.place.fail", err, "/cart")
	}
	applog.Audit(c, "order.place", map[string]any{
		"order_id": order.ID,
		"total":    order.TotalPrice.StringFixed(2),
		"items":    len(order.Items),
	})

	link := handoff.WhatsAppURL(h.WhatsAppNumber, handoff.Message(h.StoreName, order))
	if wantsJSON(c) {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"order": order, "whatsapp_url": link})
	}
	return c.Redirect(link)
}

// GET /order/:id
func (h *OrderHandler) View(c *fiber.Ctx) error {
	oid, ok := validate.OrderID(c.Params("id"))
	if !ok {
		return notFound(c, "Order not found")
	}
	o, err := h.Orders.Get(c.UserContext(), actorOf(c), oid)
	if err != nil {
		var perr *domain.PermissionError
		if errors.As(err, &perr) {
			applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
		}
		return notFound(c, "Order not found")
	}
	link := handoff.WhatsAppURL(h.WhatsAppNumber, handoff.Message(h.StoreName, o))
	if wantsJSON(c) {
		return c.JSON(fiber.Map{"order": o, "whatsapp_url": link})
	}
	return render(c, "order", fiber.Map{"Order": o, "WhatsAppURL": link})
}

// GET /orders
func (h *OrderHandler) History(c *fiber.Ctx) error {
	orders, err := h.Orders.ListForActor(c.UserContext(), actorOf(c))
	if err != nil {
		return fail(c, "orders.history.fail", err, "")
	}
	if wantsJSON(c) {
		return c.JSON(fiber.Map{"orders": orders})
	}
	return render(c, "orders", fiber.Map{"Orders": orders})
}
