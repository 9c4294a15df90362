package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "jecistore/internal/log"
	"jecistore/internal/services"
	"jecistore/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
	Inv     *services.InventoryService
}

// GET /product/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "product"})
		return notFound(c, "This item is no longer available")
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return notFound(c, "This item is no longer available")
	}
	avail, err := h.Inv.Availability(c.UserContext(), id)
	if err != nil {
		return fail(c, "product.availability", err, "")
	}
	if wantsJSON(c) {
		return c.JSON(fiber.Map{"product": p, "availability": avail})
	}
	return render(c, "product", fiber.Map{"P": p, "Availability": avail})
}
