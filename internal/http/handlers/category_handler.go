package handlers

import (
	"github.com/gofiber/fiber/v2"

	"jecistore/internal/services"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

// GET /
func (h *CategoryHandler) Home(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return fail(c, "home.load", err, "")
	}
	featured, err := h.Catalog.Featured(c.UserContext(), 4)
	if err != nil {
		return fail(c, "home.load", err, "")
	}
	if wantsJSON(c) {
		return c.JSON(fiber.Map{"categories": cats, "featured": featured})
	}
	return render(c, "home", fiber.Map{"Categories": cats, "Featured": featured})
}
