package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "jecistore/internal/log"
	"jecistore/internal/services"
)

// Nav puts the cart line count and the category tree into Locals for the
// page header. Script calls and static files skip it.
func Nav(cart *services.CartService, catalog *services.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if wantsJSON(c) || c.Method() != fiber.MethodGet || strings.HasPrefix(c.Path(), "/static/") {
			return c.Next()
		}
		n, err := cart.Count(c.UserContext(), actorOf(c))
		if err != nil {
			applog.Error(c, "nav.cart_count", err, nil)
		}
		c.Locals("cart_count", n)
		tree, err := catalog.CategoryTree(c.UserContext())
		if err != nil {
			applog.Error(c, "nav.categories", err, nil)
		}
		c.Locals("nav_categories", tree)
		return c.Next()
	}
}
