package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "jecistore/internal/log"
	"jecistore/internal/services"
	"jecistore/internal/validate"
)

type SearchHandler struct {
	Catalog *services.CatalogService
}

// listQuery reads the shared listing parameters and reports bad input as
// messages; bad values are ignored rather than failing the page.
func listQuery(c *fiber.Ctx) (services.ListQuery, []string) {
	q := services.ListQuery{
		Q:           c.Query("q"),
		MinPrice:    c.Query("min_price"),
		MaxPrice:    c.Query("max_price"),
		Category:    c.Query("category"),
		StockStatus: c.Query("stock_status"),
		Sort:        c.Query("sort"),
		Page:        validate.Page(c.Query("page")),
	}
	var errs []string
	if strings.TrimSpace(q.Q) != "" {
		if _, ok := validate.Q(q.Q); !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "q"})
			errs = append(errs, "Enter a valid keyword (letters and numbers only).")
			q.Q = ""
		}
	}
	if strings.TrimSpace(q.MinPrice) != "" {
		if _, ok := validate.Price(q.MinPrice); !ok {
			errs = append(errs, "Invalid minimum price.")
		}
	}
	if strings.TrimSpace(q.MaxPrice) != "" {
		if _, ok := validate.Price(q.MaxPrice); !ok {
			errs = append(errs, "Invalid maximum price.")
		}
	}
	return q, errs
}

// GET /products and GET /category/:slug
func (h *SearchHandler) List(c *fiber.Ctx) error {
	q, errs := listQuery(c)
	if slug := c.Params("slug"); slug != "" {
		q.Category = slug
	}
	page, err := h.Catalog.ListProducts(c.UserContext(), q)
	if err != nil {
		return fail(c, "search.error", err, "")
	}
	if wantsJSON(c) {
		return c.JSON(fiber.Map{"page": page, "errors": errs})
	}
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return fail(c, "categories.load", err, "")
	}
	return render(c, "products", fiber.Map{
		"Q": q, "Page": page, "Products": page.Products, "Categories": cats, "Errors": errs,
	})
}
