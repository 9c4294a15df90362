package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"jecistore/internal/domain"
	applog "jecistore/internal/log"
	"jecistore/internal/services"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := c.Locals("user"); u != nil {
		data["User"] = u
	}
	if seller, _ := c.Locals("is_seller").(bool); seller {
		data["IsSeller"] = true
	}
	if name, _ := c.Locals("store_name").(string); name != "" {
		data["StoreName"] = name
	}
	if n, ok := c.Locals("cart_count").(int); ok {
		data["CartCount"] = n
	}
	if tree := c.Locals("nav_categories"); tree != nil {
		data["NavCategories"] = tree
	}
	// Pick up the token the CSRF middleware put into Locals
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	data["CSRFToken"] = tok
	flash := takeFlash(c)
	if extra, ok := data["Notices"].([]domain.Notice); ok {
		flash = append(flash, extra...)
	}
	data["Flash"] = flash
	return c.Render(tmpl, data)
}

// wantsJSON reports whether the caller is a script rather than a browser page.
func wantsJSON(c *fiber.Ctx) bool {
	if strings.EqualFold(c.Get(fiber.HeaderXRequestedWith), "XMLHttpRequest") {
		return true
	}
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)
}

func notFound(c *fiber.Ctx, msg string) error {
	if wantsJSON(c) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msg})
	}
	c.Status(fiber.StatusNotFound)
	return render(c, "notfound", fiber.Map{"Message": msg})
}

// statusOf maps an error to the HTTP status and a message safe to show.
func statusOf(err error) (int, string, string) {
	var (
		qerr  *domain.InvalidQuantityError
		serr  *domain.InsufficientStockError
		rerr  *domain.StockRaceError
		perr  *domain.PermissionError
		eerr  *domain.EmptyCartError
		sterr *domain.InvalidStatusError
		verr  *domain.ValidationError
	)
	switch {
	case errors.As(err, &qerr):
		return fiber.StatusBadRequest, "invalid_quantity", qerr.Error()
	case errors.As(err, &serr):
		return fiber.StatusBadRequest, "insufficient_stock", serr.Error()
	case errors.As(err, &rerr):
		return fiber.StatusConflict, "stock_race", "Stock for " + rerr.ProductName + " changed while you were checking out. Please review your cart and try again."
	case errors.As(err, &perr):
		return fiber.StatusForbidden, "permission_denied", "You do not have permission to change this item."
	case errors.As(err, &eerr):
		return fiber.StatusBadRequest, "empty_cart", "Your cart is empty. Add products before checking out."
	case errors.As(err, &sterr):
		return fiber.StatusBadRequest, "invalid_status", sterr.Error()
	case errors.As(err, &verr):
		return fiber.StatusBadRequest, "invalid_input", verr.Error()
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "not_found", "Not found."
	case errors.Is(err, services.ErrBadCreds):
		return fiber.StatusUnauthorized, "bad_credentials", "Invalid username or password."
	case errors.Is(err, services.ErrUsernameTaken):
		return fiber.StatusConflict, "username_taken", "That username is already taken."
	}
	return fiber.StatusInternalServerError, "internal", "Something went wrong. Please try again."
}

func errorBody(code, msg string, err error) fiber.Map {
	body := fiber.Map{"error": msg, "code": code}
	var serr *domain.InsufficientStockError
	if errors.As(err, &serr) {
		body["product_id"] = serr.ProductID
		body["product_name"] = serr.ProductName
		body["available"] = serr.Available
		body["requested"] = serr.Requested
		body["in_cart"] = serr.InCart
	}
	var rerr *domain.StockRaceError
	if errors.As(err, &rerr) {
		body["product_id"] = rerr.ProductID
		body["retry"] = true
	}
	return body
}

// fail answers a failed operation: JSON for scripts, otherwise a flash
// message and a redirect back to the given page.
func fail(c *fiber.Ctx, action string, err error, back string) error {
	status, code, msg := statusOf(err)
	switch {
	case status >= 500:
		applog.Error(c, action, err, nil)
	case status == fiber.StatusForbidden:
		applog.Security(c, action, map[string]any{"reason": code})
	default:
		applog.Info(c, action, map[string]any{"reason": code})
	}
	if wantsJSON(c) {
		return c.Status(status).JSON(errorBody(code, msg, err))
	}
	if status == fiber.StatusNotFound || back == "" {
		c.Status(status)
		return render(c, "notfound", fiber.Map{"Message": msg})
	}
	setFlash(c, domain.Notice{Level: domain.NoticeError, Code: code, Message: msg})
	return c.Redirect(back)
}

func money(d decimal.Decimal) string { return "R$" + d.StringFixed(2) }
