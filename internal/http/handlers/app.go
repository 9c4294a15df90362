package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"jecistore/internal/config"
	applog "jecistore/internal/log"
)

// NewApp builds the fiber app with its middleware stack and every route.
func NewApp(db *sqlx.DB, cfg config.Config, zl *zap.Logger) *fiber.App {
	engine := html.New(cfg.TemplateDir, ".html")
	engine.AddFunc("money", money)
	engine.AddFunc("add", func(a, b int) int { return a + b })

	app := fiber.New(fiber.Config{
		Views:        engine,
		BodyLimit:    1 << 20,
		ErrorHandler: ErrorHandler,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{Output: zap.NewStdLog(zl).Writer()}))
	app.Use(helmet.New())
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("store_name", cfg.StoreName)
		return c.Next()
	})
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/static/")
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}))
	app.Use(csrf.New(csrf.Config{
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.CookieSecure,
		ContextKey:     "CSRFToken",
		Extractor:      csrfToken,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"reason": err.Error()})
			if wantsJSON(c) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "security check failed"})
			}
			c.Status(fiber.StatusForbidden)
			return render(c, "notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))

	d := NewDeps(db, cfg, zl)
	app.Use(Session(d.Sessions, d.Auth, cfg.CookieSecure))
	app.Use(Nav(d.Cart, d.Catalog))

	app.Static("/static", "./web/static")

	// Public pages
	app.Get("/", d.CategoryHandler.Home)
	app.Get("/products", limiter.New(limiter.Config{Max: 20, Expiration: time.Minute}), d.SearchHandler.List)
	app.Get("/category/:slug", d.SearchHandler.List)
	app.Get("/product/:id", d.ProductHandler.Detail)
	app.Get("/about", d.PageHandler.About)
	app.Get("/contact", d.PageHandler.ContactForm)
	app.Post("/contact", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.contact.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many messages, retry later"})
		},
	}), d.PageHandler.Contact)

	// API
	api := app.Group("/api/v1")
	availLimiter := limiter.New(limiter.Config{
		Max:        15,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.availability.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
	api.Get("/availability", availLimiter, d.InventoryHandler.Check)

	// Cart & Orders
	app.Get("/cart", d.CartHandler.View)
	app.Post("/cart/add/:id", d.CartHandler.Add)
	app.Post("/cart/items/:id", d.CartHandler.Update)
	app.Post("/cart/items/:id/delete", d.CartHandler.Remove)
	app.Get("/checkout", d.OrderHandler.CheckoutForm)
	app.Post("/checkout", d.OrderHandler.Place)
	app.Get("/order/:id", d.OrderHandler.View)
	app.Get("/orders", d.OrderHandler.History)

	// Auth routes (login throttled)
	app.Get("/login", d.AuthHandler.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			if wantsJSON(c) {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts"})
			}
			c.Status(fiber.StatusTooManyRequests)
			return render(c, "login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), d.AuthHandler.Login)
	app.Get("/signup", d.AuthHandler.SignupForm)
	app.Post("/signup", d.AuthHandler.Signup)
	app.Post("/logout", d.AuthHandler.Logout)
	app.Get("/profile", RequireUser(), d.AuthHandler.Profile)

	// Seller
	seller := app.Group("/seller", RequireSeller())
	seller.Get("/products", d.SellerHandler.Products)
	seller.Get("/products/new", d.SellerHandler.NewProduct)
	seller.Post("/products", d.SellerHandler.CreateProduct)
	seller.Get("/products/:id/edit", d.SellerHandler.EditProduct)
	seller.Post("/products/:id", d.SellerHandler.UpdateProduct)
	seller.Post("/products/:id/delete", d.SellerHandler.DeleteProduct)
	seller.Get("/orders", d.SellerHandler.OrdersPage)
	seller.Post("/orders/items/:id", d.SellerHandler.UpdateOrderItem)
	seller.Get("/inventory", d.SellerHandler.Inventory)
	seller.Post("/inventory/:id", d.SellerHandler.UpdateInventory)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return notFound(c, "Page not found")
	})
	return app
}

// csrfToken accepts the token from the X-Csrf-Token header or the "csrf" form field.
func csrfToken(c *fiber.Ctx) (string, error) {
	if tok := c.Get(csrf.HeaderName); tok != "" {
		return tok, nil
	}
	if tok := c.FormValue("csrf"); tok != "" {
		return tok, nil
	}
	return "", csrf.ErrTokenNotFound
}

// ErrorHandler logs unexpected errors and shows a generic page without internals.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		if wantsJSON(c) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		return c.Status(fe.Code).SendString(fe.Message)
	}
	applog.Error(c, "server.error", err, nil)
	if wantsJSON(c) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	// Avoid leaking internals; best-effort render
	if rerr := c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
		"Message": "Something went wrong. Please try again.",
	}); rerr != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
	}
	return nil
}
