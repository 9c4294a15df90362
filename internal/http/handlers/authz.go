package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"jecistore/internal/domain"
	applog "jecistore/internal/log"
	"jecistore/internal/repos"
	"jecistore/internal/services"
)

func setSIDCookie(c *fiber.Ctx, sid string, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   secure,
	})
}

// Session loads the "sid" session (creating it when missing) and puts the
// requester's ActorContext into Locals for the handlers below it.
func Session(sessions *repos.SessionRepo, auth *services.AuthService, secure bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.NewString()
			setSIDCookie(c, sid, secure)
		}
		s, err := sessions.Ensure(c.UserContext(), sid)
		if err != nil {
			return err
		}
		actor := domain.ActorContext{SessionKey: sid, AnonCartID: s.CartID.String}
		if s.UserID.Valid {
			u, err := auth.CurrentUser(c.UserContext(), sid)
			if err != nil {
				return err
			}
			if u != nil {
				actor.UserID = u.ID
				c.Locals("user", u)
				c.Locals("user_id", u.ID)
				seller, err := auth.IsSeller(c.UserContext(), u.ID)
				if err != nil {
					return err
				}
				c.Locals("is_seller", seller)
			}
		}
		c.Locals("sid", sid)
		c.Locals("actor", actor)
		c.Locals("cookie_secure", secure)
		return c.Next()
	}
}

func actorOf(c *fiber.Ctx) domain.ActorContext {
	a, _ := c.Locals("actor").(domain.ActorContext)
	return a
}

func userOf(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

// RequireUser enforces that a user is logged in; otherwise redirect to login.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userOf(c) != nil {
			return c.Next()
		}
		if wantsJSON(c) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
		}
		return c.Redirect("/login")
	}
}

// RequireSeller admits only users whose profile is flagged as seller.
func RequireSeller() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := userOf(c)
		if u == nil {
			return RequireUser()(c)
		}
		if seller, _ := c.Locals("is_seller").(bool); !seller {
			applog.Security(c, "access.denied.seller", map[string]any{"user_id": u.ID})
			if wantsJSON(c) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "access denied"})
			}
			c.Status(fiber.StatusForbidden)
			return render(c, "notfound", fiber.Map{"Message": "Access denied"})
		}
		return c.Next()
	}
}
