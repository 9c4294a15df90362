package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"jecistore/internal/domain"
	applog "jecistore/internal/log"
	"jecistore/internal/services"
	"jecistore/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
	Cart *services.CartService
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Err": ""})
}

func (h *AuthHandler) loginFailed(c *fiber.Ctx, username, reason string) error {
	applog.Security(c, "auth.login.fail", map[string]any{"username": username, "reason": reason})
	if wantsJSON(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid username or password"})
	}
	c.Status(fiber.StatusUnauthorized)
	return render(c, "login", fiber.Map{"Err": "Invalid username or password"})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	actor := actorOf(c)
	username := c.FormValue("username")
	pass := c.FormValue("password")
	if _, ok := validate.Username(username); !ok {
		return h.loginFailed(c, "", "bad_format")
	}
	if pass == "" || len(pass) > 64 {
		return h.loginFailed(c, username, "bad_password_format")
	}

	u, err := h.Auth.Login(c.UserContext(), actor.SessionKey, username, pass)
	if err != nil {
		if errors.Is(err, services.ErrBadCreds) {
			return h.loginFailed(c, username, "bad_credentials")
		}
		return fail(c, "auth.login.error", err, "")
	}
	applog.Audit(c, "auth.login.success", map[string]any{"user_id": u.ID})
	return h.afterAuth(c, u, actor, "Welcome back, "+u.Username+"!")
}

// afterAuth folds the session's anonymous cart into the user's cart right
// away so merge notices show on the next page.
func (h *AuthHandler) afterAuth(c *fiber.Ctx, u *domain.User, actor domain.ActorContext, greeting string) error {
	actor.UserID = u.ID
	res, err := h.Cart.ResolveCart(c.UserContext(), actor)
	if err != nil {
		return fail(c, "cart.merge.fail", err, "")
	}
	if wantsJSON(c) {
		return c.JSON(fiber.Map{"user": u.Username, "cart_id": res.Cart.ID, "notices": res.Notices})
	}
	setFlash(c, success(greeting))
	setFlash(c, res.Notices...)
	if len(res.Notices) > 0 {
		return c.Redirect("/cart")
	}
	return c.Redirect("/")
}

func (h *AuthHandler) SignupForm(c *fiber.Ctx) error {
	return render(c, "signup", fiber.Map{"Err": ""})
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	actor := actorOf(c)
	reg := services.Registration{
		Username: c.FormValue("username"),
		Email:    c.FormValue("email"),
		Password: c.FormValue("password"),
		Phone:    c.FormValue("phone"),
		Address:  c.FormValue("address"),
	}
	if reg.Password != c.FormValue("password2") {
		err := &domain.ValidationError{Field: "password2", Reason: "passwords do not match"}
		return h.signupFailed(c, err)
	}
	u, err := h.Auth.Register(c.UserContext(), reg)
	if err != nil {
		return h.signupFailed(c, err)
	}
	if _, err := h.Auth.Login(c.UserContext(), actor.SessionKey, reg.Username, reg.Password); err != nil {
		return fail(c, "auth.signup.login", err, "")
	}
	applog.Audit(c, "auth.signup", map[string]any{"user_id": u.ID})
	return h.afterAuth(c, u, actor, "Your account was created. You are logged in.")
}

func (h *AuthHandler) signupFailed(c *fiber.Ctx, err error) error {
	status, code, msg := statusOf(err)
	if status >= 500 {
		return fail(c, "auth.signup.error", err, "")
	}
	applog.Info(c, "auth.signup.fail", map[string]any{"reason": code})
	if wantsJSON(c) {
		return c.Status(status).JSON(errorBody(code, msg, err))
	}
	c.Status(status)
	return render(c, "signup", fiber.Map{"Err": msg})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := actorOf(c).SessionKey
	_ = h.Auth.Logout(c.UserContext(), sid)
	secure, _ := c.Locals("cookie_secure").(bool)
	// Expire cookie
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   secure,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	applog.Audit(c, "auth.logout", nil)
	return c.Redirect("/")
}

// GET /profile
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	u := userOf(c)
	prof, ok, err := h.Auth.Profile(c.UserContext(), u.ID)
	if err != nil {
		return fail(c, "profile.load", err, "")
	}
	if wantsJSON(c) {
		body := fiber.Map{"username": u.Username, "email": u.Email}
		if ok {
			body["is_seller"] = prof.IsSeller
			body["phone"] = prof.Phone
			body["address"] = prof.Address
		}
		return c.JSON(body)
	}
	return render(c, "profile", fiber.Map{"Profile": prof, "HasProfile": ok})
}
