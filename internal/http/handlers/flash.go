package handlers

import (
	"encoding/base64"
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"jecistore/internal/domain"
)

const flashCookie = "flash"

// setFlash queues notices for the next rendered page, surviving one redirect.
func setFlash(c *fiber.Ctx, notices ...domain.Notice) {
	if len(notices) == 0 {
		return
	}
	pending, _ := c.Locals("flash").([]domain.Notice)
	pending = append(pending, notices...)
	c.Locals("flash", pending)
	raw, err := json.Marshal(pending)
	if err != nil {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func takeFlash(c *fiber.Ctx) []domain.Notice {
	out := []domain.Notice{}
	if v := c.Cookies(flashCookie); v != "" {
		if raw, err := base64.RawURLEncoding.DecodeString(v); err == nil {
			var prev []domain.Notice
			if json.Unmarshal(raw, &prev) == nil {
				out = append(out, prev...)
			}
		}
		c.ClearCookie(flashCookie)
	}
	if pending, ok := c.Locals("flash").([]domain.Notice); ok && len(pending) > 0 {
		out = append(out, pending...)
		c.Locals("flash", nil)
		c.ClearCookie(flashCookie)
	}
	return out
}

func success(msg string) domain.Notice {
	return domain.Notice{Level: domain.NoticeInfo, Code: "ok", Message: msg}
}
