package handlers

import (
	"github.com/gofiber/fiber/v2"

	"jecistore/internal/domain"
	applog "jecistore/internal/log"
	"jecistore/internal/validate"
)

type PageHandler struct{}

// GET /about
func (h *PageHandler) About(c *fiber.Ctx) error {
	return render(c, "about", nil)
}

// GET /contact
func (h *PageHandler) ContactForm(c *fiber.Ctx) error {
	return render(c, "contact", fiber.Map{"Form": domain.ContactMessage{}})
}

// POST /contact
func (h *PageHandler) Contact(c *fiber.Ctx) error {
	in := domain.ContactMessage{
		Name:    c.FormValue("name"),
		Email:   c.FormValue("email"),
		Message: c.FormValue("message"),
	}
	msg, err := validate.Contact(in.Name, in.Email, in.Message)
	if err != nil {
		status, code, text := statusOf(err)
		applog.Info(c, "contact.invalid", map[string]any{"reason": text})
		if wantsJSON(c) {
			return c.Status(status).JSON(errorBody(code, text, err))
		}
		c.Status(status)
		return render(c, "contact", fiber.Map{"Form": in, "Err": "Please correct the form: " + text})
	}

	preview := []rune(msg.Message)
	if len(preview) > 50 {
		preview = preview[:50]
	}
	applog.Info(c, "contact.received", map[string]any{
		"name":    msg.Name,
		"email":   msg.Email,
		"preview": string(preview),
	})
	const thanks = "Your message was sent. We will get back to you soon."
	if wantsJSON(c) {
		return c.JSON(fiber.Map{"message": thanks})
	}
	setFlash(c, success(thanks))
	return c.Redirect("/contact")
}
