package handlers_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderShowsCartCountAndCategories(t *testing.T) {
	app, _ := newApp(t)
	c := newClient(t, app)

	page := bodyOf(t, c.get("/", false))
	assert.Contains(t, page, "Cart (0)")
	assert.Contains(t, page, `href="/category/sandals"`)
	assert.Contains(t, page, `href="/category/accessories"`)

	require.Equal(t, http.StatusOK, c.post("/cart/add/"+sandalID, url.Values{"quantity": {"2"}}, true).StatusCode)
	require.Equal(t, http.StatusOK, c.post("/cart/add/"+printedID, url.Values{"quantity": {"1"}}, true).StatusCode)
	assert.Contains(t, bodyOf(t, c.get("/products", false)), "Cart (2)")

	c.login("ana")
	assert.Contains(t, bodyOf(t, c.get("/about", false)), "Cart (2)", "the merged cart keeps its lines")
}

func TestAboutPage(t *testing.T) {
	app, _ := newApp(t)
	resp := newClient(t, app).get("/about", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, bodyOf(t, resp), "About Jeci Store")
}

func TestContactForm(t *testing.T) {
	app, _ := newApp(t)
	c := newClient(t, app)
	logs := observeLogs(t)

	resp := c.get("/contact", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, bodyOf(t, resp), `name="message"`)

	bad := url.Values{"name": {"Maria"}, "email": {"maria@"}, "message": {"Hello"}}
	resp = c.post("/contact", bad, true)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_input", decode[errorJSON](t, resp).Code)

	resp = c.post("/contact", bad, false)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := bodyOf(t, resp)
	assert.Contains(t, body, "Please correct the form")
	assert.Contains(t, body, `value="Maria"`, "typed values are kept")
	assert.Equal(t, 2, logs.FilterMessage("contact.invalid").Len())
	assert.Zero(t, logs.FilterMessage("contact.received").Len())

	ok := url.Values{"name": {"Maria"}, "email": {"maria@example.com"}, "message": {"Do you ship to Recife?"}}
	resp = c.post("/contact", ok, false)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/contact", resp.Header.Get("Location"))
	assert.Contains(t, bodyOf(t, c.get("/contact", false)), "Your message was sent")

	received := logs.FilterMessage("contact.received").All()
	require.Len(t, received, 1)
	fields, _ := received[0].ContextMap()["fields"].(map[string]any)
	assert.Equal(t, "maria@example.com", fields["email"])
}

func TestContactIsThrottled(t *testing.T) {
	app, _ := newApp(t)
	c := newClient(t, app)
	logs := observeLogs(t)

	form := url.Values{"name": {"Maria"}, "email": {"maria@example.com"}, "message": {"Hi"}}
	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, c.post("/contact", form, true).StatusCode)
	}
	assert.Equal(t, http.StatusTooManyRequests, c.post("/contact", form, true).StatusCode)
	assert.Equal(t, 1, logs.FilterMessage("rate.contact.hit").Len())
}
