package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"jecistore/internal/config"
	"jecistore/internal/http/handlers"
	applog "jecistore/internal/log"
	"jecistore/internal/repos"
)

// Seeded demo catalog.
const (
	sandalID  = "1" // 89.90, stock 12
	printedID = "3" // 49.90, stock 4
	hatID     = "4" // 59.00, stock 0
)

func newApp(t *testing.T) (*fiber.App, *sqlx.DB) {
	t.Helper()
	db, err := repos.OpenDB(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	cfg := config.Config{
		TemplateDir:    "../../web/templates",
		StoreName:      "Jeci Store",
		WhatsAppNumber: "+55 (11) 99999-0000",
		PageSize:       8,
		SellerPageSize: 10,
	}
	return handlers.NewApp(db, cfg, zap.NewNop()), db
}

// observeLogs routes the request log helpers into an in-memory core.
func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	applog.SetDefault(zap.New(core))
	t.Cleanup(func() { applog.SetDefault(nil) })
	return logs
}

// client is a cookie-keeping browser stand-in. It echoes the CSRF cookie
// back as the form token on every form post.
type client struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
}

func newClient(t *testing.T, app *fiber.App) *client {
	t.Helper()
	c := &client{t: t, app: app, cookies: map[string]string{}}
	resp := c.get("/healthz", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, c.cookies["csrf_"], "csrf cookie")
	require.NotEmpty(t, c.cookies["sid"], "session cookie")
	return c
}

func (c *client) do(method, path string, form url.Values, asJSON bool) *http.Response {
	c.t.Helper()
	var body io.Reader
	if form != nil {
		if tok := c.cookies["csrf_"]; tok != "" && form.Get("csrf") == "" {
			form.Set("csrf", tok)
		}
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if asJSON {
		req.Header.Set("Accept", "application/json")
	}
	for k, v := range c.cookies {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}
	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	for _, ck := range resp.Cookies() {
		if ck.Value == "" || ck.MaxAge < 0 || (!ck.Expires.IsZero() && ck.Expires.Before(time.Now())) {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck.Value
	}
	return resp
}

func (c *client) get(path string, asJSON bool) *http.Response {
	return c.do(http.MethodGet, path, nil, asJSON)
}

func (c *client) post(path string, form url.Values, asJSON bool) *http.Response {
	if form == nil {
		form = url.Values{}
	}
	return c.do(http.MethodPost, path, form, asJSON)
}

func (c *client) login(username string) {
	c.t.Helper()
	resp := c.post("/login", url.Values{"username": {username}, "password": {"Passw0rd!"}}, true)
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func bodyOf(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

type errorJSON struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
	InCart    int    `json:"in_cart"`
}

type lineJSON struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

type cartJSON struct {
	Cart struct {
		ID string `json:"id"`
	} `json:"cart"`
	Notices []struct {
		Code    string `json:"code"`
		Added   int    `json:"added"`
		Dropped int    `json:"dropped"`
	} `json:"notices"`
	Lines []lineJSON `json:"lines"`
	Total string     `json:"total"`
}

func (c *client) cart() cartJSON {
	c.t.Helper()
	resp := c.get("/cart", true)
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	return decode[cartJSON](c.t, resp)
}

func stock(t *testing.T, db *sqlx.DB, id string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT stock FROM products WHERE id = ?`, id))
	return n
}

func shippingForm() url.Values {
	return url.Values{
		"full_name": {"Maria Silva"},
		"contact":   {"+55 11 98888-7777"},
		"address":   {"Rua das Flores 10, Sao Paulo"},
	}
}
