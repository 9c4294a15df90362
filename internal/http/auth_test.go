package handlers_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"jecistore/internal/repos"
)

func TestPasswordsSeededAreHashed(t *testing.T) {
	db, err := repos.OpenDB(":memory:", nil)
	require.NoError(t, err)
	defer db.Close()

	var hashes []string
	require.NoError(t, db.Select(&hashes, `SELECT password_hash FROM users`))
	require.NotEmpty(t, hashes)
	for _, h := range hashes {
		assert.NotContains(t, h, "Passw0rd!")
		assert.True(t, strings.HasPrefix(h, "$2"), "unexpected hash format: %s", h)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("Passw0rd!")))
	}
}

func TestLoginSuccessFailAndThrottle(t *testing.T) {
	app, _ := newApp(t)
	c := newClient(t, app)
	logs := observeLogs(t)

	bad := url.Values{"username": {"ana"}, "password": {"wrongpass!"}}
	for i := 0; i < 2; i++ {
		resp := c.post("/login", bad, false)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Contains(t, bodyOf(t, resp), "Invalid username or password")
	}
	assert.Equal(t, 2, logs.FilterMessage("auth.login.fail").Len())

	resp := c.post("/login", url.Values{"username": {"ana"}, "password": {"Passw0rd!"}}, false)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.Contains(t, bodyOf(t, c.get("/", false)), "Welcome back, ana!")

	for i := 0; i < 2; i++ {
		c.post("/login", bad, true)
	}
	resp = c.post("/login", bad, true)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, 1, logs.FilterMessage("rate.login.hit").Len())
}

func TestLogoutForgetsUser(t *testing.T) {
	app, _ := newApp(t)
	c := newClient(t, app)
	c.login("ana")
	require.Equal(t, http.StatusOK, c.get("/profile", true).StatusCode)

	resp := c.post("/logout", nil, false)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp = c.get("/profile", true)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProfileShowsSellerFlag(t *testing.T) {
	app, _ := newApp(t)
	c := newClient(t, app)
	c.login("jeci")

	prof := decode[struct {
		Username string `json:"username"`
		IsSeller bool   `json:"is_seller"`
	}](t, c.get("/profile", true))
	assert.Equal(t, "jeci", prof.Username)
	assert.True(t, prof.IsSeller)
}

func TestSignup(t *testing.T) {
	app, db := newApp(t)
	c := newClient(t, app)
	form := func(pass2 string) url.Values {
		return url.Values{
			"username":  {"maria"},
			"email":     {"maria@example.com"},
			"password":  {"Str0ng!pass"},
			"password2": {pass2},
			"phone":     {"11 98888-7777"},
		}
	}

	resp := c.post("/signup", form("different"), true)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_input", decode[errorJSON](t, resp).Code)

	weak := form("short")
	weak.Set("password", "short")
	resp = c.post("/signup", weak, true)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = c.post("/signup", form("Str0ng!pass"), true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "maria", decode[struct {
		User string `json:"user"`
	}](t, resp).User)

	var seller bool
	require.NoError(t, db.Get(&seller,
		`SELECT p.is_seller FROM profiles p JOIN users u ON u.id = p.user_id WHERE u.username = 'maria'`))
	assert.False(t, seller, "signup never grants the seller role")

	other := newClient(t, app)
	resp = other.post("/signup", form("Str0ng!pass"), true)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "username_taken", decode[errorJSON](t, resp).Code)
}

func TestSignupKeepsSessionCart(t *testing.T) {
	app, _ := newApp(t)
	c := newClient(t, app)
	require.Equal(t, http.StatusOK, c.post("/cart/add/"+sandalID, url.Values{"quantity": {"2"}}, true).StatusCode)

	resp := c.post("/signup", url.Values{
		"username":  {"joao"},
		"email":     {"joao@example.com"},
		"password":  {"Str0ng!pass"},
		"password2": {"Str0ng!pass"},
	}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	lines := c.cart().Lines
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestCSRFRequiredOnPost(t *testing.T) {
	app, _ := newApp(t)
	c := newClient(t, app)
	logs := observeLogs(t)

	resp := c.post("/cart/add/"+sandalID, url.Values{"quantity": {"1"}, "csrf": {"forged"}}, true)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 1, logs.FilterMessage("csrf.fail").Len())
	assert.Empty(t, c.cart().Lines)
}
