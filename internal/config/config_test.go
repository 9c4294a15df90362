package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jecistore/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("PAGE_SIZE", "")
	cfg := config.Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 8, cfg.PageSize)
	assert.Equal(t, 10, cfg.SellerPageSize)
	assert.False(t, cfg.CookieSecure)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_NAME", "Loja da Ana")
	t.Setenv("PAGE_SIZE", "12")
	t.Setenv("SELLER_PAGE_SIZE", "-4")
	t.Setenv("COOKIE_SECURE", "true")
	cfg := config.Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "Loja da Ana", cfg.StoreName)
	assert.Equal(t, 12, cfg.PageSize)
	assert.Equal(t, 10, cfg.SellerPageSize, "non-positive sizes fall back")
	assert.True(t, cfg.CookieSecure)
}
