package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port           string
	DBDSN          string
	LogFile        string
	LogLevel       string
	TemplateDir    string
	StoreName      string
	WhatsAppNumber string
	CookieSecure   bool
	PageSize       int
	SellerPageSize int
}

func Load() Config {
	return Config{
		Port:           env("PORT", "8080"),
		DBDSN:          env("DB_DSN", "jecistore.db"), // sqlite file in project root
		LogFile:        env("LOG_FILE", ""),
		LogLevel:       env("LOG_LEVEL", "info"),
		TemplateDir:    env("TEMPLATE_DIR", "./web/templates"),
		StoreName:      env("STORE_NAME", "Jeci Store"),
		WhatsAppNumber: env("STORE_WHATSAPP_NUMBER", "5500000000000"),
		CookieSecure:   envBool("COOKIE_SECURE", false),
		PageSize:       envInt("PAGE_SIZE", 8),
		SellerPageSize: envInt("SELLER_PAGE_SIZE", 10),
	}
}

func env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	n, err := strconv.Atoi(env(key, ""))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	b, err := strconv.ParseBool(env(key, ""))
	if err != nil {
		return def
	}
	return b
}
