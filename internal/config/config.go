package config

import (
	"os"

	"github.com/shopspring/decimal"
)

type Config struct {
	Port              string
	LedgerFile        string
	SlipsDir          string
	DatabaseURL       string // when set, orders persist to Postgres instead of the CSV ledger
	JWTSecret         string
	AdminPassword     string
	AdminPasswordHash string // bcrypt; takes precedence over AdminPassword when set
	DeliveryFee       decimal.Decimal
	QRImage           string // payment QR image path; empty falls back to qr_matcha.{jpeg,jpg,png}
	NotifyURL         string
	NotifyToken       string
}

func Load() *Config {
	return &Config{
		Port:              getEnv("PORT", "8081"),
		LedgerFile:        getEnv("LEDGER_FILE", "orders.csv"),
		SlipsDir:          getEnv("SLIPS_DIR", "slips"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		JWTSecret:         getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		DeliveryFee:       getEnvDecimal("DELIVERY_FEE"),
		QRImage:           os.Getenv("QR_IMAGE"),
		NotifyURL:         os.Getenv("NOTIFY_URL"),
		NotifyToken:       os.Getenv("NOTIFY_TOKEN"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvDecimal parses a decimal env var, falling back to zero
// when unset, unparseable, or negative.
func getEnvDecimal(key string) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}
