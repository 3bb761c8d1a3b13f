package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	PORT       string
	APP_ENV    string
	APP_URL    string
	DB_URL     string
	JWT_SECRET string

	CORS_ORIGIN string
	LOG_LEVEL   string
	LOG_FILE    string

	REDIS_ADDR     string
	REDIS_PASSWORD string
	REDIS_DB       int

	// Supabase storage speaks the S3 protocol at SUPABASE_URL/storage/v1/s3.
	SUPABASE_URL              string
	STORAGE_ACCESS_KEY_ID     string
	STORAGE_SECRET_ACCESS_KEY string
	STORAGE_REGION            string
	UPLOAD_DIR                string
	PUBLIC_BASE_URL           string

	OPENAI_API_KEY                      string
	OPENAI_BASE_URL                     string
	OPENAI_MODEL                        string
	OPENAI_TAGS_ASSISTANT_ID            string
	OPENAI_RECOMMENDATIONS_ASSISTANT_ID string

	SMTP_HOST     string
	SMTP_PORT     string
	SMTP_FROM     string
	SMTP_PASSWORD string

	STRIPE_SECRET_KEY      string
	STRIPE_WEBHOOK_SECRET  string
	STRIPE_PRODUCT_ID      string
	STRIPE_FOUNDING_COUPON string

	GOOGLE_CLIENT_ID         string
	GOOGLE_CLIENT_SECRET     string
	GOOGLE_REDIRECT_URL      string
	GOOGLE_FRONTEND_REDIRECT string

	FOUNDING_ARTIST_LIMIT int
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	PORT = getEnv("PORT", "8080")
	APP_ENV = getEnv("APP_ENV", "development")
	APP_URL = getEnv("APP_URL", "http://localhost:3000")
	DB_URL = mustEnv("DB_URL")
	JWT_SECRET = mustEnv("JWT_SECRET")

	CORS_ORIGIN = getEnv("CORS_ORIGIN", APP_URL)
	LOG_LEVEL = getEnv("LOG_LEVEL", "info")
	LOG_FILE = getEnv("LOG_FILE", "")

	REDIS_ADDR = getEnv("REDIS_ADDR", "")
	REDIS_PASSWORD = getEnv("REDIS_PASSWORD", "")
	REDIS_DB = getEnvInt("REDIS_DB", 0)

	SUPABASE_URL = getEnv("SUPABASE_URL", "")
	STORAGE_ACCESS_KEY_ID = getEnv("STORAGE_ACCESS_KEY_ID", "")
	STORAGE_SECRET_ACCESS_KEY = getEnv("STORAGE_SECRET_ACCESS_KEY", "")
	STORAGE_REGION = getEnv("STORAGE_REGION", "us-east-1")
	UPLOAD_DIR = getEnv("UPLOAD_DIR", "./uploads")
	PUBLIC_BASE_URL = getEnv("PUBLIC_BASE_URL", "http://localhost:"+PORT)

	OPENAI_API_KEY = getEnv("OPENAI_API_KEY", "")
	OPENAI_BASE_URL = getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1")
	OPENAI_MODEL = getEnv("OPENAI_MODEL", "gpt-4o-mini")
	OPENAI_TAGS_ASSISTANT_ID = getEnv("OPENAI_TAGS_ASSISTANT_ID", "")
	OPENAI_RECOMMENDATIONS_ASSISTANT_ID = getEnv("OPENAI_RECOMMENDATIONS_ASSISTANT_ID", "")

	SMTP_HOST = getEnv("SMTP_HOST", "")
	SMTP_PORT = getEnv("SMTP_PORT", "587")
	SMTP_FROM = getEnv("SMTP_FROM", "")
	SMTP_PASSWORD = getEnv("SMTP_PASSWORD", "")

	STRIPE_SECRET_KEY = getEnv("STRIPE_SECRET_KEY", "")
	STRIPE_WEBHOOK_SECRET = getEnv("STRIPE_WEBHOOK_SECRET", "")
	STRIPE_PRODUCT_ID = getEnv("STRIPE_PRODUCT_ID", "")
	STRIPE_FOUNDING_COUPON = getEnv("STRIPE_FOUNDING_COUPON", "")

	GOOGLE_CLIENT_ID = getEnv("GOOGLE_CLIENT_ID", "")
	GOOGLE_CLIENT_SECRET = getEnv("GOOGLE_CLIENT_SECRET", "")
	GOOGLE_REDIRECT_URL = getEnv("GOOGLE_REDIRECT_URL", "")
	GOOGLE_FRONTEND_REDIRECT = getEnv("GOOGLE_FRONTEND_REDIRECT", "")

	FOUNDING_ARTIST_LIMIT = getEnvInt("FOUNDING_ARTIST_LIMIT", 100)
}

// IsDev reports whether the service runs outside production.
func IsDev() bool {
	return APP_ENV != "production"
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s, using %d", key, fallback)
		return fallback
	}
	return n
}
