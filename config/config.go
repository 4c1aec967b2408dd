package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Pricing  PricingConfig
	Redis    RedisConfig
	S3       S3Config
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type AuthConfig struct {
	UserServiceURL string        // base URL of the user service, used for token validation
	TokenExpiry    time.Duration // lifetime of issued login tokens
	CleanupCron    string        // cron expression for the expired token purge
}

type CORSConfig struct {
	AllowedOrigins []string
}

type PricingConfig struct {
	TaxRate         float64            // applied to the order subtotal at checkout
	ShippingFee     float64            // flat fee added to every order
	ShippingMethods map[string]float64 // per-method fees used by cart total estimates
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	ShareTTL time.Duration // how long shared cart snapshots stay resolvable
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "1234"),
			DBName:   getEnv("DB_NAME", "shopline"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			UserServiceURL: getEnv("USER_SERVICE_URL", "http://localhost:8081"),
			TokenExpiry:    parseDuration(getEnv("AUTH_TOKEN_EXPIRY", "720h"), 720*time.Hour),
			CleanupCron:    getEnv("AUTH_TOKEN_CLEANUP_CRON", "0 3 * * *"),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Pricing: PricingConfig{
			TaxRate:         parseFloat(getEnv("ORDER_TAX_RATE", "0.10"), 0.10),
			ShippingFee:     parseFloat(getEnv("ORDER_SHIPPING_FEE", "10.00"), 10.00),
			ShippingMethods: parseFeeTable(getEnv("SHIPPING_METHODS", "standard=5.99,express=14.99,overnight=29.99")),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
			ShareTTL: parseDuration(getEnv("CART_SHARE_TTL", "168h"), 168*time.Hour),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", "shopline-product-images"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseFloat(s string, fallback float64) float64 {
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Printf("Invalid number %s, using default %v", s, fallback)
		return fallback
	}
	return value
}

func parseInt(s string, fallback int) int {
	value, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid number %s, using default %d", s, fallback)
		return fallback
	}
	return value
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// parseFeeTable parses "name=fee,name=fee" pairs. Malformed entries are skipped.
func parseFeeTable(s string) map[string]float64 {
	table := make(map[string]float64)
	for _, pair := range parseSlice(s) {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		fee, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			log.Printf("Invalid shipping fee %s, skipping", pair)
			continue
		}
		table[strings.TrimSpace(parts[0])] = fee
	}
	return table
}
