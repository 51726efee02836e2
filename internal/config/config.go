package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database     DatabaseConfig
	Server       ServerConfig
	App          AppConfig
	Verification VerificationPolicy
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret       string
	FrontendURL     string
	ListingTTLDays  int
	ExpirySweepSpec string
}

// VerificationPolicy holds the tunables of the duplicate detector. The title
// similarity check is deliberately a policy, not a hardcoded algorithm: the
// current single-token substring match can be tightened later without
// touching the detector itself.
type VerificationPolicy struct {
	DuplicateRadiusMeters float64
	ExactAddressLimit     int
	SimilarTitleLimit     int
	MinTitleTokenLength   int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "realest"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		App: AppConfig{
			JWTSecret:       getEnv("JWT_SECRET", ""),
			FrontendURL:     getEnv("FRONTEND_URL", ""),
			ListingTTLDays:  getEnvInt("LISTING_TTL_DAYS", 90),
			ExpirySweepSpec: getEnv("EXPIRY_SWEEP_SPEC", "@hourly"),
		},
		Verification: VerificationPolicy{
			DuplicateRadiusMeters: getEnvFloat("DUPLICATE_RADIUS_METERS", 500),
			ExactAddressLimit:     getEnvInt("DUPLICATE_EXACT_ADDRESS_LIMIT", 5),
			SimilarTitleLimit:     getEnvInt("DUPLICATE_SIMILAR_TITLE_LIMIT", 5),
			MinTitleTokenLength:   getEnvInt("DUPLICATE_MIN_TOKEN_LENGTH", 4),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}
