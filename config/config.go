package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the settings main needs to wire the server.
type Config struct {
	Port            string
	JWTSecret       string
	BackendURL      string
	BackendTimeout  time.Duration
	DatabaseURL     string
	StorageBucket   string
	Credentials     string
	AdminURL        string
	MaxImages       int
	DraftTTL        time.Duration
	UploadRateLimit int
}

func LoadEnv() error {
	// Try to load .env file if it exists (for local development)
	// In production, environment variables are set directly
	err := godotenv.Load()
	if err != nil {
		// .env file not found is not an error - it might be on production
		// Environment variables are already available in os.Getenv()
		return nil
	}
	return nil
}

// ValidateEnv checks that critical environment variables are set.
// Returns an error if any critical variable is missing.
func ValidateEnv() error {
	var missing []string

	// Critical variables - application cannot function without these
	if os.Getenv("JWT_SECRET") == "" {
		missing = append(missing, "JWT_SECRET")
	}
	// Either a remote catalog backend or a local database must be configured
	if os.Getenv("BACKEND_URL") == "" && os.Getenv("DATABASE_URL") == "" {
		missing = append(missing, "BACKEND_URL or DATABASE_URL")
	}

	if len(missing) > 0 {
		return fmt.Errorf("critical environment variables not set: %v", missing)
	}

	// Non-critical variables - log warnings but don't fail
	if os.Getenv("BACKEND_URL") == "" {
		if os.Getenv("FIREBASE_STORAGE_BUCKET") == "" {
			log.Println("WARNING: FIREBASE_STORAGE_BUCKET not set - file uploads will fail")
		}
		if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			log.Println("WARNING: GOOGLE_APPLICATION_CREDENTIALS not set - Firebase features may not work")
		}
	}
	if os.Getenv("ADMIN_URL") == "" {
		log.Println("WARNING: ADMIN_URL not set - CORS may not work correctly")
	}

	return nil
}

// Load reads the configuration from the environment, applying defaults.
func Load() Config {
	return Config{
		Port:            GetEnv("PORT", "8080"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		BackendURL:      os.Getenv("BACKEND_URL"),
		BackendTimeout:  GetEnvDuration("BACKEND_TIMEOUT", 15*time.Second),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		StorageBucket:   os.Getenv("FIREBASE_STORAGE_BUCKET"),
		Credentials:     os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		AdminURL:        GetEnv("ADMIN_URL", "http://localhost:3000"),
		MaxImages:       GetEnvInt("MAX_VARIANT_IMAGES", 10),
		DraftTTL:        GetEnvDuration("DRAFT_TTL", 2*time.Hour),
		UploadRateLimit: GetEnvInt("UPLOAD_RATE_LIMIT", 20),
	}
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvInt returns the integer value of key. Unset or unparsable values
// fall back to defaultValue.
func GetEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Printf("WARNING: invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

// GetEnvDuration parses key as a time.Duration ("30s", "2h").
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("WARNING: invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
