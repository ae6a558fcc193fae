package config

import (
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config carries settings for both the client (shopctl) and the mock API
// server. Unused fields are simply left empty for the binary that does not
// need them.
type Config struct {
	APIURL    string
	StatePath string
	LogLevel  string

	Addr       string
	DBPath     string
	DBDSN      string
	JWTSecret  string
	KafkaAddr  string
	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string
	SeedPath   string
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := &Config{
		APIURL:     getenv("API_URL", "http://localhost:3001"),
		StatePath:  os.Getenv("STATE_PATH"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		Addr:       getenv("ADDR", ":3001"),
		DBPath:     getenv("DB_PATH", "storefront.db"),
		DBDSN:      os.Getenv("DB_DSN"),
		JWTSecret:  getenv("JWT_SECRET", "storefront-dev-secret"),
		KafkaAddr:  os.Getenv("KAFKA_ADDRESS"),
		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    getenv("ES_INDEX", "products"),
		SeedPath:   os.Getenv("SEED_PATH"),
	}

	if cfg.StatePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		cfg.StatePath = filepath.Join(home, ".storefront", "state.db")
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
