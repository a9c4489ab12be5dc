package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig
	Reddit   RedditConfig
	Database DatabaseConfig
	Log      LogConfig
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Name    string
	Version string
}

// RedditConfig holds Reddit API configuration
type RedditConfig struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
	TokenURL     string
	APIBase      string
	HTTPTimeout  time.Duration
}

// DatabaseConfig holds the document store and connection registry settings
type DatabaseConfig struct {
	URI           string
	Name          string
	Collection    string
	ConnectionsDB string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
	File  string
}

const (
	defaultTokenURL   = "https://www.reddit.com/api/v1/access_token"
	defaultAPIBase    = "https://oauth.reddit.com"
	defaultMongoURI   = "mongodb://localhost:27017"
	defaultMongoDB    = "feeds"
	defaultCollection = "elasticfeeds"
	defaultLogLevel   = "ERROR"
)

var logLevels = map[string]bool{
	"DEBUG":    true,
	"INFO":     true,
	"WARNING":  true,
	"ERROR":    true,
	"CRITICAL": true,
}

// LoadConfig loads configuration from the .env file (when present) and the environment.
// Values in the file override the process environment.
func LoadConfig(envPath string) (*Config, error) {
	if envPath == "" {
		envPath = ".env"
	}

	if err := godotenv.Overload(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "Reddit Feeds"),
			Version: getEnv("APP_VERSION", "1.0.0"),
		},
		Reddit: RedditConfig{
			ClientID:     getEnv("MY_CLIENT_ID", ""),
			ClientSecret: getEnv("MY_CLIENT_SECRET", ""),
			Username:     getEnv("MY_REDDIT_USERNAME", ""),
			Password:     getEnv("MY_REDDIT_PASSWORD", ""),
			UserAgent:    getEnv("MY_USER_AGENT", ""),
			TokenURL:     getEnv("REDDIT_TOKEN_URL", defaultTokenURL),
			APIBase:      strings.TrimRight(getEnv("REDDIT_API_BASE", defaultAPIBase), "/"),
			HTTPTimeout:  time.Duration(getEnvAsInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Database: DatabaseConfig{
			URI:           getEnv("mongo_uri", defaultMongoURI),
			Name:          getEnv("mongo_db", defaultMongoDB),
			Collection:    getEnv("FEEDS_COLLECTION", defaultCollection),
			ConnectionsDB: getEnv("CONNECTIONS_DB_PATH", "reddit.db"),
		},
		Log: LogConfig{
			Level: parseLogLevel(getEnv("LOGGING_LEVEL", defaultLogLevel)),
			File:  getEnv("LOG_FILE", "reddit.log"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// EnvPath returns the .env location, overridable with ENV_FILE
func EnvPath() string {
	return getEnv("ENV_FILE", ".env")
}

// parseLogLevel normalizes the level name; unknown names fall back to ERROR
func parseLogLevel(level string) string {
	level = strings.ToUpper(strings.TrimSpace(level))
	if !logLevels[level] {
		return defaultLogLevel
	}
	return level
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Reddit.ClientID == "" {
		return fmt.Errorf("MY_CLIENT_ID environment variable is required")
	}
	if config.Reddit.ClientSecret == "" {
		return fmt.Errorf("MY_CLIENT_SECRET environment variable is required")
	}
	if config.Reddit.Username == "" {
		return fmt.Errorf("MY_REDDIT_USERNAME environment variable is required")
	}
	if config.Reddit.Password == "" {
		return fmt.Errorf("MY_REDDIT_PASSWORD environment variable is required")
	}

	// Reddit rejects requests without a descriptive User-Agent
	if config.Reddit.UserAgent == "" {
		return fmt.Errorf("MY_USER_AGENT environment variable is required")
	}
	if config.Reddit.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive")
	}
	if config.Database.URI == "" || config.Database.Name == "" {
		return fmt.Errorf("mongo_uri and mongo_db must not be empty")
	}

	return nil
}
