package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"bookclub/database"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken            string
	DiscordGuildID          string
	DiscordLibraryChannelID string // Forum channel whose threads count as library activity
	DiscordTerrasRoleID     string // Role that marks premium (terras) members
	AdminDiscordIDs         []string
	BotEnabled              bool

	// Database configuration
	DatabaseURL  string
	DatabaseName string
	DBMaxConns   int
	DBMinConns   int

	// HTTP configuration
	HTTPAddr       string
	JWTSecret      string
	JWTTTL         time.Duration
	RateLimitRPS   int
	RateLimitBurst int

	// Notification configuration
	FrontendURL          string
	PaymentBankAccount   string
	PaymentAccountHolder string
	DMTimeout            time.Duration

	// Activity check configuration
	ActivityTimezone string

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// IsAdmin reports whether the Discord ID belongs to a configured administrator
func (c *Config) IsAdmin(discordID string) bool {
	for _, id := range c.AdminDiscordIDs {
		if id == discordID {
			return true
		}
	}
	return false
}

// ActivityLocation returns the time zone used for the monthly activity window.
// Falls back to UTC when the configured zone cannot be loaded.
func (c *Config) ActivityLocation() *time.Location {
	loc, err := time.LoadLocation(c.ActivityTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// load loads configuration from environment variables
func load() (*Config, error) {
	// A missing .env file is fine, the process environment still applies
	_ = godotenv.Load()

	config := &Config{
		// Discord
		DiscordToken:            os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordGuildID:          os.Getenv("DISCORD_GUILD_ID"),
		DiscordLibraryChannelID: os.Getenv("DISCORD_LIBRARY_CHANNEL_ID"),
		DiscordTerrasRoleID:     os.Getenv("DISCORD_TERRAS_ROLE_ID"),
		AdminDiscordIDs:         splitList(os.Getenv("ADMIN_DISCORD_IDS")),
		BotEnabled:              getEnvBool("BOT_ENABLED", true),

		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),
		DBMaxConns:   getEnvInt("DB_MAX_CONNS", 10),
		DBMinConns:   getEnvInt("DB_MIN_CONNS", 0),

		// HTTP
		HTTPAddr:       getEnvWithDefault("HTTP_ADDR", ":3000"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTTTL:         time.Duration(getEnvInt("JWT_TTL_MINUTES", 7*24*60)) * time.Minute,
		RateLimitRPS:   getEnvInt("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 20),

		// Notifications
		FrontendURL:          strings.TrimRight(getEnvWithDefault("FRONTEND_URL", "https://boogibooks.com"), "/"),
		PaymentBankAccount:   getEnvWithDefault("PAYMENT_BANK_ACCOUNT", "KB국민은행 943202-00-285775"),
		PaymentAccountHolder: getEnvWithDefault("PAYMENT_ACCOUNT_HOLDER", "송대석"),
		DMTimeout:            time.Duration(getEnvInt("DM_TIMEOUT_SECONDS", 10)) * time.Second,

		// Activity
		ActivityTimezone: getEnvWithDefault("ACTIVITY_TIMEZONE", "Asia/Seoul"),

		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
		if _, err := time.LoadLocation(config.ActivityTimezone); err != nil {
			return nil, fmt.Errorf("invalid ACTIVITY_TIMEZONE %q: %w", config.ActivityTimezone, err)
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:          "test",
		AdminDiscordIDs:      []string{"999999"},
		HTTPAddr:             ":0",
		JWTSecret:            "test-secret",
		JWTTTL:               time.Hour,
		RateLimitRPS:         100,
		RateLimitBurst:       100,
		FrontendURL:          "https://boogibooks.test",
		PaymentBankAccount:   "TEST은행 000-00-000000",
		PaymentAccountHolder: "테스트",
		DMTimeout:            time.Second,
		ActivityTimezone:     "Asia/Seoul",
		LogLevel:             "debug",
	}
}
