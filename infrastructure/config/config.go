package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"hr-backend/domain/core/entities"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string
	LogLevel      string

	// Cache configuration. An empty CacheURL disables caching.
	CacheURL        string
	CacheKeyPrefix  string
	CacheTTL        TTLSettings
	CachePolicyFile string

	// Queue configuration. An empty QueueConnection disables notifications.
	QueueConnection   string
	VisibilityTimeout time.Duration
	RetryDelay        time.Duration
	PollInterval      time.Duration
	// MaxAttempts bounds deliveries on the in-process queue; SQS uses the
	// queue's redrive policy instead.
	MaxAttempts int

	// Persistence
	AWSRegion        string
	RepositoryDriver string
	DynamoDBTable    string

	// Authentication
	EnableAuth bool
	JWTSecret  string
	JWTIssuer  string

	// Feature flags
	EnableMetrics bool
	EnableTracing bool
	EnableCORS    bool
	OTLPEndpoint  string

	// CORSAllowedOrigins is a comma separated list; empty allows any origin.
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		CacheURL:        os.Getenv("CACHE_URL"),
		CacheKeyPrefix:  os.Getenv("CACHE_KEY_PREFIX"),
		CacheTTL:        loadTTLSettings(),
		CachePolicyFile: os.Getenv("CACHE_POLICY_FILE"),

		QueueConnection:   os.Getenv("QUEUE_CONNECTION"),
		VisibilityTimeout: getEnvSeconds("QUEUE_VISIBILITY_TIMEOUT", 30*time.Second),
		RetryDelay:        getEnvSeconds("QUEUE_RETRY_DELAY", 30*time.Second),
		PollInterval:      getEnvSeconds("QUEUE_POLL_INTERVAL", time.Second),
		MaxAttempts:       getEnvInt("QUEUE_MAX_ATTEMPTS", 5),

		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		RepositoryDriver: getEnv("REPOSITORY_DRIVER", "memory"),
		DynamoDBTable:    getEnv("TABLE_NAME", "hr-records"),

		EnableAuth: getEnvBool("ENABLE_AUTH", false),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		JWTIssuer:  getEnv("JWT_ISSUER", "hr-backend"),

		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
		OTLPEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),

		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.RepositoryDriver {
	case "memory", "dynamodb":
	default:
		return fmt.Errorf("REPOSITORY_DRIVER must be memory or dynamodb, got %q", c.RepositoryDriver)
	}
	if c.EnableAuth && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ENABLE_AUTH is set")
	}
	if c.IsProduction() && c.RepositoryDriver == "dynamodb" && c.DynamoDBTable == "" {
		return fmt.Errorf("TABLE_NAME is required")
	}
	if c.CacheTTL.Default.Single <= 0 || c.CacheTTL.Default.Collection <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// loadTTLSettings reads CACHE_TTL_SINGLE / CACHE_TTL_COLLECTION and the
// per-kind CACHE_TTL_<PLURAL>_SINGLE / _COLLECTION overrides.
func loadTTLSettings() TTLSettings {
	s := TTLSettings{
		Default: TTL{
			Single:     getEnvSeconds("CACHE_TTL_SINGLE", DefaultSingleTTL),
			Collection: getEnvSeconds("CACHE_TTL_COLLECTION", DefaultCollectionTTL),
		},
		Kinds: make(map[string]TTL),
	}
	for _, kind := range entities.Kinds() {
		name := strings.ToUpper(kind.Plural)
		override := TTL{
			Single:     getEnvSeconds("CACHE_TTL_"+name+"_SINGLE", 0),
			Collection: getEnvSeconds("CACHE_TTL_"+name+"_COLLECTION", 0),
		}
		if override != (TTL{}) {
			s.Kinds[kind.Plural] = override
		}
	}
	return s
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvSeconds reads a whole number of seconds.
func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
