package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DB           DBConfig
	Server       ServerConfig
	Seeder       SeederConfig
	Integrations IntegrationsConfig
	Cache        CacheConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
}

// DBType represents database type
type DBType string

const (
	DBTypePostgreSQL DBType = "postgres"
	DBTypeMemory     DBType = "memory"
)

const defaultDBName = "cityinfo"

// DBConfig holds database configuration
type DBConfig struct {
	Type     DBType
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// SeederConfig holds settings for data import
type SeederConfig struct {
	DataFile  string
	BatchSize int
	AutoSeed  bool
}

// IntegrationsConfig holds settings for the outbound country and weather APIs
type IntegrationsConfig struct {
	CountriesBaseURL  string
	WeatherBaseURL    string
	OpenWeatherAPIKey string
	HTTPTimeout       time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
	BreakerEnabled    bool
	EnrichmentTimeout time.Duration
}

// CacheConfig holds settings for the process-wide country cache
type CacheConfig struct {
	CountrySize   int
	CountryTTL    time.Duration
	PruneSchedule string
}

// RateLimitConfig holds per-client request budget settings
type RateLimitConfig struct {
	Enabled    bool
	Requests   int
	Window     time.Duration
	RedisURL   string
	TrustProxy bool
}

// CORSConfig holds cross-origin settings for the web client
type CORSConfig struct {
	AllowedOrigins []string
}

// DSN returns the database connection string
func (c DBConfig) DSN() string {
	if c.Type == DBTypeMemory {
		// SQLite in-memory database
		if c.Name != "" && c.Name != defaultDBName {
			return fmt.Sprintf("file:%s?mode=memory&cache=shared", c.Name)
		}
		return "file::memory:?cache=shared"
	}
	// PostgreSQL connection string
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// IsMemory returns true if using in-memory database
func (c DBConfig) IsMemory() bool {
	return c.Type == DBTypeMemory
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbType := DBType(getEnv("DB_TYPE", "memory"))
	if dbType != DBTypePostgreSQL && dbType != DBTypeMemory {
		dbType = DBTypeMemory
	}

	config := &Config{
		DB: DBConfig{
			Type:     dbType,
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "cityinfo"),
			Password: getEnv("DB_PASSWORD", "cityinfo_password"),
			Name:     getEnv("DB_NAME", defaultDBName),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Port: getEnv("APP_PORT", "4000"),
		},
		Seeder: SeederConfig{
			DataFile:  getEnv("SEEDER_DATA_FILE", "data/cities.tsv"),
			BatchSize: getEnvAsInt("SEEDER_BATCH_SIZE", 500),
			AutoSeed:  getEnvAsBool("SEEDER_AUTO_SEED", true),
		},
		Integrations: IntegrationsConfig{
			CountriesBaseURL:  getEnv("COUNTRIES_BASE_URL", "https://restcountries.com"),
			WeatherBaseURL:    getEnv("OPENWEATHER_BASE_URL", "https://api.openweathermap.org"),
			OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
			HTTPTimeout:       getEnvAsDuration("HTTP_TIMEOUT", 10*time.Second),
			MaxRetries:        getEnvAsInt("HTTP_MAX_RETRIES", 2),
			RetryDelay:        getEnvAsDuration("HTTP_RETRY_DELAY", 300*time.Millisecond),
			BreakerEnabled:    getEnvAsBool("HTTP_CIRCUIT_BREAKER", true),
			EnrichmentTimeout: getEnvAsDuration("ENRICHMENT_TIMEOUT", 0),
		},
		Cache: CacheConfig{
			CountrySize:   getEnvAsInt("COUNTRY_CACHE_SIZE", 512),
			CountryTTL:    getEnvAsDuration("COUNTRY_CACHE_TTL", 24*time.Hour),
			PruneSchedule: getEnv("CACHE_PRUNE_SCHEDULE", "@every 10m"),
		},
		RateLimit: RateLimitConfig{
			Enabled:    getEnvAsBool("RATE_LIMIT_ENABLED", true),
			Requests:   getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
			Window:     getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
			RedisURL:   os.Getenv("RATE_LIMIT_REDIS_URL"),
			TrustProxy: getEnvAsBool("RATE_LIMIT_TRUST_PROXY", false),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS"),
		},
	}

	if len(config.CORS.AllowedOrigins) == 0 {
		config.CORS.AllowedOrigins = []string{"http://localhost:5173"}
	}

	if config.Integrations.MaxRetries < 0 {
		return nil, fmt.Errorf("HTTP_MAX_RETRIES must not be negative, got %d", config.Integrations.MaxRetries)
	}
	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return nil, fmt.Errorf("rate limit requires positive RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW")
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
