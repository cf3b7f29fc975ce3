package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"

	OTPStoreMemory = "memory"
	OTPStoreRedis  = "redis"
)

type Config struct {
	Env      string
	LogLevel string
	Backend  string
	Server   ServerConfig
	DynamoDB DynamoDBConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	JWT      JWTConfig
	OTP      OTPConfig
	SMS      SMSConfig
}

type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	// AllowedOrigins may make credentialed cross-origin requests. Empty means none.
	AllowedOrigins []string
}

type DynamoDBConfig struct {
	Endpoint  string
	Region    string
	TableName string
}

type PostgresConfig struct {
	DSN      string
	MaxConns int32
}

type RedisConfig struct {
	Endpoint string
	Password string
	DB       int
}

type JWTConfig struct {
	SecretKey          string
	AdminSessionTTL    time.Duration
	CustomerSessionTTL time.Duration
	// Revocation enables the redis-backed token id denylist consulted on verify.
	Revocation bool
}

type OTPConfig struct {
	Store       string
	Expiry      time.Duration
	MaxAttempts int
	SingleUse   bool
	HashCost    int
	TestMode    bool
	TestCode    string
}

type SMSConfig struct {
	Fast2SMSAPIKey string
	Fast2SMSURL    string
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:      strings.ToLower(strings.TrimSpace(getEnv("APP_ENV", ""))),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Backend:  strings.ToLower(getEnv("DATA_BACKEND", BackendDynamoDB)),
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		},
		DynamoDB: DynamoDBConfig{
			Endpoint:  getEnv("DYNAMODB_ENDPOINT", ""),
			Region:    getEnv("DYNAMODB_REGION", "ap-south-1"),
			TableName: getEnv("DYNAMODB_TABLE_NAME", "NevenTable"),
		},
		Postgres: PostgresConfig{
			DSN:      getEnv("DATABASE_URL", ""),
			MaxConns: int32(getEnvAsInt("DATABASE_MAX_CONNS", 10)),
		},
		Redis: RedisConfig{
			Endpoint: getEnv("REDIS_ENDPOINT", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			SecretKey:          getEnv("JWT_SECRET_KEY", ""),
			AdminSessionTTL:    getEnvAsDuration("ADMIN_SESSION_TTL", 7*24*time.Hour),
			CustomerSessionTTL: getEnvAsDuration("CUSTOMER_SESSION_TTL", 30*24*time.Hour),
			Revocation:         getEnvAsBool("TOKEN_REVOCATION", false),
		},
		OTP: OTPConfig{
			Store:       strings.ToLower(getEnv("OTP_STORE", OTPStoreMemory)),
			Expiry:      getEnvAsDuration("OTP_TTL", 5*time.Minute),
			MaxAttempts: getEnvAsInt("OTP_MAX_ATTEMPTS", 5),
			SingleUse:   getEnvAsBool("OTP_SINGLE_USE", true),
			HashCost:    getEnvAsInt("OTP_HASH_COST", 10),
			TestMode:    getEnvAsBool("OTP_TEST_MODE", false),
			TestCode:    getEnv("OTP_TEST_CODE", "123456"),
		},
		SMS: SMSConfig{
			Fast2SMSAPIKey: strings.TrimSpace(getEnv("FAST2SMS_API_KEY", "")),
			Fast2SMSURL:    getEnv("FAST2SMS_URL", "https://www.fast2sms.com/dev/bulkV2"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Env {
	case EnvDevelopment, EnvProduction:
	case "":
		return fmt.Errorf("APP_ENV environment variable is required (development or production)")
	default:
		return fmt.Errorf("unknown APP_ENV %q", c.Env)
	}

	if c.JWT.SecretKey == "" {
		return fmt.Errorf("JWT_SECRET_KEY environment variable is required")
	}

	if len(c.JWT.SecretKey) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 bytes (256 bits)")
	}

	if c.JWT.AdminSessionTTL <= 0 || c.JWT.CustomerSessionTTL <= 0 {
		return fmt.Errorf("session TTLs must be positive")
	}

	switch c.Backend {
	case BackendDynamoDB:
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("DATABASE_URL is required when DATA_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown DATA_BACKEND %q", c.Backend)
	}

	switch c.OTP.Store {
	case OTPStoreMemory, OTPStoreRedis:
	default:
		return fmt.Errorf("unknown OTP_STORE %q", c.OTP.Store)
	}

	if c.OTP.Expiry <= 0 {
		return fmt.Errorf("OTP_TTL must be positive")
	}

	if c.OTP.TestMode {
		if c.IsProduction() {
			return fmt.Errorf("OTP_TEST_MODE cannot be enabled when APP_ENV=production")
		}
		if !isSixDigits(c.OTP.TestCode) {
			return fmt.Errorf("OTP_TEST_CODE must be 6 digits")
		}
	}

	if c.IsProduction() && c.SMS.Fast2SMSAPIKey == "" {
		return fmt.Errorf("FAST2SMS_API_KEY is required when APP_ENV=production")
	}

	return nil
}

func isSixDigits(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
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
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated value, dropping empty items.
func getEnvAsList(key string) []string {
	var items []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
