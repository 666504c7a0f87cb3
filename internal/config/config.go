package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	LogLevel    string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	RedisAddr     string
	RedisPassword string

	SocialAPIKey string

	BrokerURL    string
	BrokerAPIKey string
}

var ErrMissingDatabase = errors.New("database configuration is required")

// Load loads configuration from environment variables and .env file.
// It fails when no database can be derived, so a misconfigured process
// refuses to start instead of limping along.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "ganhesocial"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		LogLevel:          strings.ToLower(getenv("LOG_LEVEL", "info")),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", ""),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "ganhesocial"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		RedisAddr:         getenv("REDIS_ADDR", ""),
		RedisPassword:     getenv("REDIS_PASSWORD", ""),
		SocialAPIKey:      strings.TrimSpace(getenv("RAPIDAPI_KEY", "")),
		BrokerURL:         strings.TrimRight(getenv("SMM_BROKER_URL", "https://smmsociais.com"), "/"),
		BrokerAPIKey:      strings.TrimSpace(getenv("SMM_API_KEY", "")),
	}

	if cfg.DBType != "sqlite" && cfg.DBHost == "" {
		return Config{}, ErrMissingDatabase
	}

	return cfg, nil
}

func (c Config) IsDev() bool {
	switch strings.ToLower(c.Environment) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewWorkerConfigHolder),
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
