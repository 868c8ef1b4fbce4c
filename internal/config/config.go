package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	ListenPort string
	HTTPPrefix string

	OTLPEndpoint string

	// APIGatewayURL resolves bearer tokens into user sessions.
	APIGatewayURL string
	// APIServerURL hosts the unit directory (mainservice/get-units-list).
	APIServerURL    string
	UpstreamTimeout time.Duration

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
	DBConnMaxIdleTime int
	DBRunMigrations   bool

	RateLimit RateLimitConfig

	NATSURL string

	SnowflakeNode int64
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	NotificationIngestRate  float64
	NotificationIngestBurst int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	redisAddr := strings.TrimSpace(getenv("REDIS_ADDR", ""))

	cfg := Config{
		AppName:         getenv("APP_SERVICE", "mainservice"),
		AppVersion:      getenv("APP_VERSION", "0.1.0"),
		Environment:     getenv("ENVIRONMENT", "development"),
		ListenPort:      getenv("LISTEN_PORT", "3003"),
		HTTPPrefix:      strings.Trim(getenv("HTTP_PREFIX", "mainservice"), "/"),
		OTLPEndpoint:    getenv("OTLP_ENDPOINT", "localhost:4317"),
		APIGatewayURL:   strings.TrimRight(strings.TrimSpace(getenv("API_GATEWAY_URL", "")), "/"),
		APIServerURL:    strings.TrimSpace(getenv("API_SERVER_URL", "")),
		UpstreamTimeout: time.Duration(getenvInt64("UPSTREAM_TIMEOUT_MS", 5000)) * time.Millisecond,

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "postgres"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     int(getenvInt64("DATABASE_MAX_IDLE_CONN", 10)),
		DBMaxOpenConn:     int(getenvInt64("DATABASE_MAX_OPEN_CONN", 50)),
		DBConnMaxLifetime: int(getenvInt64("DATABASE_CONN_MAX_LIFETIME", 300)),
		DBConnMaxIdleTime: int(getenvInt64("DATABASE_CONN_MAX_IDLE_TIME", 60)),
		DBRunMigrations:   getenvBool("DATABASE_RUN_MIGRATIONS", true),

		RateLimit: RateLimitConfig{
			Enabled:                 getenvBool("RATE_LIMIT_ENABLED", redisAddr != ""),
			RedisAddr:               redisAddr,
			RedisPassword:           strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			RedisDB:                 int(getenvInt64("REDIS_DB", 0)),
			NotificationIngestRate:  getenvFloat("NOTIFICATION_INGEST_RATE", 50),
			NotificationIngestBurst: int(getenvInt64("NOTIFICATION_INGEST_BURST", 100)),
		},

		NATSURL:       strings.TrimSpace(getenv("NATS_URL", "")),
		SnowflakeNode: getenvInt64("SNOWFLAKE_NODE", 1),
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
