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
	HTTPAddr    string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Store  StoreConfig
	Timer  TimerConfig
	Alarm  AlarmConfig
	Fleet  FleetConfig
	NodeID int64

	ReceiptNumberTemplate string
	CatalogPath           string
}

// StoreConfig selects where the desk state is persisted.
type StoreConfig struct {
	Driver        string
	Namespace     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Compress      bool
}

type TimerConfig struct {
	TickInterval time.Duration
}

type AlarmConfig struct {
	Mode string
}

// FleetConfig controls pushing lounge metrics to an owner-level Prometheus.
type FleetConfig struct {
	Enabled   bool
	LoungeID  string
	Exporter  string
	Endpoint  string
	AuthToken string
	Interval  time.Duration
}

const (
	StoreDriverGorm  = "gorm"
	StoreDriverRedis = "redis"

	AlarmModeBell = "bell"
	AlarmModeLog  = "log"
	AlarmModeNone = "none"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:      getenv("APP_SERVICE", "cyberdesk"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  getenv("ENVIRONMENT", "development"),
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            strings.ToLower(getenv("DATABASE_TYPE", "sqlite")),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "cyberdesk"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "cyberdesk.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),

		Store: StoreConfig{
			Driver:        normalizeStoreDriver(getenv("STORE_DRIVER", StoreDriverGorm)),
			Namespace:     strings.TrimSpace(getenv("STORE_NAMESPACE", "cyberdesk")),
			RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "localhost:6379")),
			RedisPassword: strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			RedisDB:       getenvInt("REDIS_DB", 0),
			Compress:      getenvBool("STORE_COMPRESS", true),
		},
		Timer: TimerConfig{
			TickInterval: getenvDuration("TIMER_TICK_INTERVAL", time.Second),
		},
		Alarm: AlarmConfig{
			Mode: normalizeAlarmMode(getenv("ALARM_MODE", AlarmModeBell)),
		},
		Fleet: FleetConfig{
			Enabled:   getenvBool("FLEET_METRICS_ENABLED", false),
			LoungeID:  strings.TrimSpace(getenv("FLEET_LOUNGE_ID", "")),
			Exporter:  strings.ToLower(strings.TrimSpace(getenv("FLEET_METRICS_EXPORTER", ""))),
			Endpoint:  strings.TrimSpace(getenv("FLEET_METRICS_ENDPOINT", "")),
			AuthToken: strings.TrimSpace(getenv("FLEET_METRICS_AUTH_TOKEN", "")),
			Interval:  getenvDuration("FLEET_METRICS_INTERVAL", 5*time.Minute),
		},
		NodeID: getenvInt64("SNOWFLAKE_NODE", 1),

		ReceiptNumberTemplate: getenv("RECEIPT_NUMBER_TEMPLATE", "INV-{YYYY}{MM}{DD}-{SEQ6}"),
		CatalogPath:           strings.TrimSpace(getenv("CATALOG_PATH", "")),
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func normalizeStoreDriver(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case StoreDriverRedis:
		return StoreDriverRedis
	default:
		return StoreDriverGorm
	}
}

func normalizeAlarmMode(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case AlarmModeLog:
		return AlarmModeLog
	case AlarmModeNone, "off":
		return AlarmModeNone
	default:
		return AlarmModeBell
	}
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

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
