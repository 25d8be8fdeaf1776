package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Engine   EngineConfig
}

type ServerConfig struct {
	AppEnv   string
	HTTPPort string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers        []string
	EventsTopic    string
	ReceivingTopic string
	GroupID        string
}

// EngineConfig holds the tunables of the outward-flow engine itself.
type EngineConfig struct {
	ReservationTTL     time.Duration
	SweepInterval      time.Duration
	LockTTL            time.Duration
	RetryMaxAttempts   int
	RetryBackoff       time.Duration
	LaborRatePerHour   float64
	OverheadPercent    float64
	TaxPercent         float64
	LaborMarkupPercent float64
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:   getEnv("APP_ENV", "dev"),
			HTTPPort: getEnv("HTTP_PORT", ":8084"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5432"),
			User:            getEnv("POSTGRES_USER", "fieldserve"),
			Password:        getEnv("POSTGRES_PASSWORD", "fieldserve"),
			DBName:          getEnv("POSTGRES_DB", "fieldserve_parts"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:        getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			EventsTopic:    getEnv("KAFKA_TOPIC_PART_EVENTS", "parts.request.events"),
			ReceivingTopic: getEnv("KAFKA_TOPIC_RECEIVING", "purchasing.receiving.events"),
			GroupID:        getEnv("KAFKA_GROUP_PARTS", "parts-engine"),
		},
		Engine: EngineConfig{
			ReservationTTL:     getEnvDuration("RESERVATION_TTL", 72*time.Hour),
			SweepInterval:      getEnvDuration("RESERVATION_SWEEP_INTERVAL", 10*time.Minute),
			LockTTL:            getEnvDuration("STOCK_LOCK_TTL", 5*time.Second),
			RetryMaxAttempts:   getEnvInt("STOCK_RETRY_MAX_ATTEMPTS", 3),
			RetryBackoff:       getEnvDuration("STOCK_RETRY_BACKOFF", 100*time.Millisecond),
			LaborRatePerHour:   getEnvFloat("COSTING_LABOR_RATE", 500),
			OverheadPercent:    getEnvFloat("COSTING_OVERHEAD_PERCENT", 10),
			TaxPercent:         getEnvFloat("COSTING_TAX_PERCENT", 18),
			LaborMarkupPercent: getEnvFloat("COSTING_LABOR_MARKUP_PERCENT", 20),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.Split(value, ",")
	}
	return fallback
}
