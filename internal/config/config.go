package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBPort       string
	AppPort      string
	AppEnv       string
	JWTSecret    string
	RedisAddr    string
	KafkaBrokers []string
	OrderTopic   string
	OTLPEndpoint string
	CORSOrigins  []string
	SyncInterval time.Duration
	CatalogTTL   time.Duration
	InternalKey  string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:       os.Getenv("DB_HOST"),
		DBUser:       os.Getenv("DB_USER"),
		DBPassword:   os.Getenv("DB_PASSWORD"),
		DBName:       os.Getenv("DB_NAME"),
		DBPort:       os.Getenv("DB_PORT"),
		AppPort:      getenv("APP_PORT", "8080"),
		AppEnv:       os.Getenv("APP_ENV"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		KafkaBrokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
		OrderTopic:   getenv("KAFKA_ORDER_TOPIC", "order.events"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		CORSOrigins:  splitCSV(getenv("CORS_ORIGINS", "http://localhost:3000")),
		SyncInterval: getduration("SYNC_INTERVAL", 30*time.Second),
		CatalogTTL:   getduration("CHAT_CATALOG_TTL", time.Minute),
		InternalKey:  os.Getenv("INTERNAL_SERVICE_KEY"),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %s", k, v, def)
		return def
	}
	return d
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
