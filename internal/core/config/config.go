package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AuditCfg struct {
	Enabled   bool
	Brokers   string
	Topic     string
	QueueSize int
}

type Config struct {
	Addr              string
	LogLevel          string
	BackendURL        string
	AuthToken         string
	BackendTimeout    time.Duration
	RedisAddr         string
	RedisPoolSize     int
	RedisDialTimeout  time.Duration
	RedisReadTimeout  time.Duration
	RedisWriteTimeout time.Duration
	FieldsCacheTTL    time.Duration
	Audit             AuditCfg
}

// Load reads an optional .env file, then the environment. Real environment
// variables win over .env entries.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() Config {
	return Config{
		Addr:              getenv("ADDR", ":8070"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		BackendURL:        getenv("BACKEND_URL", "http://localhost:5000"),
		AuthToken:         getenv("AUTH_TOKEN", ""),
		BackendTimeout:    getduration("BACKEND_TIMEOUT", 30*time.Second),
		RedisAddr:         getenv("REDIS_ADDR", "localhost:6379"),
		RedisPoolSize:     getint("REDIS_POOL_SIZE", 16),
		RedisDialTimeout:  getduration("REDIS_DIAL_TIMEOUT", 2*time.Second),
		RedisReadTimeout:  getduration("REDIS_READ_TIMEOUT", time.Second),
		RedisWriteTimeout: getduration("REDIS_WRITE_TIMEOUT", time.Second),
		FieldsCacheTTL:    getduration("FIELDS_CACHE_TTL", 5*time.Minute),
		Audit: AuditCfg{
			Enabled:   getbool("AUDIT_ENABLED", false),
			Brokers:   getenv("KAFKA_BROKERS", "localhost:9092"),
			Topic:     getenv("AUDIT_TOPIC", "query-audit"),
			QueueSize: getint("AUDIT_QUEUE", 1024),
		},
	}
}

// AuditBrokers splits the broker list for the Kafka client.
func (c Config) AuditBrokers() []string {
	parts := strings.Split(c.Audit.Brokers, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
