package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMemory = "memory"
	DriverMongo  = "mongo"
	DriverRedis  = "redis"
	DriverScylla = "scylla"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env         string
	LogLevel    string
	HTTPAddr    string
	GRPCAddr    string
	CORSOrigins []string

	StorageDriver  string
	SnapshotDriver string
	SnapshotDir    string
	SQLitePath     string
	PostgresDSN    string
	SnapshotBucket string
	SnapshotPrefix string
	S3Endpoint     string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3UseSSL       bool

	MongoURI string
	MongoDB  string

	CacheDriver   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers     []string
	KafkaTopicPrefix string
	KafkaGroupID     string

	JournalDriver     string
	ScyllaHosts       []string
	ScyllaKeyspace    string
	ScyllaUsername    string
	ScyllaPassword    string
	ScyllaConsistency string
	ScyllaReplication int
	ScyllaTimeout     time.Duration

	IdempotencyTTL     time.Duration
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration

	SessionTTL        time.Duration
	SignupCodeTTL     time.Duration
	SignupMaxAttempts int

	BookingRequireOrderedDates bool
	BookingRejectOverlaps      bool
	BookingStrictTransitions   bool

	EmailJSServiceID  string
	EmailJSTemplateID string
	EmailJSPublicKey  string
	EmailJSPrivateKey string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
}

// LoadDotEnv reads .env-style files into the environment without overriding set variables.
// Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Defaults is the configuration used when nothing is set: in-memory storage, no broker.
func Defaults() Config {
	return Config{
		Env:                        "dev",
		LogLevel:                   "info",
		HTTPAddr:                   ":8080",
		StorageDriver:              DriverMemory,
		SnapshotDir:                "data",
		SQLitePath:                 "data/reva.db",
		SnapshotPrefix:             "reva",
		S3Region:                   "us-east-1",
		MongoDB:                    "reva",
		CacheDriver:                DriverMemory,
		RedisAddr:                  "localhost:6379",
		KafkaGroupID:               "reva-journal",
		JournalDriver:              DriverMemory,
		ScyllaKeyspace:             "reva",
		ScyllaConsistency:          "quorum",
		ScyllaReplication:          1,
		ScyllaTimeout:              5 * time.Second,
		IdempotencyTTL:             24 * time.Hour,
		OutboxPollInterval:         500 * time.Millisecond,
		RetryBackoff:               []time.Duration{time.Second, 5 * time.Second, 30 * time.Second},
		SessionTTL:                 24 * time.Hour,
		SignupCodeTTL:              15 * time.Minute,
		SignupMaxAttempts:          5,
		BookingRequireOrderedDates: true,
	}
}

// Load parses configuration from the current environment on top of Defaults.
func Load() (Config, error) {
	def := Defaults()
	cfg := Config{
		Env:               getEnv("APP_ENV", def.Env),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", def.LogLevel)),
		HTTPAddr:          getEnv("HTTP_ADDR", def.HTTPAddr),
		GRPCAddr:          getEnv("GRPC_ADDR", ""),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "")),
		StorageDriver:     strings.ToLower(getEnv("STORAGE_DRIVER", def.StorageDriver)),
		SnapshotDriver:    strings.ToLower(getEnv("SNAPSHOT_DRIVER", "")),
		SnapshotDir:       getEnv("SNAPSHOT_DIR", def.SnapshotDir),
		SQLitePath:        getEnv("SQLITE_PATH", def.SQLitePath),
		PostgresDSN:       getEnv("POSTGRES_DSN", ""),
		SnapshotBucket:    getEnv("SNAPSHOT_BUCKET", ""),
		SnapshotPrefix:    getEnv("SNAPSHOT_PREFIX", def.SnapshotPrefix),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3Region:          getEnv("S3_REGION", def.S3Region),
		S3AccessKey:       getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:       getEnv("S3_SECRET_KEY", ""),
		MongoURI:          os.Getenv("MONGO_URI"),
		MongoDB:           getEnv("MONGO_DB", def.MongoDB),
		CacheDriver:       strings.ToLower(getEnv("CACHE_DRIVER", def.CacheDriver)),
		RedisAddr:         getEnv("REDIS_ADDR", def.RedisAddr),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		KafkaBrokers:      splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopicPrefix:  getEnv("KAFKA_TOPIC_PREFIX", ""),
		KafkaGroupID:      getEnv("KAFKA_GROUP_ID", def.KafkaGroupID),
		JournalDriver:     strings.ToLower(getEnv("JOURNAL_DRIVER", def.JournalDriver)),
		ScyllaHosts:       splitList(getEnv("SCYLLA_HOSTS", "")),
		ScyllaKeyspace:    getEnv("SCYLLA_KEYSPACE", def.ScyllaKeyspace),
		ScyllaUsername:    os.Getenv("SCYLLA_USERNAME"),
		ScyllaPassword:    os.Getenv("SCYLLA_PASSWORD"),
		ScyllaConsistency: getEnv("SCYLLA_CONSISTENCY", def.ScyllaConsistency),
		EmailJSServiceID:  os.Getenv("EMAILJS_SERVICE_ID"),
		EmailJSTemplateID: os.Getenv("EMAILJS_TEMPLATE_ID"),
		EmailJSPublicKey:  os.Getenv("EMAILJS_PUBLIC_KEY"),
		EmailJSPrivateKey: os.Getenv("EMAILJS_PRIVATE_KEY"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", os.Getenv("API_KEY")),
		GeminiModel:       os.Getenv("GEMINI_MODEL"),
		GeminiBaseURL:     os.Getenv("GEMINI_BASE_URL"),
	}

	var err error
	if cfg.S3UseSSL, err = parseBoolEnv("S3_USE_SSL", false); err != nil {
		return def, err
	}
	if cfg.RedisDB, err = parseIntEnv("REDIS_DB", 0); err != nil {
		return def, err
	}
	if cfg.ScyllaReplication, err = parseIntEnv("SCYLLA_REPLICATION_FACTOR", def.ScyllaReplication); err != nil {
		return def, err
	}
	if cfg.ScyllaTimeout, err = parseDurationEnv("SCYLLA_TIMEOUT", def.ScyllaTimeout); err != nil {
		return def, err
	}
	if cfg.IdempotencyTTL, err = parseDurationEnv("IDEMP_TTL", def.IdempotencyTTL); err != nil {
		return def, err
	}
	if cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", def.OutboxPollInterval); err != nil {
		return def, err
	}
	if cfg.SessionTTL, err = parseDurationEnv("SESSION_TTL", def.SessionTTL); err != nil {
		return def, err
	}
	if cfg.SignupCodeTTL, err = parseDurationEnv("SIGNUP_CODE_TTL", def.SignupCodeTTL); err != nil {
		return def, err
	}
	if cfg.SignupMaxAttempts, err = parseIntEnv("SIGNUP_MAX_ATTEMPTS", def.SignupMaxAttempts); err != nil {
		return def, err
	}
	if cfg.BookingRequireOrderedDates, err = parseBoolEnv("BOOKING_REQUIRE_ORDERED_DATES", def.BookingRequireOrderedDates); err != nil {
		return def, err
	}
	if cfg.BookingRejectOverlaps, err = parseBoolEnv("BOOKING_REJECT_OVERLAPS", false); err != nil {
		return def, err
	}
	if cfg.BookingStrictTransitions, err = parseBoolEnv("BOOKING_STRICT_TRANSITIONS", false); err != nil {
		return def, err
	}

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return def, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	if err := cfg.validate(); err != nil {
		return def, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StorageDriver {
	case DriverMemory:
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for STORAGE_DRIVER=mongo")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER: %s", c.StorageDriver)
	}
	switch c.SnapshotDriver {
	case "", "none", "file", "sqlite":
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for SNAPSHOT_DRIVER=postgres")
		}
	case "minio", "s3":
		if c.SnapshotBucket == "" {
			return fmt.Errorf("SNAPSHOT_BUCKET is required for SNAPSHOT_DRIVER=%s", c.SnapshotDriver)
		}
		if c.SnapshotDriver == "minio" && c.S3Endpoint == "" {
			return fmt.Errorf("S3_ENDPOINT is required for SNAPSHOT_DRIVER=minio")
		}
	default:
		return fmt.Errorf("unsupported SNAPSHOT_DRIVER: %s", c.SnapshotDriver)
	}
	switch c.CacheDriver {
	case DriverMemory, DriverRedis:
	default:
		return fmt.Errorf("unsupported CACHE_DRIVER: %s", c.CacheDriver)
	}
	switch c.JournalDriver {
	case DriverMemory:
	case DriverScylla:
		if len(c.ScyllaHosts) == 0 {
			return fmt.Errorf("SCYLLA_HOSTS is required for JOURNAL_DRIVER=scylla")
		}
	default:
		return fmt.Errorf("unsupported JOURNAL_DRIVER: %s", c.JournalDriver)
	}
	if c.SignupMaxAttempts < 1 {
		return fmt.Errorf("SIGNUP_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return n, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}
