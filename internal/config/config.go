// Package config loads process configuration from environment variables,
// with an optional dotenv file filling in whatever the process env leaves unset.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is shared by cmd/server and cmd/worker.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL string
	DBMaxConns  int32
	// DBAutoMigrate applies the embedded schema on startup.
	DBAutoMigrate bool

	// ReportTimezone is the canonical zone used to bucket P&L days.
	ReportTimezone string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	ReportCacheTTL time.Duration

	PubSubProjectID       string
	PubSubTopic           string
	PubSubCredentialsJSON string

	OutboxPollInterval time.Duration
	StockAuditInterval time.Duration

	CheckoutMaxRetries int
	CostingIdempotent  bool
}

// Load reads the environment. Malformed numbers fall back to defaults;
// call Validate for the checks that must stop startup. Values from the
// dotenv file named by ENV_FILE (default ".env") apply only to keys the
// process env leaves empty.
func Load() Config {
	e := env{file: readDotEnv(env{}.getString("ENV_FILE", ".env"))}
	return Config{
		Port:     e.getString("APP_PORT", "8080"),
		Env:      e.getString("APP_ENV", "development"),
		LogLevel: e.getString("LOG_LEVEL", "info"),

		DatabaseURL:   e.getString("DATABASE_URL", ""),
		DBMaxConns:    int32(e.getInt("DB_MAX_CONNS", 25)),
		DBAutoMigrate: e.getBool("DB_AUTO_MIGRATE", false),

		ReportTimezone: e.getString("REPORT_TIMEZONE", "UTC"),

		RedisAddr:      e.getString("REDIS_ADDR", ""),
		RedisPassword:  e.getString("REDIS_PASSWORD", ""),
		RedisDB:        e.getInt("REDIS_DB", 0),
		ReportCacheTTL: e.getDuration("REPORT_CACHE_TTL", 60*time.Second),

		PubSubProjectID:       e.getString("PUBSUB_PROJECT_ID", ""),
		PubSubTopic:           e.getString("PUBSUB_TOPIC", "kitchen-events"),
		PubSubCredentialsJSON: e.getString("PUBSUB_CREDENTIALS_JSON", ""),

		OutboxPollInterval: e.getDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		StockAuditInterval: e.getDuration("STOCK_AUDIT_INTERVAL", time.Hour),

		CheckoutMaxRetries: e.getInt("CHECKOUT_MAX_RETRIES", 3),
		CostingIdempotent:  e.getBool("COSTING_IDEMPOTENT", true),
	}
}

// Validate reports configuration that the process cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" && !c.IsDevelopment() {
		errs = append(errs, errors.New("DATABASE_URL is required outside development"))
	}
	if _, err := time.LoadLocation(c.ReportTimezone); err != nil {
		errs = append(errs, fmt.Errorf("REPORT_TIMEZONE %q: %w", c.ReportTimezone, err))
	}
	if c.CheckoutMaxRetries < 1 {
		errs = append(errs, fmt.Errorf("CHECKOUT_MAX_RETRIES must be >= 1, got %d", c.CheckoutMaxRetries))
	}
	if c.DBMaxConns < 1 {
		errs = append(errs, fmt.Errorf("DB_MAX_CONNS must be >= 1, got %d", c.DBMaxConns))
	}
	return errors.Join(errs...)
}

// Location returns the parsed report timezone, UTC if it cannot be loaded.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReportTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// readDotEnv parses path without touching the process env. A missing file
// is not an error; a malformed one is ignored the same way.
func readDotEnv(path string) map[string]string {
	values, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "config: ignoring %s: %v\n", path, err)
		}
		return nil
	}
	return values
}

type env struct {
	file map[string]string
}

func (e env) lookup(key string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return strings.TrimSpace(e.file[key])
}

func (e env) getString(key, fallback string) string {
	if val := e.lookup(key); val != "" {
		return val
	}
	return fallback
}

func (e env) getInt(key string, fallback int) int {
	val := e.lookup(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func (e env) getBool(key string, fallback bool) bool {
	val := e.lookup(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

func (e env) getDuration(key string, fallback time.Duration) time.Duration {
	val := e.lookup(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
