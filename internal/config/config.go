package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type AppConfig struct {
	Environment string `koanf:"environment"`
	ServiceName string `koanf:"service_name"`
	Port        string `koanf:"port"`

	Database  DatabaseConfig  `koanf:"database"`
	Auth      AuthConfig      `koanf:"auth"`
	Cache     CacheConfig     `koanf:"cache"`
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`

	AllowedOrigins []string `koanf:"allowed_origins"`
	// TrustedProxies lists the addresses or CIDRs whose forwarding headers
	// are believed. Empty means the peer address is the client.
	TrustedProxies []string `koanf:"trusted_proxies"`

	RateLimitEnabled bool                       `koanf:"rate_limit_enabled"`
	RateLimitConfigs map[string]RateLimitConfig `koanf:"rate_limits"`

	EnforceHTTPS bool `koanf:"enforce_https"`
}

type DatabaseConfig struct {
	Driver     string `koanf:"driver"`
	Path       string `koanf:"path"`
	URL        string `koanf:"url"`
	MaxConns   int    `koanf:"max_conns"`
	LogQueries bool   `koanf:"log_queries"`
	// ConnectTimeout bounds how long startup waits for the store to answer.
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

type AuthConfig struct {
	Secret     string        `koanf:"secret"`
	TokenTTL   time.Duration `koanf:"token_ttl"`
	BcryptCost int           `koanf:"bcrypt_cost"`
}

type CacheConfig struct {
	Enabled  bool          `koanf:"enabled"`
	RedisURL string        `koanf:"redis_url"`
	TTL      time.Duration `koanf:"ttl"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type TelemetryConfig struct {
	Enabled      bool   `koanf:"enabled"`
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	MetricsPort  string `koanf:"metrics_port"`
}

// RateLimitConfig is keyed by "METHOD /route" in AppConfig.RateLimitConfigs;
// "default" applies to every other route.
type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
}

func GetDefaultConfig() *AppConfig {
	return &AppConfig{
		Environment: "development",
		ServiceName: "tasklist",
		Port:        "8080",
		Database: DatabaseConfig{
			Driver:         DriverSQLite,
			Path:           "todos.db",
			MaxConns:       10,
			ConnectTimeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL:   30 * time.Minute,
			BcryptCost: 10,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			MetricsPort: "9091",
		},
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
			"http://localhost",
			"http://localhost:80",
			"http://127.0.0.1",
			"http://127.0.0.1:80",
			"http://localhost:3000",
			"http://127.0.0.1:3000",
		},
		RateLimitEnabled: true,
		RateLimitConfigs: map[string]RateLimitConfig{
			"POST /users/": {
				Requests: 5,
				Window:   time.Minute,
			},
			"POST /token": {
				Requests: 10,
				Window:   time.Minute,
			},
			"GET /todos/": {
				Requests: 100,
				Window:   time.Minute,
			},
			"POST /todos/": {
				Requests: 20,
				Window:   time.Minute,
			},
			"PUT /todos/:id": {
				Requests: 20,
				Window:   time.Minute,
			},
			"DELETE /todos/:id": {
				Requests: 20,
				Window:   time.Minute,
			},
			"DELETE /todos/completed": {
				Requests: 5,
				Window:   time.Minute,
			},
			"default": {
				Requests: 60,
				Window:   time.Minute,
			},
		},
		EnforceHTTPS: false,
	}
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}

	return fallback
}

func envBool(key string, fallback bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}

	return fallback
}

func envList(key string, fallback []string) []string {
	value := os.Getenv(key)

	if value == "" {
		return fallback
	}

	var items []string

	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}

// RegisterFlags adds one flag per setting. Flag defaults come from the
// environment, then from GetDefaultConfig.
func RegisterFlags(fs *pflag.FlagSet) {
	d := GetDefaultConfig()

	fs.String("config", envOr("CONFIG_FILE", ""), "path to a YAML config file")

	fs.String("environment", envOr("ENVIRONMENT", d.Environment), "deployment environment")
	fs.String("port", envOr("PORT", d.Port), "HTTP listen port")

	driver := d.Database.Driver
	if os.Getenv("DATABASE_URL") != "" {
		driver = DriverPostgres
	}

	fs.String("database.driver", envOr("DATABASE_DRIVER", driver), "sqlite or postgres")
	fs.String("database.path", envOr("DATABASE_PATH", d.Database.Path), "SQLite database file")
	fs.String("database.url", envOr("DATABASE_URL", ""), "PostgreSQL connection URL")
	fs.Bool("database.log_queries", envBool("DATABASE_LOG_QUERIES", false), "log every SQLite statement")

	fs.String("auth.secret", envOr("JWT_SECRET", ""), "HMAC secret used to sign access tokens")
	fs.Duration("auth.token_ttl", d.Auth.TokenTTL, "access token lifetime")

	fs.String("cache.redis_url", envOr("REDIS_URL", ""), "Redis URL for the todo list cache; in-memory when empty")

	fs.String("log.level", envOr("LOG_LEVEL", d.Log.Level), "debug, info, warn or error")
	fs.String("log.format", envOr("LOG_FORMAT", d.Log.Format), "json or console")

	fs.Bool("telemetry.enabled", envBool("TELEMETRY_ENABLED", false), "export traces and serve Prometheus metrics")
	fs.String("telemetry.otlp_endpoint", envOr("OTEL_EXPORTER_OTLP_ENDPOINT", ""), "OTLP gRPC collector endpoint")
	fs.String("telemetry.metrics_port", envOr("METRICS_PORT", d.Telemetry.MetricsPort), "Prometheus metrics port")

	fs.StringSlice("allowed_origins", envList("ALLOWED_ORIGINS", d.AllowedOrigins), "origins allowed to call the API from a browser")
	fs.StringSlice("trusted_proxies", envList("TRUSTED_PROXIES", nil), "proxy addresses or CIDRs whose X-Forwarded-For is trusted")

	fs.Bool("enforce_https", envBool("ENFORCE_HTTPS", false), "redirect plain HTTP requests to HTTPS")
	fs.Bool("rate_limit_enabled", envBool("RATE_LIMIT_ENABLED", d.RateLimitEnabled), "enable per-route rate limiting")
}

// Load layers defaults, the optional YAML file named by --config and the
// flags. Flags left at their default only fill keys the file did not set.
func Load(fs *pflag.FlagSet) (*AppConfig, error) {
	k := koanf.New(".")

	path, _ := fs.GetString("config")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, fmt.Errorf("loading flags: %w", err)
	}

	cfg := GetDefaultConfig()

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *AppConfig) Validate() error {
	var errs []error

	if c.Auth.Secret == "" {
		errs = append(errs, errors.New("auth.secret (JWT_SECRET) is required"))
	}

	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for sqlite"))
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("database.url (DATABASE_URL) is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database.driver %q", c.Database.Driver))
	}

	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive"))
	}

	for _, proxy := range c.TrustedProxies {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				errs = append(errs, fmt.Errorf("trusted proxy %q is neither an IP nor a CIDR", proxy))
			}
		}
	}

	for route, rule := range c.RateLimitConfigs {
		if rule.Requests <= 0 || rule.Window <= 0 {
			errs = append(errs, fmt.Errorf("rate limit %q needs positive requests and window", route))
		}
	}

	return errors.Join(errs...)
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}
