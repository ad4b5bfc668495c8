// Package config reads runtime settings from the environment, an optional .env file
// and an optional YAML file named by CONFIG_FILE. Environment variables win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

const (
	devJWTSecret     = "dev_secret"
	devReportsSecret = "dev_reports_secret"
	minSecretLength  = 32
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	Mongo         MongoConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Dashboard     DashboardConfig
	Reports       ReportsConfig
	Notifications NotificationsConfig
	Skills        SkillsConfig
}

func (c *Config) IsProduction() bool { return c.Env == EnvProduction }

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectRetries  int
	AutoMigrate     bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// MongoConfig points at the document store holding messages and notifications.
type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type JWTConfig struct {
	Secret            string
	Issuer            string
	Audience          []string
	Expiration        time.Duration
	RefreshExpiration time.Duration
	SingleSession     bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

type DashboardConfig struct {
	CacheTTL time.Duration
}

// ReportsConfig configures asynchronous attendance report generation.
type ReportsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	WorkerConcurrency int
	WorkerRetries     int
	CleanupInterval   time.Duration
}

type NotificationsConfig struct {
	Enabled bool
	Workers int
	Retries int
}

type SkillsConfig struct {
	DefaultPassThreshold int
}

var defaults = map[string]interface{}{
	"ENV":        EnvDevelopment,
	"PORT":       8080,
	"API_PREFIX": "/api",

	"DB_HOST":              "localhost",
	"DB_PORT":              5432,
	"DB_USER":              "postgres",
	"DB_PASSWORD":          "postgres",
	"DB_NAME":              "campus",
	"DB_SSL_MODE":          "disable",
	"DB_MAX_OPEN_CONNS":    10,
	"DB_MAX_IDLE_CONNS":    5,
	"DB_CONN_MAX_LIFETIME": "1h",
	"DB_CONNECT_RETRIES":   3,
	"DB_AUTO_MIGRATE":      false,

	"REDIS_ENABLED":  true,
	"REDIS_HOST":     "localhost",
	"REDIS_PORT":     6379,
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,

	"MONGO_URI":     "mongodb://localhost:27017",
	"MONGO_DB_NAME": "campus",
	"MONGO_TIMEOUT": "10s",

	"JWT_SECRET":               devJWTSecret,
	"JWT_ISSUER":               "campus-api",
	"JWT_AUDIENCE":             "",
	"JWT_EXPIRATION":           "24h",
	"REFRESH_TOKEN_EXPIRATION": "168h",
	"JWT_SINGLE_SESSION":       false,

	"ALLOWED_ORIGINS": "",
	"LOG_LEVEL":       "info",
	"LOG_FORMAT":      "json",

	"DASHBOARD_CACHE_TTL": "2m",

	"ENABLE_REPORTS":             true,
	"REPORTS_STORAGE_DIR":        "./exports",
	"REPORTS_SIGNED_URL_SECRET":  devReportsSecret,
	"REPORTS_SIGNED_URL_TTL":     "24h",
	"REPORTS_WORKER_CONCURRENCY": 1,
	"REPORTS_WORKER_RETRIES":     3,
	"REPORTS_CLEANUP_INTERVAL":   "1h",

	"ENABLE_NOTIFICATIONS": true,
	"NOTIFICATION_WORKERS": 2,
	"NOTIFICATION_RETRIES": 3,

	"SKILL_DEFAULT_PASS_THRESHOLD": 60,
}

func setDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// Load assembles the configuration and validates it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := mergeFile(v, ".env", "env"); err != nil {
		return nil, err
	}
	if path := v.GetString("CONFIG_FILE"); path != "" {
		if err := mergeFile(v, path, "yaml"); err != nil {
			return nil, err
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func mergeFile(v *viper.Viper, path, kind string) error {
	v.SetConfigFile(path)
	v.SetConfigType(kind)
	err := v.MergeInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err == nil || errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("read %s: %w", path, err)
}

// Validate rejects settings that are unsafe or unusable. Development secrets are
// tolerated outside production only.
func (c *Config) Validate() error {
	var problems []string
	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT %d out of range", c.Port))
	}
	if c.APIPrefix != "" && !strings.HasPrefix(c.APIPrefix, "/") {
		problems = append(problems, "API_PREFIX must start with /")
	}
	if c.JWT.Secret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if c.Reports.Enabled && c.Reports.SignedURLSecret == "" {
		problems = append(problems, "REPORTS_SIGNED_URL_SECRET is required when reports are enabled")
	}
	if c.IsProduction() {
		if c.JWT.Secret == devJWTSecret || len(c.JWT.Secret) < minSecretLength {
			problems = append(problems, fmt.Sprintf("JWT_SECRET must be a non-default value of at least %d characters", minSecretLength))
		}
		if c.Reports.Enabled && (c.Reports.SignedURLSecret == devReportsSecret || c.Reports.SignedURLSecret == c.JWT.Secret) {
			problems = append(problems, "REPORTS_SIGNED_URL_SECRET must be set and differ from JWT_SECRET")
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// reader resolves keys with fallbacks for malformed values.
type reader struct{ v *viper.Viper }

func (r reader) duration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(r.v.GetString(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func (r reader) list(key string) []string {
	var out []string
	for _, part := range strings.Split(r.v.GetString(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (r reader) intIn(key string, lo, hi, fallback int) int {
	n := r.v.GetInt(key)
	if n < lo || n > hi {
		return fallback
	}
	return n
}

func fromViper(v *viper.Viper) *Config {
	r := reader{v: v}
	return &Config{
		Env:       strings.ToLower(v.GetString("ENV")),
		Port:      v.GetInt("PORT"),
		APIPrefix: strings.TrimRight(v.GetString("API_PREFIX"), "/"),
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSL_MODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: r.duration("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnectRetries:  r.intIn("DB_CONNECT_RETRIES", 1, 20, 3),
			AutoMigrate:     v.GetBool("DB_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Mongo: MongoConfig{
			URI:      v.GetString("MONGO_URI"),
			Database: v.GetString("MONGO_DB_NAME"),
			Timeout:  r.duration("MONGO_TIMEOUT", 10*time.Second),
		},
		JWT: JWTConfig{
			Secret:            v.GetString("JWT_SECRET"),
			Issuer:            v.GetString("JWT_ISSUER"),
			Audience:          r.list("JWT_AUDIENCE"),
			Expiration:        r.duration("JWT_EXPIRATION", 24*time.Hour),
			RefreshExpiration: r.duration("REFRESH_TOKEN_EXPIRATION", 7*24*time.Hour),
			SingleSession:     v.GetBool("JWT_SINGLE_SESSION"),
		},
		CORS: CORSConfig{AllowedOrigins: r.list("ALLOWED_ORIGINS")},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Dashboard: DashboardConfig{CacheTTL: r.duration("DASHBOARD_CACHE_TTL", 2*time.Minute)},
		Reports: ReportsConfig{
			Enabled:           v.GetBool("ENABLE_REPORTS"),
			StorageDir:        v.GetString("REPORTS_STORAGE_DIR"),
			SignedURLSecret:   v.GetString("REPORTS_SIGNED_URL_SECRET"),
			SignedURLTTL:      r.duration("REPORTS_SIGNED_URL_TTL", 24*time.Hour),
			WorkerConcurrency: r.intIn("REPORTS_WORKER_CONCURRENCY", 1, 32, 1),
			WorkerRetries:     r.intIn("REPORTS_WORKER_RETRIES", 1, 10, 3),
			CleanupInterval:   r.duration("REPORTS_CLEANUP_INTERVAL", time.Hour),
		},
		Notifications: NotificationsConfig{
			Enabled: v.GetBool("ENABLE_NOTIFICATIONS"),
			Workers: r.intIn("NOTIFICATION_WORKERS", 1, 64, 2),
			Retries: r.intIn("NOTIFICATION_RETRIES", 1, 10, 3),
		},
		Skills: SkillsConfig{DefaultPassThreshold: r.intIn("SKILL_DEFAULT_PASS_THRESHOLD", 1, 100, 60)},
	}
}
