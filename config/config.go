package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Uploads   UploadsConfig
	Data      DataConfig
	RateLimit RateLimitConfig
	App       AppConfig
}

type ServerConfig struct {
	Port            string        `env:"PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
}

type DatabaseConfig struct {
	// Driver selects the store backend: "postgres" or "sqlite".
	Driver   string `env:"DB_DRIVER" env-default:"postgres"`
	DSN      string `env:"DB_DSN"`
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Port     int    `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER" env-default:"postgres"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME" env-default:"govfunds"`
	SSLMode  string `env:"DB_SSLMODE" env-default:"disable"`
	MaxConns int    `env:"DB_MAX_CONNS" env-default:"10"`
	MinConns int    `env:"DB_MIN_CONNS" env-default:"2"`

	SQLitePath string `env:"SQLITE_PATH" env-default:"data/govfunds.db"`
}

type RedisConfig struct {
	// Addr is optional; sessions fall back to process memory when empty.
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

type AuthConfig struct {
	// Credentials is a comma-separated list of username:bcrypt-hash pairs.
	Credentials   string        `env:"ADMIN_CREDENTIALS"`
	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" env-default:"24h"`
	SecureCookie  bool          `env:"SESSION_SECURE_COOKIE" env-default:"false"`

	FirebaseCredentialsPath string   `env:"FIREBASE_CREDENTIALS_PATH"`
	FirebaseAdminEmails     []string `env:"FIREBASE_ADMIN_EMAILS" env-separator:","`
}

type UploadsConfig struct {
	Dir        string `env:"UPLOAD_DIR" env-default:"static/uploads"`
	URLPrefix  string `env:"UPLOAD_URL_PREFIX" env-default:"/uploads"`
	S3Bucket   string `env:"UPLOAD_S3_BUCKET"`
	S3Region   string `env:"UPLOAD_S3_REGION" env-default:"us-east-1"`
	S3Endpoint string `env:"UPLOAD_S3_ENDPOINT"`
	S3PathStyle bool  `env:"UPLOAD_S3_PATH_STYLE" env-default:"false"`
}

type DataConfig struct {
	Dir            string `env:"DATA_DIR" env-default:"data"`
	SeedOnStart    bool   `env:"SEED_ON_START" env-default:"true"`
	ExportSchedule string `env:"EXPORT_SCHEDULE"`
}

type RateLimitConfig struct {
	PerMinute float64 `env:"INTAKE_RATE_PER_MINUTE" env-default:"10"`
	Burst     int     `env:"INTAKE_RATE_BURST" env-default:"5"`
}

type AppConfig struct {
	Environment string `env:"APP_ENV" env-default:"development"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`
	Version     string `env:"APP_VERSION" env-default:"1.0.0"`
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" && c.Database.Host == "" {
			return fmt.Errorf("DB_DSN or DB_HOST is required")
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}

	if c.IsProduction() && c.Auth.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required in production")
	}

	if _, err := ParseCredentials(c.Auth.Credentials); err != nil {
		return err
	}

	return nil
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// ParseCredentials decodes "user:hash,user2:hash2" into a username → hash map.
// Hashes are bcrypt strings, which never contain commas.
func ParseCredentials(raw string) (map[string]string, error) {
	out := make(map[string]string)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return out, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		user, hash, ok := strings.Cut(pair, ":")
		user = strings.TrimSpace(user)
		hash = strings.TrimSpace(hash)
		if !ok || user == "" || hash == "" {
			return nil, fmt.Errorf("ADMIN_CREDENTIALS: malformed entry %q", pair)
		}
		if _, dup := out[user]; dup {
			return nil, fmt.Errorf("ADMIN_CREDENTIALS: duplicate user %q", user)
		}
		out[user] = hash
	}

	return out, nil
}
