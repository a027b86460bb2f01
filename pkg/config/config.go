package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	BackendFile     = "file"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"

	StrategyCredentials = "credentials"
	StrategyGoogle      = "google"
	StrategyFirebase    = "firebase"
)

type Config struct {
	App struct {
		Env       string `env:"APP_ENV" env-default:"development"`
		Port      string `env:"PORT" env-default:"8080"`
		LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
		SentryDSN string `env:"SENTRY_DSN"`
	}
	Store struct {
		Backend    string `env:"STORE_BACKEND" env-default:"file"`
		ContentDir string `env:"CONTENT_DIR" env-default:"content/posts"`
	}
	Postgres struct {
		ConnStr     string `env:"POSTGRES_CONN_STR"`
		AutoMigrate bool   `env:"POSTGRES_AUTO_MIGRATE" env-default:"true"`
	}
	Mongo struct {
		URI      string `env:"MONGO_URI"`
		Database string `env:"MONGO_DATABASE" env-default:"kdiary"`
	}
	Redis struct {
		Addr     string `env:"REDIS_ADDR"`
		Password string `env:"REDIS_PASSWORD"`
	}
	Auth struct {
		Strategy       string        `env:"AUTH_STRATEGY" env-default:"credentials"`
		SessionSecret  string        `env:"SESSION_SECRET"`
		SessionMaxAge  time.Duration `env:"SESSION_MAX_AGE" env-default:"720h"`
		CookieSecure   bool          `env:"SESSION_COOKIE_SECURE" env-default:"false"`
		APIRequireAuth bool          `env:"API_REQUIRE_AUTH" env-default:"true"`

		AdminEmail        string `env:"ADMIN_EMAIL"`
		AdminUsername     string `env:"ADMIN_USERNAME"`
		AdminPassword     string `env:"ADMIN_PASSWORD"`
		AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`

		GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
		GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
		GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URI"`

		FirebaseCredentialsPath string `env:"FIREBASE_CREDENTIALS_PATH"`
	}
}

// Load reads the configuration and validates it for the server.
func Load() (*Config, error) {
	cfg, err := Read()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read loads the optional .env file and then the process environment
// without validating the result.
func Read() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		help, _ := cleanenv.GetDescription(cfg, nil)
		return nil, fmt.Errorf("read configuration: %w\n%s", err, help)
	}
	return cfg, nil
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	if c.Auth.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET environment variable not set")
	}
	if c.Auth.SessionMaxAge <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE must be positive")
	}

	switch c.Store.Backend {
	case BackendFile:
		if c.Store.ContentDir == "" {
			return fmt.Errorf("CONTENT_DIR environment variable not set")
		}
	case BackendMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("MONGO_URI environment variable not set")
		}
	case BackendPostgres:
		if c.Postgres.ConnStr == "" {
			return fmt.Errorf("POSTGRES_CONN_STR environment variable not set")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}

	switch c.Auth.Strategy {
	case StrategyCredentials:
		if c.Auth.AdminUsername == "" || (c.Auth.AdminPassword == "" && c.Auth.AdminPasswordHash == "") {
			return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD (or ADMIN_PASSWORD_HASH) must be set")
		}
	case StrategyGoogle:
		if c.Auth.GoogleClientID == "" || c.Auth.GoogleClientSecret == "" || c.Auth.AdminEmail == "" {
			return fmt.Errorf("GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and ADMIN_EMAIL must be set")
		}
	case StrategyFirebase:
		if c.Auth.FirebaseCredentialsPath == "" || c.Auth.AdminEmail == "" {
			return fmt.Errorf("FIREBASE_CREDENTIALS_PATH and ADMIN_EMAIL must be set")
		}
		if _, err := os.Stat(c.Auth.FirebaseCredentialsPath); err != nil {
			return fmt.Errorf("firebase credentials file not readable: %w", err)
		}
	default:
		return fmt.Errorf("unknown AUTH_STRATEGY %q", c.Auth.Strategy)
	}

	return nil
}
