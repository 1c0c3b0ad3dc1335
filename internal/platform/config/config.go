package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/conf"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Namespace prefixes every environment variable, e.g. DACTYLO_JWT_SECRET.
const Namespace = "DACTYLO"

type Config struct {
	Web struct {
		APIHost         string        `conf:"default:0.0.0.0:8000"`
		ReadTimeout     time.Duration `conf:"default:10s"`
		WriteTimeout    time.Duration `conf:"default:10s"`
		IdleTimeout     time.Duration `conf:"default:120s"`
		RequestTimeout  time.Duration `conf:"default:60s"`
		ShutdownTimeout time.Duration `conf:"default:15s"`
		CORSOrigins     []string      `conf:"default:http://localhost:5173;http://localhost:3000"`
	}
	DB struct {
		// Driver is either "sqlite3" (single database file) or "pgx" (PostgreSQL).
		Driver   string `conf:"default:sqlite3"`
		Filename string `conf:"default:db.sqlite3"`
		Host     string `conf:"default:localhost"`
		Port     string `conf:"default:5432"`
		User     string `conf:"default:user"`
		Password string `conf:"default:password,noprint"`
		Name     string `conf:"default:dactylo"`
		SslMode  string `conf:"default:disable"`
		Seed     bool   `conf:"default:true"`
	}
	JWT struct {
		Secret        string `conf:"noprint"`
		ExpireMinutes int    `conf:"default:30"`
	}
	Password struct {
		BcryptCost     int  `conf:"default:14"`
		MinLength      int  `conf:"default:8"`
		MaxLength      int  `conf:"default:72"`
		RequireUpper   bool `conf:"default:true"`
		RequireLower   bool `conf:"default:true"`
		RequireDigit   bool `conf:"default:true"`
		RequireSpecial bool `conf:"default:true"`
	}
	Redis struct {
		// An empty address disables Redis; the weekly job then locks in-process.
		Addr     string
		Password string `conf:"noprint"`
		DB       int    `conf:"default:0"`
	}
	Scheduler struct {
		WeeklyCron string        `conf:"default:0 0 * * 1"`
		LockKey    string        `conf:"default:dactylo:weekly_challenge_lock"`
		LockTTL    time.Duration `conf:"default:5m"`
	}
	Log struct {
		Level string `conf:"default:info"`
		JSON  bool   `conf:"default:false"`
	}
}

// ErrMissingSecret is returned when no JWT signing secret was supplied.
var ErrMissingSecret = errors.New("config: " + Namespace + "_JWT_SECRET must be set")

// Load reads an optional .env file, then parses environment variables and command line flags.
// conf.ErrHelpWanted is returned untouched so the caller can exit quietly.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, relying on environment variables")
	}

	var cfg Config
	if err := conf.Parse(args, Namespace, &cfg); err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			usage, uerr := conf.Usage(Namespace, &cfg)
			if uerr != nil {
				return nil, fmt.Errorf("generating config usage: %w", uerr)
			}
			fmt.Fprintln(os.Stdout, usage)
			return nil, err
		}
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fails fast on settings the process cannot run without.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return ErrMissingSecret
	}
	if c.JWT.ExpireMinutes <= 0 {
		return fmt.Errorf("config: JWT expiry must be positive, got %d minutes", c.JWT.ExpireMinutes)
	}
	switch c.DB.Driver {
	case "sqlite3", "pgx":
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.DB.Driver)
	}
	return nil
}

func (c *Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWT.ExpireMinutes) * time.Minute
}

// DSN builds the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DB.Driver == "sqlite3" {
		return "file:" + c.DB.Filename + "?_foreign_keys=on&_busy_timeout=5000"
	}
	return "host=" + c.DB.Host +
		" port=" + c.DB.Port +
		" user=" + c.DB.User +
		" password=" + c.DB.Password +
		" dbname=" + c.DB.Name +
		" sslmode=" + c.DB.SslMode
}
