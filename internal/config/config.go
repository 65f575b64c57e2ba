package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	DB        DBConfig        `mapstructure:"db"`
	Session   SessionConfig   `mapstructure:"session"`
	Auth      AuthConfig      `mapstructure:"auth"`
	OIDC      OIDCConfig      `mapstructure:"oidc"`
	Log       LogConfig       `mapstructure:"log"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Site      SiteConfig      `mapstructure:"site"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	TLS          TLSConfig     `mapstructure:"tls"`
}

// TLSConfig holds TLS-specific configuration.
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
}

// DBConfig holds database-specific configuration.
type DBConfig struct {
	Driver string `mapstructure:"driver"` // "mysql" or "sqlite3"
	DSN    string `mapstructure:"dsn"`
}

// SessionConfig holds session cookie configuration.
type SessionConfig struct {
	SecretKey string `mapstructure:"secretkey"`
	Lifetime  int    `mapstructure:"lifetime"` // hours
}

// AuthConfig holds authorization and bootstrap settings.
type AuthConfig struct {
	// PolicyStore is "memory" or "database". The database store persists the
	// capability table in the casbin_rule table.
	PolicyStore string `mapstructure:"policy_store"`
	// BootstrapEmail and BootstrapPassword create the first super_admin when
	// the users table is empty.
	BootstrapEmail    string `mapstructure:"bootstrap_email"`
	BootstrapPassword string `mapstructure:"bootstrap_password"`
}

// OIDCConfig holds OIDC client configuration. SSO is disabled when IssuerURL is empty.
type OIDCConfig struct {
	IssuerURL    string `mapstructure:"issuer_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// Enabled reports whether an OIDC provider is configured.
func (c OIDCConfig) Enabled() bool {
	return c.IssuerURL != ""
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // e.g., "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // e.g., "json", "console"
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Driver   string        `mapstructure:"driver"` // "sqlite" or "redis"
	FilePath string        `mapstructure:"file_path"`
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// SchedulerConfig controls the scheduled-publish sweeper.
type SchedulerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Spec    string `mapstructure:"spec"`
}

// SiteConfig holds public site settings used for robots.txt and the sitemap.
type SiteConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// LoadConfig reads configuration from file and environment variables.
// Extra search paths are consulted before the defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("db.driver", "sqlite3")
	v.SetDefault("db.dsn", "newsroom.db")
	v.SetDefault("session.lifetime", 12)
	v.SetDefault("auth.policy_store", "memory")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.file_path", "cache.db")
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.spec", "* * * * *")
	v.SetDefault("site.base_url", "http://localhost:8080")

	// Keys without a sensible default still need registering so that
	// AutomaticEnv picks them up during Unmarshal.
	for _, key := range []string{
		"server.tls.enabled", "server.tls.certFile", "server.tls.keyFile",
		"session.secretkey",
		"auth.bootstrap_email", "auth.bootstrap_password",
		"oidc.issuer_url", "oidc.client_id", "oidc.client_secret", "oidc.redirect_url",
		"cache.redis_url",
	} {
		v.SetDefault(key, "")
	}

	// Set up viper to read from config file
	v.SetConfigName("config")
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/go-newsroom/")
	v.AddConfigPath("$HOME/.go-newsroom")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	// Environment variables override the file, e.g. NEWSROOM_DB_DSN.
	v.SetEnvPrefix("NEWSROOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
