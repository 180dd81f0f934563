package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	API     APIConfig     `yaml:"api"`
	Auth    AuthConfig    `yaml:"auth"`
	Session SessionConfig `yaml:"session"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	ListenAddr string    `yaml:"listen_addr"`
	TLS        TLSConfig `yaml:"tls"`
}

type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APIConfig points the console at the WorkflowAI REST API.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	Google GoogleConfig `yaml:"google"`
}

// GoogleConfig drives the "Sign in with Google" redirect. The console only
// builds the authorization URL; the code is exchanged by the backend API, so
// no client secret is configured here.
type GoogleConfig struct {
	Enabled     bool     `yaml:"enabled"`
	ClientID    string   `yaml:"client_id"`
	IssuerURL   string   `yaml:"issuer_url"`
	RedirectURL string   `yaml:"redirect_url"`
	Scopes      []string `yaml:"scopes"`
}

type SessionConfig struct {
	Backend         string        `yaml:"backend"` // "memory" or "bolt"
	Path            string        `yaml:"path"`
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	setDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8090"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30 * time.Second
	}
	if cfg.Session.Backend == "" {
		cfg.Session.Backend = "memory"
	}
	if cfg.Session.Path == "" {
		cfg.Session.Path = "/var/lib/workflowai-console/sessions.db"
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 24 * time.Hour
	}
	if cfg.Session.CleanupInterval == 0 {
		cfg.Session.CleanupInterval = 15 * time.Minute
	}
	if cfg.Auth.Google.IssuerURL == "" {
		cfg.Auth.Google.IssuerURL = "https://accounts.google.com"
	}
	if len(cfg.Auth.Google.Scopes) == 0 {
		cfg.Auth.Google.Scopes = []string{"openid", "profile", "email"}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validate(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	switch cfg.Session.Backend {
	case "memory", "bolt":
	default:
		return fmt.Errorf("session.backend must be \"memory\" or \"bolt\", got %q", cfg.Session.Backend)
	}
	if cfg.Auth.Google.Enabled {
		if cfg.Auth.Google.ClientID == "" {
			return fmt.Errorf("auth.google.client_id is required when Google login is enabled")
		}
		if cfg.Auth.Google.RedirectURL == "" {
			return fmt.Errorf("auth.google.redirect_url is required when Google login is enabled")
		}
	}
	if cfg.Server.TLS.Enabled {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			return fmt.Errorf("server.tls.cert_file and key_file are required when TLS is enabled")
		}
	}
	return nil
}
