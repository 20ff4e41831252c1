package fritter

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configName   = "config"     // Config file name without extension
	databaseFile = "fritter.db" // Default database file name inside the config dir
	envPrefix    = "FRITTER"    // Prefix for environment overrides
)

// Config is the server configuration, backed by config.yaml in the config directory.
type Config struct {
	viper                *viper.Viper
	ConfigDir            string        `mapstructure:"-"`                      // Directory holding config.yaml
	Address              string        `mapstructure:"address"`                // Listen address
	Port                 string        `mapstructure:"port"`                   // Listen port
	DatabasePath         string        `mapstructure:"database_path"`          // SQLite database file
	SessionSecret        string        `mapstructure:"session_secret"`         // HMAC secret for session tokens
	SessionTTL           time.Duration `mapstructure:"session_ttl"`            // Lifetime of a sign-in
	SessionSweepInterval time.Duration `mapstructure:"session_sweep_interval"` // How often expired sessions are purged
	SecureCookies        bool          `mapstructure:"secure_cookies"`         // Mark the session cookie Secure
	LogLevel             string        `mapstructure:"log_level"`              // Console log level
	LogFormat            string        `mapstructure:"log_format"`             // text or json
	AuditLevel           string        `mapstructure:"audit_level"`            // Minimum level stored in the logs table
	AuditRetention       time.Duration `mapstructure:"audit_retention"`        // Age after which audit entries are pruned, 0 keeps them
	RateLimitRPS         float64       `mapstructure:"rate_limit_rps"`         // Sign-in and registration requests per second per IP
	RateLimitBurst       int           `mapstructure:"rate_limit_burst"`       // Burst for the limiter above
	StaticDir            string        `mapstructure:"static_dir"`             // Optional frontend build to serve
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("address", "127.0.0.1")
	v.SetDefault("port", "3000")
	v.SetDefault("database_path", "")
	v.SetDefault("session_secret", "")
	v.SetDefault("session_ttl", 7*24*time.Hour)
	v.SetDefault("session_sweep_interval", 10*time.Minute)
	v.SetDefault("secure_cookies", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("audit_level", "warn")
	v.SetDefault("audit_retention", 30*24*time.Hour)
	v.SetDefault("rate_limit_rps", 1.0)
	v.SetDefault("rate_limit_burst", 5)
	v.SetDefault("static_dir", "")
}

// DefaultConfig returns a configuration holding the defaults without touching the disk.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{viper: v}
	// Defaults are well formed, the error can only come from a broken decoder.
	_ = v.Unmarshal(cfg)
	return cfg
}

// LoadConfig reads config.yaml from dir, creating the directory and the file with
// defaults when missing. A session secret is generated and persisted on first use.
// Environment variables prefixed with FRITTER_ override file values.
func LoadConfig(dir string) (*Config, error) {
	if _, err := os.ReadDir(dir); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("checking if directory exists %s: %w", dir, err)
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating config dir %s: %w", dir, err)
		}
	}

	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file : %w", err)
		}
		if err := v.SafeWriteConfig(); err != nil {
			return nil, fmt.Errorf("writing config file : %w", err)
		}
	}

	cfg := &Config{viper: v}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config to struct : %w", err)
	}
	cfg.ConfigDir = dir

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(dir, databaseFile)
	}

	if cfg.SessionSecret == "" {
		secret, err := generateSecret()
		if err != nil {
			return nil, err
		}
		if err := cfg.Set("session_secret", secret); err != nil {
			return nil, err
		}
		cfg.SessionSecret = secret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Set changes a key and rewrites config.yaml.
func (cfg *Config) Set(key string, value any) error {
	if cfg.viper == nil {
		return errors.New("config is not backed by a file")
	}
	cfg.viper.Set(key, value)
	if err := cfg.viper.WriteConfig(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	return nil
}

// Validate reports settings the server cannot run with.
func (cfg *Config) Validate() error {
	switch {
	case cfg.Port == "":
		return errors.New("port must not be empty")
	case cfg.SessionTTL <= 0:
		return fmt.Errorf("session_ttl must be positive, got %s", cfg.SessionTTL)
	case cfg.SessionSweepInterval <= 0:
		return fmt.Errorf("session_sweep_interval must be positive, got %s", cfg.SessionSweepInterval)
	case cfg.AuditRetention < 0:
		return fmt.Errorf("audit_retention must not be negative, got %s", cfg.AuditRetention)
	case cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0:
		return errors.New("rate_limit_rps and rate_limit_burst must be positive")
	}
	return nil
}

func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session secret : %w", err)
	}
	return base64.RawStdEncoding.EncodeToString(buf), nil
}
