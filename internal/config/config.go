package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/pngcrypt-go/internal/encryption"
)

// Version is reported by the health endpoint and the CLI
const Version = "0.3.0"

// ServerConfig represents server listen configuration
type ServerConfig struct {
	Address   string `json:"address" mapstructure:"address"`
	HTTPPort  int    `json:"http_port" mapstructure:"http_port"`
	HTTPSPort int    `json:"https_port" mapstructure:"https_port"`
	CertFile  string `json:"cert_file" mapstructure:"cert_file"`
	KeyFile   string `json:"key_file" mapstructure:"key_file"`
	EnableH2C bool   `json:"enable_h2c" mapstructure:"enable_h2c"`
}

// CryptoConfig represents default encryption settings
type CryptoConfig struct {
	Algorithm string `json:"algorithm" mapstructure:"algorithm"`
	Password  string `json:"password" mapstructure:"password"`
	MaxBodyMB int    `json:"max_body_mb" mapstructure:"max_body_mb"`
}

// CacheConfig represents codec cache configuration
type CacheConfig struct {
	Enable     bool `json:"enable" mapstructure:"enable"`
	Expiration int  `json:"expiration" mapstructure:"expiration"` // minutes
	MaxEntries int  `json:"max_entries" mapstructure:"max_entries"`
}

// StorageConfig selects the job history backend
type StorageConfig struct {
	Driver string `json:"driver" mapstructure:"driver"` // bolt, mysql
	DSN    string `json:"dsn" mapstructure:"dsn"`
}

// FetchConfig represents HTTP client configuration for remote sources
type FetchConfig struct {
	MaxIdleConns       int  `json:"max_idle_conns" mapstructure:"max_idle_conns"`
	IdleConnTimeout    int  `json:"idle_conn_timeout" mapstructure:"idle_conn_timeout"` // seconds
	Timeout            int  `json:"timeout" mapstructure:"timeout"`                     // seconds
	EnableHTTP2        bool `json:"enable_http2" mapstructure:"enable_http2"`
	InsecureSkipVerify bool `json:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `json:"format" mapstructure:"format"` // console, json
}

// Config represents the main configuration
type Config struct {
	Server    ServerConfig  `json:"server" mapstructure:"server"`
	Crypto    CryptoConfig  `json:"crypto" mapstructure:"crypto"`
	Cache     CacheConfig   `json:"cache" mapstructure:"cache"`
	Storage   StorageConfig `json:"storage" mapstructure:"storage"`
	Fetch     FetchConfig   `json:"fetch" mapstructure:"fetch"`
	Log       LogConfig     `json:"log" mapstructure:"log"`
	DataDir   string        `json:"data_dir" mapstructure:"data_dir"`
	JWTSecret string        `json:"jwt_secret" mapstructure:"jwt_secret"`
	JWTExpire int           `json:"jwt_expire" mapstructure:"jwt_expire"` // hours
}

var (
	cfg  *Config
	once sync.Once
)

// SetDefaults registers every default value on v
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.http_port", 5380)
	v.SetDefault("server.https_port", -1)
	v.SetDefault("server.enable_h2c", false)

	// Crypto defaults
	v.SetDefault("crypto.algorithm", string(encryption.DefaultAlgorithm))
	v.SetDefault("crypto.password", "")
	v.SetDefault("crypto.max_body_mb", 64)

	// Cache defaults
	v.SetDefault("cache.enable", true)
	v.SetDefault("cache.expiration", 30)
	v.SetDefault("cache.max_entries", 256)

	// Storage defaults
	v.SetDefault("storage.driver", "bolt")
	v.SetDefault("storage.dsn", "")

	// Fetch defaults
	v.SetDefault("fetch.max_idle_conns", 32)
	v.SetDefault("fetch.idle_conn_timeout", 90)
	v.SetDefault("fetch.timeout", 60)
	v.SetDefault("fetch.enable_http2", true)
	v.SetDefault("fetch.insecure_skip_verify", false)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Other defaults
	v.SetDefault("data_dir", "./data")
	v.SetDefault("jwt_secret", "pngcrypt-secret-change-me")
	v.SetDefault("jwt_expire", 24)
}

// Load reads the configuration once from config.json and the environment
func Load() *Config {
	once.Do(func() {
		v := viper.New()
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.pngcrypt")

		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Warn().Msg("Config file not found, using defaults")
			} else {
				log.Error().Err(err).Msg("Error reading config file")
			}
		}

		c, err := Read(v)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid configuration")
		}
		cfg = c
	})
	return cfg
}

// LoadFile reads the configuration from an explicit file. The format is
// taken from the extension.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	c, err := Read(v)
	if err != nil {
		return nil, err
	}
	cfg = c
	return c, nil
}

// Read builds a Config from v, applying defaults and PNGCRYPT_ environment
// overrides, and validates it.
func Read(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix("PNGCRYPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the loaded configuration
func Get() *Config {
	if cfg == nil {
		return Load()
	}
	return cfg
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	if c.Crypto.Algorithm != "" && !encryption.IsRegistered(encryption.Algorithm(c.Crypto.Algorithm)) {
		return fmt.Errorf("unknown crypto.algorithm %q", c.Crypto.Algorithm)
	}
	switch c.Storage.Driver {
	case "bolt", "":
	case "mysql":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the mysql driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Crypto.MaxBodyMB <= 0 {
		return fmt.Errorf("crypto.max_body_mb must be positive")
	}
	return nil
}

// Algorithm returns the configured default algorithm
func (c *Config) Algorithm() encryption.Algorithm {
	return encryption.Algorithm(c.Crypto.Algorithm)
}

// MaxBodyBytes returns the request body limit in bytes
func (c *Config) MaxBodyBytes() int64 {
	return int64(c.Crypto.MaxBodyMB) << 20
}

// GetHTTPAddr returns the HTTP listen address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.HTTPPort)
}

// GetHTTPSAddr returns the HTTPS listen address
func (c *Config) GetHTTPSAddr() string {
	if c.Server.HTTPSPort <= 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.HTTPSPort)
}

// IsHTTPSEnabled returns whether HTTPS is enabled
func (c *Config) IsHTTPSEnabled() bool {
	return c.Server.HTTPSPort > 0 && c.Server.CertFile != "" && c.Server.KeyFile != ""
}
