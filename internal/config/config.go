package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/eternalApril/moonwire/internal/resp"
)

// Config represents the root configuration structure for the application
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Protocol    ProtocolConfig    `mapstructure:"protocol"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Log         LogConfig         `mapstructure:"log"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
}

// ServerConfig holds the network settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"` // how long to wait for open connections on shutdown
}

// ProtocolConfig bounds what the decoder accepts from a peer
type ProtocolConfig struct {
	MaxDepth           int   `mapstructure:"max_depth"`            // multi-bulk nesting
	MaxBulkLength      int64 `mapstructure:"max_bulk_length"`      // bytes, 0 = unlimited
	MaxMultiBulkLength int64 `mapstructure:"max_multibulk_length"` // elements, 0 = unlimited
	MaxLineLength      int   `mapstructure:"max_line_length"`      // status/error/integer line bytes, 0 = unlimited
}

// Options converts the limits into decoder options
func (p ProtocolConfig) Options() []resp.Option {
	return []resp.Option{
		resp.WithMaxDepth(p.MaxDepth),
		resp.WithMaxBulkLength(p.MaxBulkLength),
		resp.WithMaxMultiBulkLength(p.MaxMultiBulkLength),
		resp.WithMaxLineLength(p.MaxLineLength),
	}
}

// StorageConfig defines the internal structure of the storage engine
type StorageConfig struct {
	Shards uint `mapstructure:"shards"`
}

// LogConfig defines logging verbosity and output style
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// PersistenceConfig defines settings of the command journal
type PersistenceConfig struct {
	AOF AOFConfig `mapstructure:"aof"`
}

// AOFConfig defines settings of AOF method
type AOFConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Filename string `mapstructure:"filename"`
	Fsync    string `mapstructure:"fsync"` // always, everysec, no
}

// flagKeys maps command line flags to configuration keys
var flagKeys = map[string]string{
	"host":      "server.host",
	"port":      "server.port",
	"log-level": "log.level",
	"aof":       "persistence.aof.enabled",
}

// Load reads the configuration from a file and overrides it with environment variables
// and, when flags is not nil, with the flags that were set on the command line
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.AddConfigPath(".")

	v.SetEnvPrefix("MOONWIRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults populates viper with fallback values if they are not provided via file or ENV
func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "6380")
	v.SetDefault("server.shutdown_timeout", "5s")

	// Protocol
	v.SetDefault("protocol.max_depth", resp.DefaultMaxDepth)
	v.SetDefault("protocol.max_bulk_length", resp.DefaultMaxBulkLength)
	v.SetDefault("protocol.max_multibulk_length", resp.DefaultMaxMultiBulkLength)
	v.SetDefault("protocol.max_line_length", resp.DefaultMaxLineLength)

	// Storage
	v.SetDefault("storage.shards", 16)

	// Logger
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Persistence
	v.SetDefault("persistence.aof.enabled", false)
	v.SetDefault("persistence.aof.filename", "appendonly.aof")
	v.SetDefault("persistence.aof.fsync", "everysec")
}
