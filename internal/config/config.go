package config

import "time"

// Config holds gateway configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	Directory DirectoryConfig `mapstructure:"directory" yaml:"directory"`
	JWT       JWTConfig       `mapstructure:"jwt" yaml:"jwt"`
}

// StoreConfig selects the realtime store backend: "memory" or "redis".
type StoreConfig struct {
	Driver        string `mapstructure:"driver" yaml:"driver"`
	RedisAddr     string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" yaml:"redis_db"`
}

// DirectoryConfig selects the user directory backend: "store" reads
// Users/<id> documents from the realtime store, "sqlite" reads a local
// database file.
type DirectoryConfig struct {
	Driver     string `mapstructure:"driver" yaml:"driver"`
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

// JWTConfig configures bearer token validation.
type JWTConfig struct {
	Secret   string `mapstructure:"secret" yaml:"secret"`
	Issuer   string `mapstructure:"issuer" yaml:"issuer"`
	Audience string `mapstructure:"audience" yaml:"audience"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		Store: StoreConfig{
			Driver:    "memory",
			RedisAddr: "localhost:6379",
		},
		Directory: DirectoryConfig{
			Driver:     "store",
			SQLitePath: "roomview-users.db",
		},
		JWT: JWTConfig{
			Issuer:   "roomview",
			Audience: "roomview",
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}
