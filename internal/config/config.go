// Package config loads netcli's YAML configuration with viper, including
// device targets, SSH transport tuning, persistence, object storage, and
// the optional Redis state cache.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Devices    []DeviceConfig   `mapstructure:"devices"`
	SSH        SSHConfig        `mapstructure:"ssh"`
	Collector  CollectorConfig  `mapstructure:"collector"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig controls the HTTP facade.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DeviceConfig names one managed device target (spec.md's DeviceTarget,
// as it appears on disk).
type DeviceConfig struct {
	Name                  string `mapstructure:"name"`
	Kind                  string `mapstructure:"kind"` // junos | iosxr
	Host                  string `mapstructure:"host"`
	Port                  int    `mapstructure:"port"`
	Username              string `mapstructure:"username"`
	Password              string `mapstructure:"password"`
	KeyPath               string `mapstructure:"key_path"`
	StrictHostKeyChecking bool   `mapstructure:"strict_host_key_checking"`
}

// SSHConfig tunes the in-process SSH transport (pkg/transport).
type SSHConfig struct {
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	KeepAlive      time.Duration `mapstructure:"keep_alive"`
	TermType       string        `mapstructure:"term_type"`
	TermWidth      int           `mapstructure:"term_width"`
	TermHeight     int           `mapstructure:"term_height"`
}

// CollectorConfig holds driver-adjacent tuning that is not itself part of
// the driver's in-memory state (spec.md §9's open note on session_log
// growth).
type CollectorConfig struct {
	SessionLogMaxBytes int           `mapstructure:"session_log_max_bytes"`
	ReadyTimeout       time.Duration `mapstructure:"ready_timeout"`
	OperationTimeout   time.Duration `mapstructure:"operation_timeout"`
}

// DatabaseConfig wraps the SQLite audit store settings.
type DatabaseConfig struct {
	SQLite SQLiteConfig `mapstructure:"sqlite"`
}

// SQLiteConfig is unchanged in shape from the teacher's database config.
type SQLiteConfig struct {
	Path            string        `mapstructure:"path"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// StorageConfig holds the optional MinIO archival target.
type StorageConfig struct {
	Minio MinioConfig `mapstructure:"minio"`
}

// MinioConfig is unchanged in shape from the teacher's MinIO config.
type MinioConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Secure    bool   `mapstructure:"secure"`
}

// RedisConfig is unchanged in shape from the teacher's Redis config. An
// empty Host means the state cache runs as a no-op publisher (SPEC_FULL.md
// §6.6).
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	TTL          time.Duration `mapstructure:"ttl"`
}

// LogConfig is unchanged in shape from the teacher's log config.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

var globalConfig *Config

// Load reads configPath (or ./configs/config.yaml and its usual
// neighbours, per the teacher's search path) into a Config, applying
// defaults for anything unset.
func Load(configPath string) (*Config, error) {
	viper.SetConfigType("yaml")
	setDefaults()

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("../configs")
		viper.AddConfigPath("../../configs")
	}

	viper.SetEnvPrefix("NETCLI")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for i := range cfg.Devices {
		cfg.Devices[i].Kind = strings.ToLower(strings.TrimSpace(cfg.Devices[i].Kind))
	}

	globalConfig = &cfg
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	viper.SetDefault("ssh.connect_timeout", 10*time.Second)
	viper.SetDefault("ssh.keep_alive", 30*time.Second)
	viper.SetDefault("ssh.term_type", "vt100")
	viper.SetDefault("ssh.term_width", 80)
	viper.SetDefault("ssh.term_height", 24)

	viper.SetDefault("collector.session_log_max_bytes", 256*1024)
	viper.SetDefault("collector.ready_timeout", 15*time.Second)
	viper.SetDefault("collector.operation_timeout", 60*time.Second)

	viper.SetDefault("database.sqlite.path", "./data/netcli.db")
	viper.SetDefault("database.sqlite.max_idle_conns", 1)
	viper.SetDefault("database.sqlite.max_open_conns", 1)
	viper.SetDefault("database.sqlite.conn_max_lifetime", time.Hour)

	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.min_idle_conns", 1)
	viper.SetDefault("redis.dial_timeout", 5*time.Second)
	viper.SetDefault("redis.read_timeout", 3*time.Second)
	viper.SetDefault("redis.write_timeout", 3*time.Second)
	viper.SetDefault("redis.ttl", 30*time.Second)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("log.output", "console")
}

// Get returns the most recently loaded configuration, or nil before the
// first Load.
func Get() *Config { return globalConfig }

// GetServerAddr formats the HTTP listen address.
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DeviceByName finds a configured device target by name.
func (c *Config) DeviceByName(name string) (DeviceConfig, bool) {
	for _, d := range c.Devices {
		if d.Name == name {
			return d, true
		}
	}
	return DeviceConfig{}, false
}
