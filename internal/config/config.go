package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends selectable through storage.backend.
const (
	BackendMemory = "memory"
	BackendDisk   = "disk"
	BackendRemote = "remote"
	BackendMongo  = "mongo"
	BackendS3     = "s3"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Badger   BadgerConfig   `mapstructure:"badger"`
	Remote   RemoteConfig   `mapstructure:"remote"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	// Mode is "development" or "production".
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type StorageConfig struct {
	Backend string     `mapstructure:"backend"`
	Disk    DiskConfig `mapstructure:"disk"`
}

type DiskConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	Prefix          string `mapstructure:"prefix"`
	CreateBucket    bool   `mapstructure:"create_bucket"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type BadgerConfig struct {
	// Dir empty means an in-memory database.
	Dir string `mapstructure:"dir"`
}

type RemoteConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// setDefaults registers every key, even empty ones, so that AutomaticEnv can
// see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("log.mode", "production")
	v.SetDefault("log.level", "info")
	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("storage.backend", BackendDisk)
	v.SetDefault("storage.disk.base_dir", "./Workouts")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "workout_cards")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.create_bucket", false)
	v.SetDefault("s3.bucket_name", "workouts")
	v.SetDefault("s3.prefix", "workouts")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("badger.dir", "./data/badger")
	v.SetDefault("remote.base_url", "")
	v.SetDefault("remote.timeout", "30s")
}

// LoadConfig reads config.yaml from path, when present, and overlays
// environment variables (server.address -> SERVER_ADDRESS).
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))
	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("read config: %w", err)
		}
		// No file: defaults and environment only.
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("decode config: %w", err)
	}
	// Origins from a comma separated env var may carry blanks.
	config.CORS.AllowedOrigins = splitList(strings.Join(config.CORS.AllowedOrigins, ","))
	return config, config.Validate()
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the settings the selected backend needs.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendMongo, BackendRedis, BackendBadger:
	case BackendDisk:
		if strings.TrimSpace(c.Storage.Disk.BaseDir) == "" {
			return errors.New("storage.disk.base_dir is required for the disk backend")
		}
	case BackendRemote:
		if strings.TrimSpace(c.Remote.BaseURL) == "" {
			return errors.New("remote.base_url is required for the remote backend")
		}
	case BackendS3:
		if strings.TrimSpace(c.S3.BucketName) == "" {
			return errors.New("s3.bucket_name is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}
