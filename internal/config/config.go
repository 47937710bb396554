package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	DB        DBConfig        `yaml:"db"`
	Lock      LockConfig      `yaml:"lock"`
	Events    EventsConfig    `yaml:"events"`
	Holidays  HolidaysConfig  `yaml:"holidays"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"min=1,max=65535"`
}

type TransportConfig struct {
	Mode string `yaml:"mode" validate:"oneof=stdio http"`
}

type AuthConfig struct {
	Enabled     bool   `yaml:"enabled"`
	DefaultUser string `yaml:"default_user" validate:"required_if=Enabled false"`
}

type DBConfig struct {
	Driver        string `yaml:"driver" validate:"oneof=sqlite mongo"`
	Path          string `yaml:"path" validate:"required_if=Driver sqlite"`
	MongoURI      string `yaml:"mongo_uri" validate:"required_if=Driver mongo"`
	MongoDatabase string `yaml:"mongo_database" validate:"required_if=Driver mongo"`
}

type LockConfig struct {
	Driver        string        `yaml:"driver" validate:"oneof=local redis"`
	RedisAddr     string        `yaml:"redis_addr" validate:"required_if=Driver redis"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db" validate:"min=0"`
	TTL           time.Duration `yaml:"ttl" validate:"min=0"`
	Wait          time.Duration `yaml:"wait" validate:"min=0"`
}

type EventsConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers" validate:"required_if=Enabled true"`
	Topic   string   `yaml:"topic" validate:"required_if=Enabled true"`
}

type HolidaysConfig struct {
	Country string `yaml:"country" validate:"required,len=2"`
	File    string `yaml:"file"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
	// Path redirects logs to a size-capped file instead of stderr.
	Path string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Auth: AuthConfig{
			Enabled:     true,
			DefaultUser: "local",
		},
		DB: DBConfig{
			Driver:        "sqlite",
			Path:          "overlap.db",
			MongoDatabase: "overlap",
		},
		Lock: LockConfig{
			Driver: "local",
			TTL:    30 * time.Second,
			Wait:   5 * time.Second,
		},
		Events: EventsConfig{
			Topic: "overlap.availability",
		},
		Holidays: HolidaysConfig{
			Country: "BR",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "overlap",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from defaults, an optional .env file, an optional
// YAML file, and OVERLAP_* environment variables, in that order.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path := os.Getenv("OVERLAP_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	integer := func(name string, dst *int) error {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", name, err)
			}
			*dst = n
		}
		return nil
	}
	boolean := func(name string, dst *bool) error {
		if v := os.Getenv(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", name, err)
			}
			*dst = b
		}
		return nil
	}
	duration := func(name string, dst *time.Duration) error {
		if v := os.Getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", name, err)
			}
			*dst = d
		}
		return nil
	}

	str("OVERLAP_SERVER_HOST", &cfg.Server.Host)
	str("OVERLAP_TRANSPORT_MODE", &cfg.Transport.Mode)
	str("OVERLAP_AUTH_DEFAULT_USER", &cfg.Auth.DefaultUser)
	str("OVERLAP_DB_DRIVER", &cfg.DB.Driver)
	str("OVERLAP_DB_PATH", &cfg.DB.Path)
	str("OVERLAP_MONGO_URI", &cfg.DB.MongoURI)
	str("OVERLAP_MONGO_DATABASE", &cfg.DB.MongoDatabase)
	str("OVERLAP_LOCK_DRIVER", &cfg.Lock.Driver)
	str("OVERLAP_REDIS_ADDR", &cfg.Lock.RedisAddr)
	str("OVERLAP_REDIS_PASSWORD", &cfg.Lock.RedisPassword)
	str("OVERLAP_EVENTS_TOPIC", &cfg.Events.Topic)
	str("OVERLAP_HOLIDAYS_COUNTRY", &cfg.Holidays.Country)
	str("OVERLAP_HOLIDAYS_FILE", &cfg.Holidays.File)
	str("OVERLAP_METRICS_NAMESPACE", &cfg.Metrics.Namespace)
	str("OVERLAP_LOG_LEVEL", &cfg.Log.Level)
	str("OVERLAP_LOG_FORMAT", &cfg.Log.Format)
	str("OVERLAP_LOG_PATH", &cfg.Log.Path)

	if v := os.Getenv("OVERLAP_KAFKA_BROKERS"); v != "" {
		cfg.Events.Brokers = nil
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Events.Brokers = append(cfg.Events.Brokers, b)
			}
		}
	}

	for _, fn := range []func() error{
		func() error { return integer("OVERLAP_SERVER_PORT", &cfg.Server.Port) },
		func() error { return integer("OVERLAP_REDIS_DB", &cfg.Lock.RedisDB) },
		func() error { return boolean("OVERLAP_AUTH_ENABLED", &cfg.Auth.Enabled) },
		func() error { return boolean("OVERLAP_EVENTS_ENABLED", &cfg.Events.Enabled) },
		func() error { return boolean("OVERLAP_METRICS_ENABLED", &cfg.Metrics.Enabled) },
		func() error { return duration("OVERLAP_LOCK_TTL", &cfg.Lock.TTL) },
		func() error { return duration("OVERLAP_LOCK_WAIT", &cfg.Lock.Wait) },
	} {
		if err := fn(); err != nil {
			return err
		}
	}

	cfg.Holidays.Country = strings.ToUpper(cfg.Holidays.Country)
	return nil
}
