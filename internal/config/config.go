package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Storage drivers.
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Config struct {
	Env        string `yaml:"env"`
	HTTPServer `yaml:"http_server"`
	Shortener  `yaml:"shortener"`
	Storage    `yaml:"storage"`
	Postgres   `yaml:"postgres"`
	Redis      `yaml:"redis"`
	Telemetry  `yaml:"telemetry"`
	Reporter   `yaml:"reporter"`
}

type HTTPServer struct {
	Port           int           `yaml:"port"`
	BaseURL        string        `yaml:"base_url"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	CertFile       string        `yaml:"cert_file"`
	KeyFile        string        `yaml:"key_file"`
}

var defaultHTTPServer = HTTPServer{
	Port:           8080,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// Shortener holds the batch and short code rules.
type Shortener struct {
	MaxURLs         int           `yaml:"max_urls"`
	DefaultValidity time.Duration `yaml:"default_validity"`
	ShortCodeLength int           `yaml:"short_code_length"`
}

var defaultShortener = Shortener{
	MaxURLs:         5,
	DefaultValidity: 30 * time.Minute,
	ShortCodeLength: 6,
}

// Storage selects where the URL collection is kept.
type Storage struct {
	Driver string      `yaml:"driver"`
	Key    string      `yaml:"key"`
	File   FileStorage `yaml:"file"`
}

type FileStorage struct {
	Path string `yaml:"path"`
}

var defaultStorage = Storage{
	Driver: DriverFile,
	Key:    "shortenedUrls",
	File: FileStorage{
		Path: "./data/urls.json",
	},
}

type Postgres struct {
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MigrationsPath  string        `yaml:"migrations_path"` // empty uses the embedded migrations
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
}

func (p *Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

var defaultRedis = Redis{
	Addr: "localhost:6379",
}

// Telemetry configures the remote event collector. An empty endpoint
// keeps events in the service log only.
type Telemetry struct {
	Endpoint  string        `yaml:"endpoint"`
	Timeout   time.Duration `yaml:"timeout"`
	QueueSize int           `yaml:"queue_size"`
}

var defaultTelemetry = Telemetry{
	Timeout:   2 * time.Second,
	QueueSize: 1024,
}

type Reporter struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
}

var defaultReporter = Reporter{
	Enabled:  true,
	Schedule: "@hourly",
}

func Load(path string) (*Config, error) {
	const op = "config.Load"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
	}
	defer f.Close()

	var cfg Config
	setDefaults(&cfg)

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func (cfg *Config) validate() error {
	switch cfg.Storage.Driver {
	case DriverFile, DriverMemory, DriverPostgres, DriverRedis:
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Shortener.MaxURLs <= 0 {
		return fmt.Errorf("shortener.max_urls must be positive, got %d", cfg.Shortener.MaxURLs)
	}
	if cfg.Shortener.ShortCodeLength < 4 || cfg.Shortener.ShortCodeLength > 16 {
		return fmt.Errorf("shortener.short_code_length must be between 4 and 16, got %d", cfg.Shortener.ShortCodeLength)
	}
	if cfg.Shortener.DefaultValidity <= 0 {
		return fmt.Errorf("shortener.default_validity must be positive, got %s", cfg.Shortener.DefaultValidity)
	}

	return nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.HTTPServer = defaultHTTPServer
	cfg.Shortener = defaultShortener
	cfg.Storage = defaultStorage
	cfg.Postgres = defaultPostgres
	cfg.Redis = defaultRedis
	cfg.Telemetry = defaultTelemetry
	cfg.Reporter = defaultReporter
}
