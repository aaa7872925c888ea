package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppName  string         `mapstructure:"app_name"`
	Server   ServerConfig   `mapstructure:"server"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Database DatabaseConfig `mapstructure:"database"`
	Files    FilesConfig    `mapstructure:"files"`
	Pages    PagesConfig    `mapstructure:"pages"`
	Features FeaturesConfig `mapstructure:"features"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LoggerConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

type RedisConfig struct {
	URL       string `mapstructure:"url"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// QueueConfig selects the job queue backend and tunes the workers that drain it.
// Backend is "redis" or "memory". With Embedded set the server runs its own
// workers, which is the only option for the memory backend.
type QueueConfig struct {
	Backend        string        `mapstructure:"backend"`
	Name           string        `mapstructure:"name"`
	Embedded       bool          `mapstructure:"embedded"`
	Workers        int           `mapstructure:"workers"`
	DequeueTimeout time.Duration `mapstructure:"dequeue_timeout"`
	ResultTTL      time.Duration `mapstructure:"result_ttl"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
}

type DatabaseConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	User             string        `mapstructure:"user"`
	Password         string        `mapstructure:"password"`
	Name             string        `mapstructure:"name"`
	SSLMode          string        `mapstructure:"sslmode"`
	MaxIdleConns     int           `mapstructure:"max_idle_conns"`
	MaxOpenConns     int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime"`
	HistoryRetention time.Duration `mapstructure:"history_retention"`
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type FilesConfig struct {
	Directory string `mapstructure:"directory"`
	Extension string `mapstructure:"extension"`
}

// DefaultChild maps a parent page path to the page shown when the parent is requested.
type DefaultChild struct {
	Parent string `mapstructure:"parent"`
	Child  string `mapstructure:"child"`
}

type PagesConfig struct {
	TemplatesDirectory string         `mapstructure:"templates_directory"`
	AssetsDirectory    string         `mapstructure:"assets_directory"`
	DefaultChildren    []DefaultChild `mapstructure:"default_children"`
}

// DefaultChildMap flattens DefaultChildren into a lookup table.
func (p *PagesConfig) DefaultChildMap() map[string]string {
	m := make(map[string]string, len(p.DefaultChildren))
	for _, dc := range p.DefaultChildren {
		m[dc.Parent] = dc.Child
	}
	return m
}

type FeaturesConfig struct {
	RequestIDHeader      string `mapstructure:"request_id_header"`
	EnableRequestLogging bool   `mapstructure:"enable_request_logging"`
}

type AuthConfig struct {
	APIToken       string   `mapstructure:"api_token"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "Job Monitor")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "console")
	v.SetDefault("logger.output_paths", []string{"stdout"})
	v.SetDefault("logger.error_output_paths", []string{"stderr"})
	v.SetDefault("redis.url", "redis://localhost:6379")
	v.SetDefault("redis.key_prefix", "jobmonitor")
	v.SetDefault("queue.backend", "redis")
	v.SetDefault("queue.name", "default")
	v.SetDefault("queue.workers", 2)
	v.SetDefault("queue.dequeue_timeout", time.Second)
	v.SetDefault("queue.result_ttl", 500*time.Second)
	v.SetDefault("queue.poll_interval", 300*time.Millisecond)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("files.directory", "./web/files")
	v.SetDefault("files.extension", ".yaml")
	v.SetDefault("pages.templates_directory", "./web/templates")
	v.SetDefault("pages.assets_directory", "./web/static")
	v.SetDefault("features.request_id_header", "X-Request-ID")
}

// Load reads the YAML file at path. Every key can be overridden from the
// environment with a JOBMONITOR_ prefix, e.g. JOBMONITOR_REDIS_URL.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvPrefix("JOBMONITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Queue.Backend {
	case "redis":
	case "memory":
		if !c.Queue.Embedded {
			return fmt.Errorf("queue backend %q requires queue.embedded=true", c.Queue.Backend)
		}
	default:
		return fmt.Errorf("unknown queue backend %q", c.Queue.Backend)
	}
	if c.Queue.Workers <= 0 {
		c.Queue.Workers = 1
	}
	if c.Files.Extension != "" && !strings.HasPrefix(c.Files.Extension, ".") {
		c.Files.Extension = "." + c.Files.Extension
	}
	return nil
}
