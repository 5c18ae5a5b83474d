package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Source kinds.
const (
	KindSeoul    = "seoul"
	KindGyeonggi = "gyeonggi"
)

// Config is the root configuration for the jobflow daemon.
type Config struct {
	Schedule     string        // six-field cron expression; takes precedence over Interval
	Interval     time.Duration // fixed period between passes
	RunOnStart   bool
	ResetOnStart bool
	HTTP         HTTPConfig
	Retry        RetryConfig
	RateLimit    RateLimitConfig
	Storage      StorageConfig
	State        StateConfig
	Stream       StreamConfig
	Warehouse    WarehouseConfig
	Filters      FilterConfig
	Notification NotificationConfig
	Sources      []SourceConfig
}

// HTTPConfig controls the upstream API client.
type HTTPConfig struct {
	Timeout time.Duration
}

// RetryConfig controls the fetch retry decorator.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// RateLimitConfig controls per-host request spacing.
type RateLimitConfig struct {
	MinDelay time.Duration // minimum gap between requests to the same host
}

// StorageConfig selects and configures the blob store.
type StorageConfig struct {
	Backend   string `yaml:"backend"` // "minio" or "local"
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`
	LocalDir  string `yaml:"local_dir"`
}

// StateConfig selects where cursors live. The run ledger always uses SQLite.
type StateConfig struct {
	CursorBackend string `yaml:"cursor_backend"` // "blob" or "sqlite"
	SQLitePath    string `yaml:"sqlite_path"`
}

// StreamConfig configures the event stream used by the relay and the
// optional direct publish path.
type StreamConfig struct {
	Type            string       `yaml:"type"` // "none", "redis" or "lmstfy"
	Topic           string       `yaml:"topic"`
	MaxMessageBytes int          `yaml:"max_message_bytes"`
	PublishOnIngest bool         `yaml:"publish_on_ingest"`
	Redis           RedisConfig  `yaml:"redis"`
	Lmstfy          LmstfyConfig `yaml:"lmstfy"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LmstfyConfig holds lmstfy queue settings.
type LmstfyConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Namespace string `yaml:"namespace"`
	Token     string `yaml:"token"`
	TTL       uint32 `yaml:"ttl"`
	Tries     uint16 `yaml:"tries"`
}

// WarehouseConfig configures the Postgres sink.
type WarehouseConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
	Table   string `yaml:"table"`
}

// FilterConfig holds record filter settings.
type FilterConfig struct {
	DropBlank            bool
	TitleExcludeKeywords []string
	Regions              []string
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
	NotifyOn   string `yaml:"notify_on"`   // "failure" or "always"
}

// SourceConfig describes a single upstream API to ingest.
type SourceConfig struct {
	Name             string
	Kind             string
	APIKey           string
	BaseURL          string
	ChunkSize        int
	ContainerName    string
	BlobPathTemplate string
	StatePath        string
	DefaultStart     int
	Format           string
	DefaultRegion    string
	Timezone         string
	Location         *time.Location
	Enabled          bool
}

// Defaults.
const (
	DefaultHTTPTimeout     = 15 * time.Second
	DefaultMaxRetries      = 3
	DefaultBaseDelay       = 1 * time.Second
	DefaultMinDelay        = 1 * time.Second
	DefaultChunkSize       = 100
	DefaultStart           = 1
	DefaultTimezone        = "Asia/Seoul"
	DefaultMaxMessageBytes = 1 << 20
	DefaultSQLitePath      = "jobflow.db"
	DefaultWarehouseTable  = "job_total_info"
	DefaultLocalDir        = "data"
)

type kindDefaults struct {
	container string
	template  string
	statePath string
	region    string
}

// Cursor paths hold record offsets. The Gyeonggi default avoids the older
// page_state.txt blob, which stores a page number.
var sourceDefaults = map[string]kindDefaults{
	KindSeoul: {
		container: "seoul-job-ct",
		template:  "data/all_jobs/seoul_jobs_{start}_{timestamp}.{ext}",
		statePath: "state/current_start_index.json",
	},
	KindGyeonggi: {
		container: "ggjob-data",
		template:  "ggjobs_{timestamp}.{ext}",
		statePath: "function-state/next_start_index.json",
		region:    "경기",
	},
}

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Schedule     string             `yaml:"schedule"`
	Interval     string             `yaml:"interval"`
	RunOnStart   *bool              `yaml:"run_on_start"`
	ResetOnStart bool               `yaml:"reset_on_start"`
	HTTP         rawHTTPConfig      `yaml:"http"`
	Retry        rawRetryConfig     `yaml:"retry"`
	RateLimit    rawRateLimitConfig `yaml:"rate_limit"`
	Storage      StorageConfig      `yaml:"storage"`
	State        StateConfig        `yaml:"state"`
	Stream       StreamConfig       `yaml:"stream"`
	Warehouse    WarehouseConfig    `yaml:"warehouse"`
	Filters      rawFilterConfig    `yaml:"filters"`
	Notification NotificationConfig `yaml:"notification"`
	Sources      []rawSourceConfig  `yaml:"sources"`
}

type rawHTTPConfig struct {
	Timeout string `yaml:"timeout"`
}

type rawRetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

type rawRateLimitConfig struct {
	MinDelay string `yaml:"min_delay"`
}

type rawFilterConfig struct {
	DropBlank            *bool    `yaml:"drop_blank"`
	TitleExcludeKeywords []string `yaml:"title_exclude_keywords"`
	Regions              []string `yaml:"regions"`
}

type rawSourceConfig struct {
	Name             string `yaml:"name"`
	Kind             string `yaml:"kind"`
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	ChunkSize        int    `yaml:"chunk_size"`
	ContainerName    string `yaml:"container_name"`
	BlobPathTemplate string `yaml:"blob_path_template"`
	StatePath        string `yaml:"state_path"`
	DefaultStart     int    `yaml:"default_start"`
	Format           string `yaml:"format"`
	DefaultRegion    string `yaml:"default_region"` // "none" disables prefixing
	Timezone         string `yaml:"timezone"`
	Enabled          *bool  `yaml:"enabled"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse expands environment variables in data and decodes it.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var interval time.Duration
	if raw.Interval != "" {
		d, err := time.ParseDuration(raw.Interval)
		if err != nil {
			return nil, fmt.Errorf("parse interval %q: %w", raw.Interval, err)
		}
		interval = d
	}

	httpTimeout, err := durationOr(raw.HTTP.Timeout, DefaultHTTPTimeout, "http.timeout")
	if err != nil {
		return nil, err
	}
	baseDelay, err := durationOr(raw.Retry.BaseDelay, DefaultBaseDelay, "retry.base_delay")
	if err != nil {
		return nil, err
	}
	minDelay, err := durationOr(raw.RateLimit.MinDelay, DefaultMinDelay, "rate_limit.min_delay")
	if err != nil {
		return nil, err
	}

	maxRetries := DefaultMaxRetries
	if raw.Retry.MaxRetries != nil {
		maxRetries = *raw.Retry.MaxRetries
	}

	cfg := &Config{
		Schedule:     strings.TrimSpace(raw.Schedule),
		Interval:     interval,
		RunOnStart:   boolOr(raw.RunOnStart, true),
		ResetOnStart: raw.ResetOnStart,
		HTTP:         HTTPConfig{Timeout: httpTimeout},
		Retry:        RetryConfig{MaxRetries: maxRetries, BaseDelay: baseDelay},
		RateLimit:    RateLimitConfig{MinDelay: minDelay},
		Storage:      raw.Storage,
		State:        raw.State,
		Stream:       raw.Stream,
		Warehouse:    raw.Warehouse,
		Filters: FilterConfig{
			DropBlank:            boolOr(raw.Filters.DropBlank, true),
			TitleExcludeKeywords: raw.Filters.TitleExcludeKeywords,
			Regions:              raw.Filters.Regions,
		},
		Notification: raw.Notification,
	}
	applyDefaults(cfg)

	for i, rs := range raw.Sources {
		sc, err := buildSource(rs)
		if err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}
		cfg.Sources = append(cfg.Sources, sc)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "local"
	}
	if cfg.Storage.LocalDir == "" {
		cfg.Storage.LocalDir = DefaultLocalDir
	}
	if cfg.State.CursorBackend == "" {
		cfg.State.CursorBackend = "blob"
	}
	if cfg.State.SQLitePath == "" {
		cfg.State.SQLitePath = DefaultSQLitePath
	}
	if cfg.Stream.Type == "" {
		cfg.Stream.Type = "none"
	}
	if cfg.Stream.MaxMessageBytes == 0 {
		cfg.Stream.MaxMessageBytes = DefaultMaxMessageBytes
	}
	if cfg.Stream.Lmstfy.Port == 0 {
		cfg.Stream.Lmstfy.Port = 7777
	}
	if cfg.Warehouse.Table == "" {
		cfg.Warehouse.Table = DefaultWarehouseTable
	}
	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "log"
	}
	if cfg.Notification.NotifyOn == "" {
		cfg.Notification.NotifyOn = "failure"
	}
}

func buildSource(rs rawSourceConfig) (SourceConfig, error) {
	d := sourceDefaults[rs.Kind]
	sc := SourceConfig{
		Name:             rs.Name,
		Kind:             rs.Kind,
		APIKey:           rs.APIKey,
		BaseURL:          rs.BaseURL,
		ChunkSize:        intOr(rs.ChunkSize, DefaultChunkSize),
		ContainerName:    stringOr(rs.ContainerName, d.container),
		BlobPathTemplate: stringOr(rs.BlobPathTemplate, d.template),
		StatePath:        stringOr(rs.StatePath, d.statePath),
		DefaultStart:     intOr(rs.DefaultStart, DefaultStart),
		Format:           stringOr(rs.Format, "csv"),
		DefaultRegion:    stringOr(rs.DefaultRegion, d.region),
		Timezone:         stringOr(rs.Timezone, DefaultTimezone),
		Enabled:          boolOr(rs.Enabled, true),
	}
	if sc.Name == "" {
		sc.Name = sc.Kind
	}

	loc, err := time.LoadLocation(sc.Timezone)
	if err != nil {
		return SourceConfig{}, fmt.Errorf("load timezone %q: %w", sc.Timezone, err)
	}
	sc.Location = loc
	return sc, nil
}

func validate(cfg *Config) error {
	if cfg.Schedule == "" && cfg.Interval <= 0 {
		return errors.New("either schedule or a positive interval is required")
	}
	if cfg.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive, got %v", cfg.HTTP.Timeout)
	}
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}

	switch cfg.Storage.Backend {
	case "local":
	case "minio":
		if cfg.Storage.Endpoint == "" {
			return errors.New("storage.endpoint is required when backend is \"minio\"")
		}
	default:
		return fmt.Errorf("storage.backend must be \"minio\" or \"local\", got %q", cfg.Storage.Backend)
	}

	switch cfg.State.CursorBackend {
	case "blob", "sqlite":
	default:
		return fmt.Errorf("state.cursor_backend must be \"blob\" or \"sqlite\", got %q", cfg.State.CursorBackend)
	}

	switch cfg.Stream.Type {
	case "none":
		if cfg.Stream.PublishOnIngest {
			return errors.New("stream.publish_on_ingest requires a stream type")
		}
	case "redis":
		if cfg.Stream.Redis.Addr == "" {
			return errors.New("stream.redis.addr is required when type is \"redis\"")
		}
	case "lmstfy":
		if cfg.Stream.Lmstfy.Host == "" || cfg.Stream.Lmstfy.Namespace == "" {
			return errors.New("stream.lmstfy.host and namespace are required when type is \"lmstfy\"")
		}
	default:
		return fmt.Errorf("stream.type must be \"none\", \"redis\" or \"lmstfy\", got %q", cfg.Stream.Type)
	}
	if cfg.Stream.Type != "none" && cfg.Stream.Topic == "" {
		return errors.New("stream.topic is required when a stream is configured")
	}
	if cfg.Stream.MaxMessageBytes < 0 {
		return fmt.Errorf("stream.max_message_bytes must not be negative, got %d", cfg.Stream.MaxMessageBytes)
	}

	if cfg.Warehouse.Enabled && cfg.Warehouse.DSN == "" {
		return errors.New("warehouse.dsn is required when warehouse is enabled")
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}
	switch cfg.Notification.NotifyOn {
	case "failure", "always":
	default:
		return fmt.Errorf("notification.notify_on must be \"failure\" or \"always\", got %q", cfg.Notification.NotifyOn)
	}

	enabled := 0
	names := make(map[string]bool)
	for _, s := range cfg.Sources {
		if err := validateSource(s); err != nil {
			return err
		}
		if names[s.Name] {
			return fmt.Errorf("duplicate source name %q", s.Name)
		}
		names[s.Name] = true
		if s.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return errors.New("at least one source must be enabled")
	}
	return nil
}

func validateSource(s SourceConfig) error {
	if _, ok := sourceDefaults[s.Kind]; !ok {
		return fmt.Errorf("source %q: kind must be %q or %q, got %q", s.Name, KindSeoul, KindGyeonggi, s.Kind)
	}
	if s.Enabled && s.APIKey == "" {
		return fmt.Errorf("source %q: api_key is required", s.Name)
	}
	if s.ChunkSize <= 0 {
		return fmt.Errorf("source %q: chunk_size must be positive, got %d", s.Name, s.ChunkSize)
	}
	if s.DefaultStart < 1 {
		return fmt.Errorf("source %q: default_start must be >= 1, got %d", s.Name, s.DefaultStart)
	}
	if s.Format != "csv" && s.Format != "json" {
		return fmt.Errorf("source %q: format must be \"csv\" or \"json\", got %q", s.Name, s.Format)
	}
	if s.BlobPathTemplate == "" || s.StatePath == "" || s.ContainerName == "" {
		return fmt.Errorf("source %q: container_name, blob_path_template and state_path must not be empty", s.Name)
	}
	return nil
}

// Source returns the source named name.
func (c *Config) Source(name string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return SourceConfig{}, false
}

func durationOr(s string, def time.Duration, field string) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return d, nil
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

func intOr(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func stringOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
