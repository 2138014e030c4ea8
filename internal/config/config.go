package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures the full configuration surface for the application.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type HTTPConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// RedisConfig configures the run-lease store. An empty address disables
// the lease entirely.
type RedisConfig struct {
	Address      string        `mapstructure:"address"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

// KafkaConfig configures the outcome event stream. No brokers disables
// publishing.
type KafkaConfig struct {
	Brokers      []string `mapstructure:"brokers"`
	ClientID     string   `mapstructure:"client_id"`
	OutcomeTopic string   `mapstructure:"outcome_topic"`
}

type TelemetryConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	ServiceName     string        `mapstructure:"service_name"`
	SampleRatio     float64       `mapstructure:"sample_ratio"`
	TracingEnabled  bool          `mapstructure:"tracing_enabled"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DispatchConfig drives the dispatch run itself.
type DispatchConfig struct {
	WebhookURL      string        `mapstructure:"webhook_url"`
	BatchSize       int           `mapstructure:"batch_size"`
	PacingInterval  time.Duration `mapstructure:"pacing_interval"`
	DeliveryTimeout time.Duration `mapstructure:"delivery_timeout"`
	LeaseKey        string        `mapstructure:"lease_key"`
	LeaseTTL        time.Duration `mapstructure:"lease_ttl"`
}

// Default knobs for the dispatch run. BatchSize bounds the pending
// entries drained per campaign per invocation.
const (
	DefaultBatchSize       = 5
	DefaultPacingInterval  = time.Second
	DefaultDeliveryTimeout = 10 * time.Second
	DefaultLeaseKey        = "outbound:dispatch:run"
	DefaultLeaseTTL        = 2 * time.Minute
)

// Alternative environment variable names for the default webhook
// endpoint. The first one present wins.
var webhookEnvNames = []string{"DISPATCH_WEBHOOK_URL", "WEBHOOK_URL"}

// Load reads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvPrefix("OUTBOUND")
	v.SetEnvKeyReplacer(NewEnvReplacer())

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file: %w", err)
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal config: %w", err)
	}

	cfg.Dispatch = normalizeDispatch(cfg.Dispatch)

	return cfg, nil
}

// NewEnvReplacer standardizes environment variable names.
func NewEnvReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_", "-", "_")
}

func normalizeDispatch(d DispatchConfig) DispatchConfig {
	if d.WebhookURL == "" {
		d.WebhookURL = webhookFromEnv()
	}
	if d.BatchSize <= 0 {
		d.BatchSize = DefaultBatchSize
	}
	if d.PacingInterval <= 0 {
		d.PacingInterval = DefaultPacingInterval
	}
	if d.DeliveryTimeout <= 0 {
		d.DeliveryTimeout = DefaultDeliveryTimeout
	}
	if d.LeaseKey == "" {
		d.LeaseKey = DefaultLeaseKey
	}
	if d.LeaseTTL <= 0 {
		d.LeaseTTL = DefaultLeaseTTL
	}
	return d
}

func webhookFromEnv() string {
	for _, name := range webhookEnvNames {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}
